package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/thinclient/internal/config"
	"github.com/vango-dev/thinclient/internal/errors"
	"github.com/vango-dev/thinclient/pkg/client"
	"github.com/vango-dev/thinclient/pkg/journal"
	"github.com/vango-dev/thinclient/pkg/middleware"
	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/render"
	"github.com/vango-dev/thinclient/pkg/snapshot"
	"github.com/vango-dev/thinclient/pkg/transport"
)

type connectOptions struct {
	endpoint       string
	base           string
	session        string
	journalPath    string
	snapshotDir    string
	snapshotBucket string
	metricsAddr    string
	print          bool
	pretty         bool
	interactive    bool
}

func connectCmd(global *globalOptions) *cobra.Command {
	opts := &connectOptions{}

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Run a live session against a remote renderer",
		Long: `Connect to a session endpoint and keep the live tree in sync.

Patches are applied as they arrive. With --interactive, lines read from
stdin are dispatched as user interactions:

  <event> <path> [value]

where path is a dot-separated child index path ("/" for the root), e.g.

  click 0.1
  input 0.0 hello world

Examples:
  thinclient connect --endpoint ws://localhost:8080/ws/abc
  thinclient connect --base http://localhost:8080 --session abc --print
  thinclient connect --journal session.db --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(opts.apply)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runConnect(ctx, cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.endpoint, "endpoint", "e", "", "WebSocket endpoint URL")
	cmd.Flags().StringVar(&opts.base, "base", "", "Server base URL, combined with --session")
	cmd.Flags().StringVar(&opts.session, "session", "", "Session ID (generated when omitted)")
	cmd.Flags().StringVar(&opts.journalPath, "journal", "", "Record batches and events to this SQLite file")
	cmd.Flags().StringVar(&opts.snapshotDir, "snapshot-dir", "", "Directory for desync snapshots")
	cmd.Flags().StringVar(&opts.snapshotBucket, "snapshot-bucket", "", "S3 bucket for desync snapshots")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVarP(&opts.print, "print", "p", false, "Print the tree as HTML after every batch")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent printed HTML")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Read interactions from stdin")

	return cmd
}

// apply lets flags override the loaded configuration.
func (o *connectOptions) apply(cfg *config.Config) {
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.journalPath != "" {
		cfg.Journal.Path = o.journalPath
	}
	if o.snapshotDir != "" {
		cfg.Snapshot.Dir = o.snapshotDir
	}
	if o.snapshotBucket != "" {
		cfg.Snapshot.Bucket = o.snapshotBucket
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
}

// resolveEndpoint returns the URL to dial and the session ID to use.
func (o *connectOptions) resolveEndpoint(cfg *config.Config) (endpoint, sessionID string, err error) {
	sessionID = o.session
	if sessionID == "" {
		sessionID = client.NewSessionID()
	}
	if o.base == "" {
		return cfg.Endpoint, sessionID, nil
	}
	endpoint, err = transport.Endpoint(o.base, sessionID)
	if err != nil {
		return "", "", errors.New("T050").WithField("base", o.base).Wrap(err)
	}
	return endpoint, sessionID, nil
}

func runConnect(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *connectOptions) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	endpoint, sessionID, err := opts.resolveEndpoint(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(
		middleware.WithNamespace(cfg.Metrics.Namespace),
		middleware.WithRegistry(reg),
	)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer shutdown(srv)
	}

	sessionOpts := []client.SessionOption{
		client.WithEventObserver(func(handler string, err error) {
			metrics.RecordEvent(err)
			if stderrors.Is(err, transport.ErrSendQueueFull) {
				logger.Warn(errors.New("T012").WithField("handler", handler).FormatCompact())
			}
		}),
		client.WithFaultHandler(func(err error) {
			if client.IsDecodeFault(err) {
				metrics.RecordFault(err)
			}
		}),
	}

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return errors.New("T030").WithField("path", cfg.Journal.Path).Wrap(err)
		}
		defer j.Close()
		if err := j.StartSession(ctx, sessionID, cfg.RootTag); err != nil {
			return errors.New("T031").WithField("session", sessionID).Wrap(err)
		}
		sessionOpts = append(sessionOpts, client.WithJournal(j))
	}

	store, err := snapshotStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		sessionOpts = append(sessionOpts, client.WithSnapshots(store))
	}

	tc, err := transport.Dial(ctx, endpoint, transportConfig(cfg), logger)
	if err != nil {
		return errors.New("T010").WithField("endpoint", endpoint).Wrap(err)
	}
	defer tc.Close()

	scfg, err := sessionConfig(cfg, sessionID, logger)
	if err != nil {
		return err
	}

	var sess *client.Session
	mws := []middleware.Middleware{
		middleware.Recover(logger),
		middleware.OpenTelemetry(),
		middleware.Logging(logger),
		metrics.Middleware(),
	}
	if opts.print {
		mws = append(mws, printTree(cmd.OutOrStdout(), opts.pretty, func() *client.Session { return sess }))
	}
	sessionOpts = append(sessionOpts, client.WithMiddleware(mws...))
	sess = client.NewSession(scfg, tc, sessionOpts...)

	src := client.NewChanSource(0)
	tc.OnBatch(func(b protocol.Batch) error {
		return src.Push(ctx, b)
	})
	tc.OnSendError(func(handler string, err error) {
		logger.Warn("event write failed", "handler", handler, "error", err)
	})
	go func() {
		src.Close(tc.Run(ctx))
	}()

	if opts.interactive {
		go readInteractions(ctx, cmd.InOrStdin(), sess, cmd.ErrOrStderr())
	}

	success(cmd.ErrOrStderr(), "Connected to %s (session %s)", endpoint, sess.ID())
	return connectError(sess.Run(ctx, src), endpoint)
}

// connectError maps the end of a live session onto a user-facing error.
// Interrupts and normal closes are not errors.
func connectError(err error, endpoint string) error {
	switch {
	case err == nil, stderrors.Is(err, context.Canceled):
		return nil
	case client.IsDecodeFault(err):
		return errors.New("T001").Wrap(err)
	default:
		return errors.New("T011").WithField("endpoint", endpoint).Wrap(err)
	}
}

func transportConfig(cfg *config.Config) transport.Config {
	tcfg := transport.DefaultConfig()
	if d := cfg.HandshakeTimeout(); d > 0 {
		tcfg.HandshakeTimeout = d
	}
	if d := cfg.WriteTimeout(); d > 0 {
		tcfg.WriteTimeout = d
	}
	if d := cfg.PingInterval(); d != 0 {
		tcfg.PingInterval = d
	}
	if cfg.Transport.SendQueue > 0 {
		tcfg.SendQueue = cfg.Transport.SendQueue
	}
	if cfg.Transport.ReadLimit > 0 {
		tcfg.ReadLimit = cfg.Transport.ReadLimit
	}
	return tcfg
}

// snapshotStore returns the configured desync snapshot store, or nil
// when snapshots are disabled. A bucket takes precedence over a
// directory.
func snapshotStore(cfg *config.Config) (client.SnapshotStore, error) {
	switch {
	case cfg.Snapshot.Bucket != "":
		s3c := snapshot.NewS3Client(cfg.Snapshot.Region, cfg.Snapshot.Endpoint)
		return snapshot.NewS3Store(s3c, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	case cfg.Snapshot.Dir != "":
		fs, err := snapshot.NewFileStore(cfg.Snapshot.Dir)
		if err != nil {
			return nil, errors.New("T040").WithField("dir", cfg.Snapshot.Dir).Wrap(err)
		}
		return fs, nil
	}
	return nil, nil
}

// printTree renders the live tree after every batch, faulted or not.
func printTree(w io.Writer, pretty bool, session func() *client.Session) middleware.Middleware {
	r := render.NewRenderer(render.RendererConfig{Pretty: pretty, LiveValues: true})
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, b protocol.Batch) error {
			err := next(ctx, b)
			html, rerr := r.RenderToString(session().Document().Root())
			if rerr != nil {
				return stderrors.Join(err, rerr)
			}
			fmt.Fprintf(w, "<!-- batch %d -->\n%s\n", b.Seq, html)
			return err
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
