package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thinclient/internal/config"
	"github.com/vango-dev/thinclient/internal/errors"
	"github.com/vango-dev/thinclient/pkg/client"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	faultPolicy string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "thinclient",
		Short: "Remote-rendering thin client",
		Long: `thinclient keeps a live tree in sync with a remote renderer.

The server sends batches of patches over a WebSocket; the client applies
them in order and sends user interactions back as event messages.

Commands:
  • connect  run a live session against an endpoint
  • apply    apply batch files offline and print the resulting HTML
  • replay   rebuild a tree from a session journal`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.ConfigFileName, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&opts.faultPolicy, "fault-policy", "", "What to do after a patch fault: halt or continue")

	rootCmd.AddCommand(
		connectCmd(opts),
		applyCmd(opts),
		replayCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file (if any), applies THINCLIENT_*
// variables, then global flags, then command overrides, and validates
// the result.
func (o *globalOptions) loadConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadOptional(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.faultPolicy != "" {
		cfg.FaultPolicy = o.faultPolicy
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// sessionConfig maps file configuration onto a client.SessionConfig.
func sessionConfig(cfg *config.Config, id string, logger *slog.Logger) (client.SessionConfig, error) {
	policy, err := client.ParseFaultPolicy(cfg.FaultPolicy)
	if err != nil {
		return client.SessionConfig{}, errors.New("T022").
			WithField("faultPolicy", cfg.FaultPolicy).
			Wrap(err)
	}
	return client.SessionConfig{
		ID:           id,
		RootTag:      cfg.RootTag,
		KeyAttribute: cfg.KeyAttribute,
		FaultPolicy:  policy,
		Logger:       logger,
	}, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
