package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thinclient/internal/config"
	"github.com/vango-dev/thinclient/internal/errors"
	"github.com/vango-dev/thinclient/pkg/client"
	"github.com/vango-dev/thinclient/pkg/journal"
	"github.com/vango-dev/thinclient/pkg/protocol"
)

type replayOptions struct {
	journalPath string
	session     string
	list        bool
	events      bool
	until       uint64
	pretty      bool
}

// errReplayStop ends a replay early once --until is reached.
var errReplayStop = stderrors.New("replay: stop")

func replayCmd(global *globalOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a tree from a session journal",
		Long: `Replay the batches recorded for a session and print the resulting tree.

Batches are applied exactly as received. Faulted batches are reported
and replay continues; an undecodable batch ends the replay, as it ended
the live session.

Examples:
  thinclient replay --journal session.db --list
  thinclient replay --journal session.db --session 01J... --until 42
  thinclient replay --journal session.db --events`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(func(c *config.Config) {
				if opts.journalPath != "" {
					c.Journal.Path = opts.journalPath
				}
			})
			if err != nil {
				return err
			}
			if cfg.Journal.Path == "" {
				return errors.New("T050").
					WithDetail("No journal given").
					WithSuggestion("Pass --journal or set journal.path in the config file")
			}

			j, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return errors.New("T030").WithField("path", cfg.Journal.Path).Wrap(err)
			}
			defer j.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if opts.list {
				return listSessions(ctx, cmd.OutOrStdout(), j)
			}
			return runReplay(ctx, cmd, cfg, j, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.journalPath, "journal", "j", "", "SQLite journal file")
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "Session to replay (default: latest)")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "List recorded sessions")
	cmd.Flags().BoolVar(&opts.events, "events", false, "Print the events sent during the session instead of the tree")
	cmd.Flags().Uint64Var(&opts.until, "until", 0, "Stop after this batch sequence number")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent printed HTML")

	return cmd
}

func listSessions(ctx context.Context, w io.Writer, j *journal.Journal) error {
	sessions, err := j.Sessions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tROOT\tBATCHES\tFAULTS")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			s.ID, s.StartedAt.Format(time.RFC3339), s.RootTag, s.Batches, s.Faults)
	}
	return tw.Flush()
}

func findSession(ctx context.Context, j *journal.Journal, id string) (journal.SessionInfo, error) {
	var (
		info journal.SessionInfo
		err  error
	)
	if id == "" {
		info, err = j.LatestSession(ctx)
	} else {
		info, err = j.Session(ctx, id)
	}
	if stderrors.Is(err, journal.ErrNoSession) {
		e := errors.New("T032")
		if id != "" {
			e = e.WithField("session", id)
		}
		return info, e.Wrap(err)
	}
	return info, err
}

func runReplay(ctx context.Context, cmd *cobra.Command, cfg *config.Config, j *journal.Journal, opts *replayOptions) error {
	info, err := findSession(ctx, j, opts.session)
	if err != nil {
		return err
	}

	if opts.events {
		return printEvents(ctx, cmd.OutOrStdout(), j, info.ID)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	scfg, err := sessionConfig(cfg, info.ID, logger)
	if err != nil {
		return err
	}
	if info.RootTag != "" {
		scfg.RootTag = info.RootTag
	}
	sess := client.NewSession(scfg, nil)

	n, err := j.Replay(ctx, info.ID, func(b protocol.Batch) error {
		if opts.until > 0 && b.Seq > opts.until {
			return errReplayStop
		}
		err := sess.HandleBatch(ctx, b)
		if err == nil {
			return nil
		}
		if client.IsDecodeFault(err) {
			return errors.New("T001").
				WithField("session", info.ID).
				WithField("seq", fmt.Sprint(b.Seq)).
				Wrap(err)
		}
		warn(cmd.ErrOrStderr(), "%s", batchFault(err).Error())
		return nil
	})
	if err != nil && !stderrors.Is(err, errReplayStop) {
		return err
	}

	success(cmd.ErrOrStderr(), "Replayed %d batches of session %s", n, info.ID)
	return printDocument(cmd.OutOrStdout(), sess.Document(), opts.pretty)
}

func printEvents(ctx context.Context, w io.Writer, j *journal.Journal, sessionID string) error {
	events, err := j.Events(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, rec := range events {
		data, err := protocol.EncodeEvent(&rec.Event)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", rec.SentAt.Format(time.RFC3339Nano), data)
	}
	return nil
}
