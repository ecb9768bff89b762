package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thinclient/internal/errors"
	"github.com/vango-dev/thinclient/pkg/client"
	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/render"
)

type applyOptions struct {
	pretty bool
	strict bool
}

func applyCmd(global *globalOptions) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply [files...]",
		Short: "Apply batch files to an empty tree and print the result",
		Long: `Apply recorded batches offline and print the resulting tree as HTML.

Each file holds one or more batches, each a JSON array of patches.
Batches are applied in order, across files in argument order. Use "-"
to read from stdin.

Faulted batches are reported and skipped; with --strict the first fault
ends the command with an error. An undecodable batch always does.

Examples:
  thinclient apply initial.json update.json
  cat batches.jsonl | thinclient apply - --pretty`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			scfg, err := sessionConfig(cfg, "", logger)
			if err != nil {
				return err
			}

			sess := client.NewSession(scfg, nil)
			for _, name := range args {
				if err := applyFile(cmd, sess, name, opts.strict); err != nil {
					return err
				}
			}
			return printDocument(cmd.OutOrStdout(), sess.Document(), opts.pretty)
		},
	}

	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent printed HTML")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on the first faulted batch")

	return cmd
}

// applyFile applies every batch in the named file.
func applyFile(cmd *cobra.Command, sess *client.Session, name string, strict bool) error {
	var r io.Reader
	if name == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return errors.New("T051").WithField("file", name).Wrap(err)
		}
		defer f.Close()
		r = f
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dec := json.NewDecoder(r)
	for n := 1; ; n++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.New("T001").
				WithField("file", name).
				WithField("batch", fmt.Sprint(n)).
				Wrap(err)
		}

		err := sess.HandleBatch(ctx, protocol.Batch{Raw: raw})
		if err == nil {
			continue
		}
		if client.IsDecodeFault(err) {
			return errors.New("T001").
				WithField("file", name).
				WithField("batch", fmt.Sprint(n)).
				Wrap(err)
		}

		fault := batchFault(err).WithField("file", name)
		if strict {
			return fault
		}
		warn(cmd.ErrOrStderr(), "%s", fault.Error())
	}
}

// batchFault describes a faulted batch. A halted batch with dropped
// patches is reported as aborted.
func batchFault(err error) *errors.Error {
	var be *client.BatchError
	stderrors.As(err, &be)

	var e *errors.Error
	switch {
	case be != nil && be.Skipped > 0:
		e = errors.New("T003")
	case stderrors.Is(err, dom.ErrOutOfBounds):
		e = errors.New("T002")
	default:
		e = errors.Newf(errors.CategoryDesync, "Patch could not be applied")
	}
	if be != nil {
		e = e.WithField("seq", fmt.Sprint(be.Seq))
	}
	return e.Wrap(err)
}

func printDocument(w io.Writer, doc *dom.Document, pretty bool) error {
	html, err := render.NewRenderer(render.RendererConfig{Pretty: pretty, LiveValues: true}).
		RenderToString(doc.Root())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, html)
	return err
}
