package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

// Logging logs every batch at debug level and faulted batches at warn.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, b protocol.Batch) error {
			start := time.Now()
			err := next(ctx, b)

			attrs := []any{
				"session_id", SessionID(ctx),
				"seq", b.Seq,
				"patches", len(b.Patches),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.WarnContext(ctx, "batch faulted",
					append(attrs, "fault", Classify(err), "error", err)...)
				return err
			}
			logger.DebugContext(ctx, "batch applied", attrs...)
			return nil
		}
	}
}

// Recover turns a panic inside the chain into an error so one bad batch
// cannot take the process down.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, b protocol.Batch) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "batch panic",
						"session_id", SessionID(ctx),
						"seq", b.Seq,
						"panic", r,
						"stack", string(debug.Stack()))
					err = fmt.Errorf("middleware: panic applying batch %d: %v", b.Seq, r)
				}
			}()
			return next(ctx, b)
		}
	}
}
