package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/vdom"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, b protocol.Batch) error {
				order = append(order, name+">")
				err := next(ctx, b)
				order = append(order, "<"+name)
				return err
			}
		}
	}

	h := Chain(mark("a"), nil, mark("b"))(func(context.Context, protocol.Batch) error {
		order = append(order, "handler")
		return nil
	})
	if err := h(context.Background(), protocol.Batch{}); err != nil {
		t.Fatal(err)
	}

	want := "a> b> handler <b <a"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestSessionIDContext(t *testing.T) {
	if SessionID(context.Background()) != "" {
		t.Error("empty context should have no session ID")
	}
	ctx := WithSessionID(context.Background(), "01HX")
	if SessionID(ctx) != "01HX" {
		t.Errorf("SessionID() = %q", SessionID(ctx))
	}
}

func TestClassify(t *testing.T) {
	resolveErr := &dom.ResolveError{Path: vdom.Path{3}, Index: 3, Len: 1}
	_, decodeErr := protocol.DecodeBatch([]byte(`{}`))

	tests := []struct {
		err  error
		want string
	}{
		{nil, FaultNone},
		{resolveErr, FaultDesync},
		{fmt.Errorf("batch: %w", resolveErr), FaultDesync},
		{decodeErr, FaultDecode},
		{errors.New("boom"), FaultInternal},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithSessionID(context.Background(), "sess-1")

	ok := Logging(logger)(func(context.Context, protocol.Batch) error { return nil })
	_ = ok(ctx, protocol.Batch{Seq: 4})
	if !strings.Contains(buf.String(), "batch applied") || !strings.Contains(buf.String(), "session_id=sess-1") {
		t.Errorf("log = %q", buf.String())
	}

	buf.Reset()
	wantErr := &dom.ResolveError{Path: vdom.Path{9}, Index: 9}
	bad := Logging(logger)(func(context.Context, protocol.Batch) error { return wantErr })
	if err := bad(ctx, protocol.Batch{Seq: 5}); err != wantErr {
		t.Errorf("error = %v, want passthrough", err)
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "fault=desync") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Recover(logger)(func(context.Context, protocol.Batch) error {
		panic("kaboom")
	})
	err := h(context.Background(), protocol.Batch{Seq: 2})
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("error = %v, want recovered panic", err)
	}
	if !strings.Contains(buf.String(), "batch panic") {
		t.Errorf("log = %q", buf.String())
	}
}
