package transport

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/vdom"
	"github.com/vango-dev/thinclient/pkg/vtest"
)

func dialTest(t *testing.T, srv *vtest.Server, config Config) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, srv.Endpoint("s1"), config, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestBatchesArriveInOrder(t *testing.T) {
	srv := vtest.NewServer(t)
	c := dialTest(t, srv, Config{})
	conn := srv.Accept(t)

	var got []protocol.Batch
	c.OnBatch(func(b protocol.Batch) error {
		got = append(got, b)
		return nil
	})

	conn.SendPatches(t, protocol.NewReplaceTextPatch(vdom.Path{}, "one"))
	conn.SendPatches(t,
		protocol.NewAddNodePatch(vdom.Path{}, vdom.Div()),
		protocol.NewSetAttributePatch(vdom.Path{0}, "class", "x"),
	)
	if err := conn.CloseNormal(); err != nil {
		t.Fatal(err)
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil on normal close", err)
	}
	if len(got) != 2 {
		t.Fatalf("batches = %d, want 2", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("seqs = %d, %d", got[0].Seq, got[1].Seq)
	}
	if len(got[1].Patches) != 2 || got[1].Patches[1].Op() != protocol.OpSetAttribute {
		t.Errorf("second batch = %+v", got[1].Patches)
	}
	if len(got[0].Raw) == 0 {
		t.Error("raw message not kept")
	}
}

func TestDecodeErrorEndsRun(t *testing.T) {
	srv := vtest.NewServer(t)
	c := dialTest(t, srv, Config{})
	conn := srv.Accept(t)

	var got []protocol.Batch
	c.OnBatch(func(b protocol.Batch) error { got = append(got, b); return nil })

	conn.SendRaw(t, []byte(`[["add_node", [], ["p", {}, []]]]`))
	conn.SendRaw(t, []byte(`[["teleport", [0], null]]`))

	err := c.Run(context.Background())
	var de *protocol.DecodeError
	if !errors.As(err, &de) || !errors.Is(err, protocol.ErrDecode) {
		t.Fatalf("Run() = %v, want *protocol.DecodeError", err)
	}
	if len(got) != 2 {
		t.Fatalf("handler calls = %d, want 2", len(got))
	}
	bad := got[1]
	if bad.Seq != 2 || bad.Patches != nil || string(bad.Raw) != `[["teleport", [0], null]]` {
		t.Errorf("undecodable batch = seq %d patches %v raw %s", bad.Seq, bad.Patches, bad.Raw)
	}
}

func TestHandlerErrorEndsRun(t *testing.T) {
	srv := vtest.NewServer(t)
	c := dialTest(t, srv, Config{})
	conn := srv.Accept(t)

	stop := errors.New("stop")
	c.OnBatch(func(protocol.Batch) error { return stop })
	conn.SendPatches(t, protocol.NewReplaceTextPatch(nil, "x"))

	if err := c.Run(context.Background()); !errors.Is(err, stop) {
		t.Errorf("Run() = %v, want handler error", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := vtest.NewServer(t)
	c := dialTest(t, srv, Config{})
	srv.Accept(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	if err := c.SendEvent("x.click", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SendEvent after close = %v", err)
	}
}

func TestSendEvent(t *testing.T) {
	srv := vtest.NewServer(t)
	c := dialTest(t, srv, Config{})
	conn := srv.Accept(t)

	if err := c.SendEvent("email.input", []any{"a@b"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SendEvent("save.click", []any{nil}); err != nil {
		t.Fatal(err)
	}

	first := conn.NextEvent(t)
	second := conn.NextEvent(t)
	if first.Handler != "email.input" || !reflect.DeepEqual(first.Arguments, []any{"a@b"}) {
		t.Errorf("first = %+v", first)
	}
	if second.Handler != "save.click" || !reflect.DeepEqual(second.Arguments, []any{nil}) {
		t.Errorf("second = %+v", second)
	}
}

func TestSendQueueFull(t *testing.T) {
	c := &Client{
		config: DefaultConfig(),
		logger: discardLogger(),
		sendCh: make(chan outbound, 1),
		done:   make(chan struct{}),
	}

	if err := c.SendEvent("a.click", nil); err != nil {
		t.Fatal(err)
	}
	if err := c.SendEvent("b.click", nil); !errors.Is(err, ErrSendQueueFull) {
		t.Errorf("SendEvent() = %v, want ErrSendQueueFull", err)
	}
}

func TestDialFailure(t *testing.T) {
	srv := vtest.NewServer(t)
	_, err := Dial(context.Background(), srv.BaseURL()+"/nope", Config{}, nil)
	if err == nil {
		t.Fatal("expected dial error for unknown path")
	}
}

func TestDialSendsHeader(t *testing.T) {
	srv := vtest.NewServer(t)
	dialTest(t, srv, Config{Header: http.Header{"Authorization": {"Bearer t"}}})
	if conn := srv.Accept(t); conn.Header.Get("Authorization") != "Bearer t" {
		t.Errorf("header = %v", conn.Header)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base    string
		id      string
		want    string
		wantErr bool
	}{
		{"ws://localhost:4000", "01HX", "ws://localhost:4000/ws/01HX", false},
		{"https://app.example.com/live/", "abc", "wss://app.example.com/live/ws/abc", false},
		{"http://h", "1", "ws://h/ws/1", false},
		{"ftp://h", "1", "", true},
		{"ws://h", "", "", true},
		{"ws://h", "a/b", "", true},
		{"ws:///nohost", "1", "", true},
	}
	for _, tt := range tests {
		got, err := Endpoint(tt.base, tt.id)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Endpoint(%q, %q) = %q, %v; want %q", tt.base, tt.id, got, err, tt.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{PingInterval: -1}.withDefaults()
	d := DefaultConfig()
	if c.HandshakeTimeout != d.HandshakeTimeout || c.WriteTimeout != d.WriteTimeout ||
		c.ReadLimit != d.ReadLimit || c.SendQueue != d.SendQueue {
		t.Errorf("defaults = %+v", c)
	}
	if c.PingInterval != 0 {
		t.Errorf("negative ping interval should disable keepalive, got %v", c.PingInterval)
	}
}
