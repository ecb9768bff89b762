// Package transport carries patch batches and event messages over a
// WebSocket connection.
//
// A Client is one scoped connection for one session. Inbound text
// messages are decoded into batches and handed to the OnBatch callback in
// arrival order, one at a time. Outbound events are queued and written by
// a single writer goroutine, so SendEvent never blocks the UI.
//
//	c, err := transport.Dial(ctx, endpoint, transport.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	c.OnBatch(func(b protocol.Batch) error { return src.Push(ctx, b) })
//	err = c.Run(ctx)
package transport
