// Package vtest provides testing helpers for the thin client.
//
// Server is an in-process WebSocket server that plays the remote side of
// a session: tests push patch batches to the client and read back the
// event messages it sends.
//
//	srv := vtest.NewServer(t)
//	c, _ := transport.Dial(ctx, srv.Endpoint("s1"), transport.DefaultConfig(), nil)
//	conn := srv.Accept(t)
//	conn.SendPatches(t, protocol.NewReplaceTextPatch(nil, "hi"))
//	ev := conn.NextEvent(t)
//
// # Diffing
//
// Diff computes the patches a remote renderer would send to move the
// mount content from one description to another; SendDiff sends them:
//
//	conn.SendDiff(t, []*vdom.VNode{vdom.P("hi")}, []*vdom.VNode{vdom.P("bye")})
//
// # Render Assertions
//
// Assert on the rendered HTML of a live tree:
//
//	vtest.ExpectContains(t, doc.Root(), "Welcome")
//	vtest.ExpectAttribute(t, doc.Root(), "class", "active")
package vtest
