// Package client is the core of the thin client: it turns VNodes into live
// nodes, applies patch batches to the live tree, and forwards user
// interactions to the server.
//
// A Session owns one Document, one Materializer and one Applier. Every
// batch application and every interaction handler runs on the session's
// single loop, so the live tree has exactly one writer and is never
// observed mid-batch.
//
//	sess := client.NewSession(client.SessionConfig{}, sender)
//	err := sess.Run(ctx, source)
//
// Patches address nodes by child-index paths, resolved against the tree as
// it is at the moment each patch runs. Paths that leave the tree produce a
// PatchFault wrapping a *dom.ResolveError; what happens to the rest of the
// batch is decided by the session's FaultPolicy.
package client
