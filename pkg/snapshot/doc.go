// Package snapshot stores HTML renderings of a live tree for desync
// analysis.
//
// When a patch path leaves the live tree the client and server disagree
// about the tree shape. The session renders what it actually holds and
// saves it under "<session>/<seq>.html" so the divergence can be compared
// with the server's view after the fact.
//
// Two stores are provided: FileStore writes to a local directory and
// S3Store writes to an S3 bucket.
package snapshot
