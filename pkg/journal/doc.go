// Package journal records session traffic to a SQLite database so a
// session can be replayed offline.
//
// Every inbound batch is stored with its raw message, sequence number and
// outcome; every outbound event is stored with its handler key and
// arguments. Replay feeds the recorded batches, in order, to a fresh
// session to reproduce the live tree a fault was observed on.
package journal
