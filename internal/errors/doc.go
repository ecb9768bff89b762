// Package errors provides structured, actionable error messages for the
// thin client's command-line surface.
//
// Library packages report faults with typed errors (protocol.DecodeError,
// dom.ResolveError, client.BatchError). When those reach a user, the CLI
// wraps them in a coded *Error that explains what went wrong and what to
// do about it.
//
// # Error Categories
//
//   - protocol: inbound messages that do not match the wire format
//   - desync: the server's tree shape diverged from the live tree
//   - transport: connection failures
//   - config: configuration file and flag errors
//   - journal, snapshot: diagnostic storage failures
//   - cli: command usage errors
//
// # Usage
//
//	err := errors.New("T002").
//	    WithField("path", "[0 3]").
//	    WithSuggestion("Restart the session to get a fresh tree").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR T002: Patch path out of bounds
//	//
//	//   path: [0 3]
//	//
//	//   Hint: Restart the session to get a fresh tree
package errors
