// Package transport executes abstract HTTP requests through the
// transfer engine and reconstructs structured responses from the raw
// bytes it delivers.
//
// One [Transport.Send] call is one exchange: a fresh session configures
// an engine handle, the engine runs the transfer while the session's
// callbacks incrementally parse the status line and headers and
// accumulate the body, and the finished session is attached to the
// response as its body stream. The response therefore keeps the
// session (and the buffers the body reads from) alive until the caller
// is done with it.
package transport
