// Package engine is the low-level transfer engine behind the transport.
//
// A [Handle] is configured through option setters (target URL, header
// list, method-specific behavior) and three callbacks: one receiving
// each response header line, one receiving response body chunks, and
// one producing outbound body bytes. [Handle.Perform] then runs the
// whole exchange as a single blocking call, invoking the callbacks
// synchronously as data moves.
//
// The engine owns connection setup and teardown, request framing,
// chunked transfer decoding/encoding and the automatic
// "Expect: 100-continue" handshake. It does not pool or reuse
// connections; every transfer dials fresh and closes when done.
package engine
