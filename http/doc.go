// Package http holds the message model exchanged through the transport:
// the outbound request description and the raw response reconstructed
// from the wire.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
