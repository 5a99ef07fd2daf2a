// Package rule holds shared pieces of the HTTP/1.1 message grammar.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2
package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

var CRLF = []byte{CR, LF}

// IsOWS reports whether c is optional whitespace allowed around field
// values.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.3
func IsOWS(c byte) bool { return c == SP || c == HTAB }
