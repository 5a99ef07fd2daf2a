package transport

import (
	"bytes"
	"strconv"

	"httpwire/http"
	"httpwire/util/rule"

	"github.com/pkg/errors"
)

var (
	ErrMalformedStatusLine = errors.New("status line is malformed")
	ErrMalformedHeader     = errors.New("header has no ':' delimiter")
)

// nextToken returns the bytes before the first occurrence of sep and
// the remainder after it. A missing separator is a malformed input,
// never a silent truncation.
func nextToken(b []byte, sep byte) (token, rest []byte, err error) {
	token, rest, found := bytes.Cut(b, []byte{sep})
	if !found {
		return nil, nil, errors.Wrapf(ErrMalformedStatusLine, "separator %q not found in %q", sep, b)
	}
	return token, rest, nil
}

// nextInt is [nextToken] with an integer conversion applied.
func nextInt(b []byte, sep byte) (int, []byte, error) {
	token, rest, err := nextToken(b, sep)
	if err != nil {
		return 0, nil, err
	}

	n, err := strconv.Atoi(string(token))
	if err != nil {
		return 0, nil, errors.Wrapf(ErrMalformedStatusLine, "token %q is not numeric", token)
	}
	return n, rest, nil
}

// "HTTP" before the '/'.
const httpWordLen = 4

// createStatusLine materializes a response record from a status line
// like "HTTP/1.1 200 OK\r\n". Unrecognized-but-numeric status codes
// construct fine.
func createStatusLine(line []byte) (*http.RawResponse, error) {
	if len(line) <= httpWordLen+1 || !bytes.HasPrefix(line, []byte("HTTP/")) {
		return nil, errors.Wrapf(ErrMalformedStatusLine, "missing protocol prefix in %q", line)
	}

	rest := line[httpWordLen+1:]

	major, rest, err := nextInt(rest, '.')
	if err != nil {
		return nil, errors.Wrap(err, "parsing major version")
	}
	minor, rest, err := nextInt(rest, rule.SP)
	if err != nil {
		return nil, errors.Wrap(err, "parsing minor version")
	}
	code, rest, err := nextInt(rest, rule.SP)
	if err != nil {
		return nil, errors.Wrap(err, "parsing status code")
	}
	reason, _, err := nextToken(rest, rule.CR)
	if err != nil {
		return nil, errors.Wrap(err, "parsing reason phrase")
	}

	if major < 0 || minor < 0 {
		return nil, errors.Wrapf(ErrMalformedStatusLine, "negative version in %q", line)
	}

	return http.NewRawResponse(
		uint(major), uint(minor), http.StatusCode(code), string(reason),
	), nil
}

// applyHeaderLine stores one raw header line into the response. The
// bare CRLF terminator line is the end-of-headers signal and a no-op.
// Names are lowercased on storage; values lose leading optional
// whitespace and the trailing CR.
func applyHeaderLine(res *http.RawResponse, line []byte) error {
	if bytes.Equal(line, rule.CRLF) {
		return nil
	}

	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return errors.Wrapf(ErrMalformedHeader, "in line %q", line)
	}

	for len(value) > 0 && rule.IsOWS(value[0]) {
		value = value[1:]
	}
	value = bytes.TrimRight(value, "\r\n")

	res.SetHeader(string(name), string(value))
	return nil
}
