// Package enginetest provides an in-memory fake peer for engine and
// transport tests: a [Dialer] that hands the engine one side of a
// [net.Pipe] and runs a server function on the other.
package enginetest

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"httpwire/engine"

	"github.com/pkg/errors"
)

type Dialer struct {
	// Serve runs on the server side of every dialed pipe.
	// It should close the connection when done.
	Serve func(conn *ServerConn)

	mu    sync.Mutex
	wg    sync.WaitGroup
	dials int
}

var _ engine.ConnDialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, addr engine.Addr) (net.Conn, error) {
	client, server := net.Pipe()

	d.mu.Lock()
	d.dials++
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Serve(NewServerConn(server))
	}()

	return client, nil
}

// Dials reports how many connections were handed out.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Wait blocks until every server goroutine has finished.
func (d *Dialer) Wait() { d.wg.Wait() }

// ServerConn is the fake server's view of one connection.
type ServerConn struct {
	net.Conn
	br *bufio.Reader
}

func NewServerConn(c net.Conn) *ServerConn {
	return &ServerConn{Conn: c, br: bufio.NewReader(c)}
}

// Request is a wire-level capture of what the engine sent.
type Request struct {
	Head []byte // request line + headers + blank line
	Body []byte
}

// Line returns the request line without its terminator.
func (r *Request) Line() string {
	line, _, _ := bytes.Cut(r.Head, []byte("\r\n"))
	return string(line)
}

// HasHeader reports whether the head contains a header line starting
// with prefix (case-insensitive).
func (r *Request) HasHeader(prefix string) bool {
	re := regexp.MustCompile(`(?im)^` + regexp.QuoteMeta(prefix))
	return re.Match(r.Head)
}

// ReadRequest consumes one full request: head and body in one go.
// For exchanges where the body arrives separately (Expect handshakes),
// use [ServerConn.ReadHead] and [ServerConn.ReadBody].
func (sc *ServerConn) ReadRequest() (*Request, error) {
	head, err := sc.ReadHead()
	if err != nil {
		return nil, err
	}

	body, err := sc.ReadBody(head)
	if err != nil {
		return nil, err
	}

	return &Request{Head: head, Body: body}, nil
}

// ReadHead consumes the request line and headers, terminator included.
func (sc *ServerConn) ReadHead() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for {
		line, err := sc.br.ReadBytes('\n')
		if err != nil {
			return nil, errors.Wrap(err, "reading head line")
		}
		buf.Write(line)
		if bytes.Equal(line, []byte("\r\n")) {
			return buf.Bytes(), nil
		}
	}
}

// ReadBody consumes the request body as framed by the given head.
func (sc *ServerConn) ReadBody(head []byte) ([]byte, error) {
	if isChunked(head) {
		body, err := sc.readChunkedBody()
		return body, errors.Wrap(err, "reading chunked body")
	}

	n := contentLength(head)
	if n == 0 {
		return nil, nil
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(sc.br, body); err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	return body, nil
}

// WriteString writes s to the engine side.
func (sc *ServerConn) WriteString(s string) error {
	_, err := io.WriteString(sc.Conn, s)
	return err
}

var (
	contentLengthRe = regexp.MustCompile(`(?im)^content-length:\s*(\d+)\r?$`)
	chunkedRe       = regexp.MustCompile(`(?im)^transfer-encoding:.*chunked`)
)

func contentLength(head []byte) int {
	m := contentLengthRe.FindSubmatch(head)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(string(m[1]))
	return n
}

func isChunked(head []byte) bool { return chunkedRe.Match(head) }

func (sc *ServerConn) readChunkedBody() ([]byte, error) {
	body := bytes.NewBuffer(nil)
	for {
		sizeLine, err := sc.br.ReadString('\n')
		if err != nil {
			return nil, err
		}

		size, err := strconv.ParseUint(strings.TrimRight(sizeLine, "\r\n"), 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad chunk size line %q", sizeLine)
		}

		if size == 0 {
			// Trailer section.
			for {
				line, err := sc.br.ReadBytes('\n')
				if err != nil {
					return nil, err
				}
				if bytes.Equal(line, []byte("\r\n")) {
					return body.Bytes(), nil
				}
			}
		}

		chunk := make([]byte, size+2) // data + CRLF
		if _, err := io.ReadFull(sc.br, chunk); err != nil {
			return nil, err
		}
		body.Write(chunk[:size])
	}
}
