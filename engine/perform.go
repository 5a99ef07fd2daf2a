package engine

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"httpwire/http"
	iolib "httpwire/lib/io"
	bytesutil "httpwire/util/bytes"
	"httpwire/util/rule"

	"github.com/pkg/errors"
)

var (
	ErrHeaderCallbackAbort = errors.New("header callback did not consume the whole line")
	ErrWriteCallbackAbort  = errors.New("write callback did not consume the whole chunk")
	ErrShortUpload         = errors.New("upload stream ended before the declared length")
)

// transferPlan fixes the wire-level decisions for one Perform call.
type transferPlan struct {
	verb    string
	target  string
	hasBody bool
	bodyLen int64 // -1 means chunked upload
	expect  bool  // send Expect: 100-continue and wait
}

// Perform runs the configured exchange as one blocking call. The
// registered callbacks fire synchronously while it runs. The
// connection is closed before it returns on every path.
func (h *Handle) Perform(ctx context.Context) error {
	if h.url == nil {
		return errors.New("no url configured")
	}
	if h.onHeader == nil {
		return errors.New("no header func configured")
	}
	if h.onBody == nil {
		return errors.New("no write func configured")
	}
	if h.upload && h.onRead == nil {
		return errors.New("upload mode requires a read func")
	}

	plan := h.plan()
	addr := h.remoteAddr()

	dialCtx := ctx
	if h.opts.Timeout.Connect > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, h.opts.Timeout.Connect)
		defer cancel()
	}

	h.logger.Debug("dialing", "addr", addr.String(), "tls", addr.TLS)
	conn, err := h.dialer.Dial(dialCtx, addr)
	if err != nil {
		return errors.Wrap(err, "dialing target")
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	bw := bufio.NewWriter(conn)

	h.setWriteDeadline(conn)
	if err := h.writeRequestHead(bw, plan); err != nil {
		return errors.Wrap(err, "writing request head")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request head")
	}

	var preRead []byte
	sendBody := plan.hasBody
	if plan.expect {
		finalLine, err := h.waitForContinue(conn, br)
		if err != nil {
			return errors.Wrap(err, "waiting for interim response")
		}
		if finalLine != nil {
			// The server rejected the body upfront.
			preRead = finalLine
			sendBody = false
		}
	}

	if sendBody {
		h.setWriteDeadline(conn)
		if err := h.sendBody(bw, plan); err != nil {
			return errors.Wrap(err, "sending request body")
		}
		if err := bw.Flush(); err != nil {
			return errors.Wrap(err, "flushing request body")
		}
	}

	h.setReadDeadline(conn)
	if err := h.readResponse(br, preRead); err != nil {
		return errors.Wrap(err, "reading response")
	}

	h.logger.Debug("transfer complete", "verb", plan.verb, "addr", addr.String())
	return nil
}

func (h *Handle) plan() transferPlan {
	p := transferPlan{target: h.url.RequestURI()}

	switch {
	case h.verb != "":
		p.verb = h.verb
	case h.upload:
		p.verb = "PUT"
	case h.hasPost:
		p.verb = "POST"
	case h.noBody:
		p.verb = "HEAD"
	default:
		p.verb = "GET"
	}

	switch {
	case h.upload:
		p.hasBody = true
		p.bodyLen = -1
		if h.hasUpLen {
			p.bodyLen = h.uploadLen
		}
	case h.hasPost:
		p.hasBody = true
		p.bodyLen = int64(len(h.postFields))
	}

	// An empty-valued Expect entry in the header list suppresses the
	// automatic 100-continue handshake.
	p.expect = p.hasBody && p.bodyLen != 0 &&
		h.opts.Timeout.ExpectContinue > 0 && !h.headers.has("Expect")

	return p
}

func (h *Handle) remoteAddr() Addr {
	addr := Addr{Host: h.url.Hostname(), TLS: h.url.Scheme == "https"}

	switch {
	case h.port != 0:
		addr.Port = h.port
	case h.url.Port() != "":
		p, _ := strconv.ParseUint(h.url.Port(), 10, 16)
		addr.Port = uint16(p)
	case addr.TLS:
		addr.Port = 443
	default:
		addr.Port = 80
	}

	return addr
}

func (h *Handle) writeRequestHead(bw *bufio.Writer, plan transferPlan) error {
	writeLine := func(parts ...string) error {
		for _, p := range parts {
			if _, err := bw.WriteString(p); err != nil {
				return err
			}
		}
		_, err := bw.Write(rule.CRLF)
		return err
	}

	if err := writeLine(plan.verb, " ", plan.target, " HTTP/1.1"); err != nil {
		return errors.Wrap(err, "writing request line")
	}

	for _, e := range h.headers.sendable() {
		if err := writeLine(e.name, ": ", e.value); err != nil {
			return errors.Wrapf(err, "writing header %q", e.name)
		}
	}

	if !h.headers.has("Host") {
		if err := writeLine("Host: ", h.hostHeader()); err != nil {
			return errors.Wrap(err, "writing host header")
		}
	}
	if !h.headers.has("Connection") {
		// No reuse; every transfer owns its connection.
		if err := writeLine("Connection: close"); err != nil {
			return errors.Wrap(err, "writing connection header")
		}
	}

	if plan.hasBody {
		if plan.bodyLen >= 0 && !h.headers.has("Content-Length") {
			n := strconv.FormatInt(plan.bodyLen, 10)
			if err := writeLine("Content-Length: ", n); err != nil {
				return errors.Wrap(err, "writing content-length header")
			}
		}
		if plan.bodyLen < 0 && !h.headers.has("Transfer-Encoding") {
			if err := writeLine("Transfer-Encoding: chunked"); err != nil {
				return errors.Wrap(err, "writing transfer-encoding header")
			}
		}
	}
	if plan.expect {
		if err := writeLine("Expect: 100-continue"); err != nil {
			return errors.Wrap(err, "writing expect header")
		}
	}

	if err := writeLine(); err != nil {
		return errors.Wrap(err, "writing header terminator")
	}
	return nil
}

// hostHeader includes the port only when it differs from the scheme
// default.
func (h *Handle) hostHeader() string {
	addr := h.remoteAddr()

	def := uint16(80)
	if addr.TLS {
		def = 443
	}

	if addr.Port == def {
		return addr.Host
	}
	return addr.String()
}

// waitForContinue blocks until the server sends an interim response or
// the expect timeout elapses. A non-nil finalLine is the status line
// of a final response the server sent instead of "100 Continue"; the
// body must then be skipped.
func (h *Handle) waitForContinue(conn net.Conn, br *bufio.Reader) (finalLine []byte, err error) {
	_ = conn.SetReadDeadline(h.clock.Now().Add(h.opts.Timeout.ExpectContinue))
	defer conn.SetReadDeadline(time.Time{})

	if _, err := br.Peek(1); err != nil {
		if isTimeout(err) {
			// Server stayed silent. Proceed with the body.
			return nil, nil
		}
		return nil, errors.Wrap(err, "peeking for interim response")
	}

	line, err := bytesutil.ReadUntil(br, rule.CRLF)
	if err != nil {
		return nil, errors.Wrap(err, "reading interim status line")
	}

	code, err := statusFromLine(line)
	if err != nil {
		return nil, err
	}

	if code != http.StatusContinue {
		return line, nil
	}

	h.logger.Debug("received 100 continue")
	if err := h.discardHeaderSection(br); err != nil {
		return nil, errors.Wrap(err, "discarding interim header section")
	}
	return nil, nil
}

func (h *Handle) sendBody(bw *bufio.Writer, plan transferPlan) error {
	if h.hasPost {
		if _, err := bw.Write(h.postFields); err != nil {
			return errors.Wrap(err, "writing buffered body")
		}
		return nil
	}

	if plan.bodyLen == 0 {
		// Declared empty. The read callback is never invoked.
		return nil
	}

	buf := make([]byte, h.opts.UploadBufferSize)

	if plan.bodyLen < 0 {
		cw := newChunkedWriter(bw)
		for {
			n, err := h.onRead(buf)
			if err != nil {
				return errors.Wrap(err, "read callback")
			}
			if n == 0 {
				break
			}
			if _, err := cw.Write(buf[:n]); err != nil {
				return err
			}
		}
		return cw.Close()
	}

	remain := plan.bodyLen
	for remain > 0 {
		dst := buf
		if remain < int64(len(dst)) {
			dst = dst[:remain]
		}

		n, err := h.onRead(dst)
		if err != nil {
			return errors.Wrap(err, "read callback")
		}
		if n == 0 {
			return ErrShortUpload
		}
		if n > len(dst) {
			return errors.Errorf("read callback overran the buffer: %d > %d", n, len(dst))
		}

		if _, err := bw.Write(dst[:n]); err != nil {
			return errors.Wrap(err, "writing body")
		}
		remain -= int64(n)
	}
	return nil
}

// responseFraming is the minimal header knowledge the engine itself
// needs to frame the body; full header semantics stay with the
// callback owner.
type responseFraming struct {
	status  http.StatusCode
	chunked bool
	hasLen  bool
	length  uint64
}

func (f *responseFraming) observe(line []byte) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return
	}

	v := strings.TrimFunc(string(value), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})

	switch strings.ToLower(string(name)) {
	case "content-length":
		n, err := strconv.ParseUint(v, 10, 64)
		if err == nil {
			f.hasLen = true
			f.length = n
		}
	case "transfer-encoding":
		f.chunked = strings.Contains(strings.ToLower(v), "chunked")
	}
}

func (f *responseFraming) expectsBody() bool {
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.4.1
	return f.status != http.StatusNoContent && f.status != http.StatusNotModified
}

func (h *Handle) readResponse(br *bufio.Reader, preRead []byte) error {
	framing := responseFraming{}

	line := preRead
	for {
		if line == nil {
			var err error
			line, err = bytesutil.ReadUntil(br, rule.CRLF)
			if err != nil {
				return errors.Wrap(err, "reading status line")
			}
		}

		code, err := statusFromLine(line)
		if err != nil {
			return err
		}

		if code.Informational() {
			// Interim response. Not surfaced to the callbacks.
			h.logger.Debug("skipping interim response", "code", int(code))
			if err := h.discardHeaderSection(br); err != nil {
				return errors.Wrap(err, "discarding interim header section")
			}
			line = nil
			continue
		}

		framing.status = code
		break
	}

	if err := h.deliverHeaderLine(line); err != nil {
		return err
	}

	for {
		line, err := bytesutil.ReadUntil(br, rule.CRLF)
		if err != nil {
			return errors.Wrap(err, "reading header line")
		}

		// The terminator line is delivered too; it is the callback's
		// end-of-headers signal.
		if err := h.deliverHeaderLine(line); err != nil {
			return err
		}

		if bytes.Equal(line, rule.CRLF) {
			break
		}

		framing.observe(line)
	}

	if h.noBody || !framing.expectsBody() {
		return nil
	}

	var body io.Reader = br
	switch {
	case framing.chunked:
		body = newChunkedReader(br)
	case framing.hasLen:
		body = iolib.LimitReader(br, uint(framing.length))
	default:
		// Neither length nor chunked: the body runs until the server
		// closes the connection.
	}

	return h.deliverBody(body)
}

func (h *Handle) deliverHeaderLine(line []byte) error {
	n, err := h.onHeader(line)
	if err != nil {
		return errors.Wrap(err, "header callback")
	}
	if n != len(line) {
		return ErrHeaderCallbackAbort
	}
	return nil
}

func (h *Handle) deliverBody(body io.Reader) error {
	buf := make([]byte, 32<<10)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			consumed, cbErr := h.onBody(buf[:n])
			if cbErr != nil {
				return errors.Wrap(cbErr, "write callback")
			}
			if consumed != n {
				return ErrWriteCallbackAbort
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading response body")
		}
	}
}

func (h *Handle) discardHeaderSection(br *bufio.Reader) error {
	for {
		line, err := readLine(br)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
	}
}

func (h *Handle) setReadDeadline(conn net.Conn) {
	if h.opts.Timeout.IO <= 0 {
		return
	}
	_ = conn.SetReadDeadline(h.clock.Now().Add(h.opts.Timeout.IO))
}

func (h *Handle) setWriteDeadline(conn net.Conn) {
	if h.opts.Timeout.IO <= 0 {
		return
	}
	_ = conn.SetWriteDeadline(h.clock.Now().Add(h.opts.Timeout.IO))
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func statusFromLine(line []byte) (http.StatusCode, error) {
	fields := bytes.Fields(line)
	if len(fields) < 2 {
		return 0, errors.Errorf("status line has too few fields: %q", line)
	}

	code, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return 0, errors.Errorf("status code is not numeric: %q", fields[1])
	}
	return http.StatusCode(code), nil
}
