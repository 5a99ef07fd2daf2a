package transport

import (
	"context"
	"io"
	"strings"

	"httpwire/engine"
	"httpwire/http"
	iolib "httpwire/lib/io"

	"github.com/pkg/errors"
)

// session drives one request/response exchange: it configures the
// engine handle, owns the buffers the callbacks fill, and afterwards
// serves as the response's body stream. The response holds the session
// as its body, which keeps these buffers reachable for as long as the
// body may still be read.
type session struct {
	handle  *engine.Handle
	headers *engine.HeaderList

	response     *http.RawResponse
	responseData []byte
	sendBuffer   []byte
	upload       iolib.Stream

	stream  iolib.Stream
	chunked bool
}

var _ iolib.Stream = (*session)(nil)

func newSession(handle *engine.Handle) *session {
	return &session{
		handle:  handle,
		headers: engine.NewHeaderList(),
	}
}

func (s *session) Read(p []byte) (int, error) { return s.stream.Read(p) }

// Length reports the logical body length. A chunked response keeps the
// unknown-length contract even though all bytes are already buffered;
// callers branching on whether length is known rely on that.
func (s *session) Length() int64 {
	if s.chunked {
		return iolib.UnknownLength
	}
	return s.stream.Length()
}

func (s *session) Rewind() error { return s.stream.Rewind() }

// onHeaderLine is the engine's header callback. The first invocation
// carries the status line and materializes the response record; later
// ones append headers to it.
func (s *session) onHeaderLine(line []byte) (int, error) {
	if s.response == nil {
		response, err := createStatusLine(line)
		if err != nil {
			return 0, err
		}
		s.response = response
		return len(line), nil
	}

	if err := applyHeaderLine(s.response, line); err != nil {
		return 0, err
	}
	return len(line), nil
}

// onBodyChunk is the engine's body-receive callback.
func (s *session) onBodyChunk(chunk []byte) (int, error) {
	s.responseData = append(s.responseData, chunk...)
	return len(chunk), nil
}

// onUploadRead is the engine's upload-read callback. A zero-capacity
// destination is an engine contract violation, not a recoverable
// condition.
func (s *session) onUploadRead(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, errors.New("upload destination buffer has zero capacity")
	}

	n, err := s.upload.Read(dst)
	if err == io.EOF {
		return n, nil
	}
	if err != nil {
		return n, errors.Wrap(err, "reading outbound stream")
	}
	return n, nil
}

func (s *session) send(ctx context.Context, req *http.Request) (*http.RawResponse, error) {
	if err := s.configure(req); err != nil {
		return nil, err
	}

	if err := s.handle.Perform(ctx); err != nil {
		return nil, errors.Wrap(err, "performing transfer")
	}
	if s.response == nil {
		return nil, errors.New("transfer produced no response")
	}

	s.stream = iolib.NewMemoryStream(s.responseData)

	if encoding, ok := s.response.Header("transfer-encoding"); ok {
		s.chunked = strings.Contains(encoding, "chunked")
	}

	return s.response, nil
}

func (s *session) configure(req *http.Request) error {
	if err := s.handle.SetURL(req.URL.String()); err != nil {
		return errors.Wrap(err, "setting url")
	}
	if port := req.Port(); port != 0 {
		if err := s.handle.SetPort(port); err != nil {
			return errors.Wrap(err, "setting port")
		}
	}

	for name, value := range req.Headers() {
		if err := s.headers.Append(name, value); err != nil {
			return errors.Wrapf(err, "appending header %q", name)
		}
	}
	if err := s.handle.SetHeaderList(s.headers); err != nil {
		return errors.Wrap(err, "setting header list")
	}

	if err := s.handle.SetHeaderFunc(s.onHeaderLine); err != nil {
		return errors.Wrap(err, "setting header func")
	}
	if err := s.handle.SetWriteFunc(s.onBodyChunk); err != nil {
		return errors.Wrap(err, "setting write func")
	}

	switch req.Method {
	case http.MethodDelete:
		if err := s.handle.SetVerb("DELETE"); err != nil {
			return errors.Wrap(err, "setting DELETE verb")
		}
	case http.MethodPatch:
		if err := s.handle.SetVerb("PATCH"); err != nil {
			return errors.Wrap(err, "setting PATCH verb")
		}
	case http.MethodHead:
		if err := s.handle.SetNoBody(true); err != nil {
			return errors.Wrap(err, "setting no-body")
		}
	case http.MethodPost:
		return s.configurePost(req)
	case http.MethodPut:
		return s.configurePut(req)
	}

	return nil
}

func (s *session) configurePost(req *http.Request) error {
	// Opt out of the engine's automatic 100-continue handshake.
	if err := s.headers.Append("Expect", ""); err != nil {
		return errors.Wrap(err, "suppressing expect header")
	}

	if req.Body != nil {
		var err error
		s.sendBuffer, err = iolib.ReadToEnd(req.Body)
		if err != nil {
			return errors.Wrap(err, "buffering outbound stream")
		}
	}

	if err := s.handle.SetPostFields(s.sendBuffer); err != nil {
		return errors.Wrap(err, "setting post fields")
	}
	return nil
}

func (s *session) configurePut(req *http.Request) error {
	// Opt out of the engine's automatic 100-continue handshake.
	if err := s.headers.Append("Expect", ""); err != nil {
		return errors.Wrap(err, "suppressing expect header")
	}

	if err := s.handle.SetUpload(true); err != nil {
		return errors.Wrap(err, "setting upload mode")
	}
	if err := s.handle.SetReadFunc(s.onUploadRead); err != nil {
		return errors.Wrap(err, "setting read func")
	}

	s.upload = req.Body
	if s.upload == nil {
		s.upload = iolib.NewMemoryStream(nil)
	}

	length := s.upload.Length()
	if length == iolib.UnknownLength {
		// Streaming upload needs a declared size.
		return errors.New("PUT body stream has unknown length")
	}
	if err := s.handle.SetUploadLength(length); err != nil {
		return errors.Wrap(err, "setting upload length")
	}
	return nil
}
