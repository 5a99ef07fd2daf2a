package transport

import (
	"io"
	"testing"

	iolib "httpwire/lib/io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHeaderCallback(t *testing.T) {
	s := &session{}

	// First invocation materializes the response from the status line.
	n, err := s.onHeaderLine([]byte("HTTP/1.1 201 Created\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 22, n)
	require.NotNil(t, s.response)
	assert.Equal(t, 201, int(s.response.Status))

	// Later invocations append headers.
	line := []byte("ETag: \"abc\"\r\n")
	n, err = s.onHeaderLine(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	v, ok := s.response.Header("etag")
	require.True(t, ok)
	assert.Equal(t, "\"abc\"", v)

	// Terminator line consumes fully without creating an entry.
	n, err = s.onHeaderLine([]byte("\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, s.response.Headers(), 1)
}

func TestSessionHeaderCallbackMalformed(t *testing.T) {
	s := &session{}

	// Garbage where the status line should be.
	_, err := s.onHeaderLine([]byte("not a status line\r\n"))
	assert.ErrorIs(t, err, ErrMalformedStatusLine)

	s = &session{}
	_, err = s.onHeaderLine([]byte("HTTP/1.1 200 OK\r\n"))
	require.NoError(t, err)

	_, err = s.onHeaderLine([]byte("header without colon\r\n"))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestSessionBodyCallback(t *testing.T) {
	s := &session{}

	n, err := s.onBodyChunk([]byte("hel"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.onBodyChunk([]byte("lo"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []byte("hello"), s.responseData)
}

func TestSessionUploadCallback(t *testing.T) {
	s := &session{upload: iolib.NewMemoryStream([]byte("data"))}

	buf := make([]byte, 16)
	n, err := s.onUploadRead(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), buf[:n])

	// End of stream reports zero bytes, not an error.
	n, err = s.onUploadRead(buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A zero-capacity destination is an engine contract violation.
	_, err = s.onUploadRead(nil)
	assert.Error(t, err)
}

func TestSessionLength(t *testing.T) {
	s := &session{stream: iolib.NewMemoryStream([]byte("hello"))}
	assert.Equal(t, int64(5), s.Length())

	// A chunked response keeps the unknown-length contract even though
	// the bytes are already buffered.
	s.chunked = true
	assert.Equal(t, iolib.UnknownLength, s.Length())
}

func TestSessionStreamDelegation(t *testing.T) {
	s := &session{stream: iolib.NewMemoryStream([]byte("hello"))}

	out, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)

	require.NoError(t, s.Rewind())
	out, err = io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)
}
