package http

import (
	"testing"

	iolib "httpwire/lib/io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionText(t *testing.T) {
	testcases := []struct {
		input    Version
		expected string
	}{
		{input: Version{1, 1}, expected: "HTTP/1.1"},
		{input: Version{1, 0}, expected: "HTTP/1.0"},
		{input: Version{2, 0}, expected: "HTTP/2.0"},
	}
	for _, tc := range testcases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.input.String())
			assert.Equal(t, tc.input[0], tc.input.Major())
			assert.Equal(t, tc.input[1], tc.input.Minor())
		})
	}
}

func TestNewRequest(t *testing.T) {
	testcases := []struct {
		desc    string
		rawURL  string
		port    uint16
		wantErr bool
	}{
		{
			desc:   "absolute url without port",
			rawURL: "http://example.com/container/blob",
			port:   0,
		},
		{
			desc:   "absolute url with port",
			rawURL: "https://example.com:10001/container",
			port:   10001,
		},
		{
			desc:    "relative url",
			rawURL:  "/container/blob",
			wantErr: true,
		},
		{
			desc:    "unparsable url",
			rawURL:  "http://exa mple.com/",
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			req, err := NewRequest(MethodGet, tc.rawURL)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MethodGet, req.Method)
			assert.Equal(t, tc.port, req.Port())
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	req, err := NewRequest(MethodPut, "http://example.com/blob")
	require.NoError(t, err)

	req.SetHeader("x-ms-blob-type", "BlockBlob")
	req.SetHeader("Content-Type", "text/plain")

	headers := req.Headers()
	assert.Equal(t, "BlockBlob", headers["x-ms-blob-type"])
	assert.Equal(t, "text/plain", headers["Content-Type"])

	// Headers returns a copy.
	headers["Content-Type"] = "mutated"
	assert.Equal(t, "text/plain", req.Headers()["Content-Type"])
}

func TestRawResponseHeaders(t *testing.T) {
	res := NewRawResponse(1, 1, StatusOK, "OK")

	res.SetHeader("Content-Length", "5")

	v, ok := res.Header("content-length")
	require.True(t, ok)
	assert.Equal(t, "5", v)

	// Lookup is case-insensitive by construction.
	v, ok = res.Header("CONTENT-LENGTH")
	require.True(t, ok)
	assert.Equal(t, "5", v)

	// Same name set twice (case-insensitively) keeps the last value.
	res.SetHeader("CONTENT-length", "7")
	v, ok = res.Header("Content-Length")
	require.True(t, ok)
	assert.Equal(t, "7", v)

	assert.Len(t, res.Headers(), 1)
}

func TestRawResponseBody(t *testing.T) {
	res := NewRawResponse(1, 1, StatusOK, "OK")
	assert.Nil(t, res.Body())

	stream := iolib.NewMemoryStream([]byte("hello"))
	res.SetBody(stream)
	assert.Equal(t, iolib.Stream(stream), res.Body())
}
