package transport

import (
	"testing"

	"httpwire/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStatusLine(t *testing.T) {
	testcases := []struct {
		desc    string
		input   string
		version http.Version
		status  http.StatusCode
		reason  string
		wantErr bool
	}{
		{
			desc:    "ok",
			input:   "HTTP/1.1 200 OK\r\n",
			version: http.Version{1, 1},
			status:  http.StatusOK,
			reason:  "OK",
		},
		{
			desc:    "reason with spaces",
			input:   "HTTP/1.1 404 Not Found\r\n",
			version: http.Version{1, 1},
			status:  http.StatusNotFound,
			reason:  "Not Found",
		},
		{
			desc:    "http 1.0",
			input:   "HTTP/1.0 302 Found\r\n",
			version: http.Version{1, 0},
			status:  http.StatusFound,
			reason:  "Found",
		},
		{
			desc:    "unknown numeric code still constructs",
			input:   "HTTP/1.1 599 Vendor Specific\r\n",
			version: http.Version{1, 1},
			status:  http.StatusCode(599),
			reason:  "Vendor Specific",
		},
		{
			desc:    "empty reason",
			input:   "HTTP/1.1 200 \r\n",
			version: http.Version{1, 1},
			status:  http.StatusOK,
			reason:  "",
		},
		{
			desc:    "missing protocol prefix",
			input:   "HTCPCP/1.0 418 I'm a teapot\r\n",
			wantErr: true,
		},
		{
			desc:    "non-numeric version",
			input:   "HTTP/x.1 200 OK\r\n",
			wantErr: true,
		},
		{
			desc:    "non-numeric status code",
			input:   "HTTP/1.1 abc OK\r\n",
			wantErr: true,
		},
		{
			desc:    "missing separators",
			input:   "HTTP/1.1200OK",
			wantErr: true,
		},
		{
			desc:    "truncated line",
			input:   "HTTP/",
			wantErr: true,
		},
		{
			desc:    "empty line",
			input:   "",
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			res, err := createStatusLine([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedStatusLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.version, res.Version)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.reason, res.ReasonPhrase)
			assert.Empty(t, res.Headers())
		})
	}
}

func TestApplyHeaderLine(t *testing.T) {
	testcases := []struct {
		desc    string
		input   string
		name    string
		value   string
		noEntry bool
		wantErr bool
	}{
		{
			desc:  "plain header",
			input: "Content-Length: 5\r\n",
			name:  "content-length",
			value: "5",
		},
		{
			desc:  "name is lowercased",
			input: "X-MS-REQUEST-ID: abc-123\r\n",
			name:  "x-ms-request-id",
			value: "abc-123",
		},
		{
			desc:  "leading whitespace stripped from value",
			input: "Server: \t  Windows-Azure-Blob/1.0\r\n",
			name:  "server",
			value: "Windows-Azure-Blob/1.0",
		},
		{
			desc:  "no space after colon",
			input: "ETag:\"0x8D\"\r\n",
			name:  "etag",
			value: "\"0x8D\"",
		},
		{
			desc:  "value keeps inner whitespace",
			input: "Date: Fri, 29 Aug 2026 10:00:00 GMT\r\n",
			name:  "date",
			value: "Fri, 29 Aug 2026 10:00:00 GMT",
		},
		{
			desc:    "terminator line is a no-op",
			input:   "\r\n",
			noEntry: true,
		},
		{
			desc:    "missing colon",
			input:   "not a header line\r\n",
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			res := http.NewRawResponse(1, 1, http.StatusOK, "OK")

			err := applyHeaderLine(res, []byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedHeader)
				assert.Empty(t, res.Headers())
				return
			}
			require.NoError(t, err)

			if tc.noEntry {
				assert.Empty(t, res.Headers())
				return
			}

			v, ok := res.Header(tc.name)
			require.True(t, ok)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestApplyHeaderLineOverwrites(t *testing.T) {
	res := http.NewRawResponse(1, 1, http.StatusOK, "OK")

	require.NoError(t, applyHeaderLine(res, []byte("X-Version: 1\r\n")))
	require.NoError(t, applyHeaderLine(res, []byte("x-version: 2\r\n")))

	v, ok := res.Header("x-version")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Len(t, res.Headers(), 1)
}

func TestNextToken(t *testing.T) {
	token, rest, err := nextToken([]byte("200 OK"), ' ')
	require.NoError(t, err)
	assert.Equal(t, []byte("200"), token)
	assert.Equal(t, []byte("OK"), rest)

	_, _, err = nextToken([]byte("no separator"), ':')
	assert.ErrorIs(t, err, ErrMalformedStatusLine)
}
