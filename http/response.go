package http

import (
	"strings"

	iolib "httpwire/lib/io"
)

// RawResponse is the structured form of a received HTTP response.
//
// Header names are normalized to lowercase before storage, so lookups
// are case-insensitive by construction. Duplicate names overwrite:
// the last value written wins.
type RawResponse struct {
	Version      Version
	Status       StatusCode
	ReasonPhrase string

	headers map[string]string
	body    iolib.Stream
}

func NewRawResponse(major, minor uint, status StatusCode, reason string) *RawResponse {
	return &RawResponse{
		Version:      Version{major, minor},
		Status:       status,
		ReasonPhrase: reason,
		headers:      make(map[string]string),
	}
}

func (r *RawResponse) SetHeader(name, value string) {
	r.headers[strings.ToLower(name)] = value
}

func (r *RawResponse) Header(name string) (value string, ok bool) {
	value, ok = r.headers[strings.ToLower(name)]
	return
}

// Headers returns a copy of the stored headers, keyed by lowercase name.
func (r *RawResponse) Headers() map[string]string {
	clone := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		clone[k] = v
	}
	return clone
}

// SetBody attaches the readable response body. The stream may borrow
// buffers owned by whatever produced the response; the response keeps
// that owner reachable for as long as it is itself alive.
func (r *RawResponse) SetBody(body iolib.Stream) { r.body = body }

func (r *RawResponse) Body() iolib.Stream { return r.body }
