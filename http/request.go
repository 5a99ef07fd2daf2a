package http

import (
	"net/url"
	"strconv"

	iolib "httpwire/lib/io"

	"github.com/pkg/errors"
)

// Request describes one outbound HTTP exchange. It is read-only to the
// transport; the caller owns it and its body stream.
type Request struct {
	Method Method
	URL    *url.URL

	// Body is the outbound payload, or nil for bodyless requests.
	// Its Length may be [iolib.UnknownLength].
	Body iolib.Stream

	headers map[string]string
}

// NewRequest parses rawURL, which must be absolute.
func NewRequest(method Method, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing request url")
	}
	if !u.IsAbs() {
		return nil, errors.Errorf("request url is not absolute: %q", rawURL)
	}

	return &Request{
		Method:  method,
		URL:     u,
		headers: make(map[string]string),
	}, nil
}

// Port returns the port decomposed from the URL, or 0 when the URL
// carries none.
func (r *Request) Port() uint16 {
	p := r.URL.Port()
	if p == "" {
		return 0
	}

	// url.Parse already rejected non-numeric ports.
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(port)
}

func (r *Request) SetHeader(name, value string) {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[name] = value
}

// Headers returns a copy of the request headers.
func (r *Request) Headers() map[string]string {
	clone := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		clone[k] = v
	}
	return clone
}
