package engine

import (
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// HeaderFunc receives one logical header line per invocation, CRLF
// included: first the status line, then each header line, then the
// bare CRLF terminator. It must return len(line) or the transfer is
// treated as failed.
type HeaderFunc func(line []byte) (consumed int, err error)

// WriteFunc receives decoded response body chunks in arrival order.
// It must return len(chunk) or the transfer is treated as failed.
type WriteFunc func(chunk []byte) (consumed int, err error)

// ReadFunc fills dst with outbound body bytes and returns the number
// copied. Returning 0 signals end of stream.
type ReadFunc func(dst []byte) (n int, err error)

type Options struct {
	Timeout TimeoutOptions

	// UploadBufferSize is the destination buffer capacity handed to
	// the [ReadFunc] per invocation.
	UploadBufferSize uint
}

type TimeoutOptions struct {
	// Connect bounds the dial (and TLS handshake).
	Connect time.Duration

	// IO bounds each read/write phase on the connection.
	// Zero disables the deadline.
	IO time.Duration

	// ExpectContinue is how long to wait for an interim "100 Continue"
	// before sending the request body anyway.
	ExpectContinue time.Duration
}

var DefaultOptions = Options{
	Timeout: TimeoutOptions{
		Connect:        30 * time.Second,
		IO:             30 * time.Second,
		ExpectContinue: time.Second,
	},
	UploadBufferSize: 16 << 10,
}

// Handle is a single-transfer engine handle: configure it with the
// setters below, then run the exchange with [Handle.Perform].
// A Handle is not safe for concurrent use.
type Handle struct {
	dialer ConnDialer
	logger *slog.Logger
	clock  clock.Clock
	opts   Options

	url     *url.URL
	port    uint16
	headers *HeaderList

	onHeader HeaderFunc
	onBody   WriteFunc
	onRead   ReadFunc

	verb       string
	noBody     bool
	upload     bool
	uploadLen  int64
	hasUpLen   bool
	postFields []byte
	hasPost    bool
}

func New(dialer ConnDialer, logger *slog.Logger, clk clock.Clock, opts Options) *Handle {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clk == nil {
		clk = clock.New()
	}
	if opts.UploadBufferSize == 0 {
		opts.UploadBufferSize = DefaultOptions.UploadBufferSize
	}

	return &Handle{
		dialer:  dialer,
		logger:  logger,
		clock:   clk,
		opts:    opts,
		headers: NewHeaderList(),
	}
}

// SetURL sets the absolute target URL. Only http and https schemes are
// supported.
func (h *Handle) SetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, "parsing url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("unsupported scheme: %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return errors.New("url has no host")
	}

	h.url = u
	return nil
}

// SetPort overrides the port from the URL (and the scheme default).
func (h *Handle) SetPort(port uint16) error {
	if port == 0 {
		return errors.New("port is zero")
	}
	h.port = port
	return nil
}

// SetHeaderList replaces the request header list. The list must stay
// valid until Perform returns.
func (h *Handle) SetHeaderList(list *HeaderList) error {
	if list == nil {
		return errors.New("header list is nil")
	}
	h.headers = list
	return nil
}

func (h *Handle) SetHeaderFunc(fn HeaderFunc) error {
	if fn == nil {
		return errors.New("header func is nil")
	}
	h.onHeader = fn
	return nil
}

func (h *Handle) SetWriteFunc(fn WriteFunc) error {
	if fn == nil {
		return errors.New("write func is nil")
	}
	h.onBody = fn
	return nil
}

func (h *Handle) SetReadFunc(fn ReadFunc) error {
	if fn == nil {
		return errors.New("read func is nil")
	}
	h.onRead = fn
	return nil
}

// SetVerb overrides the request method written on the wire.
func (h *Handle) SetVerb(verb string) error {
	if verb == "" {
		return errors.New("verb is empty")
	}
	h.verb = verb
	return nil
}

// SetNoBody suppresses the response body transfer (HEAD semantics).
func (h *Handle) SetNoBody(v bool) error {
	h.noBody = v
	return nil
}

// SetUpload switches the transfer into streaming-upload mode; body
// bytes are pulled through the registered [ReadFunc].
func (h *Handle) SetUpload(v bool) error {
	h.upload = v
	return nil
}

// SetUploadLength declares the exact outbound body size. Without a
// declared size an upload is sent with chunked transfer encoding.
func (h *Handle) SetUploadLength(n int64) error {
	if n < 0 {
		return errors.Errorf("upload length is negative: %d", n)
	}
	h.uploadLen = n
	h.hasUpLen = true
	return nil
}

// SetPostFields hands the engine a fully-buffered outbound body. The
// slice must stay valid until Perform returns.
func (h *Handle) SetPostFields(body []byte) error {
	h.postFields = body
	h.hasPost = true
	return nil
}
