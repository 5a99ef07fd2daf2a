package transport

import (
	"context"
	"io"
	"log/slog"

	"httpwire/engine"
	"httpwire/http"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Options struct {
	Engine engine.Options
}

var DefaultOptions = Options{
	Engine: engine.DefaultOptions,
}

// Transport is the public entry point of the module. It is stateless
// across calls: every Send allocates its own session and engine
// handle, so concurrent Sends on one Transport share no mutable state.
type Transport struct {
	dialer engine.ConnDialer
	logger *slog.Logger
	clock  clock.Clock
	opts   Options
}

func New(dialer engine.ConnDialer, logger *slog.Logger, clk clock.Clock, opts Options) *Transport {
	if dialer == nil {
		dialer = &engine.NetDialer{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Transport{
		dialer: dialer,
		logger: logger,
		clock:  clk,
		opts:   opts,
	}
}

// Send executes one exchange and returns the structured response with
// its body stream attached. Cancellation is observed once, before any
// work begins; a running transfer is not interrupted mid-flight.
func (t *Transport) Send(ctx context.Context, req *http.Request) (*http.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "request cancelled before send")
	}

	s := newSession(engine.New(t.dialer, t.logger, t.clock, t.opts.Engine))

	response, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	// The body stream reads from session-owned buffers, so the session
	// itself becomes the response's body.
	response.SetBody(s)

	t.logger.Debug("exchange complete",
		"method", string(req.Method),
		"status", int(response.Status),
		"successful", response.Status.Successful(),
	)

	return response, nil
}
