package engine

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// Addr is the resolved dial target of a transfer.
type Addr struct {
	Host string
	Port uint16

	// TLS marks that the connection must be wrapped in TLS after dialing.
	TLS bool
}

func (a Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.FormatUint(uint64(a.Port), 10))
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (net.Conn, error)
}

// NetDialer dials over the operating system's TCP stack,
// wrapping the connection in TLS when the target asks for it.
type NetDialer struct {
	// TLSConfig is cloned per dial. A nil config uses defaults;
	// ServerName is filled from the target host when unset.
	TLSConfig *tls.Config
}

var _ ConnDialer = (*NetDialer)(nil)

func (d *NetDialer) Dial(ctx context.Context, addr Addr) (net.Conn, error) {
	var nd net.Dialer

	conn, err := nd.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	if !addr.TLS {
		return conn, nil
	}

	cfg := d.TLSConfig.Clone()
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = addr.Host
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "tls handshake with %s", addr)
	}

	return tlsConn, nil
}
