package devproxy

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/proxy"
)

// DialerConfig selects how the relay reaches the backend.
type DialerConfig struct {
	SOCKS5         string // host:port, empty for a direct connection
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Dialer connects to the backend directly or through a SOCKS5 proxy.
type Dialer struct {
	config DialerConfig
	socks  proxy.Dialer
}

// NewDialer creates a dialer based on the configuration
func NewDialer(cfg DialerConfig) (*Dialer, error) {
	d := &Dialer{config: cfg}
	if cfg.SOCKS5 == "" {
		return d, nil
	}

	var auth *proxy.Auth
	if cfg.Username != "" {
		auth = &proxy.Auth{
			User:     cfg.Username,
			Password: cfg.Password,
		}
	}
	socks, err := proxy.SOCKS5("tcp", cfg.SOCKS5, auth, d.direct())
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 proxy dialer: %w", err)
	}
	d.socks = socks
	return d, nil
}

// DialContext matches http.Transport.DialContext.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if d.socks == nil {
		return d.direct().DialContext(ctx, network, address)
	}
	if cd, ok := d.socks.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}
	return d.socks.Dial(network, address)
}

// Proxied reports whether connections go through SOCKS5.
func (d *Dialer) Proxied() bool { return d.socks != nil }

func (d *Dialer) direct() *net.Dialer {
	return &net.Dialer{
		Timeout: d.config.ConnectTimeout,
	}
}
