// Package privacy implements the transport routing and header policy that
// every outbound request passes through: direct or Tor SOCKS5 routing with
// fail-closed semantics, fixed neutral header profiles, and a total
// allow-list filter for inbound headers.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"

	"github.com/jcadam/veil/pkg/mode"
)

// DefaultSocksAddr is the conventional local Tor SOCKS5 endpoint.
const DefaultSocksAddr = "127.0.0.1:9050"

var (
	// ErrTransportUnavailable means the anonymizing endpoint could not be
	// reached. The router never falls back to direct transport.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrTransportTimeout means the routing step exceeded its time bound.
	ErrTransportTimeout = errors.New("transport timeout")
)

// Router selects the transport for a request based on its mode policy.
type Router struct {
	socksAddr string
}

// NewRouter creates a router. An empty socksAddr uses DefaultSocksAddr.
func NewRouter(socksAddr string) *Router {
	if socksAddr == "" {
		socksAddr = DefaultSocksAddr
	}
	return &Router{socksAddr: socksAddr}
}

// ValidateSocksAddr checks that an address is a usable host:port.
func ValidateSocksAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid SOCKS address %q: %w", addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid SOCKS address %q: missing host or port", addr)
	}
	return nil
}

// Route returns a fresh transport for one request. Each request gets its own
// transport so connection pools are never shared across requests.
//
// For Tor policies the SOCKS endpoint is dialed once up front: an unreachable
// endpoint fails with ErrTransportUnavailable and a deadline expiry with
// ErrTransportTimeout. There is no fallback to direct transport.
func (r *Router) Route(ctx context.Context, p mode.Policy) (*http.Transport, error) {
	switch p.Transport {
	case mode.TransportDirect:
		// Proxy deliberately nil: environment proxy settings must not
		// silently reroute traffic.
		return &http.Transport{Proxy: nil}, nil
	case mode.TransportTor:
		return r.torTransport(ctx)
	default:
		return nil, fmt.Errorf("%w: unrecognized transport %d", ErrTransportUnavailable, p.Transport)
	}
}

// SocksAddr returns the configured SOCKS5 endpoint.
func (r *Router) SocksAddr() string { return r.socksAddr }

func (r *Router) torTransport(ctx context.Context) (*http.Transport, error) {
	// Preflight: confirm the SOCKS endpoint is actually listening before
	// any request traffic exists. Fail-closed on any ambiguity.
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.socksAddr)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, fmt.Errorf("%w: SOCKS endpoint %s: %v", ErrTransportTimeout, r.socksAddr, err)
		}
		return nil, fmt.Errorf("%w: SOCKS endpoint %s: %v", ErrTransportUnavailable, r.socksAddr, err)
	}
	conn.Close()

	// The SOCKS5 dialer passes hostnames to the proxy for remote
	// resolution, so DNS never leaks to the local resolver.
	dialer, err := proxy.SOCKS5("tcp", r.socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: building SOCKS5 dialer: %v", ErrTransportUnavailable, err)
	}

	tr := &http.Transport{Proxy: nil}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		tr.DialContext = cd.DialContext
	} else {
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return tr, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// ProxyURLFor reports the proxy URL a policy implies, for diagnostics.
// Empty means direct.
func (r *Router) ProxyURLFor(p mode.Policy) string {
	if p.Transport != mode.TransportTor {
		return ""
	}
	u := url.URL{Scheme: "socks5h", Host: r.socksAddr}
	return u.String()
}
