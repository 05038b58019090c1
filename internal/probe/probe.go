// Package probe checks whether a backend is accepting TCP connections.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds each connect attempt.
const DefaultTimeout = 2 * time.Second

// DefaultHosts covers backends bound to loopback and to all interfaces.
// IPv6-only listeners are not probed.
var DefaultHosts = []string{"127.0.0.1", "0.0.0.0"}

// PortProbe reports whether something listens on a local port.
type PortProbe interface {
	IsListening(ctx context.Context, port int) bool
}

// TCPProbe dials each host in turn with a short timeout.
// Refused and timed-out connections count as not listening.
type TCPProbe struct {
	Timeout time.Duration
	Hosts   []string
}

// NewTCPProbe creates a TCPProbe. A zero timeout uses DefaultTimeout.
func NewTCPProbe(timeout time.Duration) *TCPProbe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPProbe{Timeout: timeout, Hosts: DefaultHosts}
}

// IsListening returns true as soon as one host accepts a connection.
func (p *TCPProbe) IsListening(ctx context.Context, port int) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hosts := p.Hosts
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}

	for _, host := range hosts {
		if ctx.Err() != nil {
			return false
		}
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = conn.Close()
		return true
	}
	return false
}

// Static is a PortProbe with a fixed set of open ports, for tests and
// dry runs.
type Static map[int]bool

// IsListening reports whether port is in the set.
func (s Static) IsListening(_ context.Context, port int) bool {
	return s[port]
}
