package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hockijo/techconnect/internal/contract"
)

// DefaultSCPIPort is the raw SCPI socket port used by LAN instruments.
const DefaultSCPIPort = "5025"

// Socket talks raw SCPI over a TCP connection.
type Socket struct {
	*link
	addr string
}

var _ contract.Instrument = &Socket{} // Compile-time check

// DialSocket connects to address, adding the raw SCPI port when none is given.
func DialSocket(ctx context.Context, address string, timeout time.Duration) (*Socket, error) {
	addr := address
	if _, _, err := net.SplitHostPort(address); err != nil {
		addr = net.JoinHostPort(address, DefaultSCPIPort)
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify("socket", "dial "+addr, err)
	}
	return NewSocket(conn, timeout), nil
}

// NewSocket wraps an established connection.
func NewSocket(conn net.Conn, timeout time.Duration) *Socket {
	return &Socket{
		link: newLink("socket", conn, timeout, deadlineGuard(conn)),
		addr: conn.RemoteAddr().String(),
	}
}

// String returns the remote address.
func (s *Socket) String() string {
	return fmt.Sprintf("socket %s", s.addr)
}
