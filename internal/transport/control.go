// Package transport implements the reliable control-channel endpoint (C2)
// and the unreliable UDP data-channel endpoint (C3). Both wrap the
// fixed-width formats in internal/wire with the socket plumbing and
// timeout discipline of blocking I/O with a bounded deadline, so
// activities can observe the session's cancellation signal between calls
// rather than blocking forever.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/gimbalcam/streamer/internal/gimbal"
	"github.com/gimbalcam/streamer/internal/wire"
)

// DefaultIOTimeout bounds every blocking control/data socket call to 5s.
const DefaultIOTimeout = 5 * time.Second

// ControlEndpoint is the reliable control-channel socket: it sends and
// receives 13-byte angle records and the literal end-of-session hint.
// The zero value is not usable; obtain one from ControlListener.Accept or
// DialControl.
type ControlEndpoint struct {
	conn    net.Conn
	timeout time.Duration
}

// ControlListener accepts incoming control connections: the producer
// binds and listens, the consumer dials in.
type ControlListener struct {
	ln net.Listener
}

// ListenControl binds and listens on addr (host:port) for control-channel
// connections.
func ListenControl(addr string) (*ControlListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen control %s: %w", addr, err)
	}
	return &ControlListener{ln: ln}, nil
}

// Accept blocks until a consumer connects, or the listener is closed.
func (l *ControlListener) Accept() (*ControlEndpoint, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("transport: accept control: %w", err)
	}
	return &ControlEndpoint{conn: conn, timeout: DefaultIOTimeout}, nil
}

// Close stops accepting new control connections.
func (l *ControlListener) Close() error {
	return l.ln.Close()
}

// DialControl connects to a producer's control listener.
func DialControl(addr string, timeout time.Duration) (*ControlEndpoint, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial control %s: %w", addr, err)
	}
	return &ControlEndpoint{conn: conn, timeout: DefaultIOTimeout}, nil
}

// Send writes one angle record to the peer.
func (c *ControlEndpoint) Send(angles gimbal.Angles) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	rec := wire.EncodeControlRecord(angles.X, angles.Y)
	if _, err := c.conn.Write(rec); err != nil {
		return fmt.Errorf("transport: control send: %w", err)
	}
	return nil
}

// SendEndHint writes the literal end-of-session hint bytes, best-effort.
func (c *ControlEndpoint) SendEndHint() error {
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(wire.EndSessionHint)); err != nil {
		return fmt.Errorf("transport: control send end hint: %w", err)
	}
	return nil
}

// Recv blocks for the peer's next read and takes the last 13 bytes of
// whatever arrived — a reliable-stream sender may have coalesced multiple
// writes before this read observes them, or the consumer may have
// appended the end-of-session hint to its final write. ended reports
// whether the read ended with the end-of-session hint.
func (c *ControlEndpoint) Recv() (angles gimbal.Angles, ended bool, err error) {
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	buf := make([]byte, 4096)
	n, err := c.conn.Read(buf)
	if err != nil {
		return gimbal.Angles{}, false, fmt.Errorf("transport: control recv: %w", err)
	}
	received := buf[:n]
	if wire.IsEndSessionHint(received) {
		return gimbal.Angles{}, true, nil
	}
	x, y, err := wire.ParseControlRecord(received)
	if err != nil {
		return gimbal.Angles{}, false, fmt.Errorf("transport: control parse: %w", err)
	}
	return gimbal.Angles{X: x, Y: y}, false, nil
}

// Close releases the underlying socket.
func (c *ControlEndpoint) Close() error {
	return c.conn.Close()
}
