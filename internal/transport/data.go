package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/gimbalcam/streamer/internal/wire"
)

// DataEndpoint is the unreliable UDP data-channel socket. The producer
// side listens and learns the consumer's address from the handshake
// datagram; the consumer side dials so subsequent reads/writes don't need
// an explicit address.
type DataEndpoint struct {
	conn     *net.UDPConn
	peerAddr *net.UDPAddr // set once the handshake completes, producer side only
	timeout  time.Duration
}

// ListenData binds a UDP socket on addr for the producer side.
func ListenData(addr string) (*DataEndpoint, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve data addr %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen data %s: %w", addr, err)
	}
	return &DataEndpoint{conn: conn, timeout: DefaultIOTimeout}, nil
}

// AwaitHandshake blocks for the consumer's handshake request, replies
// with the fixed acknowledgement, and remembers the consumer's address
// for subsequent Send calls. Returns the width/height the consumer
// requested.
func (d *DataEndpoint) AwaitHandshake() (width, height int, err error) {
	buf := make([]byte, 64)
	d.conn.SetReadDeadline(time.Now().Add(d.timeout))
	n, addr, err := d.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, 0, fmt.Errorf("transport: await handshake: %w", err)
	}
	width, height, err = wire.ParseHandshakeRequest(buf[:n])
	if err != nil {
		return 0, 0, fmt.Errorf("transport: handshake parse: %w", err)
	}
	d.peerAddr = addr
	d.conn.SetWriteDeadline(time.Now().Add(d.timeout))
	if _, err := d.conn.WriteToUDP([]byte(wire.HandshakeReply), addr); err != nil {
		return 0, 0, fmt.Errorf("transport: handshake reply: %w", err)
	}
	return width, height, nil
}

// DialData connects to the producer's data socket from the consumer
// side and performs the handshake, blocking until the producer's
// acknowledgement arrives or timeout elapses.
func DialData(addr string, width, height int, timeout time.Duration) (*DataEndpoint, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve data addr %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial data %s: %w", addr, err)
	}
	req, err := wire.EncodeHandshakeRequest(width, height)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: handshake request: %w", err)
	}

	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := conn.Read(buf)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: handshake await reply: %w", err)
	}
	if !wire.IsHandshakeReply(buf[:n]) {
		conn.Close()
		return nil, fmt.Errorf("transport: unexpected handshake reply %q", buf[:n])
	}
	return &DataEndpoint{conn: conn, timeout: DefaultIOTimeout}, nil
}

// SendPacket writes one fragment to the peer. On the producer side this
// requires AwaitHandshake to have completed; on the consumer side the
// dialed connection already has its peer fixed.
func (d *DataEndpoint) SendPacket(p wire.Packet) error {
	raw := p.Bytes()
	d.conn.SetWriteDeadline(time.Now().Add(d.timeout))
	var err error
	if d.peerAddr != nil {
		_, err = d.conn.WriteToUDP(raw, d.peerAddr)
	} else {
		_, err = d.conn.Write(raw)
	}
	if err != nil {
		return fmt.Errorf("transport: send packet: %w", err)
	}
	return nil
}

// MaxDatagramSize is the largest UDP datagram this endpoint will read;
// comfortably above any max_packet_size the default config allows.
const MaxDatagramSize = 65536

// ReceivePacket blocks for the next datagram and parses it into a Packet.
// Non-frame datagrams (e.g. a stray handshake retry) surface as a parse
// error the caller may choose to ignore.
func (d *DataEndpoint) ReceivePacket() (wire.Packet, error) {
	buf := make([]byte, MaxDatagramSize)
	d.conn.SetReadDeadline(time.Now().Add(d.timeout))
	n, err := d.conn.Read(buf)
	if err != nil {
		return wire.Packet{}, fmt.Errorf("transport: receive packet: %w", err)
	}
	return wire.ParsePacket(buf[:n])
}

// Close releases the underlying socket.
func (d *DataEndpoint) Close() error {
	return d.conn.Close()
}
