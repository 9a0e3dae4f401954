package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// HandshakeRequestPrefix precedes the zero-padded width/height the
// consumer sends to rendezvous with the producer's data socket.
const HandshakeRequestPrefix = "Hello Server "

// HandshakeReply is the producer's fixed 12-byte acknowledgement.
const HandshakeReply = "Hello Client"

// EncodeHandshakeRequest renders the 22-byte data-channel handshake the
// consumer sends first: "Hello Server " + 4-digit width + " " + 4-digit
// height, matching a `f'Hello Server {width.zfill(4)} {height.zfill(4)}'`
// style framing.
func EncodeHandshakeRequest(width, height int) ([]byte, error) {
	if width < 0 || width > 9999 || height < 0 || height > 9999 {
		return nil, fmt.Errorf("wire: width/height must fit in 4 digits, got %dx%d", width, height)
	}
	return []byte(fmt.Sprintf("%s%04d %04d", HandshakeRequestPrefix, width, height)), nil
}

// ParseHandshakeRequest parses a handshake request back into (width, height).
func ParseHandshakeRequest(buf []byte) (width, height int, err error) {
	s := string(buf)
	if !strings.HasPrefix(s, HandshakeRequestPrefix) {
		return 0, 0, fmt.Errorf("wire: handshake request missing %q prefix", HandshakeRequestPrefix)
	}
	rest := strings.TrimPrefix(s, HandshakeRequestPrefix)
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("wire: malformed handshake request %q", s)
	}
	width, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("wire: bad width field: %w", err)
	}
	height, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("wire: bad height field: %w", err)
	}
	return width, height, nil
}

// IsHandshakeReply reports whether buf is exactly the producer's
// handshake acknowledgement.
func IsHandshakeReply(buf []byte) bool {
	return string(buf) == HandshakeReply
}
