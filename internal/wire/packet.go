// Package wire implements the frame fragmentation/reassembly codec (C1)
// and the fixed-width wire formats for the control and data channels
// (C2/C3). It is a pure, dependency-free codec: no sockets and no
// goroutines; the Reassembler evicts idle assemblies only when a caller
// invokes Evict.
package wire

import (
	"errors"
	"fmt"
)

// TrailerSize is the fixed 9-byte ASCII trailer appended to every data
// packet: 3 digits salt, 3 digits total-1, 3 digits index.
const TrailerSize = 9

// MaxPacketsPerFrame is the largest number of packets one frame may be
// split into; a framing error is required past this point because the
// wire fields are 3 decimal digits (000-999 => at most 1000 packets).
const MaxPacketsPerFrame = 1000

// MaxSalt is the largest value the 3-digit salt field can hold.
const MaxSalt = 999

// Packet is one datagram: a payload slice plus the parsed trailer fields.
type Packet struct {
	Payload []byte
	Salt    int // 0-999, identical for every packet of one frame
	Total   int // total packet count for this frame (NOT total-1)
	Index   int // zero-based position within the frame, 0 <= Index < Total
}

// FragmentationError is returned when a blob cannot be fragmented under the
// given constraints (zero/negative payload budget, or more than
// MaxPacketsPerFrame packets required). It is fatal to the one frame being
// fragmented, not to the session.
type FragmentationError struct {
	Reason string
}

func (e *FragmentationError) Error() string {
	return fmt.Sprintf("wire: fragmentation error: %s", e.Reason)
}

// encodeTrailer renders the 9-byte ASCII trailer for (salt, total, index).
// total is the packet count; the wire field carries total-1, zero-padded
// to 3 digits. Panics are impossible here: callers (Fragment) guarantee
// salt/total/index are already within range.
func encodeTrailer(salt, total, index int) []byte {
	out := make([]byte, TrailerSize)
	putDigits3(out[0:3], salt)
	putDigits3(out[3:6], total-1)
	putDigits3(out[6:9], index)
	return out
}

// decodeTrailer parses the trailing 9 ASCII bytes of a datagram into
// (salt, total, index). It returns an error if any field is not exactly
// 3 ASCII digits.
func decodeTrailer(b []byte) (salt, total, index int, err error) {
	if len(b) != TrailerSize {
		return 0, 0, 0, fmt.Errorf("wire: trailer must be %d bytes, got %d", TrailerSize, len(b))
	}
	salt, err = digits3(b[0:3])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("wire: bad salt field: %w", err)
	}
	totalMinus1, err := digits3(b[3:6])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("wire: bad total field: %w", err)
	}
	index, err = digits3(b[6:9])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("wire: bad index field: %w", err)
	}
	return salt, totalMinus1 + 1, index, nil
}

// ParsePacket splits a raw datagram into its payload and trailer fields.
func ParsePacket(raw []byte) (Packet, error) {
	if len(raw) < TrailerSize {
		return Packet{}, fmt.Errorf("wire: datagram shorter than trailer (%d bytes)", len(raw))
	}
	split := len(raw) - TrailerSize
	salt, total, index, err := decodeTrailer(raw[split:])
	if err != nil {
		return Packet{}, err
	}
	payload := make([]byte, split)
	copy(payload, raw[:split])
	return Packet{Payload: payload, Salt: salt, Total: total, Index: index}, nil
}

// Bytes renders a Packet back to its wire form: payload followed by the
// 9-byte trailer.
func (p Packet) Bytes() []byte {
	out := make([]byte, 0, len(p.Payload)+TrailerSize)
	out = append(out, p.Payload...)
	out = append(out, encodeTrailer(p.Salt, p.Total, p.Index)...)
	return out
}

func putDigits3(dst []byte, v int) {
	dst[0] = byte('0' + (v/100)%10)
	dst[1] = byte('0' + (v/10)%10)
	dst[2] = byte('0' + v%10)
}

var errNotDigit = errors.New("wire: non-digit byte")

func digits3(b []byte) (int, error) {
	v := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, errNotDigit
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}
