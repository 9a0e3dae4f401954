package camio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compressor is the generic DEFLATE-compatible byte compressor: deflate
// bytes in, inflate bytes (or error) out. The wire-level CompressedBlob
// is the output of Deflate and the input of Inflate.
type Compressor interface {
	Deflate(data []byte) ([]byte, error)
	Inflate(data []byte) ([]byte, error)
}

// ZlibCompressor wraps klauspost/compress/zlib, a drop-in for the standard
// library's compress/zlib with a faster implementation and an API-compatible
// surface. zlib (not raw flate) is used deliberately: it wraps the DEFLATE
// stream in a 2-byte zlib header plus an Adler-32 trailer, keeping this
// implementation wire-compatible with peers speaking plain zlib.
type ZlibCompressor struct {
	Level int
}

// NewZlibCompressor returns a compressor at the given zlib level
// (zlib.DefaultCompression if level is 0).
func NewZlibCompressor(level int) *ZlibCompressor {
	if level == 0 {
		level = zlib.DefaultCompression
	}
	return &ZlibCompressor{Level: level}
}

// Deflate compresses data into a zlib-wrapped DEFLATE stream.
func (z *ZlibCompressor) Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, z.Level)
	if err != nil {
		return nil, fmt.Errorf("camio: zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("camio: zlib write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("camio: zlib close: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate decompresses a zlib-wrapped DEFLATE stream. A malformed or
// truncated stream (e.g. a partially-reassembled frame) returns an
// error; callers treat this as a DecodeError.
func (z *ZlibCompressor) Inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("camio: zlib reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("camio: zlib read: %w", err)
	}
	return out, nil
}
