package camio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Codec is the image codec abstraction: JPEG-encode a raw frame, JPEG-decode
// a buffer back into a renderable image. The wire format carries the
// encoded bytes, not the Image, so this is the only place image/jpeg is
// imported outside of camio.Camera's own decode of the capture stream.
type Codec interface {
	Encode(frame RawFrame) ([]byte, error)
	Decode(data []byte) (image.Image, error)
}

// JPEGCodec is the stdlib implementation of Codec. Go's image/jpeg is used
// directly rather than a third-party encoder: it is the exact
// encode_jpeg/decode_jpeg collaborator this wire format needs, and no
// alternative JPEG library is warranted for this role.
type JPEGCodec struct {
	Quality int
}

// NewJPEGCodec returns a codec at the given JPEG quality (1-100).
func NewJPEGCodec(quality int) *JPEGCodec {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &JPEGCodec{Quality: quality}
}

// Encode compresses a raw frame to JPEG bytes.
func (c *JPEGCodec) Encode(frame RawFrame) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, fmt.Errorf("camio: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses JPEG bytes back into an image.
func (c *JPEGCodec) Decode(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("camio: jpeg decode: %w", err)
	}
	return img, nil
}
