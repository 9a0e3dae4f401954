package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ControlRecordSize is the fixed width of one control-channel angle
// record: two zero-padded "%06.2f"-style fields separated by one space.
const ControlRecordSize = 13

const controlFieldWidth = 6

// EncodeControlRecord renders an (x, y) angle pair as the 13-byte
// control-channel wire record. Each half is rounded to two decimal places
// and zero-padded to width 6, with the sign (when negative) counted in
// that width, matching a `str(round(v, 2)).zfill(6)` style framing.
func EncodeControlRecord(x, y float64) []byte {
	var b strings.Builder
	b.WriteString(zfillField(x))
	b.WriteByte(' ')
	b.WriteString(zfillField(y))
	return []byte(b.String())
}

func zfillField(v float64) string {
	sign := ""
	v = math.Round(v*100) / 100
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := sign + strconv.FormatFloat(v, 'f', 2, 64)
	if len(digits) >= controlFieldWidth {
		return digits
	}
	pad := strings.Repeat("0", controlFieldWidth-len(digits))
	if sign != "" {
		return sign + pad + digits[1:]
	}
	return pad + digits
}

// ParseControlRecord parses the trailing ControlRecordSize bytes of buf
// into (x, y) — a reliable-stream sender may coalesce writes, so
// receivers always take the trailing bytes of any read.
func ParseControlRecord(buf []byte) (x, y float64, err error) {
	if len(buf) < ControlRecordSize {
		return 0, 0, fmt.Errorf("wire: control record shorter than %d bytes", ControlRecordSize)
	}
	rec := buf[len(buf)-ControlRecordSize:]
	if rec[controlFieldWidth] != ' ' {
		return 0, 0, fmt.Errorf("wire: control record missing field separator")
	}
	xField := string(rec[:controlFieldWidth])
	yField := string(rec[controlFieldWidth+1:])
	x, err = strconv.ParseFloat(xField, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("wire: bad x field %q: %w", xField, err)
	}
	y, err = strconv.ParseFloat(yField, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("wire: bad y field %q: %w", yField, err)
	}
	return x, y, nil
}

// EndSessionHint is the literal control-channel bytes a consumer may send
// immediately before closing, as a hint (not a requirement) that the
// producer should tear the session down promptly rather than waiting for
// the socket to go idle.
const EndSessionHint = "end end"

// IsEndSessionHint reports whether buf's trailing bytes are the
// end-of-session hint.
func IsEndSessionHint(buf []byte) bool {
	return strings.HasSuffix(string(buf), EndSessionHint)
}
