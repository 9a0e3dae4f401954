// Package gimbal holds the pan/tilt angle model shared by both peers: the
// clamped (x, y) range, and the pointer-to-angle translation the consumer
// applies to turn window pointer events into gimbal set-points.
package gimbal

// Angles is a pan/tilt set-point pair in degrees.
type Angles struct {
	X float64
	Y float64
}

// Range bounds: x in [-90, 90], y in [-90, 40].
const (
	MinX = -90.0
	MaxX = 90.0
	MinY = -90.0
	MaxY = 40.0
)

// Clamp constrains a to the legal gimbal range.
func Clamp(a Angles) Angles {
	return Angles{X: clamp(a.X, MinX, MaxX), Y: clamp(a.Y, MinY, MaxY)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PointerDelta computes the raw angle delta a pointer position (px, py)
// within a window of size (w, h) represents, before it is combined with a
// drag's reference delta. X is inverted (moving the pointer right pans
// the camera view left): positive px offset yields negative X delta. Y is
// clamped to MaxY on its own, at delta-computation time rather than only
// at the final angle.
func PointerDelta(px, py, w, h int) Angles {
	halfW := float64(w) / 2
	halfH := float64(h) / 2
	dx := -(float64(px) - halfW) / halfW * 90
	dy := (float64(py) - halfH) / halfH * 90
	if dy > MaxY {
		dy = MaxY
	}
	return Angles{X: dx, Y: dy}
}

// Translator converts a sequence of pointer-down/pointer-drag events into
// absolute gimbal set-points: each drag step adds the change in pointer
// delta since the previous event (the pointer-down or the last drag step)
// to the last published angles, so a drag's effect is relative motion,
// not an absolute pointer mapping.
type Translator struct {
	base    Angles // angles the next drag step builds on
	delta0  Angles // delta of the previous pointer-down or drag step
	current Angles // last published angles
}

// NewTranslator starts a translator with the gimbal already centered (or
// wherever the caller's last known angles were).
func NewTranslator(initial Angles) *Translator {
	return &Translator{base: Clamp(initial), current: Clamp(initial)}
}

// PointerDown records the reference delta for a new drag gesture,
// anchored at the translator's current angles.
func (t *Translator) PointerDown(px, py, w, h int) {
	t.base = t.current
	t.delta0 = PointerDelta(px, py, w, h)
}

// PointerDrag computes the new absolute angles for a drag continuing to
// (px, py) and updates the translator's published state.
func (t *Translator) PointerDrag(px, py, w, h int) Angles {
	delta := PointerDelta(px, py, w, h)
	next := Angles{
		X: t.base.X + delta.X - t.delta0.X,
		Y: t.base.Y + delta.Y - t.delta0.Y,
	}
	next = Clamp(next)
	t.delta0 = delta
	t.base = next
	t.current = next
	return next
}

// Current returns the translator's last published angles.
func (t *Translator) Current() Angles {
	return t.current
}
