package gimbal

import "testing"

func TestClampRange(t *testing.T) {
	cases := []struct {
		in, want Angles
	}{
		{Angles{-200, -200}, Angles{MinX, MinY}},
		{Angles{200, 200}, Angles{MaxX, MaxY}},
		{Angles{0, 0}, Angles{0, 0}},
		{Angles{-90, 40}, Angles{-90, 40}},
	}
	for _, tc := range cases {
		got := Clamp(tc.in)
		if got != tc.want {
			t.Errorf("Clamp(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestPointerDeltaCenterIsZero(t *testing.T) {
	d := PointerDelta(320, 240, 640, 480)
	if d.X != 0 || d.Y != 0 {
		t.Fatalf("expected zero delta at window center, got %+v", d)
	}
}

func TestPointerDeltaInvertsX(t *testing.T) {
	d := PointerDelta(640, 240, 640, 480) // rightmost edge
	if d.X >= 0 {
		t.Fatalf("expected negative X delta for rightward pointer motion, got %v", d.X)
	}
}

func TestPointerDeltaClampsYIndependently(t *testing.T) {
	d := PointerDelta(320, 480, 640, 480) // bottom edge -> +90 raw, clamped to MaxY=40
	if d.Y != MaxY {
		t.Fatalf("expected Y delta clamped to %v, got %v", MaxY, d.Y)
	}
}

func TestTranslatorDragIsRelative(t *testing.T) {
	tr := NewTranslator(Angles{0, 0})
	tr.PointerDown(320, 240, 640, 480) // center, delta0 = (0,0)
	got := tr.PointerDrag(640, 240, 640, 480)
	if got.Y != 0 {
		t.Fatalf("expected unchanged Y, got %v", got.Y)
	}
	if got.X >= 0 {
		t.Fatalf("expected negative X after dragging pointer to the right edge, got %v", got.X)
	}
}

func TestTranslatorClampsResult(t *testing.T) {
	tr := NewTranslator(Angles{89, 39})
	tr.PointerDown(0, 0, 640, 480)
	got := tr.PointerDrag(639, 479, 640, 480)
	if got.X > MaxX || got.Y > MaxY {
		t.Fatalf("translator produced out-of-range angles: %+v", got)
	}
}
