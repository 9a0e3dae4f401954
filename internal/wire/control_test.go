package wire

import "testing"

func TestControlRecordRoundTrip(t *testing.T) {
	cases := []struct {
		x, y float64
	}{
		{12.34, -5.67},
		{0, 0},
		{-90, 40},
		{90, -90},
		{-0.01, 0.01},
	}
	for _, tc := range cases {
		rec := EncodeControlRecord(tc.x, tc.y)
		if len(rec) != ControlRecordSize {
			t.Fatalf("record for (%.2f, %.2f) is %d bytes, want %d", tc.x, tc.y, len(rec), ControlRecordSize)
		}
		x, y, err := ParseControlRecord(rec)
		if err != nil {
			t.Fatalf("ParseControlRecord: %v", err)
		}
		if x != tc.x || y != tc.y {
			t.Fatalf("round trip mismatch: got (%.2f, %.2f), want (%.2f, %.2f)", x, y, tc.x, tc.y)
		}
	}
}

func TestControlRecordTrailingBytesRule(t *testing.T) {
	rec := EncodeControlRecord(1.5, -2.5)
	coalesced := append([]byte("garbage-from-a-prior-write"), rec...)
	x, y, err := ParseControlRecord(coalesced)
	if err != nil {
		t.Fatal(err)
	}
	if x != 1.5 || y != -2.5 {
		t.Fatalf("trailing-bytes parse mismatch: got (%.2f, %.2f)", x, y)
	}
}

func TestControlRecordZeroPadding(t *testing.T) {
	rec := EncodeControlRecord(5.5, -5.5)
	if string(rec) != "005.50 -05.50" {
		t.Fatalf("got %q", rec)
	}
}

func TestEndSessionHint(t *testing.T) {
	if !IsEndSessionHint([]byte(EndSessionHint)) {
		t.Fatal("literal end-session hint not recognized")
	}
	if !IsEndSessionHint(append([]byte("005.00 005.00"), []byte(EndSessionHint)...)) {
		t.Fatal("trailing end-session hint not recognized")
	}
	if IsEndSessionHint([]byte("005.00 005.00")) {
		t.Fatal("ordinary control record misdetected as end-session hint")
	}
}
