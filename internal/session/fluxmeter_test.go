package session

import (
	"testing"
	"time"
)

func TestFluxMeterRateReflectsAddedBytes(t *testing.T) {
	f := NewFluxMeter()
	f.Add(1000)
	time.Sleep(20 * time.Millisecond)
	rate := f.Rate()
	if rate <= 0 {
		t.Errorf("Rate() = %v, want > 0", rate)
	}
}

func TestFluxMeterReadAndResetClearsWindow(t *testing.T) {
	f := NewFluxMeter()
	f.Add(500)
	time.Sleep(10 * time.Millisecond)
	first := f.ReadAndReset()
	if first <= 0 {
		t.Errorf("first ReadAndReset() = %v, want > 0", first)
	}

	time.Sleep(10 * time.Millisecond)
	second := f.Rate()
	if second != 0 {
		t.Errorf("Rate() after reset = %v, want 0", second)
	}
}
