package session

import (
	"sync"
	"time"
)

// FluxMeter measures a windowed bytes-per-second rate. It is push-based:
// callers call Add(n) as bytes cross the wire, Rate to read the rate since
// the window began, and ReadAndReset to read it and start a new window,
// so it has no sampling goroutine of its own.
type FluxMeter struct {
	mu        sync.Mutex
	windowAt  time.Time
	windowLen int64
}

// NewFluxMeter starts a meter with its window beginning now.
func NewFluxMeter() *FluxMeter {
	return &FluxMeter{windowAt: time.Now()}
}

// Add records n additional bytes transferred in the current window.
func (f *FluxMeter) Add(n int) {
	f.mu.Lock()
	f.windowLen += int64(n)
	f.mu.Unlock()
}

// Rate returns the bytes/sec implied by the bytes recorded since the
// window started, without resetting it.
func (f *FluxMeter) Rate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	elapsed := time.Since(f.windowAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(f.windowLen) / elapsed
}

// ReadAndReset returns the bytes/sec for the just-elapsed window and
// starts a new one; call this from a periodic metrics/health tick.
func (f *FluxMeter) ReadAndReset() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	elapsed := time.Since(f.windowAt).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(f.windowLen) / elapsed
	}
	f.windowLen = 0
	f.windowAt = time.Now()
	return rate
}
