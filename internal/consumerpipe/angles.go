package consumerpipe

import (
	"sync"

	"github.com/gimbalcam/streamer/internal/gimbal"
)

// atomicAngles is a mutex-protected angle cell, mirroring
// internal/producerpipe's cell. The consumer Pipeline holds two: intent,
// written by the pointer callback and read by controlTXActivity, and
// echoed, written by controlRXActivity and read by EchoedAngles.
type atomicAngles struct {
	mu sync.Mutex
	v  gimbal.Angles
}

func (a *atomicAngles) store(v gimbal.Angles) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

func (a *atomicAngles) load() gimbal.Angles {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}
