package producerpipe

import (
	"sync"

	"github.com/gimbalcam/streamer/internal/gimbal"
)

// atomicAngles is the single-writer/single-reader angle cell shared
// between the control RX and TX activities: RX writes the gimbal's
// newly-applied angles, TX reads them to decide whether to echo a fresh
// control record. A mutex-protected cell is sufficient for this traffic.
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
