package wire

import (
	"fmt"
	"sync"
	"time"
)

// InconsistentFrameError is returned when two packets claiming the same
// salt disagree on the frame's total packet count — the producer's salts
// collided, or a stray packet from an old frame arrived late. The
// reassembler drops the older assembly and starts a fresh one under that
// salt rather than mixing bytes from two frames.
type InconsistentFrameError struct {
	Salt          int
	ExpectedTotal int
	GotTotal      int
}

func (e *InconsistentFrameError) Error() string {
	return fmt.Sprintf("wire: inconsistent frame for salt %d: expected total %d, got %d", e.Salt, e.ExpectedTotal, e.GotTotal)
}

// assembly tracks the partial state of one in-progress frame.
type assembly struct {
	total    int
	received int
	parts    [][]byte
	have     []bool
	lastSeen time.Time
}

func newAssembly(total int) *assembly {
	return &assembly{
		total: total,
		parts: make([][]byte, total),
		have:  make([]bool, total),
	}
}

func (a *assembly) put(index int, payload []byte) (complete bool) {
	if !a.have[index] {
		a.have[index] = true
		a.parts[index] = payload
		a.received++
	}
	return a.received == a.total
}

func (a *assembly) join() []byte {
	size := 0
	for _, p := range a.parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range a.parts {
		out = append(out, p...)
	}
	return out
}

// Reassembler reconstructs frames from out-of-order, possibly-lossy
// packets arriving over the data channel. It bounds its own memory by
// tracking at most maxConcurrent in-progress frames at once (drop-oldest
// on overflow) and evicting any assembly idle for longer than idleTimeout.
// Reassembler is safe for concurrent use by a single receive goroutine
// feeding it and a separate goroutine calling Evict on a timer; both
// paths take the same mutex.
type Reassembler struct {
	mu            sync.Mutex
	maxConcurrent int
	idleTimeout   time.Duration
	order         []int // salts in arrival order of first packet, oldest first
	active        map[int]*assembly
}

// NewReassembler constructs a Reassembler bounded to maxConcurrent
// in-flight frames, each evicted if idle for longer than idleTimeout.
func NewReassembler(maxConcurrent int, idleTimeout time.Duration) *Reassembler {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if idleTimeout <= 0 {
		idleTimeout = 500 * time.Millisecond
	}
	return &Reassembler{
		maxConcurrent: maxConcurrent,
		idleTimeout:   idleTimeout,
		active:        make(map[int]*assembly),
	}
}

// Put feeds one received packet into the reassembler. If the packet
// completes its frame, the full reassembled blob is returned with ok=true
// and the assembly is removed. A non-nil error means the packet's total
// conflicted with the assembly already in flight for its salt; that
// assembly is discarded and replaced with a fresh one seeded by this
// packet, so the stream recovers on the next arriving frame.
func (r *Reassembler) Put(p Packet) (blob []byte, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.active[p.Salt]
	if exists && a.total != p.Total {
		delete(r.active, p.Salt)
		r.removeFromOrder(p.Salt)
		err = &InconsistentFrameError{Salt: p.Salt, ExpectedTotal: a.total, GotTotal: p.Total}
		exists = false
	}
	if !exists {
		a = newAssembly(p.Total)
		r.admit(p.Salt, a)
	}
	a.lastSeen = time.Now()
	if p.Index < 0 || p.Index >= a.total {
		return nil, false, err
	}
	if a.put(p.Index, p.Payload) {
		delete(r.active, p.Salt)
		r.removeFromOrder(p.Salt)
		return a.join(), true, err
	}
	return nil, false, err
}

// admit registers a new assembly under salt, evicting the oldest
// in-flight assembly first if the concurrency bound is already reached.
func (r *Reassembler) admit(salt int, a *assembly) {
	if len(r.order) >= r.maxConcurrent {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.active, oldest)
	}
	r.active[salt] = a
	r.order = append(r.order, salt)
}

func (r *Reassembler) removeFromOrder(salt int) {
	for i, s := range r.order {
		if s == salt {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Evict drops any assembly that has not received a packet for longer than
// idleTimeout. Call it periodically (e.g. every idleTimeout/2) from the
// same goroutine that owns the receive loop, or guarded by the same lock
// discipline as Put. Returns the number of assemblies evicted, for metrics.
func (r *Reassembler) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.idleTimeout)
	evicted := 0
	remaining := r.order[:0]
	for _, salt := range r.order {
		a := r.active[salt]
		if a.lastSeen.Before(cutoff) {
			delete(r.active, salt)
			evicted++
			continue
		}
		remaining = append(remaining, salt)
	}
	r.order = remaining
	return evicted
}

// InFlight reports how many assemblies are currently tracked.
func (r *Reassembler) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
