package session

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// State is one node of the session supervisor's state machine: Idle ->
// AwaitingControl -> AwaitingData -> Active -> Draining -> Idle, with any
// failure from a non-Idle state routing to Draining.
type State int32

const (
	Idle State = iota
	AwaitingControl
	AwaitingData
	Active
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingControl:
		return "AwaitingControl"
	case AwaitingData:
		return "AwaitingData"
	case Active:
		return "Active"
	case Draining:
		return "Draining"
	default:
		return "Unknown"
	}
}

// legalTransitions enumerates the state machine's edges. A transition not
// listed here is a programming error in the supervisor, not a session
// failure.
var legalTransitions = map[State][]State{
	Idle:            {AwaitingControl},
	AwaitingControl: {AwaitingData, Draining},
	AwaitingData:    {Active, Draining},
	Active:          {Draining},
	Draining:        {Idle},
}

// Supervisor owns the session state machine and the cancellation signal
// observed by every pipeline activity. One Supervisor instance can serve
// repeated sessions: after a Draining -> Idle cycle completes, the same
// Supervisor accepts the next Start.
type Supervisor struct {
	mu    sync.Mutex
	state State

	// alive is closed when the current session's activities must stop;
	// replaced with a fresh channel every time the supervisor leaves
	// Idle, so activities started in one session never observe a
	// cancellation meant for a different one.
	alive chan struct{}

	generation    atomic.Uint64
	onReset       func()
	onStateChange func(State)
}

// NewSupervisor constructs a Supervisor in the Idle state. onReset, if
// non-nil, is invoked once per Draining->Idle transition after all
// owned resources (camera, gimbal, buffers) have been asked to release;
// wiring it to the pipeline's teardown keeps "coordinated reset" in one
// place instead of scattered across activities.
func NewSupervisor(onReset func()) *Supervisor {
	return &Supervisor{state: Idle, onReset: onReset}
}

// OnStateChange registers a callback invoked after every successful state
// transition, used to mirror the state machine onto a metrics gauge.
func (s *Supervisor) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onStateChange = fn
	s.mu.Unlock()
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alive returns the cancellation channel for the session currently in
// flight. It is closed exactly once, when the supervisor enters Draining;
// activities select on it alongside their blocking I/O calls.
func (s *Supervisor) Alive() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Start transitions Idle -> AwaitingControl, arming a fresh cancellation
// channel for the new session.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(AwaitingControl); err != nil {
		return err
	}
	s.alive = make(chan struct{})
	s.generation.Add(1)
	return nil
}

// ControlEstablished transitions AwaitingControl -> AwaitingData.
func (s *Supervisor) ControlEstablished() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(AwaitingData)
}

// DataEstablished transitions AwaitingData -> Active.
func (s *Supervisor) DataEstablished() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(Active)
}

// Fail routes the supervisor to Draining from any non-Idle state,
// closing the alive channel so every activity unblocks. Safe to call
// more than once or concurrently; only the first call has effect.
func (s *Supervisor) Fail(cause error) {
	s.mu.Lock()
	if s.state == Idle || s.state == Draining {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = Draining
	close(s.alive)
	onStateChange := s.onStateChange
	s.mu.Unlock()

	if onStateChange != nil {
		onStateChange(Draining)
	}
	if cause != nil {
		log.Printf("[Session] %s -> Draining: %v", prev, cause)
	} else {
		log.Printf("[Session] %s -> Draining", prev)
	}
}

// FinishDraining transitions Draining -> Idle once the caller has
// confirmed every owned resource (camera, gimbal, sockets, buffers) has
// been released. It invokes onReset before returning to Idle so a new
// Start() cannot race with in-progress teardown.
func (s *Supervisor) FinishDraining() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Draining {
		return fmt.Errorf("session: FinishDraining called from state %s", s.state)
	}
	if s.onReset != nil {
		s.onReset()
	}
	s.state = Idle
	log.Printf("[Session] Draining -> Idle")
	if s.onStateChange != nil {
		s.onStateChange(Idle)
	}
	return nil
}

// Generation returns a counter incremented on every Start(), so
// activities can detect they have been superseded by a newer session
// even if they observe alive closing late.
func (s *Supervisor) Generation() uint64 {
	return s.generation.Load()
}

func (s *Supervisor) transitionLocked(next State) error {
	for _, allowed := range legalTransitions[s.state] {
		if allowed == next {
			log.Printf("[Session] %s -> %s", s.state, next)
			s.state = next
			if s.onStateChange != nil {
				s.onStateChange(next)
			}
			return nil
		}
	}
	return fmt.Errorf("session: illegal transition %s -> %s", s.state, next)
}
