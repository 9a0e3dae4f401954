package session

import "testing"

func TestHappyPathTransitions(t *testing.T) {
	resetCalled := false
	s := NewSupervisor(func() { resetCalled = true })

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.State() != AwaitingControl {
		t.Fatalf("got %s, want AwaitingControl", s.State())
	}
	if err := s.ControlEstablished(); err != nil {
		t.Fatal(err)
	}
	if err := s.DataEstablished(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Active {
		t.Fatalf("got %s, want Active", s.State())
	}

	s.Fail(nil)
	if s.State() != Draining {
		t.Fatalf("got %s, want Draining", s.State())
	}
	select {
	case <-s.Alive():
	default:
		t.Fatal("expected Alive() channel closed after Fail")
	}

	if err := s.FinishDraining(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Idle {
		t.Fatalf("got %s, want Idle", s.State())
	}
	if !resetCalled {
		t.Fatal("expected onReset callback invoked")
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	s := NewSupervisor(nil)
	if err := s.DataEstablished(); err == nil {
		t.Fatal("expected error transitioning Idle -> Active directly")
	}
}

func TestFailFromAnyNonIdleStateGoesToDraining(t *testing.T) {
	for steps := 0; steps <= 2; steps++ {
		s := NewSupervisor(nil)
		_ = s.Start()
		if steps >= 1 {
			_ = s.ControlEstablished()
		}
		if steps >= 2 {
			_ = s.DataEstablished()
		}
		from := s.State()
		s.Fail(nil)
		if s.State() != Draining {
			t.Fatalf("from %s: got %s, want Draining", from, s.State())
		}
	}
}

func TestFailIsIdempotent(t *testing.T) {
	s := NewSupervisor(nil)
	_ = s.Start()
	s.Fail(nil)
	s.Fail(nil) // must not panic on double-close of alive channel
	if s.State() != Draining {
		t.Fatalf("got %s, want Draining", s.State())
	}
}

func TestGenerationIncrementsPerSession(t *testing.T) {
	s := NewSupervisor(nil)
	_ = s.Start()
	first := s.Generation()
	s.Fail(nil)
	_ = s.FinishDraining()
	_ = s.Start()
	if s.Generation() != first+1 {
		t.Fatalf("expected generation to increment, got %d then %d", first, s.Generation())
	}
}
