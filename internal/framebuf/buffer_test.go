package framebuf

import "testing"

func TestPushPopFIFO(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	for _, want := range []int{1, 2, 3} {
		got, ok := b.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := b.Pop(); ok {
		t.Fatal("expected empty buffer after draining")
	}
}

func TestDropOldestOnOverflow(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	b.Push(2)
	b.Push(3) // should evict 1

	if got, ok := b.Pop(); !ok || got != 2 {
		t.Fatalf("expected oldest surviving element 2, got (%d, %v)", got, ok)
	}
	if got, ok := b.Pop(); !ok || got != 3 {
		t.Fatalf("expected 3, got (%d, %v)", got, ok)
	}
	_, _, dropped, _ := b.Stats()
	if dropped != 1 {
		t.Fatalf("expected 1 dropped element, got %d", dropped)
	}
}

func TestPopNewestDiscardsStaleEntries(t *testing.T) {
	b := New[int](5)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	got, ok := b.PopNewest()
	if !ok || got != 3 {
		t.Fatalf("expected newest element 3, got (%d, %v)", got, ok)
	}
	if b.Len() != 0 {
		t.Fatalf("expected buffer emptied by PopNewest, got len %d", b.Len())
	}
	_, _, dropped, _ := b.Stats()
	if dropped != 2 {
		t.Fatalf("expected 2 stale elements counted as dropped, got %d", dropped)
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	b := New[int](2)
	for i := 0; i < 100; i++ {
		b.Push(i)
		if b.Len() > 2 {
			t.Fatalf("buffer exceeded capacity: len=%d", b.Len())
		}
	}
}

func TestResetClearsStateAndStats(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer after Reset, got len %d", b.Len())
	}
	pushed, popped, dropped, _ := b.Stats()
	if pushed != 0 || popped != 0 || dropped != 0 {
		t.Fatalf("expected zeroed stats after Reset, got pushed=%d popped=%d dropped=%d", pushed, popped, dropped)
	}
}
