package session

import (
	"errors"
	"testing"
)

func TestWrapAndKindOf(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindChannelDown, cause)

	kind, ok := KindOf(err)
	if !ok || kind != KindChannelDown {
		t.Errorf("KindOf() = (%v, %v), want (KindChannelDown, true)", kind, ok)
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap chain should reach the original cause")
	}
}

func TestIsFatalToSession(t *testing.T) {
	fatal := []Kind{KindCameraUnavailable, KindChannelDown, KindProtocolError, KindFragmentationError}
	for _, k := range fatal {
		if !IsFatalToSession(k) {
			t.Errorf("IsFatalToSession(%v) = false, want true", k)
		}
	}

	recoverable := []Kind{KindInconsistentFrame, KindDecodeError, KindTimeout}
	for _, k := range recoverable {
		if IsFatalToSession(k) {
			t.Errorf("IsFatalToSession(%v) = true, want false", k)
		}
	}
}
