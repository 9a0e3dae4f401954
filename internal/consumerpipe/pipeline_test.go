package consumerpipe

import (
	"image"
	"testing"

	"github.com/gimbalcam/streamer/internal/gimbal"
)

type fakeWindow struct {
	shown    []image.Image
	callback func(PointerEvent)
}

func (w *fakeWindow) Show(img image.Image)                     { w.shown = append(w.shown, img) }
func (w *fakeWindow) SetPointerCallback(fn func(PointerEvent)) { w.callback = fn }
func (w *fakeWindow) PollKey() (rune, bool)                    { return 0, false }

func TestOnPointerEventUpdatesIntent(t *testing.T) {
	p := &Pipeline{}
	p.translator = gimbal.NewTranslator(gimbal.Angles{})

	p.onPointerEvent(PointerEvent{Kind: PointerDown, X: 320, Y: 240, Width: 640, Height: 480})
	p.onPointerEvent(PointerEvent{Kind: PointerDrag, X: 640, Y: 240, Width: 640, Height: 480})

	got := p.intent.load()
	if got.X >= 0 {
		t.Fatalf("expected negative X after dragging right, got %+v", got)
	}
}

func TestFakeWindowReceivesCallback(t *testing.T) {
	w := &fakeWindow{}
	w.SetPointerCallback(func(ev PointerEvent) {})
	if w.callback == nil {
		t.Fatal("expected callback to be stored")
	}
}
