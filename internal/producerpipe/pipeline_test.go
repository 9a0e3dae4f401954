package producerpipe

import (
	"image"
	"testing"

	"github.com/gimbalcam/streamer/internal/camio"
	"github.com/gimbalcam/streamer/internal/gimbal"
)

type fakeCamera struct {
	frames []camio.RawFrame
	idx    int
}

func (f *fakeCamera) Open(w, h, fps int) error { return nil }
func (f *fakeCamera) Read() (camio.RawFrame, bool) {
	if f.idx >= len(f.frames) {
		return camio.RawFrame{}, false
	}
	fr := f.frames[f.idx]
	f.idx++
	return fr, true
}
func (f *fakeCamera) Close() error { return nil }

func TestFakeCameraProducesFrames(t *testing.T) {
	cam := &fakeCamera{frames: []camio.RawFrame{
		{Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), Width: 4, Height: 4},
	}}
	if err := cam.Open(4, 4, 15); err != nil {
		t.Fatal(err)
	}
	frame, ok := cam.Read()
	if !ok {
		t.Fatal("expected a frame")
	}
	if frame.Width != 4 || frame.Height != 4 {
		t.Fatalf("unexpected frame dims: %+v", frame)
	}
	if _, ok := cam.Read(); ok {
		t.Fatal("expected no more frames")
	}
}

func TestAtomicAnglesStoreLoad(t *testing.T) {
	var a atomicAngles
	got := a.load()
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("expected zero value, got %+v", got)
	}
	want := gimbal.Angles{X: 12.5, Y: -30}
	a.store(want)
	if got := a.load(); got != want {
		t.Fatalf("load() = %+v after store(%+v)", got, want)
	}
}
