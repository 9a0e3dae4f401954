// Package ui implements the consumer's GUI surface: a Fyne window that
// blits decoded frames and turns pointer drags into
// consumerpipe.PointerEvent callbacks. It merges tap handling and
// per-frame image update into a single widget, adding fyne.Draggable
// support for continuous pointer-driven gimbal commands.
package ui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/gimbalcam/streamer/internal/consumerpipe"
)

// streamWidget is the canvas.Image wrapped with pointer event handling.
// Key events are handled on the window canvas (see NewWindow).
type streamWidget struct {
	widget.BaseWidget
	img *canvas.Image

	mu         sync.Mutex
	nightMode  bool
	onPointer  func(consumerpipe.PointerEvent)
	lastWidth  int
	lastHeight int
}

func newStreamWidget() *streamWidget {
	w := &streamWidget{img: canvas.NewImageFromImage(nil)}
	w.img.FillMode = canvas.ImageFillStretch
	w.ExtendBaseWidget(w)
	return w
}

func (w *streamWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.img)
}

// MouseDown implements desktop.Mouseable, firing a PointerDown event.
func (w *streamWidget) MouseDown(ev *desktop.MouseEvent) {
	w.fire(consumerpipe.PointerDown, ev.Position)
}

// MouseUp implements desktop.Mouseable; only pointer-down and
// pointer-drag drive the gimbal, so MouseUp is a deliberate no-op.
func (w *streamWidget) MouseUp(ev *desktop.MouseEvent) {}

// Dragged implements fyne.Draggable, firing a PointerDrag event for each
// drag step.
func (w *streamWidget) Dragged(ev *fyne.DragEvent) {
	w.fire(consumerpipe.PointerDrag, ev.Position)
}

// DragEnd implements fyne.Draggable; no state to flush since every drag
// step already published its angles.
func (w *streamWidget) DragEnd() {}

func (w *streamWidget) fire(kind consumerpipe.PointerEventKind, pos fyne.Position) {
	w.mu.Lock()
	cb := w.onPointer
	width, height := w.lastWidth, w.lastHeight
	w.mu.Unlock()
	if cb == nil || width == 0 || height == 0 {
		return
	}
	cb(consumerpipe.PointerEvent{
		Kind: kind, X: int(pos.X), Y: int(pos.Y), Width: width, Height: height,
	})
}

func (w *streamWidget) setFrame(img image.Image) {
	w.mu.Lock()
	if w.nightMode {
		img = applyNightMode(img)
	}
	b := img.Bounds()
	w.lastWidth, w.lastHeight = b.Dx(), b.Dy()
	w.mu.Unlock()

	w.img.Image = img
	w.img.Refresh()
}

// Window implements consumerpipe.Window over a Fyne application window.
type Window struct {
	app    fyne.App
	win    fyne.Window
	widget *streamWidget

	keys chan rune
}

// NewWindow creates a Fyne application window sized to (width, height)
// and ready to receive decoded frames.
func NewWindow(title string, width, height int) *Window {
	a := app.New()
	win := a.NewWindow(title)
	sw := newStreamWidget()

	win.SetContent(sw)
	win.Resize(fyne.NewSize(float32(width), float32(height)))

	w := &Window{app: a, win: win, widget: sw, keys: make(chan rune, 16)}

	win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyN {
			sw.mu.Lock()
			sw.nightMode = !sw.nightMode
			sw.mu.Unlock()
		}
		select {
		case w.keys <- rune(ev.Name[0]):
		default:
		}
	})

	return w
}

// Show implements consumerpipe.Window: blit a decoded frame.
func (w *Window) Show(img image.Image) {
	w.widget.setFrame(img)
}

// SetPointerCallback implements consumerpipe.Window.
func (w *Window) SetPointerCallback(fn func(consumerpipe.PointerEvent)) {
	w.widget.mu.Lock()
	w.widget.onPointer = fn
	w.widget.mu.Unlock()
}

// PollKey implements consumerpipe.Window: a non-blocking take of the
// oldest queued key event, if any is waiting.
func (w *Window) PollKey() (rune, bool) {
	select {
	case k := <-w.keys:
		return k, true
	default:
		return 0, false
	}
}

// Run blocks showing the window until it is closed. Call from the main
// goroutine only — Fyne requires its event loop to run there.
func (w *Window) Run() {
	w.win.ShowAndRun()
}
