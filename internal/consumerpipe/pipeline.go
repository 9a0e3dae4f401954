// Package consumerpipe implements the consumer pipeline (C6): receiving
// and reassembling data-channel packets, decoding and rendering frames,
// and translating pointer events into gimbal commands.
package consumerpipe

import (
	"errors"
	"image"
	"log"
	"net"
	"time"

	"github.com/gimbalcam/streamer/internal/camio"
	"github.com/gimbalcam/streamer/internal/framebuf"
	"github.com/gimbalcam/streamer/internal/gimbal"
	"github.com/gimbalcam/streamer/internal/metrics"
	"github.com/gimbalcam/streamer/internal/session"
	"github.com/gimbalcam/streamer/internal/transport"
	"github.com/gimbalcam/streamer/internal/wire"
)

// Window is the GUI surface the consumer blits decoded frames to and
// reads pointer events from.
type Window interface {
	Show(img image.Image)
	SetPointerCallback(fn func(event PointerEvent))
	PollKey() (key rune, ok bool)
}

// PointerEventKind distinguishes pointer-down from pointer-drag, the two
// events the translator reacts to.
type PointerEventKind int

const (
	PointerDown PointerEventKind = iota
	PointerDrag
)

// PointerEvent is one pointer callback invocation, in window pixel
// coordinates.
type PointerEvent struct {
	Kind   PointerEventKind
	X, Y   int
	Width  int
	Height int
}

// Config bundles the consumer pipeline's tunables.
type Config struct {
	Width, Height         int
	FrameBufferCapacity   int // default 60
	ReassemblyConcurrency int // default 8
	ReassemblyIdleTimeout time.Duration
	ControlTickPeriod     time.Duration
}

// DefaultConfig returns the stated defaults.
func DefaultConfig() Config {
	return Config{
		Width: 640, Height: 480,
		FrameBufferCapacity:   60,
		ReassemblyConcurrency: 8,
		ReassemblyIdleTimeout: 500 * time.Millisecond,
		ControlTickPeriod:     10 * time.Millisecond,
	}
}

// Pipeline runs the consumer's receive, render, and control activities
// concurrently until the supervisor's Alive channel closes.
type Pipeline struct {
	cfg        Config
	window     Window
	codec      camio.Codec
	compressor camio.Compressor
	control    *transport.ControlEndpoint
	data       *transport.DataEndpoint
	sup        *session.Supervisor
	metrics    *metrics.Registry

	reassembler *wire.Reassembler
	frames      *framebuf.Buffer[[]byte]
	translator  *gimbal.Translator
	intent      atomicAngles
	echoed      atomicAngles
}

// New constructs a consumer Pipeline.
func New(cfg Config, window Window, codec camio.Codec, comp camio.Compressor, control *transport.ControlEndpoint, data *transport.DataEndpoint, sup *session.Supervisor, reg *metrics.Registry) *Pipeline {
	return &Pipeline{
		cfg: cfg, window: window, codec: codec, compressor: comp,
		control: control, data: data, sup: sup, metrics: reg,
		reassembler: wire.NewReassembler(cfg.ReassemblyConcurrency, cfg.ReassemblyIdleTimeout),
		frames:      framebuf.New[[]byte](cfg.FrameBufferCapacity),
		translator:  gimbal.NewTranslator(gimbal.Angles{}),
	}
}

// Run wires the pointer callback, starts all activities, and blocks until
// the session's Alive channel closes.
func (p *Pipeline) Run() error {
	p.window.SetPointerCallback(p.onPointerEvent)

	alive := p.sup.Alive()
	errCh := make(chan error, 4)

	go p.dataRXActivity(alive, errCh)
	go p.renderActivity(alive, errCh)
	go p.controlTXActivity(alive, errCh)
	go p.controlRXActivity(alive, errCh)
	go p.evictionActivity(alive)

	select {
	case err := <-errCh:
		return err
	case <-alive:
		return nil
	}
}

// onPointerEvent is the Window's pointer callback: it updates the
// translator and publishes the new intended angles for controlTXActivity
// to send.
func (p *Pipeline) onPointerEvent(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		p.translator.PointerDown(ev.X, ev.Y, ev.Width, ev.Height)
	case PointerDrag:
		angles := p.translator.PointerDrag(ev.X, ev.Y, ev.Width, ev.Height)
		p.intent.store(angles)
	}
}

// dataRXActivity is C6 activity 1: receive datagrams, reassemble, push
// completed blobs to the frame buffer.
func (p *Pipeline) dataRXActivity(alive <-chan struct{}, errCh chan<- error) {
	for {
		select {
		case <-alive:
			return
		default:
		}

		pkt, err := p.data.ReceivePacket()
		if err != nil {
			if transport.IsTimeout(err) {
				continue
			}
			var ne net.Error
			if !errors.As(err, &ne) {
				log.Printf("[Consumer] dropping malformed datagram: %v", err)
				continue // not a socket failure: drop and continue
			}
			errCh <- session.Wrap(session.KindChannelDown, err)
			return
		}
		if p.metrics != nil {
			p.metrics.PacketsReceived.Inc()
		}

		blob, ok, err := p.reassembler.Put(pkt)
		if err != nil {
			log.Printf("[Consumer] %v", err)
			continue // InconsistentFrame: drop and continue
		}
		if ok {
			p.frames.Push(blob)
			if p.metrics != nil {
				p.metrics.FramesReceived.Inc()
				p.metrics.ReassemblyInFlight.Set(float64(p.reassembler.InFlight()))
			}
		}
	}
}

// renderActivity is C6 activity 2: pop the newest buffered frame, inflate
// and decode it, blit it, and poll for key events.
func (p *Pipeline) renderActivity(alive <-chan struct{}, errCh chan<- error) {
	ticker := time.NewTicker(16 * time.Millisecond) // ~60Hz display refresh
	defer ticker.Stop()
	for {
		select {
		case <-alive:
			return
		case <-ticker.C:
		}

		blob, ok := p.frames.PopNewest()
		if !ok {
			continue
		}
		encoded, err := p.compressor.Inflate(blob)
		if err != nil {
			log.Printf("[Consumer] inflate failed: %v", err)
			if p.metrics != nil {
				p.metrics.DecodeErrors.Inc()
				p.metrics.FramesDropped.Inc()
			}
			continue
		}
		img, err := p.codec.Decode(encoded)
		if err != nil {
			log.Printf("[Consumer] jpeg decode failed: %v", err)
			if p.metrics != nil {
				p.metrics.DecodeErrors.Inc()
				p.metrics.FramesDropped.Inc()
			}
			continue
		}
		p.window.Show(img)
		if p.metrics != nil {
			p.metrics.FramesRendered.Inc()
		}

		if _, ok := p.window.PollKey(); ok {
			// Key handling (e.g. night-mode toggle) is wired by the
			// caller via Window; the pipeline itself has no keys of
			// its own to act on.
			_ = ok
		}
	}
}

// controlTXActivity is C6's half of activity 5: publish intended angles
// at ~100Hz when they've changed since the last send.
func (p *Pipeline) controlTXActivity(alive <-chan struct{}, errCh chan<- error) {
	var lastSent gimbal.Angles
	first := true
	ticker := time.NewTicker(p.cfg.ControlTickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-alive:
			return
		case <-ticker.C:
			current := p.intent.load()
			if first || current != lastSent {
				if err := p.control.Send(current); err != nil {
					if transport.IsTimeout(err) {
						log.Printf("[Consumer] control send timeout: %v", err)
						continue
					}
					errCh <- session.Wrap(session.KindChannelDown, err)
					return
				}
				lastSent = current
				first = false
			}
		}
	}
}

// controlRXActivity is C6's half of activity 5: log/display the
// producer's echoed applied angles.
func (p *Pipeline) controlRXActivity(alive <-chan struct{}, errCh chan<- error) {
	for {
		select {
		case <-alive:
			return
		default:
		}
		angles, ended, err := p.control.Recv()
		if err != nil {
			if transport.IsTimeout(err) {
				continue
			}
			errCh <- session.Wrap(session.KindChannelDown, err)
			return
		}
		if ended {
			continue
		}
		p.echoed.store(angles)
	}
}

// evictionActivity periodically clears stale in-flight reassemblies, per
// the idle-eviction rule for stale in-flight reassemblies.
func (p *Pipeline) evictionActivity(alive <-chan struct{}) {
	interval := p.cfg.ReassemblyIdleTimeout / 2
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-alive:
			return
		case <-ticker.C:
			if evicted := p.reassembler.Evict(); evicted > 0 && p.metrics != nil {
				p.metrics.ReassemblyEvictions.Add(float64(evicted))
			}
		}
	}
}

// EchoedAngles returns the producer's last-echoed applied angles, for
// display or diagnostics.
func (p *Pipeline) EchoedAngles() gimbal.Angles {
	return p.echoed.load()
}
