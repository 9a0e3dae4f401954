// Package producerpipe implements the producer pipeline (C5): the
// capture, emit, and control activities that turn camera frames into
// wire packets and gimbal commands into servo motion.
package producerpipe

import (
	"log"
	"math/rand"
	"time"

	"github.com/gimbalcam/streamer/internal/camio"
	"github.com/gimbalcam/streamer/internal/framebuf"
	"github.com/gimbalcam/streamer/internal/gimbal"
	"github.com/gimbalcam/streamer/internal/metrics"
	"github.com/gimbalcam/streamer/internal/session"
	"github.com/gimbalcam/streamer/internal/transport"
	"github.com/gimbalcam/streamer/internal/wire"
)

// Config bundles the tunables the pipeline needs beyond the channel
// endpoints themselves.
type Config struct {
	Width, Height, FPS int
	MaxPacketSize      int
	RawBufferCapacity  int // default 2
	ControlTickPeriod  time.Duration
}

// DefaultConfig returns the stated defaults.
func DefaultConfig() Config {
	return Config{
		Width: 640, Height: 480, FPS: 15,
		MaxPacketSize:     1024,
		RawBufferCapacity: 2,
		ControlTickPeriod: 100 * time.Millisecond,
	}
}

// Pipeline runs the four producer activities concurrently against a
// shared raw-frame buffer and a shared angle cell, until the supervisor's
// Alive channel closes.
type Pipeline struct {
	cfg        Config
	camera     camio.Camera
	gimbal     camio.Gimbal
	codec      camio.Codec
	compressor camio.Compressor
	control    *transport.ControlEndpoint
	data       *transport.DataEndpoint
	sup        *session.Supervisor
	metrics    *metrics.Registry
	flux       *session.FluxMeter

	raw *framebuf.Buffer[camio.RawFrame]

	currentAngles atomicAngles
}

// New constructs a Pipeline. Camera.Open is NOT called here; Run calls it
// so that a failed open surfaces as CameraUnavailable to the caller
// rather than at construction time.
func New(cfg Config, cam camio.Camera, gim camio.Gimbal, codec camio.Codec, comp camio.Compressor, control *transport.ControlEndpoint, data *transport.DataEndpoint, sup *session.Supervisor, reg *metrics.Registry) *Pipeline {
	return &Pipeline{
		cfg: cfg, camera: cam, gimbal: gim, codec: codec, compressor: comp,
		control: control, data: data, sup: sup, metrics: reg,
		flux: session.NewFluxMeter(),
		raw:  framebuf.New[camio.RawFrame](cfg.RawBufferCapacity),
	}
}

// Run opens the camera and starts all four activities, blocking until the
// session's Alive channel closes. It returns the terminal error, if any,
// that should be routed to the supervisor.
func (p *Pipeline) Run() error {
	if err := p.openCameraWithRetry(); err != nil {
		return session.Wrap(session.KindCameraUnavailable, err)
	}
	defer p.camera.Close()

	alive := p.sup.Alive()
	errCh := make(chan error, 4)

	go p.captureActivity(alive, errCh)
	go p.emitActivity(alive, errCh)
	go p.controlRXActivity(alive, errCh)
	go p.controlTXActivity(alive, errCh)

	select {
	case err := <-errCh:
		return err
	case <-alive:
		return nil
	}
}

// openCameraWithRetry implements the capture activity's recovery policy
// at startup: one retry after a 1s wait, then CameraUnavailable.
func (p *Pipeline) openCameraWithRetry() error {
	err := p.camera.Open(p.cfg.Width, p.cfg.Height, p.cfg.FPS)
	if err == nil {
		return nil
	}
	log.Printf("[Producer] camera open failed, retrying in 1s: %v", err)
	time.Sleep(1 * time.Second)
	if err := p.camera.Open(p.cfg.Width, p.cfg.Height, p.cfg.FPS); err != nil {
		return err
	}
	return nil
}

// captureActivity is C5 activity 1: read raw frames, push to the bounded
// raw buffer, reopen the camera on sustained failure.
func (p *Pipeline) captureActivity(alive <-chan struct{}, errCh chan<- error) {
	consecutiveFailures := 0
	for {
		select {
		case <-alive:
			return
		default:
		}

		frame, ok := p.camera.Read()
		if !ok {
			consecutiveFailures++
			if consecutiveFailures >= 3 {
				log.Printf("[Producer] camera read failing, reopening")
				p.camera.Close()
				time.Sleep(1 * time.Second)
				if err := p.camera.Open(p.cfg.Width, p.cfg.Height, p.cfg.FPS); err != nil {
					errCh <- session.Wrap(session.KindCameraUnavailable, err)
					return
				}
				consecutiveFailures = 0
			}
			continue
		}
		consecutiveFailures = 0
		if p.metrics != nil {
			p.metrics.FramesCaptured.Inc()
		}
		p.raw.Push(frame)
	}
}

// emitActivity is C5 activity 2: encode, compress, fragment, send.
func (p *Pipeline) emitActivity(alive <-chan struct{}, errCh chan<- error) {
	maxPayload := p.cfg.MaxPacketSize - wire.TrailerSize
	for {
		select {
		case <-alive:
			return
		default:
		}

		frame, ok := p.raw.Pop()
		if !ok {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		encoded, err := p.codec.Encode(frame)
		if err != nil {
			log.Printf("[Producer] jpeg encode failed: %v", err)
			if p.metrics != nil {
				p.metrics.FramesDropped.Inc()
			}
			continue
		}
		compressed, err := p.compressor.Deflate(encoded)
		if err != nil {
			log.Printf("[Producer] deflate failed: %v", err)
			if p.metrics != nil {
				p.metrics.FramesDropped.Inc()
			}
			continue
		}

		salt := rand.Intn(wire.MaxSalt + 1)
		packets, err := wire.Fragment(compressed, maxPayload, salt)
		if err != nil {
			log.Printf("[Producer] fragmentation error: %v", err)
			if p.metrics != nil {
				p.metrics.FramesDropped.Inc()
			}
			continue
		}
		for _, pkt := range packets {
			if err := p.data.SendPacket(pkt); err != nil {
				if transport.IsTimeout(err) {
					log.Printf("[Producer] data send timeout, dropping rest of frame: %v", err)
					break
				}
				errCh <- session.Wrap(session.KindChannelDown, err)
				return
			}
			p.flux.Add(len(pkt.Payload) + wire.TrailerSize)
			if p.metrics != nil {
				p.metrics.PacketsSent.Inc()
			}
		}
		if p.metrics != nil {
			p.metrics.FramesSent.Inc()
			p.metrics.DataFluxBytesPerSec.Set(p.flux.Rate())
		}
	}
}

// controlRXActivity is C5 activity 3: receive angle commands, apply to
// the gimbal when changed.
func (p *Pipeline) controlRXActivity(alive <-chan struct{}, errCh chan<- error) {
	last := gimbal.Angles{}
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
			log.Printf("[Producer] consumer sent end-of-session hint")
			continue
		}
		if angles != last {
			clamped := gimbal.Clamp(angles)
			if err := p.gimbal.Apply(clamped.X, clamped.Y); err != nil {
				log.Printf("[Producer] gimbal apply failed: %v", err)
				continue
			}
			last = clamped
			p.currentAngles.store(clamped)
		}
	}
}

// controlTXActivity is C5 activity 4: echo the gimbal's applied angles
// back roughly every ControlTickPeriod, but only when they changed.
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
			current := p.currentAngles.load()
			if first || current != lastSent {
				if err := p.control.Send(current); err != nil {
					if transport.IsTimeout(err) {
						log.Printf("[Producer] control send timeout: %v", err)
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
