// Package camio holds the external collaborator interfaces the core
// session protocol consumes: the camera, the gimbal actuator, the image
// codec, and the byte compressor. None of these are the hard part of the
// system; they exist so the producer/consumer pipelines in
// internal/producerpipe and internal/consumerpipe have something concrete
// to call in tests and in the field.
package camio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gimbalcam/streamer/internal/helpers"
)

// RawFrame is an opaque image buffer produced by the capture device.
// Dimensions are fixed for the lifetime of a session.
type RawFrame struct {
	Image  image.Image
	Width  int
	Height int
}

// Camera is the capture device abstraction: open a device at a requested
// resolution/FPS, read raw frames, close it. Implementations are free to
// retry internally; the producer pipeline only sees (ok, frame).
type Camera interface {
	Open(width, height, fps int) error
	Read() (RawFrame, bool)
	Close() error
}

// V4L2Camera captures MJPEG frames from a Linux V4L2 device via ffmpeg.
// It owns exactly one device for exactly one session and exposes a
// blocking Read instead of pushing into a channel or buffer itself — the
// producer pipeline's capture activity owns the push-into-buffer step
// (internal/framebuf).
type V4L2Camera struct {
	DevicePath string
	Format     string // "mjpeg" or "yuyv"

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	width   int
	height  int
	fps     int
	scratch []byte
	pending []byte
}

// NewV4L2Camera returns a camera bound to a V4L2 device path.
func NewV4L2Camera(devicePath, format string) *V4L2Camera {
	if format == "" {
		format = "mjpeg"
	}
	return &V4L2Camera{DevicePath: devicePath, Format: format}
}

// Open starts an ffmpeg process capturing MJPEG at the requested settings.
func (c *V4L2Camera) Open(width, height, fps int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if helpers.KillDeviceHolders(c.DevicePath, true) {
		log.Printf("[Camera] %s: cleared a stale holder before opening", c.DevicePath)
	}

	videoSize := fmt.Sprintf("%dx%d", width, height)
	args := []string{
		"-thread_queue_size", "512", "-probesize", "32", "-analyzeduration", "0",
		"-f", "v4l2", "-input_format", c.Format, "-video_size", videoSize,
		"-framerate", fmt.Sprintf("%d", fps), "-i", c.DevicePath,
		"-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "5", "-",
	}

	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("camio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("camio: start ffmpeg: %w", err)
	}

	c.cmd = cmd
	c.stdout = stdout
	c.width, c.height, c.fps = width, height, fps
	c.scratch = make([]byte, 8192)
	c.pending = make([]byte, 0, 65536)

	log.Printf("[Camera] %s: opened %s @ %d FPS (PID %d)", c.DevicePath, videoSize, fps, cmd.Process.Pid)
	return nil
}

// Read blocks for one complete JPEG frame delimited by SOI/EOI markers,
// decodes it, and returns (frame, true). On any read or decode failure it
// returns (zero, false) so the caller can classify it as a transient loss
// or, after repeated failures, CameraUnavailable.
func (c *V4L2Camera) Read() (RawFrame, bool) {
	c.mu.Lock()
	stdout := c.stdout
	width, height := c.width, c.height
	c.mu.Unlock()

	if stdout == nil {
		return RawFrame{}, false
	}

	jpegData, err := c.readMJPEGFrame(stdout)
	if err != nil {
		return RawFrame{}, false
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return RawFrame{}, false
	}
	return RawFrame{Image: img, Width: width, Height: height}, true
}

// readMJPEGFrame scans the ffmpeg stdout stream for one SOI..EOI delimited
// JPEG.
func (c *V4L2Camera) readMJPEGFrame(r io.Reader) ([]byte, error) {
	frameTimeout := 150 * time.Millisecond
	start := time.Now()

	for len(c.pending) < 2 || !hasSOI(c.pending) {
		if time.Since(start) > frameTimeout {
			c.pending = c.pending[:0]
			return nil, fmt.Errorf("camio: timeout finding SOI")
		}
		n, err := r.Read(c.scratch)
		if err != nil {
			return nil, err
		}
		c.pending = append(c.pending, c.scratch[:n]...)
		if i := indexSOI(c.pending); i >= 0 {
			c.pending = c.pending[i:]
		}
		if len(c.pending) > 200000 {
			c.pending = c.pending[len(c.pending)-10000:]
		}
	}

	for {
		if time.Since(start) > frameTimeout {
			c.pending = c.pending[:0]
			return nil, fmt.Errorf("camio: timeout finding EOI")
		}
		if i := indexEOI(c.pending); i >= 0 {
			frame := make([]byte, i+1)
			copy(frame, c.pending[:i+1])
			c.pending = append(c.pending[:0], c.pending[i+1:]...)
			return frame, nil
		}
		n, err := r.Read(c.scratch)
		if err != nil {
			return nil, err
		}
		c.pending = append(c.pending, c.scratch[:n]...)
		if len(c.pending) > 400000 {
			c.pending = c.pending[:0]
			return nil, io.EOF
		}
	}
}

func hasSOI(b []byte) bool { return indexSOI(b) == 0 }

func indexSOI(b []byte) int {
	for i := 0; i < len(b)-1; i++ {
		if b[i] == 0xFF && b[i+1] == 0xD8 {
			return i
		}
	}
	return -1
}

func indexEOI(b []byte) int {
	for i := 1; i < len(b); i++ {
		if b[i-1] == 0xFF && b[i] == 0xD9 {
			return i
		}
	}
	return -1
}

// DiscoverCameras lists V4L2 video-capture device paths available on this
// host, for a single-feed producer to offer an operator a pick-list.
func DiscoverCameras() []string {
	var found []string
	for num := 0; num < 10; num++ {
		path := fmt.Sprintf("/dev/video%d", num)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		cmd := exec.Command("v4l2-ctl", "--device="+path, "--info")
		output, err := cmd.Output()
		if err != nil {
			continue
		}
		if strings.Contains(string(output), "Video Capture") {
			found = append(found, path)
		}
	}
	return found
}

// Close stops the ffmpeg process and always reaps it, to avoid leaving
// zombies behind.
func (c *V4L2Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill()
		c.cmd.Wait()
	}
	c.cmd = nil
	c.stdout = nil
	return nil
}
