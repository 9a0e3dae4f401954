package camio

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// Gimbal is the 2-axis servo actuator abstraction: apply an (x, y) degree
// pair. Ranges are enforced by internal/gimbal before this is called;
// implementations may clamp again defensively but must not block for long.
type Gimbal interface {
	Apply(x, y float64) error
}

// pwmServo mirrors the Python reference's gpiozero.AngularServo pulse-width
// mapping: a 20ms frame, with MinAngle..MaxAngle spanning MinPulse..MaxPulse.
type pwmServo struct {
	pin       gpio.PinIO
	minAngle  float64
	maxAngle  float64
	minPulse  time.Duration
	maxPulse  time.Duration
	frameTime time.Duration
}

func newPWMServo(pinName string, minAngle, maxAngle float64, minPulse, maxPulse time.Duration) (*pwmServo, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("camio: gpio pin %s not found", pinName)
	}
	return &pwmServo{
		pin:       pin,
		minAngle:  minAngle,
		maxAngle:  maxAngle,
		minPulse:  minPulse,
		maxPulse:  maxPulse,
		frameTime: 20 * time.Millisecond,
	}, nil
}

func (s *pwmServo) setAngle(angle float64) error {
	if angle < s.minAngle {
		angle = s.minAngle
	}
	if angle > s.maxAngle {
		angle = s.maxAngle
	}
	span := s.maxAngle - s.minAngle
	frac := (angle - s.minAngle) / span
	pulse := s.minPulse + time.Duration(frac*float64(s.maxPulse-s.minPulse))

	duty := gpio.Duty(float64(pulse) / float64(s.frameTime) * float64(gpio.DutyMax))
	freq := physic.Frequency(time.Second / s.frameTime)
	return s.pin.PWM(duty, freq)
}

// PiGPIOGimbal drives a pan/tilt servo pair over GPIO PWM using periph.io:
// pin 12 for X in [-90, 90] with a 0.5-2.5ms pulse span, pin 13 for Y in
// [-90, 40] with a 0.5-1.94444ms pulse span.
type PiGPIOGimbal struct {
	x *pwmServo
	y *pwmServo
}

// NewPiGPIOGimbal initializes the periph.io host drivers and binds the two
// servo pins. Call once per process; safe to call even when not running on
// a Raspberry Pi — returns an error the caller can fall back from.
func NewPiGPIOGimbal(xPin, yPin string) (*PiGPIOGimbal, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("camio: periph host init: %w", err)
	}

	x, err := newPWMServo(xPin, -90, 90, 500*time.Microsecond, 2500*time.Microsecond)
	if err != nil {
		return nil, err
	}
	y, err := newPWMServo(yPin, -90, 40, 500*time.Microsecond, 1944*time.Microsecond)
	if err != nil {
		return nil, err
	}
	return &PiGPIOGimbal{x: x, y: y}, nil
}

// Apply moves both axes to the given angles.
func (g *PiGPIOGimbal) Apply(x, y float64) error {
	if err := g.x.setAngle(x); err != nil {
		return fmt.Errorf("camio: apply x: %w", err)
	}
	if err := g.y.setAngle(y); err != nil {
		return fmt.Errorf("camio: apply y: %w", err)
	}
	return nil
}

// LoggingGimbal is a no-hardware stand-in used on producer hosts without a
// wired servo; it records and logs the last applied angles.
type LoggingGimbal struct {
	X, Y float64
}

// Apply stores and logs the requested angles.
func (g *LoggingGimbal) Apply(x, y float64) error {
	g.X, g.Y = x, y
	log.Printf("[Gimbal] apply x=%.2f y=%.2f", x, y)
	return nil
}
