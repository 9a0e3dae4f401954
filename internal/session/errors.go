// Package session implements the session supervisor (C7): the explicit
// state machine coupling one control channel and one data channel into a
// single session, with coordinated reset on any channel failure. It
// replaces the source's ad hoc thread spawning and "set socket to None to
// stop me" sentinel pattern with a supervised state machine and a shared
// cancellation signal, per the design notes this project follows.
package session

import (
	"errors"
	"fmt"
)

// Kind classifies a session-level failure for routing and logging,
// matching the error taxonomy used throughout the pipeline packages.
type Kind int

const (
	// KindCameraUnavailable means the camera could not be (re)opened
	// after retry; fatal to the session, not to the process.
	KindCameraUnavailable Kind = iota
	// KindChannelDown means either the control or data socket failed.
	KindChannelDown
	// KindProtocolError means a control-channel message failed to parse.
	KindProtocolError
	// KindInconsistentFrame means the reassembler saw conflicting
	// packets for one salt.
	KindInconsistentFrame
	// KindDecodeError means JPEG decode or DEFLATE inflate failed.
	KindDecodeError
	// KindFragmentationError means a frame could not be split into
	// at most 1000 packets at the configured packet size.
	KindFragmentationError
	// KindTimeout means a blocking channel operation exceeded its
	// deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindCameraUnavailable:
		return "CameraUnavailable"
	case KindChannelDown:
		return "ChannelDown"
	case KindProtocolError:
		return "ProtocolError"
	case KindInconsistentFrame:
		return "InconsistentFrame"
	case KindDecodeError:
		return "DecodeError"
	case KindFragmentationError:
		return "FragmentationError"
	case KindTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with its Kind, so supervisors and
// pipeline activities can route on Kind without string matching.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap builds a session Error of the given kind around cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsFatalToSession reports whether an error of this Kind must trigger a
// coordinated reset of the whole session, versus being recoverable by the
// activity that hit it. InconsistentFrame and DecodeError drop the
// offending frame and continue; Timeout is also recoverable, transient,
// and the loop continues unless the session is draining — a single
// blocking call exceeding its deadline says nothing about the channel's
// health, only that nothing arrived in time.
func IsFatalToSession(kind Kind) bool {
	switch kind {
	case KindInconsistentFrame, KindDecodeError, KindTimeout:
		return false
	default:
		return true
	}
}
