package transport

import (
	"errors"
	"net"
)

// IsTimeout reports whether err is (or wraps) a net.Error whose Timeout()
// is true — i.e. a blocking call hit its deadline with nothing to read or
// write, as opposed to the socket itself having failed. Callers use this
// to tell the transient Timeout kind apart from ChannelDown.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
