// Package transport is the datagram I/O collaborator this library binds
// against: a Channel interface the session sends through and receives
// from, with one concrete UDP implementation. ListenUDP binds the socket
// on the local address it is given; choosing that address and NAT
// traversal are the caller's concern, and this package only carries bytes. Grounded on the teacher repo's pkg/rtp/transport.go
// Transport interface.
package transport

import (
	"context"
	"net"
)

// Channel is the minimal collaborator a session needs: report its bound
// local address, send a datagram to a remote address, receive the next
// datagram, and close. Binding happens when the channel is created.
type Channel interface {
	LocalAddr() net.Addr
	SendTo(b []byte, addr net.Addr) error
	// RecvFrom blocks until a datagram arrives, ctx's deadline passes, or
	// the channel is closed. UDPChannel applies only ctx's deadline to the
	// socket: cancelling a ctx that has no deadline does not unblock a
	// pending read; closing the channel does.
	RecvFrom(ctx context.Context) (b []byte, from net.Addr, err error)
	Close() error
}

// Config carries the tunables a Channel's concrete implementation may
// apply, mirroring pkg/rtp/transport.go's DefaultTransportConfig
// convention.
type Config struct {
	ReadBufferBytes  int
	WriteBufferBytes int
	// VoiceOptimized requests OS-level socket tuning suited to small,
	// frequent voice packets (see socket_linux.go) where supported.
	VoiceOptimized bool
}

// DefaultConfig returns sane defaults for a voice RTP/RTCP channel.
func DefaultConfig() Config {
	return Config{
		ReadBufferBytes:  262144,
		WriteBufferBytes: 262144,
		VoiceOptimized:   true,
	}
}
