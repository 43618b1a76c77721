//go:build linux

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// applyVoiceOptimizations tunes the socket for small, frequent voice
// packets: SO_PRIORITY for faster queuing and, where the kernel supports
// it, busy-polling to reduce interrupt-driven latency jitter. Ported from
// the teacher repo's pkg/rtp/transport_socket_linux.go
// VoiceOptimizations.
func applyVoiceOptimizations(conn *net.UDPConn) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_PRIORITY, 6)
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BUSY_POLL, 50)
		// DSCP EF (expedited forwarding, 0x2E<<2) for voice-class traffic.
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, 0xB8)
	})
}
