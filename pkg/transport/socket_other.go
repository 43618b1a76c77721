//go:build !linux

package transport

import "net"

// applyVoiceOptimizations is a no-op on platforms without the Linux
// socket-tuning knobs the teacher's transport_socket_darwin.go/_windows.go
// files gate behind their own build tags; this library's correctness does
// not depend on the tuning being available.
func applyVoiceOptimizations(conn *net.UDPConn) {}
