package session

import (
	"log/slog"
	"net"

	"github.com/sipstack/plainrtp/pkg/codec"
	"github.com/sipstack/plainrtp/pkg/jitter"
	"github.com/sipstack/plainrtp/pkg/metrics"
)

// Options configures a new Session. Matches the teacher repo's
// DefaultTransportConfig/RTPSessionConfig option-struct convention
// (pkg/rtp/transport.go, pkg/rtp/rtp_session.go) generalized to this
// library's full surface.
type Options struct {
	LocalAddr  string
	RemoteAddr net.Addr

	PayloadType     uint8
	ClockRate       uint32
	SSRC            uint32 // 0 means generate randomly
	DTMFPayloadType uint8

	JitterCapacity int
	JitterPrefetch int

	RTCPBandwidthBytesPerSec float64
	CNAME                    string

	Codecs  *codec.Registry
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// DefaultOptions returns sane defaults for a narrowband PCMU session.
func DefaultOptions() Options {
	return Options{
		PayloadType:              codec.PayloadPCMU,
		ClockRate:                8000,
		DTMFPayloadType:          101,
		JitterCapacity:           jitter.DefaultConfig().Capacity,
		JitterPrefetch:           jitter.DefaultConfig().Prefetch,
		RTCPBandwidthBytesPerSec: 1250, // 10 kbit/s (5% of 200 kbit/s), in bytes/sec
		Codecs:                   codec.New(),
		Logger:                   slog.Default(),
	}
}
