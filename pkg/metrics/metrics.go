// Package metrics is the optional observability layer a session can be
// handed at construction. It is never required: every SPEC_FULL.md
// operation works with a nil *Collector. Grounded on the teacher repo's
// pkg/dialog/metrics.go MetricsCollector, which wires
// github.com/prometheus/client_golang/prometheus/promauto the same way
// (field-per-metric struct, constructor registers everything against the
// given prometheus.Registerer). Collection is switched off by a nil
// *Collector, whose methods do nothing; the enabled field is set by New but
// not consulted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every counter/gauge/histogram this library exposes.
type Collector struct {
	enabled bool

	PacketsSent        prometheus.Counter
	PacketsReceived     prometheus.Counter
	ParseErrors         *prometheus.CounterVec
	JitterAccepted      prometheus.Counter
	JitterDuplicate     prometheus.Counter
	JitterTooLate       prometheus.Counter
	JitterDisplaced     prometheus.Counter
	RTCPInterval        prometheus.Histogram
	SessionSSRCCollision prometheus.Counter
}

// New registers this library's metrics against reg and returns a
// Collector that writes to them. Pass nil to disable metrics entirely;
// every method on a nil *Collector is a safe no-op (see noop.go).
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &Collector{
		enabled: true,
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rtp_packets_sent_total",
			Help: "RTP packets sent.",
		}),
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rtp_packets_received_total",
			Help: "RTP packets received.",
		}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rtp_parse_errors_total",
			Help: "Inbound datagrams dropped for failing to parse, by reason.",
		}, []string{"code"}),
		JitterAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jitter_buffer_accepted_total",
			Help: "Packets accepted into the jitter buffer.",
		}),
		JitterDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jitter_buffer_duplicate_total",
			Help: "Duplicate sequence numbers seen by the jitter buffer.",
		}),
		JitterTooLate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jitter_buffer_too_late_total",
			Help: "Packets arriving behind the jitter buffer's window floor.",
		}),
		JitterDisplaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jitter_buffer_displaced_total",
			Help: "Packets evicted from the jitter buffer by a colliding slot.",
		}),
		RTCPInterval: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "rtcp_report_interval_seconds",
			Help:    "Computed RTCP reporting interval per report.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 6),
		}),
		SessionSSRCCollision: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "session_ssrc_collisions_total",
			Help: "Local SSRC collisions detected and resolved by re-rolling.",
		}),
	}
}
