package metrics

// IncParseError records a dropped inbound datagram by reason code. Safe to
// call on a nil *Collector.
func (c *Collector) IncParseError(code string) {
	if c == nil {
		return
	}
	c.ParseErrors.WithLabelValues(code).Inc()
}

// ObserveJitterOutcome increments the counter matching outcome's label.
// Safe to call on a nil *Collector.
func (c *Collector) ObserveJitterOutcome(outcome string) {
	if c == nil {
		return
	}
	switch outcome {
	case "accepted":
		c.JitterAccepted.Inc()
	case "duplicate":
		c.JitterDuplicate.Inc()
	case "too_late":
		c.JitterTooLate.Inc()
	case "displaced":
		c.JitterDisplaced.Inc()
	}
}

// ObserveRTCPInterval records a computed reporting interval in seconds.
// Safe to call on a nil *Collector.
func (c *Collector) ObserveRTCPInterval(seconds float64) {
	if c == nil {
		return
	}
	c.RTCPInterval.Observe(seconds)
}

// IncPacketsSent/IncPacketsReceived/IncSSRCCollision are safe to call on a
// nil *Collector.
func (c *Collector) IncPacketsSent() {
	if c == nil {
		return
	}
	c.PacketsSent.Inc()
}

func (c *Collector) IncPacketsReceived() {
	if c == nil {
		return
	}
	c.PacketsReceived.Inc()
}

func (c *Collector) IncSSRCCollision() {
	if c == nil {
		return
	}
	c.SessionSSRCCollision.Inc()
}
