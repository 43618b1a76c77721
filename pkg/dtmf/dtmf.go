// Package dtmf implements RFC 4733 telephone-event framing: encoding a
// held digit into a cadence of growing-duration RTP packets on send, and
// reassembling those packets back into discrete digit events on receive.
// Adapted from the teacher repo's pkg/media/dtmf.go (DTMFPayload bit
// layout, DTMFSender/DTMFReceiver split), generalized from that file's
// fixed 3-packets-then-3-end-packets cadence to this library's
// every-20ms-growing-duration-then-three-end-packets policy and its
// 200ms receive-side completion timeout.
package dtmf

import (
	"fmt"
	"time"
)

// Digit is an RFC 4733 telephone-event code, 0-15.
type Digit uint8

const (
	Digit0 Digit = iota
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	DigitStar
	DigitPound
	DigitA
	DigitB
	DigitC
	DigitD
)

func (d Digit) String() string {
	switch {
	case d <= Digit9:
		return string('0' + byte(d))
	case d == DigitStar:
		return "*"
	case d == DigitPound:
		return "#"
	case d >= DigitA && d <= DigitD:
		return string('A' + byte(d-DigitA))
	default:
		return "?"
	}
}

// ParseDigit converts a single character to its RFC 4733 event code.
func ParseDigit(r rune) (Digit, error) {
	switch r {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return Digit(r - '0'), nil
	case '*':
		return DigitStar, nil
	case '#':
		return DigitPound, nil
	case 'A', 'a':
		return DigitA, nil
	case 'B', 'b':
		return DigitB, nil
	case 'C', 'c':
		return DigitC, nil
	case 'D', 'd':
		return DigitD, nil
	default:
		return 0, fmt.Errorf("dtmf: invalid digit %q", r)
	}
}

const sampleRate = 8000
const packetInterval = 20 * time.Millisecond
const samplesPerPacket = sampleRate / 1000 * 20 // 160 at 8kHz
const endPacketRepeats = 3
const endTimeout = 200 * time.Millisecond

// Payload is the 4-byte RFC 4733 telephone-event payload, §2.3.
type Payload struct {
	Event    uint8
	End      bool
	Reserved bool
	Volume   uint8 // 0-63, representing -dBm
	Duration uint16
}

// Marshal packs a Payload to its 4-byte wire form.
func (p Payload) Marshal() []byte {
	b := make([]byte, 4)
	b[0] = p.Event
	if p.End {
		b[1] |= 0x80
	}
	if p.Reserved {
		b[1] |= 0x40
	}
	b[1] |= p.Volume & 0x3F
	b[2] = byte(p.Duration >> 8)
	b[3] = byte(p.Duration)
	return b
}

// UnmarshalPayload decodes a 4-byte telephone-event payload.
func UnmarshalPayload(b []byte) (Payload, error) {
	if len(b) < 4 {
		return Payload{}, fmt.Errorf("dtmf: payload too short: %d bytes", len(b))
	}
	return Payload{
		Event:    b[0],
		End:      b[1]&0x80 != 0,
		Reserved: b[1]&0x40 != 0,
		Volume:   b[1] & 0x3F,
		Duration: uint16(b[2])<<8 | uint16(b[3]),
	}, nil
}

// Frame is one outbound RTP frame's worth of DTMF scheduling data: the RTP
// timestamp (constant for the whole held digit) and the encoded payload.
// Marker indicates whether this frame should set the RTP marker bit (only
// the very first packet of an event does, per RFC 4733 §2.3).
type Frame struct {
	Timestamp uint32
	Marker    bool
	Payload   []byte
}

// PlanHold returns the sequence of Frames for holding digit for dur,
// starting at startTS: one packet every 20ms with Duration growing by
// samplesPerPacket each time up to the total (dur in 8kHz samples; the last
// growing packet is clamped to it), followed by three repeated
// end packets (End bit set) carrying the final duration, per RFC 4733
// §2.5.1's recommended sender behavior.
func PlanHold(digit Digit, dur time.Duration, volume uint8, startTS uint32) []Frame {
	total := uint16(dur * sampleRate / time.Second)
	if total == 0 {
		total = samplesPerPacket
	}

	var frames []Frame
	var elapsed uint16
	first := true
	for elapsed < total {
		elapsed += samplesPerPacket
		if elapsed > total {
			elapsed = total
		}
		p := Payload{Event: uint8(digit), Volume: volume, Duration: elapsed}
		frames = append(frames, Frame{Timestamp: startTS, Marker: first, Payload: p.Marshal()})
		first = false
	}

	end := Payload{Event: uint8(digit), Volume: volume, Duration: total, End: true}
	endBytes := end.Marshal()
	for i := 0; i < endPacketRepeats; i++ {
		frames = append(frames, Frame{Timestamp: startTS, Payload: endBytes})
	}
	return frames
}

// Event is a fully assembled DTMF event delivered to the session's OnDTMF
// callback.
type Event struct {
	Digit     Digit
	Duration  time.Duration
	Volume    uint8
	Timestamp uint32
}

// Assembler reassembles inbound telephone-event packets sharing one RTP
// timestamp into a single Event, emitted either when the End bit arrives
// or after endTimeout of silence on that timestamp (RFC 4733 §2.5.2 does
// not mandate the timeout; it protects against a lost end-packet run).
type Assembler struct {
	active    bool
	ts        uint32
	digit     Digit
	volume    uint8
	duration  uint16
	lastSeen  time.Time
	onTimeout func(Event)

	// completed/completedTS remember the timestamp group finish() last
	// fired for, so the repeated end packets RFC 4733 §2.5.1 recommends
	// senders emit (three, per PlanHold) don't re-arm and re-fire the
	// event once for each repeat.
	completed   bool
	completedTS uint32
}

// NewAssembler creates an Assembler. onEvent delivers a completed Event
// when one is recognized; the caller is also responsible for calling
// CheckTimeout periodically (e.g. every receive-loop tick) to flush an
// event whose end packets never arrived.
func NewAssembler(onEvent func(Event)) *Assembler {
	return &Assembler{onTimeout: onEvent}
}

// Process feeds one inbound telephone-event RTP payload at the given RTP
// timestamp and wall-clock arrival time. It returns the completed Event
// and true exactly when this packet concludes one (its End bit is set).
func (a *Assembler) Process(rtpTimestamp uint32, payload []byte, now time.Time) (Event, bool, error) {
	p, err := UnmarshalPayload(payload)
	if err != nil {
		return Event{}, false, err
	}

	if a.completed && a.completedTS == rtpTimestamp {
		// One of the repeated end packets for a group already finished;
		// ignore it rather than re-arming and firing the event again.
		return Event{}, false, nil
	}

	if !a.active || a.ts != rtpTimestamp {
		a.active = true
		a.ts = rtpTimestamp
		a.digit = Digit(p.Event)
		a.volume = p.Volume
	}
	a.duration = p.Duration
	a.lastSeen = now

	if p.End {
		ev := a.finish()
		return ev, true, nil
	}
	return Event{}, false, nil
}

func (a *Assembler) finish() Event {
	ev := Event{
		Digit:     a.digit,
		Duration:  time.Duration(a.duration) * time.Second / sampleRate,
		Volume:    a.volume,
		Timestamp: a.ts,
	}
	a.active = false
	a.completed = true
	a.completedTS = a.ts
	if a.onTimeout != nil {
		a.onTimeout(ev)
	}
	return ev
}

// CheckTimeout flushes a pending event if endTimeout has elapsed since the
// last packet was seen for it, returning the synthesized Event and true if
// one fired.
func (a *Assembler) CheckTimeout(now time.Time) (Event, bool) {
	if !a.active {
		return Event{}, false
	}
	if now.Sub(a.lastSeen) < endTimeout {
		return Event{}, false
	}
	return a.finish(), true
}
