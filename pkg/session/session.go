// Package session is the session state machine coordinating every other
// component: packet codec, jitter buffer, DTMF assembler, RTCP scheduler,
// and codec plane over a transport.Channel collaborator. Grounded on the
// teacher repo's pkg/rtp/session.go (a Session delegating to component
// sub-sessions) and pkg/media/session.go (MediaSession's audio-plane
// surface); the Initial/Bound/Active/Draining/Closed lifecycle is run by
// github.com/looplab/fsm the same way pkg/dialog/dialog.go drives its SIP
// dialog state machine (fsm.Events/fsm.Callbacks/"after_event").
package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"

	"github.com/sipstack/plainrtp/pkg/codec"
	"github.com/sipstack/plainrtp/pkg/dtmf"
	"github.com/sipstack/plainrtp/pkg/jitter"
	"github.com/sipstack/plainrtp/pkg/rtcpsched"
	"github.com/sipstack/plainrtp/pkg/rtp"
	"github.com/sipstack/plainrtp/pkg/transport"
)

// State names for the session lifecycle FSM.
const (
	StateInitial  = "initial"
	StateBound    = "bound"
	StateActive   = "active"
	StateDraining = "draining"
	StateClosed   = "closed"
)

// Event names driving the lifecycle FSM.
const (
	evBind     = "bind"
	evActivate = "activate"
	evDrain    = "drain"
	evClose    = "close"
)

// AudioHandler receives decoded PCM samples from an accepted inbound frame,
// along with the RTP timestamp the frame carried (spec §4.5 on_audio(pcm_bytes,
// timestamp)).
type AudioHandler func(pcm []int16, timestamp uint32, pt uint8)

// DTMFHandler receives a completed DTMF digit event.
type DTMFHandler func(ev dtmf.Event)

// RTCPHandler receives parsed inbound RTCP sub-packets.
type RTCPHandler func(pkts []rtp.RTCPPacket)

// Session coordinates one RTP/RTCP media stream.
type Session struct {
	opts    Options
	machine *fsm.FSM
	chan_   transport.Channel

	ssrc      uint32
	seq       uint32 // atomic, low 16 bits significant
	timestamp uint32 // atomic

	ssrcMu         sync.Mutex
	remoteSSRC     uint32
	haveRemoteSSRC bool

	jitterBuf *jitter.Buffer
	dtmfRX    *dtmf.Assembler
	scheduler *rtcpsched.Scheduler

	packetsSent           uint64
	octetsSent            uint64
	highestSeqSeen        uint32
	lastSRReceived        time.Time
	lastSRRemoteNTP       uint64
	lastReportPacketCount uint64 // touched only from rtcpLoop's single goroutine

	recvMu sync.Mutex
	recv   receiverStats

	handlerMu sync.RWMutex
	onAudio   AudioHandler
	onDTMF    DTMFHandler
	onRTCP    RTCPHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *slog.Logger
}

// receiverStats tracks the per-source reception statistics RFC 3550 §6.4.1
// folds into a Reception Report block: extended highest sequence number
// (base/max/cycles per Appendix A.1), expected/received counts for loss,
// and running interarrival jitter (Appendix A.8). Grounded on the teacher
// repo's RTCPStatistics (pkg/rtp/rtcp_session.go), adapted to compute
// transit time in the stream's own RTP clock-rate units rather than mixing
// wall-clock milliseconds with RTP timestamp ticks the way that file does.
type receiverStats struct {
	initialized bool
	ssrc        uint32

	baseSeq uint16
	maxSeq  uint16
	cycles  uint16

	received      uint32
	expectedPrior uint32
	receivedPrior uint32

	transitValid bool
	transit      int64
	jitter       uint32
}

const (
	seqMaxDropout  = 3000
	seqMaxMisorder = 100
)

// update folds one arriving RTP packet into the running statistics. Caller
// holds s.recvMu.
func (r *receiverStats) update(pkt *rtp.Packet, clockRate uint32, now time.Time) {
	seq := pkt.Header.SequenceNumber
	if !r.initialized {
		r.initialized = true
		r.ssrc = pkt.Header.SSRC
		r.baseSeq = seq
		r.maxSeq = seq
	}

	udelta := seq - r.maxSeq
	switch {
	case udelta < seqMaxDropout:
		if seq < r.maxSeq {
			r.cycles++
		}
		r.maxSeq = seq
	case uint32(udelta) <= 65536-seqMaxMisorder:
		// Large forward jump: treat it as a restarted sequence, RFC 3550
		// Appendix A.1.
		r.baseSeq = seq
		r.maxSeq = seq
		r.cycles = 0
		r.expectedPrior = 0
		r.receivedPrior = 0
	default:
		// Small step backwards: duplicate or reordered packet, don't move
		// the extended sequence number.
	}
	r.received++

	if clockRate == 0 {
		clockRate = 8000
	}
	arrival := uint32(now.UnixNano() * int64(clockRate) / int64(time.Second))
	transit := int64(int32(arrival - pkt.Header.Timestamp))
	if r.transitValid {
		r.jitter = rtp.CalculateJitter(r.jitter, transit-r.transit)
	}
	r.transit = transit
	r.transitValid = true
}

// report builds the Reception Report block for this source, per RFC 3550
// §6.4.1, and advances the expected/received counters it needs for the
// next interval's loss fraction. Caller holds s.recvMu.
func (r *receiverStats) report(lastSRArrived time.Time, lastSRNTP uint64, now time.Time) rtp.ReceptionReport {
	extendedMax := uint32(r.cycles)<<16 | uint32(r.maxSeq)
	expected := extendedMax - uint32(r.baseSeq) + 1

	var cumulativeLost int32
	if expected > r.received {
		cumulativeLost = int32(expected - r.received)
	}

	expectedInterval := int64(expected - r.expectedPrior)
	receivedInterval := int64(r.received - r.receivedPrior)
	lostInterval := expectedInterval - receivedInterval
	fraction := rtp.FractionLost(lostInterval, expectedInterval)
	r.expectedPrior = expected
	r.receivedPrior = r.received

	var lastSR, delaySinceLastSR uint32
	if !lastSRArrived.IsZero() {
		lastSR = uint32(lastSRNTP >> 16)
		delaySinceLastSR = uint32(now.Sub(lastSRArrived).Seconds() * 65536)
	}

	return rtp.ReceptionReport{
		SSRC:             r.ssrc,
		FractionLost:     fraction,
		CumulativeLost:   cumulativeLost,
		HighestSeqExtend: extendedMax,
		Jitter:           r.jitter,
		LastSR:           lastSR,
		DelaySinceLastSR: delaySinceLastSR,
	}
}

// Create constructs a Session in its Initial state. It does not bind a
// transport yet; call Bind to move to Bound and start the receive and
// RTCP timer loops.
func Create(opts Options) (*Session, error) {
	if opts.Codecs == nil {
		opts.Codecs = codec.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.JitterCapacity == 0 {
		d := jitter.DefaultConfig()
		opts.JitterCapacity = d.Capacity
		opts.JitterPrefetch = d.Prefetch
	}

	ssrc := opts.SSRC
	if ssrc == 0 {
		var err error
		ssrc, err = randomUint32()
		if err != nil {
			return nil, fmt.Errorf("session: generate ssrc: %w", err)
		}
	}
	seq, err := randomUint16()
	if err != nil {
		return nil, fmt.Errorf("session: generate sequence number: %w", err)
	}
	ts, err := randomUint32()
	if err != nil {
		return nil, fmt.Errorf("session: generate timestamp: %w", err)
	}

	s := &Session{
		opts:      opts,
		ssrc:      ssrc,
		seq:       uint32(seq),
		timestamp: ts,
		jitterBuf: jitter.New(jitter.Config{Capacity: opts.JitterCapacity, Prefetch: opts.JitterPrefetch}),
		scheduler: rtcpsched.New(opts.RTCPBandwidthBytesPerSec),
		log:       opts.Logger,
	}
	s.dtmfRX = dtmf.NewAssembler(func(ev dtmf.Event) {
		s.handlerMu.RLock()
		h := s.onDTMF
		s.handlerMu.RUnlock()
		if h != nil {
			h(ev)
		}
	})

	s.machine = fsm.NewFSM(
		StateInitial,
		fsm.Events{
			{Name: evBind, Src: []string{StateInitial}, Dst: StateBound},
			{Name: evActivate, Src: []string{StateBound, StateActive}, Dst: StateActive},
			{Name: evDrain, Src: []string{StateActive, StateBound}, Dst: StateDraining},
			{Name: evClose, Src: []string{StateInitial, StateBound, StateActive, StateDraining}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				s.log.Debug("session transition", "event", e.Event, "dst", e.Dst)
			},
		},
	)

	return s, nil
}

// Bind attaches ch as the session's datagram channel bound to remoteAddr
// and starts the receive and RTCP scheduling loops.
func (s *Session) Bind(ch transport.Channel, remoteAddr net.Addr) error {
	if err := s.machine.Event(context.Background(), evBind); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.chan_ = ch
	s.opts.RemoteAddr = remoteAddr

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(2)
	go s.receiveLoop()
	go s.rtcpLoop()

	_ = s.machine.Event(context.Background(), evActivate)
	return nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() string { return s.machine.Current() }

// SSRC returns the local synchronization source identifier.
func (s *Session) SSRC() uint32 { return s.ssrc }

// OnAudio registers the callback invoked with decoded PCM for each
// accepted inbound audio frame. Callbacks run inline on the receive loop
// and must not block.
func (s *Session) OnAudio(h AudioHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.onAudio = h
}

// OnDTMF registers the callback invoked once per completed DTMF digit.
func (s *Session) OnDTMF(h DTMFHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.onDTMF = h
}

// OnRTCP registers the callback invoked with each inbound compound RTCP
// packet's parsed sub-packets.
func (s *Session) OnRTCP(h RTCPHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.onRTCP = h
}

// SendAudioPCM encodes pcm with the session's configured payload type and
// sends it as one RTP frame, advancing the timestamp by len(pcm) samples.
func (s *Session) SendAudioPCM(pcm []int16) error {
	if s.State() == StateClosed {
		return errAlreadyClosed()
	}
	if s.chan_ == nil {
		return errNotBound()
	}

	c, err := s.opts.Codecs.Lookup(s.opts.PayloadType)
	if err != nil {
		return err
	}
	wire, err := c.Encode(pcm)
	if err != nil {
		return err
	}
	return s.sendEncoded(s.opts.PayloadType, wire, uint32(len(pcm)), false)
}

// SendAudioEncoded sends an already-encoded frame verbatim under pt,
// advancing the timestamp by sampleCount samples of that payload type's
// clock.
func (s *Session) SendAudioEncoded(pt uint8, wire []byte, sampleCount uint32) error {
	if s.State() == StateClosed {
		return errAlreadyClosed()
	}
	if s.chan_ == nil {
		return errNotBound()
	}
	return s.sendEncoded(pt, wire, sampleCount, false)
}

func (s *Session) sendEncoded(pt uint8, wire []byte, sampleAdvance uint32, marker bool) error {
	seq := uint16(atomic.AddUint32(&s.seq, 1))
	ts := atomic.AddUint32(&s.timestamp, sampleAdvance) - sampleAdvance

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Marker:         marker,
			PayloadType:    pt,
			SequenceNumber: seq,
			Timestamp:      ts,
			SSRC:           s.ssrc,
		},
		Payload: wire,
	}
	return s.sendPacket(pkt)
}

func (s *Session) sendPacket(pkt *rtp.Packet) error {
	b, err := rtp.Marshal(pkt)
	if err != nil {
		return err
	}
	if err := s.chan_.SendTo(b, s.opts.RemoteAddr); err != nil {
		return err
	}
	atomic.AddUint64(&s.packetsSent, 1)
	atomic.AddUint64(&s.octetsSent, uint64(len(pkt.Payload)))
	s.opts.Metrics.IncPacketsSent()
	return nil
}

// SendDTMF sends digit held for dur, as the growing-duration-then-three-
// end-packets cadence of RFC 4733 §2.5.1, at the session's DTMF payload
// type and current timestamp.
func (s *Session) SendDTMF(digit dtmf.Digit, dur time.Duration, volume uint8) error {
	if s.State() == StateClosed {
		return errAlreadyClosed()
	}
	if s.chan_ == nil {
		return errNotBound()
	}

	startTS := atomic.LoadUint32(&s.timestamp)
	frames := dtmf.PlanHold(digit, dur, volume, startTS)
	for _, f := range frames {
		seq := uint16(atomic.AddUint32(&s.seq, 1))
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Marker:         f.Marker,
				PayloadType:    s.opts.DTMFPayloadType,
				SequenceNumber: seq,
				Timestamp:      f.Timestamp,
				SSRC:           s.ssrc,
			},
			Payload: f.Payload,
		}
		if err := s.sendPacket(pkt); err != nil {
			return err
		}
	}
	atomic.AddUint32(&s.timestamp, uint32(dur.Seconds()*float64(s.opts.ClockRate)))
	return nil
}

// Close transitions the session to Closed, idempotently. A second call
// returns nil without effect, matching this library's "close is
// idempotent" requirement.
func (s *Session) Close() error {
	if s.State() == StateClosed {
		return nil
	}
	_ = s.machine.Event(context.Background(), evDrain)
	if s.cancel != nil {
		s.cancel()
	}
	// Closing the channel unblocks receiveLoop's in-flight read; cancel
	// alone wouldn't, since RecvFrom's context only governs its deadline,
	// not the underlying blocking syscall.
	var closeErr error
	if s.chan_ != nil {
		closeErr = s.chan_.Close()
	}
	s.wg.Wait()
	_ = s.machine.Event(context.Background(), evClose)
	return closeErr
}

func (s *Session) receiveLoop() {
	defer s.wg.Done()
	for {
		b, from, err := s.chan_.RecvFrom(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			continue
		}
		s.opts.Metrics.IncPacketsReceived()
		s.handleDatagram(b, from)
		s.dtmfCheckTimeoutTick()
	}
}

func (s *Session) handleDatagram(b []byte, from net.Addr) {
	if rtp.LooksLikeRTCP(b) {
		pkts, err := rtp.ParseRTCP(b)
		if err != nil {
			s.opts.Metrics.IncParseError(classify(err))
			return
		}
		s.handleRTCP(pkts)
		return
	}

	pkt, err := rtp.Parse(b)
	if err != nil {
		s.opts.Metrics.IncParseError(classify(err))
		return
	}

	if pkt.Header.SSRC == s.ssrc && fmt.Sprint(from) != fmt.Sprint(s.opts.RemoteAddr) {
		s.handleSSRCCollision()
	}

	s.latchOrFlushRemoteSSRC(pkt.Header.SSRC)

	if rtp.SeqNewer(pkt.Header.SequenceNumber, uint16(atomic.LoadUint32(&s.highestSeqSeen))) {
		atomic.StoreUint32(&s.highestSeqSeen, uint32(pkt.Header.SequenceNumber))
	}

	now := time.Now()
	s.recvMu.Lock()
	s.recv.update(pkt, s.opts.ClockRate, now)
	s.recvMu.Unlock()

	if pkt.Header.PayloadType == s.opts.DTMFPayloadType {
		s.handleDTMFPacket(pkt)
		return
	}

	outcome, evicted := s.jitterBuf.Put(pkt.Header.SequenceNumber, pkt.Header.Timestamp, pkt.Header.PayloadType, pkt.Payload)
	s.opts.Metrics.ObserveJitterOutcome(outcome.String())
	if len(evicted) > 0 {
		seqs := make([]uint16, len(evicted))
		for i, e := range evicted {
			seqs[i] = e.Seq
		}
		s.log.Debug("jitter buffer evicted entries", "seqs", seqs)
	}
	s.drainJitterBuffer()
}

// latchOrFlushRemoteSSRC latches remoteSSRC on the first received RTP
// packet (spec §3). Once latched, a packet carrying a different SSRC is an
// SSRC-change event (spec §4.2/§4.5 seed scenario 6): the jitter buffer is
// flushed and priming restarts, and the receiver statistics used for RTCP
// reception reports are reset so loss/jitter don't straddle two sources.
func (s *Session) latchOrFlushRemoteSSRC(ssrc uint32) {
	s.ssrcMu.Lock()
	defer s.ssrcMu.Unlock()

	if !s.haveRemoteSSRC {
		s.haveRemoteSSRC = true
		s.remoteSSRC = ssrc
		return
	}
	if ssrc == s.remoteSSRC {
		return
	}

	s.remoteSSRC = ssrc
	s.jitterBuf.Reset()
	s.recvMu.Lock()
	s.recv = receiverStats{}
	s.recvMu.Unlock()
	s.log.Debug("remote ssrc changed, buffer flushed and priming restarted", "ssrc", ssrc)
}

func (s *Session) drainJitterBuffer() {
	for {
		entry, missing, ok := s.jitterBuf.Get()
		if !ok {
			return
		}
		if missing {
			continue // concealment is the caller's concern; nothing to decode
		}
		c, err := s.opts.Codecs.Lookup(entry.PayloadType)
		if err != nil {
			continue
		}
		pcm, err := c.Decode(entry.Payload)
		if err != nil {
			continue
		}
		s.handlerMu.RLock()
		h := s.onAudio
		s.handlerMu.RUnlock()
		if h != nil {
			h(pcm, entry.Timestamp, entry.PayloadType)
		}
	}
}

func (s *Session) handleDTMFPacket(pkt *rtp.Packet) {
	_, _, err := s.dtmfRX.Process(pkt.Header.Timestamp, pkt.Payload, time.Now())
	if err != nil {
		s.opts.Metrics.IncParseError("dtmf_payload")
	}
}

func (s *Session) dtmfCheckTimeoutTick() {
	s.dtmfRX.CheckTimeout(time.Now())
}

// LastRemoteSenderReport returns the arrival time and 32.32 NTP timestamp
// of the most recent inbound Sender Report, for a caller computing round
// trip time via the LSR/DLSR fields of its own next report.
func (s *Session) LastRemoteSenderReport() (arrived time.Time, ntp uint64) {
	s.handlerMu.RLock()
	defer s.handlerMu.RUnlock()
	return s.lastSRReceived, s.lastSRRemoteNTP
}

func (s *Session) handleRTCP(pkts []rtp.RTCPPacket) {
	for _, p := range pkts {
		if sr, ok := p.(*rtp.SenderReport); ok {
			s.handlerMu.Lock()
			s.lastSRReceived = time.Now()
			s.lastSRRemoteNTP = uint64(sr.NTPSeconds)<<32 | uint64(sr.NTPFraction)
			s.handlerMu.Unlock()
		}
	}
	s.handlerMu.RLock()
	h := s.onRTCP
	s.handlerMu.RUnlock()
	if h != nil {
		h(pkts)
	}
}

// handleSSRCCollision re-rolls the local SSRC when a remote packet arrives
// carrying it (spec §7). The SDES CNAME chunk on the next scheduled report
// already carries the new SSRC since sendRTCPReport reads s.ssrc live; the
// collision itself is surfaced to the caller via OnRTCP as an informational
// record, per spec, since it's the one callback already wired for RTCP-ish
// session events.
func (s *Session) handleSSRCCollision() {
	s.opts.Metrics.IncSSRCCollision()
	oldSSRC := atomic.LoadUint32(&s.ssrc)
	newSSRC, err := randomUint32()
	if err != nil {
		return
	}
	atomic.StoreUint32(&s.ssrc, newSSRC)

	s.handlerMu.RLock()
	h := s.onRTCP
	s.handlerMu.RUnlock()
	if h != nil {
		h([]rtp.RTCPPacket{&rtp.SSRCCollisionEvent{OldSSRC: oldSSRC, NewSSRC: newSSRC}})
	}
}

func (s *Session) rtcpLoop() {
	defer s.wg.Done()
	timer := time.NewTimer(time.Second)
	defer timer.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			size := s.sendRTCPReport()
			s.scheduler.ObserveSent(size)
			interval := s.scheduler.NextInterval(2, true, s.State() == StateDraining)
			s.opts.Metrics.ObserveRTCPInterval(interval.Seconds())
			timer.Reset(interval)
		}
	}
}

// sendRTCPReport emits a Sender Report if this session has sent any RTP
// since the previous report, otherwise a Receiver Report (RFC 3550 §6.3/
// §6.4; the teacher's rtcp_session.go stubs this selection out entirely,
// hardcoding hasSentPackets() to false). Either report carries a Reception
// Report block for the remote source once one has been observed.
func (s *Session) sendRTCPReport() int {
	if s.chan_ == nil {
		return 0
	}
	now := time.Now()

	s.recvMu.Lock()
	var report rtp.ReceptionReport
	hasReport := s.recv.initialized
	if hasReport {
		lastSRArrived, lastSRNTP := s.LastRemoteSenderReport()
		report = s.recv.report(lastSRArrived, lastSRNTP, now)
	}
	s.recvMu.Unlock()

	sentTotal := atomic.LoadUint64(&s.packetsSent)
	isSender := sentTotal > s.lastReportPacketCount
	s.lastReportPacketCount = sentTotal

	var body rtp.RTCPPacket
	if isSender {
		sec, frac := rtp.ToNTP(now)
		sr := &rtp.SenderReport{
			SSRC:        s.ssrc,
			NTPSeconds:  sec,
			NTPFraction: frac,
			RTPTime:     atomic.LoadUint32(&s.timestamp),
			PacketCount: uint32(sentTotal),
			OctetCount:  uint32(atomic.LoadUint64(&s.octetsSent)),
		}
		if hasReport {
			sr.Reports = []rtp.ReceptionReport{report}
		}
		body = sr
	} else {
		rr := &rtp.ReceiverReport{SSRC: s.ssrc}
		if hasReport {
			rr.Reports = []rtp.ReceptionReport{report}
		}
		body = rr
	}

	sd := &rtp.SourceDescription{Chunks: []rtp.SDESChunk{
		{Source: s.ssrc, Items: []rtp.SDESItem{{Type: rtp.SDESCNAME, Text: s.opts.CNAME}}},
	}}
	b := rtp.MarshalCompound(body, sd)
	if s.opts.RemoteAddr != nil {
		_ = s.chan_.SendTo(b, s.opts.RemoteAddr)
	}
	return len(b)
}

func classify(err error) string {
	var pe *rtp.ParseError
	if ok := asParseError(err, &pe); ok {
		return pe.Code.String()
	}
	return "unknown"
}

func asParseError(err error, target **rtp.ParseError) bool {
	pe, ok := err.(*rtp.ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func randomUint32() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func randomUint16() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}
