// Package jitter implements a bounded ring-buffer jitter buffer keyed on
// RTP sequence number. It replaces the teacher repo's time-keyed adaptive
// heap (pkg/media/jitter_buffer.go in the retrieval pack) with the
// sequence-keyed ring this library's classification contract requires,
// while keeping that file's sequence-arithmetic and guarded-statistics
// idioms.
package jitter

import (
	"sync"

	"github.com/sipstack/plainrtp/pkg/rtp"
)

// Outcome classifies the result of Put for a single incoming packet.
type Outcome int

const (
	Accepted Outcome = iota
	Duplicate
	TooLate
	Displaced
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case TooLate:
		return "too_late"
	case Displaced:
		return "displaced"
	default:
		return "unknown"
	}
}

// Entry is one slot's payload, keyed by its RTP sequence number, plus the
// timestamp and payload type spec §3's JitterBufferEntry carries alongside
// it so a caller can recover them at drain time without re-deriving them.
type Entry struct {
	Seq         uint16
	Timestamp   uint32
	PayloadType uint8
	Payload     []byte
}

// Config configures a Buffer. Capacity should be a power of two; Prefetch
// packets must accumulate before Get starts returning Accepted slots, to
// prime a delay cushion against early jitter.
type Config struct {
	Capacity int
	Prefetch int
}

// DefaultConfig mirrors the teacher's DefaultTransportConfig-style
// constructor convention (pkg/rtp/transport.go in the retrieval pack).
func DefaultConfig() Config {
	return Config{Capacity: 128, Prefetch: 3}
}

type slot struct {
	occupied bool
	entry    Entry
}

// Buffer is a bounded ring of slots indexed by sequence number modulo
// Capacity. It does not interpret payload bytes; codec-specific concerns
// (what a missing frame should sound like) live above it.
type Buffer struct {
	mu       sync.Mutex
	cfg      Config
	slots    []slot
	primed   bool
	primeCnt int
	haveSet  bool
	cursor   uint16 // next sequence number Get will return
	haveHigh bool
	highSeq  uint16 // highest sequence number ever accepted into the window
	stats    Stats
}

// Stats tracks cumulative buffer outcomes, guarded the way the teacher's
// jitter buffer guards its own counters.
type Stats struct {
	Accepted  uint64
	Duplicate uint64
	TooLate   uint64
	Displaced uint64
}

// New creates a Buffer. A zero Capacity falls back to DefaultConfig's.
func New(cfg Config) *Buffer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	return &Buffer{
		cfg:   cfg,
		slots: make([]slot, cfg.Capacity),
	}
}

func (b *Buffer) index(seq uint16) int {
	return int(seq) % len(b.slots)
}

// Put inserts an incoming packet, classifying it per the ring's current
// window. The window spans [cursor, cursor+Capacity). A packet that lands
// behind cursor is TooLate; a packet landing on an already-occupied slot
// whose sequence differs is Displaced (evicting the previous occupant); a
// repeat of the same sequence is Duplicate. evicted carries every buffered
// entry this call bumped out of the window, whether from the direct slot
// collision or from the window sliding forward to make room for seq; it is
// nil unless something was actually lost.
func (b *Buffer) Put(seq uint16, timestamp uint32, payloadType uint8, payload []byte) (outcome Outcome, evicted []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.haveSet {
		b.cursor = seq
		b.haveSet = true
	}

	delta := rtp.SeqDelta(seq, b.cursor)
	if delta < 0 {
		b.stats.TooLate++
		return TooLate, nil
	}
	if int(delta) >= len(b.slots) {
		// Packet is far enough ahead that the whole window must slide;
		// anything currently buffered before the new floor is lost.
		evicted = b.advanceTo(seq - uint16(len(b.slots)-1))
	}

	if !b.haveHigh || rtp.SeqDelta(seq, b.highSeq) > 0 {
		b.haveHigh = true
		b.highSeq = seq
	}

	idx := b.index(seq)
	s := &b.slots[idx]
	if s.occupied {
		if s.entry.Seq == seq {
			b.stats.Duplicate++
			return Duplicate, evicted
		}
		outcome = Displaced
		b.stats.Displaced++
		evicted = append(evicted, s.entry)
	} else {
		outcome = Accepted
		b.stats.Accepted++
	}

	s.occupied = true
	s.entry = Entry{Seq: seq, Timestamp: timestamp, PayloadType: payloadType, Payload: append([]byte(nil), payload...)}

	if !b.primed {
		b.primeCnt++
		if b.primeCnt >= b.cfg.Prefetch {
			b.primed = true
		}
	}

	return outcome, evicted
}

// advanceTo moves the window floor forward, clearing slots that fall out
// of range and collecting any occupied ones as evicted entries so a caller
// can account for (or log) what the slide dropped. Caller holds b.mu.
func (b *Buffer) advanceTo(newCursor uint16) []Entry {
	n := len(b.slots)
	delta := rtp.SeqDelta(newCursor, b.cursor)
	if delta <= 0 {
		return nil
	}
	clear := int(delta)
	if clear > n {
		clear = n
	}
	var evicted []Entry
	for i := 0; i < clear; i++ {
		idx := b.index(b.cursor + uint16(i))
		if b.slots[idx].occupied {
			evicted = append(evicted, b.slots[idx].entry)
			b.stats.Displaced++
		}
		b.slots[idx] = slot{}
	}
	b.cursor = newCursor
	return evicted
}

// Get returns the next in-order entry if present, advancing the cursor.
// Missing reports that the buffer is primed but the next slot is empty
// with data still ahead of it (the caller should treat the gap as a
// concealment opportunity). ok is false either while still in the
// prefetch priming stage, or once the cursor has caught up with the
// highest sequence number ever accepted — i.e. nothing further has
// arrived yet, as opposed to a hole with later data behind it.
func (b *Buffer) Get() (e Entry, missing bool, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.primed {
		return Entry{}, false, false
	}
	if !b.haveHigh || rtp.SeqDelta(b.cursor, b.highSeq) > 0 {
		return Entry{}, false, false
	}

	idx := b.index(b.cursor)
	s := &b.slots[idx]
	if !s.occupied {
		b.cursor++
		return Entry{}, true, true
	}

	entry := s.entry
	*s = slot{}
	b.cursor++
	return entry, false, true
}

// Reset clears all state, used on SSRC change to restart priming fresh.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.slots {
		b.slots[i] = slot{}
	}
	b.primed = false
	b.primeCnt = 0
	b.haveSet = false
	b.haveHigh = false
}

// Statistics returns a snapshot of cumulative outcome counters.
func (b *Buffer) Statistics() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
