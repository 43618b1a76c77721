// Package codec is the codec plane: encode/decode between host PCM and the
// wire form a payload type carries, plus a small registry so a session can
// look codecs up by RTP payload type. Grounded on the teacher repo's
// pkg/rtp/types.go PayloadType enum and on the emiago-diago example's
// audio/codec.go Codec struct (PayloadType/SampleRate/SampleDur triple).
package codec

import "fmt"

// ErrCode enumerates codec-plane failures, per this library's error
// taxonomy: codec errors are surfaced to the caller on send, never dropped
// silently the way inbound parse errors are.
type ErrCode int

const (
	UnknownPayloadType ErrCode = iota
	BadFrameSize
)

// Error is returned by Encode/Decode and by registry lookups.
type Error struct {
	Code ErrCode
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("codec: %s", e.Msg) }

func errUnknownPT(pt uint8) error {
	return &Error{Code: UnknownPayloadType, Msg: fmt.Sprintf("unknown payload type %d", pt)}
}

func errBadFrame(msg string) error {
	return &Error{Code: BadFrameSize, Msg: msg}
}

// Standard static RTP payload types this library ships codecs for,
// RFC 3551 §6.
const (
	PayloadPCMU uint8 = 0
	PayloadPCMA uint8 = 8
	PayloadL16  uint8 = 11 // mono, 8kHz static assignment; dynamic rates use Opus-style negotiation out of band
)

// Codec converts between host PCM (signed 16-bit samples as []int16) and a
// payload type's wire representation.
type Codec interface {
	PayloadType() uint8
	Name() string
	SampleRate() uint32
	// FrameSamples is the number of samples a canonical 20ms frame holds.
	FrameSamples() int
	// Encode converts host PCM samples to wire bytes.
	Encode(pcm []int16) ([]byte, error)
	// Decode converts wire bytes back to host PCM samples.
	Decode(wire []byte) ([]int16, error)
}

// Registry maps RTP payload types to Codecs. The zero value is usable; New
// pre-populates it with PCMU/PCMA/L16.
type Registry struct {
	byType map[uint8]Codec
}

// New creates a Registry pre-populated with the built-in PCMU, PCMA and
// L16 codecs. Callers register Opus (or any other plug-in) themselves.
func New() *Registry {
	r := &Registry{byType: make(map[uint8]Codec)}
	r.Register(newPCMU())
	r.Register(newPCMA())
	r.Register(newL16())
	return r
}

// Register adds or replaces a codec under its own PayloadType.
func (r *Registry) Register(c Codec) {
	if r.byType == nil {
		r.byType = make(map[uint8]Codec)
	}
	r.byType[c.PayloadType()] = c
}

// Lookup returns the codec registered for pt, or a codec.Error wrapping
// UnknownPayloadType.
func (r *Registry) Lookup(pt uint8) (Codec, error) {
	c, ok := r.byType[pt]
	if !ok {
		return nil, errUnknownPT(pt)
	}
	return c, nil
}
