// Package rtp implements a bit-exact RTP/RTCP wire codec (RFC 3550 §5, §6)
// by hand over encoding/binary, in the same packing style the teacher repo
// uses for its RTCP structures. It deliberately does not wrap
// github.com/pion/rtp: that library's receive path discards the extension
// block to avoid aliasing the caller's buffer, which breaks the round-trip
// invariant this package guarantees (Parse(Marshal(p)) == p byte-for-byte).
package rtp

import "encoding/binary"

const (
	version       = 2
	fixedHeaderSz = 12
)

// Header is the fixed and variable portion of an RTP packet header,
// RFC 3550 §5.1.
type Header struct {
	Version        uint8
	Padding        bool
	Extension      bool
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32

	ExtensionProfile uint16
	ExtensionPayload []byte // raw words of the extension header, if Extension is set
}

// Packet is a fully parsed RTP packet. Payload never includes the trailing
// padding bytes. PadLen records how many padding bytes (including the count
// byte itself) were present on the wire, and PadBytes holds those bytes
// verbatim; Marshal re-emits PadBytes unchanged, so Parse(Marshal(p)) and
// Marshal(Parse(b)) both round-trip padding exactly rather than dropping it.
type Packet struct {
	Header   Header
	Payload  []byte
	PadLen   uint8
	PadBytes []byte
}

// Parse decodes a single RTP packet from b. It never retains a reference to
// b: all slices in the returned Packet are copies.
func Parse(b []byte) (*Packet, error) {
	if len(b) < fixedHeaderSz {
		return nil, newParseError(TooShort, "shorter than fixed header")
	}

	v := b[0] >> 6
	if v != version {
		return nil, newParseError(BadVersion, "unsupported RTP version")
	}

	hasPadding := b[0]&0x20 != 0
	hasExtension := b[0]&0x10 != 0
	csrcCount := int(b[0] & 0x0F)
	marker := b[1]&0x80 != 0
	pt := b[1] & 0x7F

	seq := binary.BigEndian.Uint16(b[2:4])
	ts := binary.BigEndian.Uint32(b[4:8])
	ssrc := binary.BigEndian.Uint32(b[8:12])

	off := fixedHeaderSz
	need := off + csrcCount*4
	if len(b) < need {
		return nil, newParseError(TooShort, "truncated CSRC list")
	}

	csrc := make([]uint32, csrcCount)
	for i := 0; i < csrcCount; i++ {
		csrc[i] = binary.BigEndian.Uint32(b[off : off+4])
		off += 4
	}

	h := Header{
		Version:        v,
		Padding:        hasPadding,
		Extension:      hasExtension,
		Marker:         marker,
		PayloadType:    pt,
		SequenceNumber: seq,
		Timestamp:      ts,
		SSRC:           ssrc,
		CSRC:           csrc,
	}

	if hasExtension {
		if len(b) < off+4 {
			return nil, newParseError(ExtensionOverrun, "truncated extension header")
		}
		h.ExtensionProfile = binary.BigEndian.Uint16(b[off : off+2])
		extWords := int(binary.BigEndian.Uint16(b[off+2 : off+4]))
		off += 4
		extLen := extWords * 4
		if len(b) < off+extLen {
			return nil, newParseError(ExtensionOverrun, "extension length exceeds packet")
		}
		h.ExtensionPayload = append([]byte(nil), b[off:off+extLen]...)
		off += extLen
	}

	payload := b[off:]
	var padLen uint8
	var padBytes []byte
	if hasPadding {
		if len(payload) == 0 {
			return nil, newParseError(InconsistentPadding, "padding bit set with empty payload")
		}
		padLen = payload[len(payload)-1]
		if int(padLen) == 0 || int(padLen) > len(payload) {
			return nil, newParseError(InconsistentPadding, "padding count out of range")
		}
		padBytes = append([]byte(nil), payload[len(payload)-int(padLen):]...)
		payload = payload[:len(payload)-int(padLen)]
	}

	p := &Packet{
		Header:   h,
		Payload:  append([]byte(nil), payload...),
		PadLen:   padLen,
		PadBytes: padBytes,
	}
	return p, nil
}

// Marshal encodes p to the wire. If p.PadLen is non-zero, the padding bit is
// set and PadBytes (the padding bytes captured by Parse, or set directly by
// a caller building a packet from scratch) are appended verbatim after
// Payload. Marshal never invents padding; use MarshalPadded for that.
func Marshal(p *Packet) ([]byte, error) {
	return marshal(p, p.PadLen, p.PadBytes)
}

// MarshalPadded encodes p with the padding bit set, appending zero bytes and
// a final pad-count byte so that Payload plus padding ends on a multiple of
// align (commonly 4), per RFC 3550 §5.1. align below 1 is treated as 1. The
// count byte is always appended, so a payload that is already aligned gains
// a full align bytes of padding.
func MarshalPadded(p *Packet, align int) ([]byte, error) {
	if align < 1 {
		align = 1
	}
	total := len(p.Payload) + 1 // +1 for the eventual count byte
	rem := total % align
	var padLen uint8
	if rem != 0 {
		padLen = uint8(align - rem + 1)
	} else {
		padLen = 1
	}
	pad := make([]byte, padLen)
	pad[len(pad)-1] = padLen
	return marshal(p, padLen, pad)
}

// marshal encodes p. pad, when non-nil, is appended verbatim after Payload
// (padBytes captured by Parse, or freshly computed zero padding from
// MarshalPadded). padLen only controls whether the padding bit is set; a
// packet with padLen > 0 and a nil pad sets the bit without emitting bytes,
// which only arises if a caller built a Packet by hand and forgot PadBytes.
func marshal(p *Packet, padLen uint8, pad []byte) ([]byte, error) {
	h := p.Header
	if len(h.CSRC) > 15 {
		return nil, newParseError(BadLength, "CSRC list exceeds 15 entries")
	}

	size := fixedHeaderSz + len(h.CSRC)*4
	if h.Extension {
		size += 4 + len(h.ExtensionPayload)
	}
	size += len(p.Payload)
	if pad != nil {
		size += len(pad)
	}

	b := make([]byte, size)
	b[0] = version << 6
	if padLen > 0 {
		b[0] |= 0x20
	}
	if h.Extension {
		b[0] |= 0x10
	}
	b[0] |= uint8(len(h.CSRC)) & 0x0F

	b[1] = h.PayloadType & 0x7F
	if h.Marker {
		b[1] |= 0x80
	}

	binary.BigEndian.PutUint16(b[2:4], h.SequenceNumber)
	binary.BigEndian.PutUint32(b[4:8], h.Timestamp)
	binary.BigEndian.PutUint32(b[8:12], h.SSRC)

	off := fixedHeaderSz
	for _, c := range h.CSRC {
		binary.BigEndian.PutUint32(b[off:off+4], c)
		off += 4
	}

	if h.Extension {
		binary.BigEndian.PutUint16(b[off:off+2], h.ExtensionProfile)
		binary.BigEndian.PutUint16(b[off+2:off+4], uint16(len(h.ExtensionPayload)/4))
		off += 4
		copy(b[off:], h.ExtensionPayload)
		off += len(h.ExtensionPayload)
	}

	copy(b[off:], p.Payload)
	off += len(p.Payload)

	if pad != nil {
		copy(b[off:], pad)
	}

	return b, nil
}

// LooksLikeRTCP applies the standard demultiplexing heuristic used when a
// single UDP port carries both RTP and RTCP: the second byte of a compound
// RTCP packet is a payload type in the reserved 192-223 range.
func LooksLikeRTCP(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	pt := b[1]
	return pt >= 192 && pt <= 223
}
