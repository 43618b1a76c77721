package codec

// l16Codec implements RFC 3551 §4.5.11: linear 16-bit PCM carried
// big-endian on the wire, regardless of host byte order. There is no
// library in the example pack dedicated to a bare byteswap, so this codec
// is implemented directly on the standard library's byte slice handling —
// the one stdlib-only codec in the registry, justified because the
// concern (swap two bytes per sample) doesn't warrant a dependency.
type l16Codec struct{}

func newL16() Codec { return l16Codec{} }

func (l16Codec) PayloadType() uint8 { return PayloadL16 }
func (l16Codec) Name() string       { return "L16" }
func (l16Codec) SampleRate() uint32 { return 8000 }
func (l16Codec) FrameSamples() int  { return 160 }

func (l16Codec) Encode(pcm []int16) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errBadFrame("empty PCM frame")
	}
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(uint16(s) >> 8)
		b[i*2+1] = byte(uint16(s))
	}
	return b, nil
}

func (l16Codec) Decode(wire []byte) ([]int16, error) {
	if len(wire) == 0 || len(wire)%2 != 0 {
		return nil, errBadFrame("L16 frame must have an even byte length")
	}
	out := make([]int16, len(wire)/2)
	for i := range out {
		out[i] = int16(uint16(wire[i*2])<<8 | uint16(wire[i*2+1]))
	}
	return out, nil
}
