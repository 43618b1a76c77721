package codec

import "github.com/zaf/g711"

// pcmuCodec wraps github.com/zaf/g711's µ-law codec, the same dependency
// the emiago-diago example wires in audio/pcm.go's EncodeUlaw/DecodeUlaw
// for exactly this concern.
type pcmuCodec struct{}

func newPCMU() Codec { return pcmuCodec{} }

func (pcmuCodec) PayloadType() uint8  { return PayloadPCMU }
func (pcmuCodec) Name() string        { return "PCMU" }
func (pcmuCodec) SampleRate() uint32  { return 8000 }
func (pcmuCodec) FrameSamples() int   { return 160 }

func (pcmuCodec) Encode(pcm []int16) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errBadFrame("empty PCM frame")
	}
	return g711.EncodeUlaw(int16ToLEBytes(pcm)), nil
}

func (pcmuCodec) Decode(wire []byte) ([]int16, error) {
	if len(wire) == 0 {
		return nil, errBadFrame("empty PCMU frame")
	}
	return leBytesToInt16(g711.DecodeUlaw(wire)), nil
}

// pcmaCodec wraps the same library's A-law codec.
type pcmaCodec struct{}

func newPCMA() Codec { return pcmaCodec{} }

func (pcmaCodec) PayloadType() uint8 { return PayloadPCMA }
func (pcmaCodec) Name() string       { return "PCMA" }
func (pcmaCodec) SampleRate() uint32 { return 8000 }
func (pcmaCodec) FrameSamples() int  { return 160 }

func (pcmaCodec) Encode(pcm []int16) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errBadFrame("empty PCM frame")
	}
	return g711.EncodeAlaw(int16ToLEBytes(pcm)), nil
}

func (pcmaCodec) Decode(wire []byte) ([]int16, error) {
	if len(wire) == 0 {
		return nil, errBadFrame("empty PCMA frame")
	}
	return leBytesToInt16(g711.DecodeAlaw(wire)), nil
}

func int16ToLEBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(uint16(s))
		b[i*2+1] = byte(uint16(s) >> 8)
	}
	return b
}

func leBytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(uint16(b[i*2]) | uint16(b[i*2+1])<<8)
	}
	return out
}
