//go:build opus

// Opus support is optional: spec treats it as an external collaborator
// invoked through the same codec.Codec capability, never a hard
// dependency of the core plane. Grounded on github.com/pion/opus, as wired
// by the opd-ai-toxcore example's av/audio/processor.go: opus.NewDecoder()
// returns a *opus.Decoder whose Decode(data, output []byte) (bandwidth
// opus.Bandwidth, isStereo bool, err error) writes little-endian PCM bytes
// into a caller-supplied buffer rather than returning an []int16 directly.
package codec

import "github.com/pion/opus"

// decodeBufBytes sizes the scratch buffer Decode writes into: 1920 samples
// (40ms at 48kHz) stereo int16, the same sizing processor.go uses, large
// enough for any Opus frame at any supported bandwidth.
const decodeBufBytes = 1920 * 2 * 2

type opusCodec struct {
	pt      uint8
	rate    uint32
	decoder *opus.Decoder
	scratch []byte
}

// NewOpus builds an Opus Codec for registration under a dynamic payload
// type negotiated out of band (SDP negotiation is this library's
// collaborator, not its concern). Only decoding is wired: pion/opus
// exposes a decoder but no encoder, so Encode reports an error rather than
// silently passing PCM through as if it were Opus.
func NewOpus(pt uint8, sampleRate uint32) (Codec, error) {
	return &opusCodec{
		pt:      pt,
		rate:    sampleRate,
		decoder: opus.NewDecoder(),
		scratch: make([]byte, decodeBufBytes),
	}, nil
}

func (c *opusCodec) PayloadType() uint8 { return c.pt }
func (c *opusCodec) Name() string       { return "opus" }
func (c *opusCodec) SampleRate() uint32 { return c.rate }
func (c *opusCodec) FrameSamples() int  { return int(c.rate) / 50 }

func (c *opusCodec) Encode(pcm []int16) ([]byte, error) {
	return nil, errBadFrame("opus encode not wired: pion/opus exposes no encoder")
}

func (c *opusCodec) Decode(wire []byte) ([]int16, error) {
	bandwidth, isStereo, err := c.decoder.Decode(wire, c.scratch)
	if err != nil {
		return nil, err
	}
	_ = bandwidth

	sampleCount := len(c.scratch) / 2
	if isStereo {
		sampleCount /= 2
	}
	pcm := make([]int16, sampleCount)
	for i := range pcm {
		pcm[i] = int16(c.scratch[i*2]) | int16(c.scratch[i*2+1])<<8
	}
	return pcm, nil
}
