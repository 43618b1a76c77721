package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := New()
	c, err := r.Lookup(PayloadPCMU)
	require.NoError(t, err)
	require.Equal(t, "PCMU", c.Name())

	_, err = r.Lookup(99)
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	require.Equal(t, UnknownPayloadType, ce.Code)
}

func TestPCMURoundTripApprox(t *testing.T) {
	r := New()
	c, _ := r.Lookup(PayloadPCMU)
	pcm := make([]int16, 160)
	for i := range pcm {
		pcm[i] = int16(i * 100)
	}
	wire, err := c.Encode(pcm)
	require.NoError(t, err)
	require.Len(t, wire, 160)

	back, err := c.Decode(wire)
	require.NoError(t, err)
	require.Len(t, back, 160)
	// µ-law is lossy; verify it's in the right ballpark rather than exact.
	require.InDelta(t, pcm[50], back[50], 2000)
}

func TestL16RoundTripExact(t *testing.T) {
	c := newL16()
	pcm := []int16{1, -1, 32767, -32768, 0}
	wire, err := c.Encode(pcm)
	require.NoError(t, err)
	back, err := c.Decode(wire)
	require.NoError(t, err)
	require.Equal(t, pcm, back)
}

func TestL16BadFrameSize(t *testing.T) {
	c := newL16()
	_, err := c.Decode([]byte{1, 2, 3})
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	require.Equal(t, BadFrameSize, ce.Code)
}
