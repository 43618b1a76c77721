package rtp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	p := &Packet{
		Header: Header{
			Marker:         true,
			PayloadType:    0,
			SequenceNumber: 1234,
			Timestamp:      98765,
			SSRC:           0xDEADBEEF,
			CSRC:           []uint32{1, 2, 3},
		},
		Payload: []byte{1, 2, 3, 4, 5, 6, 7, 8},
	}

	b, err := Marshal(p)
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, p.Header, got.Header)
	require.Equal(t, p.Payload, got.Payload)

	b2, err := Marshal(got)
	require.NoError(t, err)
	require.Equal(t, b, b2)
}

func TestPacketExtensionRoundTrip(t *testing.T) {
	p := &Packet{
		Header: Header{
			PayloadType:      8,
			SequenceNumber:   1,
			Timestamp:        160,
			SSRC:             42,
			Extension:        true,
			ExtensionProfile: 0xBEDE,
			ExtensionPayload: []byte{0, 0, 0, 0},
		},
		Payload: []byte{0xAA, 0xBB},
	}
	b, err := Marshal(p)
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	require.True(t, got.Header.Extension)
	require.Equal(t, p.Header.ExtensionPayload, got.Header.ExtensionPayload)
	require.Equal(t, p.Payload, got.Payload)
}

func TestMarshalPadded(t *testing.T) {
	p := &Packet{
		Header:  Header{SequenceNumber: 1, SSRC: 1},
		Payload: []byte{1, 2, 3},
	}
	b, err := MarshalPadded(p, 4)
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	require.True(t, got.Header.Padding)
	require.Equal(t, p.Payload, got.Payload)
	require.Equal(t, 0, len(b)%4)
}

func TestParsePaddedRoundTrip(t *testing.T) {
	p := &Packet{
		Header:  Header{SequenceNumber: 7, SSRC: 99},
		Payload: []byte{1, 2, 3},
	}
	b, err := MarshalPadded(p, 4)
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	require.True(t, got.Header.Padding)
	require.NotZero(t, got.PadLen)
	require.Len(t, got.PadBytes, int(got.PadLen))

	b2, err := Marshal(got)
	require.NoError(t, err)
	require.Equal(t, b, b2)

	got2, err := Parse(b2)
	require.NoError(t, err)
	require.Equal(t, got.Payload, got2.Payload)
	require.Equal(t, got.PadBytes, got2.PadBytes)
}

func TestParseTooShort(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3})
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, TooShort, pe.Code)
}

func TestParseBadVersion(t *testing.T) {
	b := make([]byte, 12)
	b[0] = 0x00 // version 0
	_, err := Parse(b)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, BadVersion, pe.Code)
}

func TestLooksLikeRTCP(t *testing.T) {
	require.True(t, LooksLikeRTCP([]byte{0x80, 200, 0, 0}))
	require.False(t, LooksLikeRTCP([]byte{0x80, 0, 0, 0}))
}

func TestSeqDeltaWrap(t *testing.T) {
	require.True(t, SeqNewer(1, 65535))
	require.Equal(t, int16(2), SeqDelta(1, 65535))
	require.False(t, SeqNewer(65535, 1))
}
