package rtp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSenderReportRoundTrip(t *testing.T) {
	sec, frac := ToNTP(time.Now())
	sr := &SenderReport{
		SSRC:        1,
		NTPSeconds:  sec,
		NTPFraction: frac,
		RTPTime:     160,
		PacketCount: 10,
		OctetCount:  1600,
		Reports: []ReceptionReport{
			{SSRC: 2, FractionLost: 5, CumulativeLost: -3, HighestSeqExtend: 100, Jitter: 7, LastSR: 1, DelaySinceLastSR: 2},
		},
	}

	b := MarshalRTCP(sr)
	pkts, err := ParseRTCP(b)
	require.NoError(t, err)
	require.Len(t, pkts, 1)
	got, ok := pkts[0].(*SenderReport)
	require.True(t, ok)
	require.Equal(t, sr.SSRC, got.SSRC)
	require.Equal(t, sr.Reports[0].CumulativeLost, got.Reports[0].CumulativeLost)
}

func TestCompoundParse(t *testing.T) {
	rr := &ReceiverReport{SSRC: 1, Reports: []ReceptionReport{{SSRC: 2}}}
	bye := &Bye{Sources: []uint32{1}, Reason: "done"}
	b := MarshalCompound(rr, bye)

	pkts, err := ParseRTCP(b)
	require.NoError(t, err)
	require.Len(t, pkts, 2)
	_, ok := pkts[0].(*ReceiverReport)
	require.True(t, ok)
	gotBye, ok := pkts[1].(*Bye)
	require.True(t, ok)
	require.Equal(t, "done", gotBye.Reason)
}

func TestSourceDescriptionRoundTrip(t *testing.T) {
	sd := &SourceDescription{Chunks: []SDESChunk{
		{Source: 5, Items: []SDESItem{{Type: SDESCNAME, Text: "user@host"}}},
	}}
	b := MarshalRTCP(sd)
	pkts, err := ParseRTCP(b)
	require.NoError(t, err)
	got := pkts[0].(*SourceDescription)
	require.Equal(t, uint32(5), got.Chunks[0].Source)
	require.Equal(t, "user@host", got.Chunks[0].Items[0].Text)
}

func TestCalculateJitter(t *testing.T) {
	j := CalculateJitter(0, 160)
	require.Equal(t, uint32(10), j)
}

func TestFractionLost(t *testing.T) {
	require.Equal(t, uint8(0), FractionLost(0, 100))
	require.Equal(t, uint8(255), FractionLost(200, 100))
	require.Equal(t, uint8(128), FractionLost(50, 100))
}

func TestNTPRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Microsecond)
	sec, frac := ToNTP(now)
	back := FromNTP(sec, frac)
	require.WithinDuration(t, now, back, time.Millisecond)
}
