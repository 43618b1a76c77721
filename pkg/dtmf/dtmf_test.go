package dtmf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlanHoldGrowsDurationThenEnds(t *testing.T) {
	frames := PlanHold(Digit5, 200*time.Millisecond, 10, 1000)
	require.True(t, len(frames) > endPacketRepeats)

	last := frames[len(frames)-endPacketRepeats-1]
	p, err := UnmarshalPayload(last.Payload)
	require.NoError(t, err)
	require.False(t, p.End)

	for _, f := range frames[len(frames)-endPacketRepeats:] {
		p, err := UnmarshalPayload(f.Payload)
		require.NoError(t, err)
		require.True(t, p.End)
	}
	require.True(t, frames[0].Marker)
	require.False(t, frames[1].Marker)
}

func TestAssemblerEndBit(t *testing.T) {
	var got Event
	var fired bool
	a := NewAssembler(func(e Event) { got = e; fired = true })

	now := time.Now()
	p := Payload{Event: uint8(DigitStar), Duration: 160}
	_, done, err := a.Process(5000, p.Marshal(), now)
	require.NoError(t, err)
	require.False(t, done)

	end := Payload{Event: uint8(DigitStar), Duration: 480, End: true}
	ev, done, err := a.Process(5000, end.Marshal(), now.Add(20*time.Millisecond))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, DigitStar, ev.Digit)
	require.True(t, fired)
	require.Equal(t, DigitStar, got.Digit)
}

func TestAssemblerSuppressesRepeatedEndPackets(t *testing.T) {
	firings := 0
	a := NewAssembler(func(e Event) { firings++ })

	now := time.Now()
	p := Payload{Event: uint8(Digit5), Duration: 160}
	_, _, err := a.Process(5000, p.Marshal(), now)
	require.NoError(t, err)

	end := Payload{Event: uint8(Digit5), Duration: 480, End: true}
	endBytes := end.Marshal()
	for i := 0; i < endPacketRepeats; i++ {
		ev, done, err := a.Process(5000, endBytes, now.Add(time.Duration(i+1)*20*time.Millisecond))
		require.NoError(t, err)
		if i == 0 {
			require.True(t, done)
			require.Equal(t, Digit5, ev.Digit)
		} else {
			require.False(t, done, "repeated end packet must not re-fire the event")
		}
	}
	require.Equal(t, 1, firings)
}

func TestAssemblerNewDigitAfterCompletion(t *testing.T) {
	var got []Digit
	a := NewAssembler(func(e Event) { got = append(got, e.Digit) })

	now := time.Now()
	end1 := Payload{Event: uint8(Digit1), Duration: 160, End: true}
	_, done, err := a.Process(1000, end1.Marshal(), now)
	require.NoError(t, err)
	require.True(t, done)

	end2 := Payload{Event: uint8(Digit2), Duration: 160, End: true}
	_, done, err = a.Process(2000, end2.Marshal(), now.Add(100*time.Millisecond))
	require.NoError(t, err)
	require.True(t, done, "a new timestamp group must still complete normally")

	require.Equal(t, []Digit{Digit1, Digit2}, got)
}

func TestAssemblerTimeout(t *testing.T) {
	a := NewAssembler(nil)
	now := time.Now()
	p := Payload{Event: uint8(Digit1), Duration: 160}
	_, _, err := a.Process(1, p.Marshal(), now)
	require.NoError(t, err)

	_, fired := a.CheckTimeout(now.Add(50 * time.Millisecond))
	require.False(t, fired)

	ev, fired := a.CheckTimeout(now.Add(250 * time.Millisecond))
	require.True(t, fired)
	require.Equal(t, Digit1, ev.Digit)
}

func TestParseDigit(t *testing.T) {
	d, err := ParseDigit('5')
	require.NoError(t, err)
	require.Equal(t, Digit5, d)

	_, err = ParseDigit('x')
	require.Error(t, err)
}
