package jitter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, b *Buffer, seqs ...uint16) []Outcome {
	t.Helper()
	var out []Outcome
	for _, s := range seqs {
		o, _ := b.Put(s, uint32(s)*160, 0, []byte{byte(s)})
		out = append(out, o)
	}
	return out
}

func TestAcceptedInOrder(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 0})
	outs := fill(t, b, 1, 2, 3)
	for _, o := range outs {
		require.Equal(t, Accepted, o)
	}
	e, missing, ok := b.Get()
	require.True(t, ok)
	require.False(t, missing)
	require.Equal(t, uint16(1), e.Seq)
}

func TestDuplicate(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 0})
	o, _ := b.Put(1, 160, 0, nil)
	require.Equal(t, Accepted, o)
	o, _ = b.Put(1, 160, 0, nil)
	require.Equal(t, Duplicate, o)
}

func TestTooLate(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 0})
	b.Put(10, 1600, 0, nil)
	_, _, _ = b.Get()
	o, _ := b.Put(5, 800, 0, nil)
	require.Equal(t, TooLate, o)
}

func TestDisplacedByWindowSlide(t *testing.T) {
	b := New(Config{Capacity: 4, Prefetch: 0})
	b.Put(1, 160, 0, []byte{1})
	// 5 is 4 past the floor (1), forcing the window to slide forward and
	// evict whatever was still sitting in the slot seq 1 occupied.
	out, evicted := b.Put(5, 800, 0, []byte{5})
	require.Equal(t, Accepted, out)
	require.Len(t, evicted, 1)
	require.Equal(t, uint16(1), evicted[0].Seq)
	require.Equal(t, []byte{1}, evicted[0].Payload)
	require.EqualValues(t, 1, b.Statistics().Displaced)
}

func TestPrefetchPriming(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 2})
	b.Put(1, 160, 0, nil)
	_, _, ok := b.Get()
	require.False(t, ok, "should not yield before prefetch threshold")
	b.Put(2, 320, 0, nil)
	_, _, ok = b.Get()
	require.True(t, ok)
}

func TestMissingSlotReported(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 0})
	b.Put(1, 160, 0, nil)
	b.Put(3, 480, 0, nil)
	_, missing, ok := b.Get() // seq 1
	require.True(t, ok)
	require.False(t, missing)
	_, missing, ok = b.Get() // seq 2 never arrived
	require.True(t, ok)
	require.True(t, missing)
}

func TestDrainStopsWhenCaughtUpWithHighWater(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 0})
	b.Put(1, 160, 0, []byte{1})
	b.Put(2, 320, 0, []byte{2})
	b.Put(3, 480, 0, []byte{3})

	for i := uint16(1); i <= 3; i++ {
		e, missing, ok := b.Get()
		require.True(t, ok)
		require.False(t, missing)
		require.Equal(t, i, e.Seq)
	}

	// Nothing further has arrived: Get must report ok=false, not an
	// unending stream of Missing slots, or a drain loop never terminates.
	_, _, ok := b.Get()
	require.False(t, ok)
	_, _, ok = b.Get()
	require.False(t, ok)
}

func TestSequenceWrapAccepted(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 0})
	o, _ := b.Put(65534, 0, 0, nil)
	require.Equal(t, Accepted, o)
	o, _ = b.Put(65535, 160, 0, nil)
	require.Equal(t, Accepted, o)
	o, _ = b.Put(0, 320, 0, nil)
	require.Equal(t, Accepted, o)
	o, _ = b.Put(1, 480, 0, nil)
	require.Equal(t, Accepted, o)
}

func TestResetRestartsPriming(t *testing.T) {
	b := New(Config{Capacity: 8, Prefetch: 1})
	b.Put(1, 160, 0, nil)
	_, _, ok := b.Get()
	require.True(t, ok)
	b.Reset()
	_, _, ok = b.Get()
	require.False(t, ok)
}
