package jitter

import (
	"sync"
	"testing"
)

// TestConcurrentPutGet exercises concurrent Put/Get/Statistics the
// way the teacher's pkg/rtp/race_test.go stresses concurrent handler
// registration and sends against a live session — meant to be run with
// go test -race.
func TestConcurrentPutGet(t *testing.T) {
	b := New(Config{Capacity: 64, Prefetch: 0})

	var wg sync.WaitGroup
	numGoroutines := 20

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				seq := uint16(base*200 + j)
				b.Put(seq, uint32(seq)*160, 0, []byte{byte(seq)})
			}
		}(i)
	}

	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b.Get()
			}
		}()
	}

	for i := 0; i < numGoroutines/4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Statistics()
			}
		}()
	}

	wg.Wait()
}
