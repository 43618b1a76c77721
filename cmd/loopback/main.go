// Command loopback is a minimal demonstration binary: two sessions bound to
// local UDP ports exchange a few frames of PCMU audio and a DTMF digit.
// Grounded on the teacher repo's pkg/rtp/examples/basic_session.go style
// of wiring a session end to end from a small main().
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sipstack/plainrtp/pkg/dtmf"
	"github.com/sipstack/plainrtp/pkg/session"
	"github.com/sipstack/plainrtp/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "loopback:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.Default()

	chA, err := transport.ListenUDP("127.0.0.1:0", transport.DefaultConfig())
	if err != nil {
		return err
	}
	chB, err := transport.ListenUDP("127.0.0.1:0", transport.DefaultConfig())
	if err != nil {
		return err
	}

	optsA := session.DefaultOptions()
	optsA.CNAME = "alice@loopback"
	optsA.Logger = logger
	sessA, err := session.Create(optsA)
	if err != nil {
		return err
	}

	optsB := session.DefaultOptions()
	optsB.CNAME = "bob@loopback"
	optsB.Logger = logger
	sessB, err := session.Create(optsB)
	if err != nil {
		return err
	}

	sessB.OnAudio(func(pcm []int16, timestamp uint32, pt uint8) {
		logger.Info("received audio frame", "samples", len(pcm), "timestamp", timestamp, "payload_type", pt)
	})
	sessB.OnDTMF(func(ev dtmf.Event) {
		logger.Info("received dtmf", "digit", ev.Digit.String(), "duration", ev.Duration)
	})

	if err := sessA.Bind(chA, chB.LocalAddr()); err != nil {
		return err
	}
	if err := sessB.Bind(chB, chA.LocalAddr()); err != nil {
		return err
	}
	defer sessA.Close()
	defer sessB.Close()

	pcm := make([]int16, 160)
	for i := 0; i < 5; i++ {
		if err := sessA.SendAudioPCM(pcm); err != nil {
			return err
		}
	}
	if err := sessA.SendDTMF(dtmf.Digit5, 200*time.Millisecond, 10); err != nil {
		return err
	}

	time.Sleep(500 * time.Millisecond)
	return nil
}
