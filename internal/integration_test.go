package internal

import (
	"testing"
	"time"

	"github.com/mwrona/neurodeck/internal/blink"
	"github.com/mwrona/neurodeck/internal/bus"
	"github.com/mwrona/neurodeck/internal/config"
	"github.com/mwrona/neurodeck/internal/move"
	"github.com/mwrona/neurodeck/internal/session"
	"github.com/mwrona/neurodeck/internal/sim"
)

// TestIntegrationFullCycle drives two complete session cycles through the
// detectors, the bus and the state machine using synthetic signal:
//
//	blink -> prepare -> armed -> clench -> command +1 -> rest -> blink_wait
//	blink -> prepare -> armed -> head   -> command -1 -> rest -> blink_wait
//
// Batches are 50 samples (0.2 s at 250 Hz). A steady 70 Hz tone on the
// frontal pair gives the power path a stable baseline; gestures scale the
// tone amplitude, spikes land on the occipital pair.
func TestIntegrationFullCycle(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC)

	moveCfg := config.Default()
	blinkCfg := config.Default()
	blinkCfg.AnalysisWindowSeconds = 5.0
	blinkCfg.Channels = []string{"O1", "O2"}

	gen := sim.New(99, moveCfg.SampleRate, []string{"Fp1", "Fp2", "O1", "O2"})
	moveDet := move.New(moveCfg, t0)
	blinkDet := blink.New(blinkCfg)
	machine := session.New(moveCfg.Ready(), moveCfg.Rest(), t0)

	f := bus.NewFake()
	subBlink, err := f.Subscribe(bus.TopicBlink, bus.Queued)
	if err != nil {
		t.Fatalf("subscribe blink: %v", err)
	}
	subMove, err := f.Subscribe(bus.TopicMove, bus.Queued)
	if err != nil {
		t.Fatalf("subscribe move: %v", err)
	}

	// Frontal tone amplitude per frame: 20 at rest, 100 during a clench,
	// 620 during a head move.
	toneAmp := func(i int) float64 {
		switch {
		case i >= 46 && i <= 48:
			return 100
		case i == 76:
			return 620
		}
		return 20
	}
	blinkAt := func(i int) bool { return i == 30 || i == 60 }

	apply := func(fx []session.Effect) {
		for _, e := range fx {
			switch e.Kind {
			case session.EffectCommand:
				p, err := bus.FormatCommand(bus.Command{Direction: e.Direction})
				if err != nil {
					t.Fatalf("format command: %v", err)
				}
				f.Publish(bus.TopicCommand, p)
			case session.EffectStatus:
				p, err := bus.FormatStatus(bus.Status{ModeCode: e.Code})
				if err != nil {
					t.Fatalf("format status: %v", err)
				}
				f.Publish(bus.TopicStatus, p)
			}
		}
	}

	for i := 0; i < 90; i++ {
		now := t0.Add(time.Duration(i) * 200 * time.Millisecond)

		batch := gen.Batch(50)
		gen.Burst(batch, []string{"Fp1", "Fp2"}, 70, toneAmp(i))
		if blinkAt(i) {
			gen.Spike(batch, []string{"O1", "O2"}, 4000)
		}

		// Detector workers.
		mr, err := moveDet.Process(batch, now)
		if err != nil {
			t.Fatalf("frame %d: move: %v", i, err)
		}
		if mr.Event != nil {
			p, _ := bus.FormatMoveEvent(bus.MoveEvent{
				Direction: mr.Event.Direction,
				Magnitude: mr.Event.Magnitude,
				Timestamp: now,
			})
			f.Publish(bus.TopicMove, p)
		}
		br, err := blinkDet.Process(batch, now)
		if err != nil {
			t.Fatalf("frame %d: blink: %v", i, err)
		}
		if br.Event != nil {
			p, _ := bus.FormatBlinkEvent(bus.BlinkEvent{
				Triggered: true,
				Magnitude: br.Event.Magnitude,
				Timestamp: now,
			})
			f.Publish(bus.TopicBlink, p)
		}

		// Coordinator worker: drain both event topics, then advance time.
		for {
			payload, ok := subBlink.Receive(0)
			if !ok {
				break
			}
			if _, err := bus.ParseBlinkEvent(payload); err != nil {
				t.Fatalf("frame %d: bad blink payload: %v", i, err)
			}
			machine.OnBlink(now)
		}
		for {
			payload, ok := subMove.Receive(0)
			if !ok {
				break
			}
			ev, err := bus.ParseMoveEvent(payload)
			if err != nil {
				t.Fatalf("frame %d: bad move payload: %v", i, err)
			}
			apply(machine.OnMove(ev.Direction, now))
		}
		apply(machine.Tick(now))
	}

	// Commands: advance from the clench, retreat from the head move.
	commands := f.Published(bus.TopicCommand)
	if len(commands) != 2 {
		t.Fatalf("commands published = %d, want 2", len(commands))
	}
	wantDirs := []int{1, -1}
	for i, payload := range commands {
		cmd, err := bus.ParseCommand(payload)
		if err != nil {
			t.Fatalf("command %d: %v", i, err)
		}
		if cmd.Direction != wantDirs[i] {
			t.Errorf("command %d direction = %d, want %d", i, cmd.Direction, wantDirs[i])
		}
	}

	// Status light: ready, rest, idle; twice.
	statuses := f.Published(bus.TopicStatus)
	wantCodes := []int{
		session.StatusReady, session.StatusRest, session.StatusBlinkWait,
		session.StatusReady, session.StatusRest, session.StatusBlinkWait,
	}
	if len(statuses) != len(wantCodes) {
		t.Fatalf("statuses published = %d, want %d", len(statuses), len(wantCodes))
	}
	for i, payload := range statuses {
		st, err := bus.ParseStatus(payload)
		if err != nil {
			t.Fatalf("status %d: %v", i, err)
		}
		if st.ModeCode != wantCodes[i] {
			t.Errorf("status %d code = %d, want %d", i, st.ModeCode, wantCodes[i])
		}
	}

	c := machine.Counts()
	if c.Blinks != 2 || c.Advances != 1 || c.Retreats != 1 {
		t.Errorf("counts = %+v, want 2 blinks, 1 advance, 1 retreat", c)
	}
	if machine.Mode() != session.BlinkWait {
		t.Errorf("final mode = %v, want BLINK_WAIT", machine.Mode())
	}
}

// TestIntegrationQuietSignalStaysIdle verifies background noise alone never
// produces an event or a status change.
func TestIntegrationQuietSignalStaysIdle(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)

	moveCfg := config.Default()
	blinkCfg := config.Default()
	blinkCfg.AnalysisWindowSeconds = 5.0
	blinkCfg.Channels = []string{"O1", "O2"}

	gen := sim.New(17, moveCfg.SampleRate, []string{"Fp1", "Fp2", "O1", "O2"})
	moveDet := move.New(moveCfg, t0)
	blinkDet := blink.New(blinkCfg)

	for i := 0; i < 60; i++ {
		now := t0.Add(time.Duration(i) * 200 * time.Millisecond)
		batch := gen.Batch(50)
		gen.Burst(batch, []string{"Fp1", "Fp2"}, 70, 20)

		mr, err := moveDet.Process(batch, now)
		if err != nil {
			t.Fatalf("frame %d: move: %v", i, err)
		}
		if mr.Event != nil {
			t.Fatalf("frame %d: spurious move event %+v (score %v)", i, mr.Event, mr.Score)
		}
		br, err := blinkDet.Process(batch, now)
		if err != nil {
			t.Fatalf("frame %d: blink: %v", i, err)
		}
		if br.Event != nil {
			t.Fatalf("frame %d: spurious blink event %+v (derivative %v)", i, br.Event, br.MaxDerivative)
		}
	}

	if !moveDet.Calibrated() {
		t.Error("power path never calibrated on steady signal")
	}
	if !blinkDet.Warmed() {
		t.Error("blink path never filled its window")
	}
}
