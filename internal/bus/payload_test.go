package bus

import (
	"testing"
	"time"
)

func TestSampleBatchRoundTrip(t *testing.T) {
	in := SampleBatch{
		Channels:   map[string][]float64{"Fp1": {1.5, -2.25}, "O1": {0, 3}},
		SampleRate: 250,
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := FormatSampleBatch(in)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	out, err := ParseSampleBatch(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.SampleRate != 250 {
		t.Errorf("sample rate = %v", out.SampleRate)
	}
	if got := out.Channels["Fp1"]; len(got) != 2 || got[1] != -2.25 {
		t.Errorf("Fp1 = %v", got)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp = %v", out.Timestamp)
	}
}

func TestParseSampleBatchMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":    `{`,
		"no channels": `{"sample_rate":250}`,
		"bad rate":    `{"channels":{"Fp1":[1]},"sample_rate":0}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSampleBatch([]byte(payload)); err == nil {
				t.Errorf("parse accepted %s", payload)
			}
		})
	}
}

func TestParseMoveEventValidatesDirection(t *testing.T) {
	for _, dir := range []int{-1, 0, 1} {
		payload, _ := FormatMoveEvent(MoveEvent{Direction: dir})
		if _, err := ParseMoveEvent(payload); err != nil {
			t.Errorf("direction %d rejected: %v", dir, err)
		}
	}
	if _, err := ParseMoveEvent([]byte(`{"direction":2}`)); err == nil {
		t.Error("direction 2 accepted")
	}
}

func TestParseCommandValidatesDirection(t *testing.T) {
	for _, dir := range []int{-1, 1} {
		payload, _ := FormatCommand(Command{Direction: dir})
		if _, err := ParseCommand(payload); err != nil {
			t.Errorf("direction %d rejected: %v", dir, err)
		}
	}
	if _, err := ParseCommand([]byte(`{"direction":0}`)); err == nil {
		t.Error("direction 0 accepted for command")
	}
}

func TestParseStatusValidatesCode(t *testing.T) {
	for code := 0; code <= 2; code++ {
		payload, _ := FormatStatus(Status{ModeCode: code})
		if _, err := ParseStatus(payload); err != nil {
			t.Errorf("code %d rejected: %v", code, err)
		}
	}
	if _, err := ParseStatus([]byte(`{"mode_code":7}`)); err == nil {
		t.Error("code 7 accepted")
	}
}

func TestParseBlinkEvent(t *testing.T) {
	payload, _ := FormatBlinkEvent(BlinkEvent{Triggered: true, Magnitude: 25000})
	ev, err := ParseBlinkEvent(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !ev.Triggered || ev.Magnitude != 25000 {
		t.Errorf("event = %+v", ev)
	}
	if _, err := ParseBlinkEvent([]byte(`{`)); err == nil {
		t.Error("malformed blink event accepted")
	}
}
