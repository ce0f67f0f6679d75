package bus

import (
	"encoding/json"
	"fmt"
	"time"
)

// SampleBatch is one acquisition chunk on the raw-sample topic: a mapping
// from channel name to a run of consecutive samples, all channels equally
// long, plus the rate and the timestamp of the newest sample.
type SampleBatch struct {
	Channels   map[string][]float64 `json:"channels"`
	SampleRate float64              `json:"sample_rate"`
	Timestamp  time.Time            `json:"timestamp"`
}

// BlinkEvent is published on the blink-event topic.
type BlinkEvent struct {
	Triggered bool      `json:"triggered"`
	Magnitude float64   `json:"magnitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MoveEvent is published on the move-event topic. Direction is +1 (clench,
// advance), -1 (head move, retreat) or 0 (no move).
type MoveEvent struct {
	Direction int       `json:"direction"`
	Magnitude float64   `json:"magnitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is published on the status topic for the indicator.
// ModeCode: 0 waiting for blink, 1 ready, 2 resting.
type Status struct {
	ModeCode int `json:"mode_code"`
}

// Command is published on the command topic for the deck actuator.
// Direction is +1 (next) or -1 (previous).
type Command struct {
	Direction int `json:"direction"`
}

// FormatSampleBatch marshals a sample batch.
func FormatSampleBatch(b SampleBatch) ([]byte, error) { return json.Marshal(b) }

// FormatBlinkEvent marshals a blink event.
func FormatBlinkEvent(e BlinkEvent) ([]byte, error) { return json.Marshal(e) }

// FormatMoveEvent marshals a move event.
func FormatMoveEvent(e MoveEvent) ([]byte, error) { return json.Marshal(e) }

// FormatStatus marshals a status message.
func FormatStatus(s Status) ([]byte, error) { return json.Marshal(s) }

// FormatCommand marshals a command message.
func FormatCommand(c Command) ([]byte, error) { return json.Marshal(c) }

// ParseSampleBatch validates and unmarshals a sample batch. A payload
// missing its channels or carrying a non-positive rate is malformed; the
// caller drops it, logs, and continues.
func ParseSampleBatch(payload []byte) (SampleBatch, error) {
	var b SampleBatch
	if err := json.Unmarshal(payload, &b); err != nil {
		return SampleBatch{}, fmt.Errorf("sample batch: %w", err)
	}
	if len(b.Channels) == 0 {
		return SampleBatch{}, fmt.Errorf("sample batch: no channels")
	}
	if b.SampleRate <= 0 {
		return SampleBatch{}, fmt.Errorf("sample batch: invalid sample_rate %v", b.SampleRate)
	}
	return b, nil
}

// ParseBlinkEvent unmarshals a blink event.
func ParseBlinkEvent(payload []byte) (BlinkEvent, error) {
	var e BlinkEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return BlinkEvent{}, fmt.Errorf("blink event: %w", err)
	}
	return e, nil
}

// ParseMoveEvent validates and unmarshals a move event.
func ParseMoveEvent(payload []byte) (MoveEvent, error) {
	var e MoveEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return MoveEvent{}, fmt.Errorf("move event: %w", err)
	}
	if e.Direction < -1 || e.Direction > 1 {
		return MoveEvent{}, fmt.Errorf("move event: invalid direction %d", e.Direction)
	}
	return e, nil
}

// ParseStatus validates and unmarshals a status message.
func ParseStatus(payload []byte) (Status, error) {
	var s Status
	if err := json.Unmarshal(payload, &s); err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	if s.ModeCode < 0 || s.ModeCode > 2 {
		return Status{}, fmt.Errorf("status: invalid mode_code %d", s.ModeCode)
	}
	return s, nil
}

// ParseCommand validates and unmarshals a command message.
func ParseCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("command: %w", err)
	}
	if c.Direction != 1 && c.Direction != -1 {
		return Command{}, fmt.Errorf("command: invalid direction %d", c.Direction)
	}
	return c, nil
}
