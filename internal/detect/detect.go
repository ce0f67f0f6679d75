// Package detect contains the pure decision logic that turns a stream of
// scores into discrete control events. It has no external dependencies:
// no bus, no DSP, no clock reads. Time is always injected via time.Time
// parameters (same discipline as the rest of the pipeline), so the debounce
// and cooldown behavior is fully testable with a synthetic clock.
package detect

import "time"

// Kind identifies the detected gesture class.
type Kind string

const (
	// KindClench is a sustained jaw clench: band power moderately above
	// baseline across consecutive frames. Advances the deck.
	KindClench Kind = "CLENCH"
	// KindHeadMove is an abrupt head movement: band power far above
	// baseline on a single frame. Retreats the deck.
	KindHeadMove Kind = "HEAD_MOVE"
	// KindBlink is an eye blink: signal derivative spike on the occipital
	// channels. Wakes the session state machine.
	KindBlink Kind = "BLINK"
)

// Event is one detected gesture.
type Event struct {
	Kind      Kind
	Magnitude float64 // normalized score or derivative, whichever triggered
	Direction int     // +1 advance, -1 retreat, 0 for blink
	Time      time.Time
}

// Decider evaluates normalized band-power scores with hysteresis, debounce
// and cooldown:
//
//   - score above the high multiplier fires a head-move immediately and
//     clears the debounce counter;
//   - score at or above the low multiplier increments a consecutive-frame
//     counter and fires a clench once the counter reaches minFrames;
//   - anything below resets the counter.
//
// After any event, no further event of either class fires until the
// cooldown interval has elapsed from the emission timestamp.
type Decider struct {
	low       float64
	high      float64
	minFrames int
	cooldown  time.Duration

	frames     int
	blockUntil time.Time
}

// NewDecider creates a decider. minFrames < 1 is treated as 1.
func NewDecider(low, high float64, minFrames int, cooldown time.Duration) *Decider {
	if minFrames < 1 {
		minFrames = 1
	}
	return &Decider{
		low:       low,
		high:      high,
		minFrames: minFrames,
		cooldown:  cooldown,
	}
}

// Eval feeds one score frame and returns the resulting event, or nil.
func (d *Decider) Eval(score float64, now time.Time) *Event {
	if now.Before(d.blockUntil) {
		// Cooldown: skip the decision entirely. The debounce counter is
		// left alone; a clench persisting across the cooldown boundary
		// still needs fresh consecutive frames below to reset it.
		return nil
	}

	switch {
	case score > d.high:
		d.frames = 0
		d.blockUntil = now.Add(d.cooldown)
		return &Event{Kind: KindHeadMove, Magnitude: score, Direction: -1, Time: now}

	case score >= d.low:
		d.frames++
		if d.frames >= d.minFrames {
			d.frames = 0
			d.blockUntil = now.Add(d.cooldown)
			return &Event{Kind: KindClench, Magnitude: score, Direction: 1, Time: now}
		}
		return nil

	default:
		d.frames = 0
		return nil
	}
}

// InCooldown reports whether events are currently suppressed.
func (d *Decider) InCooldown(now time.Time) bool {
	return now.Before(d.blockUntil)
}

// Frames returns the current consecutive-frame debounce count.
func (d *Decider) Frames() int { return d.frames }

// Trigger is the single-threshold decision used by the blink path: one
// absolute threshold over the derivative magnitude, immediate emission, and
// the same wall-clock cooldown as Decider.
type Trigger struct {
	threshold  float64
	cooldown   time.Duration
	blockUntil time.Time
}

// NewTrigger creates a trigger firing when a value exceeds threshold.
func NewTrigger(threshold float64, cooldown time.Duration) *Trigger {
	return &Trigger{threshold: threshold, cooldown: cooldown}
}

// Eval feeds one derivative magnitude and returns a blink event, or nil.
func (t *Trigger) Eval(value float64, now time.Time) *Event {
	if now.Before(t.blockUntil) {
		return nil
	}
	if value <= t.threshold {
		return nil
	}
	t.blockUntil = now.Add(t.cooldown)
	return &Event{Kind: KindBlink, Magnitude: value, Time: now}
}

// InCooldown reports whether events are currently suppressed.
func (t *Trigger) InCooldown(now time.Time) bool {
	return now.Before(t.blockUntil)
}
