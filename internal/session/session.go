// Package session implements the coordinating state machine that gates
// which detector outputs are honored and drives the status light. It is
// pure logic: no bus, no sleeps, time always injected. The owning loop
// polls only the topic relevant to the current mode, applies it, then calls
// Tick; events arriving while irrelevant are discarded by the loop, never
// held for a later mode.
package session

import "time"

// Mode is the session state. The cycle is
// BlinkWait -> Prepare -> Armed -> Resting -> BlinkWait.
type Mode int

const (
	// BlinkWait: idle, waiting for a blink to wake the session.
	BlinkWait Mode = iota
	// Prepare: blink seen; giving the user time to settle before arming.
	Prepare
	// Armed: move events are accepted and turned into commands.
	Armed
	// Resting: post-command cooldown before the next cycle.
	Resting
)

func (m Mode) String() string {
	switch m {
	case BlinkWait:
		return "BLINK_WAIT"
	case Prepare:
		return "PREPARE"
	case Armed:
		return "ARMED"
	case Resting:
		return "RESTING"
	}
	return "UNKNOWN"
}

// Status codes published on the status topic for the indicator.
const (
	StatusBlinkWait = 0 // red: waiting for blink
	StatusReady     = 1 // green: armed, listening for moves
	StatusRest      = 2 // orange: resting
)

// Want tells the loop which topic the machine will consume right now.
type Want int

const (
	WantNothing Want = iota
	WantBlink
	WantMove
)

// EffectKind discriminates the side effects a transition requests.
type EffectKind int

const (
	// EffectStatus publishes a status code for the indicator.
	EffectStatus EffectKind = iota
	// EffectCommand publishes a deck command with a direction.
	EffectCommand
)

// Effect is one publication requested by a transition, in order.
type Effect struct {
	Kind      EffectKind
	Code      int // status code, for EffectStatus
	Direction int // +1 or -1, for EffectCommand
	Time      time.Time
}

// Counts tracks accepted events since startup.
type Counts struct {
	Blinks   int
	Advances int
	Retreats int
}

// Machine owns the session state. Not safe for concurrent use; it belongs
// to a single loop.
type Machine struct {
	mode   Mode
	entry  time.Time
	ready  time.Duration
	rest   time.Duration
	counts Counts
}

// New creates a machine in BlinkWait. ready is the settle time between
// blink and arming; rest is the pause after a command.
func New(ready, rest time.Duration, start time.Time) *Machine {
	return &Machine{
		mode:  BlinkWait,
		entry: start,
		ready: ready,
		rest:  rest,
	}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// EntryTime returns when the current mode was entered.
func (m *Machine) EntryTime() time.Time { return m.entry }

// Counts returns accepted-event counters.
func (m *Machine) Counts() Counts { return m.counts }

// Wants reports which topic the loop should poll in the current mode.
// Prepare and Resting are time-driven and consume nothing.
func (m *Machine) Wants() Want {
	switch m.mode {
	case BlinkWait:
		return WantBlink
	case Armed:
		return WantMove
	}
	return WantNothing
}

// OnBlink applies a blink event. Accepted only in BlinkWait, where it moves
// the machine to Prepare; in any other mode it is discarded silently.
// Returns whether the blink was accepted. The status light stays on
// BlinkWait through Prepare; it flips to ready only once armed.
func (m *Machine) OnBlink(now time.Time) bool {
	if m.mode != BlinkWait {
		return false
	}
	m.mode = Prepare
	m.entry = now
	m.counts.Blinks++
	return true
}

// OnMove applies a move event with the given direction. Accepted only while
// Armed and only for directions +1/-1; everything else is discarded
// silently. An accepted move emits the command, then the rest status, and
// leaves Armed immediately, so a second move delivered back to back can never
// produce a second command.
func (m *Machine) OnMove(direction int, now time.Time) []Effect {
	if m.mode != Armed {
		return nil
	}
	if direction != 1 && direction != -1 {
		return nil
	}
	m.mode = Resting
	m.entry = now
	if direction > 0 {
		m.counts.Advances++
	} else {
		m.counts.Retreats++
	}
	return []Effect{
		{Kind: EffectCommand, Direction: direction, Time: now},
		{Kind: EffectStatus, Code: StatusRest, Time: now},
	}
}

// Tick advances time-driven transitions: Prepare arms once the ready
// interval has elapsed, Resting returns to BlinkWait once the rest interval
// has elapsed. Detector input is never consulted here.
func (m *Machine) Tick(now time.Time) []Effect {
	switch m.mode {
	case Prepare:
		if now.Sub(m.entry) >= m.ready {
			m.mode = Armed
			m.entry = now
			return []Effect{{Kind: EffectStatus, Code: StatusReady, Time: now}}
		}
	case Resting:
		if now.Sub(m.entry) >= m.rest {
			m.mode = BlinkWait
			m.entry = now
			return []Effect{{Kind: EffectStatus, Code: StatusBlinkWait, Time: now}}
		}
	}
	return nil
}
