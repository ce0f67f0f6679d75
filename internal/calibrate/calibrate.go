// Package calibrate establishes the baseline band power a detector
// normalizes against. The engine starts COLLECTING, accumulates positive
// feature samples, and promotes to CALIBRATED exactly once per run. Time is
// always injected; the package never reads the clock.
package calibrate

import "time"

// BaselineFloor is the minimum baseline the engine will ever report.
// Guarantees the normalized score is well defined even when the warm-up
// window was effectively silent.
const BaselineFloor = 1e-6

// DefaultMinSamples is the minimum number of accumulated feature samples
// required before the baseline may be computed.
const DefaultMinSamples = 5

// Phase is the calibration phase. The transition Collecting -> Calibrated
// happens at most once per run; there is no way back.
type Phase int

const (
	Collecting Phase = iota
	Calibrated
)

func (p Phase) String() string {
	if p == Calibrated {
		return "CALIBRATED"
	}
	return "COLLECTING"
}

// Engine accumulates feature samples until enough time and data have been
// seen, then freezes a floor-guarded baseline.
type Engine struct {
	duration   time.Duration
	minSamples int
	start      time.Time
	samples    []float64
	phase      Phase
	baseline   float64
}

// New creates an engine collecting for at least the given duration, counted
// from start. minSamples <= 0 selects DefaultMinSamples.
func New(duration time.Duration, minSamples int, start time.Time) *Engine {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &Engine{
		duration:   duration,
		minSamples: minSamples,
		start:      start,
	}
}

// Add feeds one feature sample. Zero or negative samples are ignored (an
// empty window yields zero power, which carries no information). Returns
// true on the cycle the engine transitions to Calibrated.
//
// Reaching the warm-up deadline without enough samples is not a failure:
// the engine keeps collecting and re-checks on every call while data keeps
// arriving.
func (e *Engine) Add(power float64, now time.Time) bool {
	if e.phase == Calibrated {
		return false
	}
	if power > 0 {
		e.samples = append(e.samples, power)
	}
	if now.Sub(e.start) < e.duration {
		return false
	}
	if len(e.samples) <= e.minSamples {
		return false
	}

	var sum float64
	for _, v := range e.samples {
		sum += v
	}
	e.baseline = sum / float64(len(e.samples))
	if e.baseline < BaselineFloor {
		e.baseline = BaselineFloor
	}
	e.phase = Calibrated
	e.samples = nil
	return true
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Calibrated reports whether the baseline has been frozen.
func (e *Engine) Calibrated() bool { return e.phase == Calibrated }

// Baseline returns the frozen baseline power. It is only meaningful once
// Calibrated; before that it returns 0.
func (e *Engine) Baseline() float64 { return e.baseline }

// SampleCount returns the number of accumulated samples so far.
func (e *Engine) SampleCount() int { return len(e.samples) }

// Elapsed returns the time since collection started.
func (e *Engine) Elapsed(now time.Time) time.Duration { return now.Sub(e.start) }
