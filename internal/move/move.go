// Package move implements the power-path detector: rolling window,
// conditioning (mains notch + drift high-pass), band-power extraction,
// baseline calibration and the threshold decision that classifies jaw
// clenches and head moves. Pure except for its own state; the owning worker
// does all bus I/O.
package move

import (
	"fmt"
	"time"

	"github.com/mwrona/neurodeck/internal/calibrate"
	"github.com/mwrona/neurodeck/internal/config"
	"github.com/mwrona/neurodeck/internal/detect"
	"github.com/mwrona/neurodeck/internal/dsp"
	"github.com/mwrona/neurodeck/internal/feature"
	"github.com/mwrona/neurodeck/internal/ringbuf"
)

// Fixed conditioning stages for the power path: a narrow notch on mains
// interference and a high-pass against electrode drift.
const (
	notchHz    = 50.0
	notchQ     = 30.0
	highpassHz = 2.0
)

// Detector owns the full power path for one worker.
type Detector struct {
	channels  []string
	buf       *ringbuf.Buffer
	chain     *dsp.Chain
	extractor feature.Extractor
	cal       *calibrate.Engine
	decider   *detect.Decider
}

// Result is the outcome of processing one batch.
type Result struct {
	// Power is the raw band power of the newest sub-window.
	Power float64
	// Score is the normalized score (power / baseline). Neutral zero
	// until calibrated.
	Score float64
	// Calibrated reports whether the baseline is frozen.
	Calibrated bool
	// JustCalibrated is true on the one cycle the baseline froze.
	JustCalibrated bool
	// Baseline is the frozen baseline (0 before calibration).
	Baseline float64
	// Event is the detected gesture, if any.
	Event *detect.Event
}

// New builds a detector from the configuration. start anchors the
// calibration warm-up.
func New(cfg config.Config, start time.Time) *Detector {
	return &Detector{
		channels: append([]string(nil), cfg.Channels...),
		buf:      ringbuf.New(cfg.Channels, cfg.WindowSamples()),
		chain: dsp.NewChain(
			dsp.NewNotch(cfg.SampleRate, notchHz, notchQ),
			dsp.NewHighpass(cfg.SampleRate, highpassHz, dsp.ButterworthQ),
		),
		extractor: feature.Extractor{
			SampleRate: cfg.SampleRate,
			SubWindow:  cfg.FFTWindowSamples(),
			BandLow:    cfg.FrequencyBandLow,
			BandHigh:   cfg.FrequencyBandHigh,
		},
		cal: calibrate.New(cfg.Calibration(), 0, start),
		decider: detect.NewDecider(
			cfg.LowThresholdMultiplier,
			cfg.HighThresholdMultiplier,
			cfg.DebounceFrameCount,
			cfg.Cooldown(),
		),
	}
}

// Process runs one cycle: append the batch, condition the window, extract
// band power, feed calibration, and (once calibrated) evaluate the
// decision logic. A batch missing a configured channel is rejected with an
// error and leaves all state untouched.
func (d *Detector) Process(samples map[string][]float64, now time.Time) (Result, error) {
	if err := d.buf.Append(samples); err != nil {
		return Result{}, fmt.Errorf("append batch: %w", err)
	}

	windows := make([][]float64, len(d.channels))
	for i, ch := range d.channels {
		windows[i] = d.buf.Window(ch)
	}
	trace := dsp.RemoveMean(dsp.Average(windows...))
	filtered := d.chain.Apply(trace)
	power := d.extractor.BandPower(filtered)

	res := Result{Power: power}
	if !d.cal.Calibrated() {
		res.JustCalibrated = d.cal.Add(power, now)
		res.Calibrated = d.cal.Calibrated()
		res.Baseline = d.cal.Baseline()
		// Score stays neutral until calibrated; no events either way.
		return res, nil
	}

	res.Calibrated = true
	res.Baseline = d.cal.Baseline()
	res.Score = power / d.cal.Baseline()
	res.Event = d.decider.Eval(res.Score, now)
	return res, nil
}

// Calibrated reports whether the baseline has been frozen.
func (d *Detector) Calibrated() bool { return d.cal.Calibrated() }

// CalibrationProgress describes warm-up state for logging.
func (d *Detector) CalibrationProgress(now time.Time) (elapsed time.Duration, samples int) {
	return d.cal.Elapsed(now), d.cal.SampleCount()
}
