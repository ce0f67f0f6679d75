// Package blink implements the blink-path detector: rolling window,
// band-pass conditioning of the occipital trace, and a derivative-spike
// trigger. Only the newest segment of the derivative is scanned each cycle,
// so a spike already reported never re-triggers as it slides through the
// window.
package blink

import (
	"fmt"
	"time"

	"github.com/mwrona/neurodeck/internal/config"
	"github.com/mwrona/neurodeck/internal/detect"
	"github.com/mwrona/neurodeck/internal/dsp"
	"github.com/mwrona/neurodeck/internal/ringbuf"
)

// Fixed conditioning stages for the blink path: drift high-pass plus a
// low-pass keeping only the slow eye-movement band.
const (
	highpassHz = 0.3
	lowpassHz  = 20.0
)

// minScanDivisor: the scanned tail is never shorter than SampleRate/10
// samples, even for tiny batches.
const minScanDivisor = 10

// Detector owns the blink path for one worker. The first configured
// channel carries the analyzed trace; the others are buffered so the
// window stays consistent if the selection changes.
type Detector struct {
	channels   []string
	sampleRate float64
	buf        *ringbuf.Buffer
	chain      *dsp.Chain
	trigger    *detect.Trigger
}

// Result is the outcome of processing one batch.
type Result struct {
	// MaxDerivative is the largest |d/dt| over the scanned tail.
	MaxDerivative float64
	// Warmed reports whether the window has filled once. No events fire
	// before that; the filter transient right after startup looks
	// exactly like a blink.
	Warmed bool
	// Event is the blink, if one fired.
	Event *detect.Event
}

// New builds a detector from the configuration.
func New(cfg config.Config) *Detector {
	return &Detector{
		channels:   append([]string(nil), cfg.Channels...),
		sampleRate: cfg.SampleRate,
		buf:        ringbuf.New(cfg.Channels, cfg.WindowSamples()),
		chain: dsp.NewChain(
			dsp.NewHighpass(cfg.SampleRate, highpassHz, dsp.ButterworthQ),
			dsp.NewLowpass(cfg.SampleRate, lowpassHz, dsp.ButterworthQ),
		),
		trigger: detect.NewTrigger(cfg.DerivativeThreshold, cfg.Cooldown()),
	}
}

// Process runs one cycle: append the batch, condition the primary trace,
// differentiate, and scan only the newest segment for a spike.
func (d *Detector) Process(samples map[string][]float64, now time.Time) (Result, error) {
	batchLen := len(samples[d.channels[0]])
	if err := d.buf.Append(samples); err != nil {
		return Result{}, fmt.Errorf("append batch: %w", err)
	}

	trace := dsp.RemoveMean(d.buf.Window(d.channels[0]))
	filtered := d.chain.Apply(trace)
	deriv := dsp.Derivative(filtered, d.sampleRate)

	scan := batchLen
	if min := int(d.sampleRate) / minScanDivisor; scan < min {
		scan = min
	}
	if scan > len(deriv) {
		scan = len(deriv)
	}
	maxDeriv := dsp.MaxAbs(deriv[len(deriv)-scan:])

	res := Result{MaxDerivative: maxDeriv, Warmed: d.buf.Full()}
	if !res.Warmed {
		return res, nil
	}
	res.Event = d.trigger.Eval(maxDeriv, now)
	return res, nil
}

// Warmed reports whether the window has filled at least once.
func (d *Detector) Warmed() bool { return d.buf.Full() }
