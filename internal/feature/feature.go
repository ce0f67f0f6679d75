// Package feature extracts the band-limited power feature from a filtered
// signal window using Welch's averaged-segment spectral estimate.
package feature

import (
	"github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
)

// Extractor computes band power over the most recent sub-window of a
// filtered signal. The estimate is deterministic: Hann-windowed overlapping
// segments, no randomness.
type Extractor struct {
	// SampleRate in Hz.
	SampleRate float64
	// SubWindow is the length in samples of the analysis sub-window taken
	// from the tail of the full window.
	SubWindow int
	// BandLow and BandHigh bound the frequency band in Hz (inclusive).
	BandLow, BandHigh float64
}

// minSamplesDivisor: sub-windows shorter than SampleRate/10 samples carry
// too little spectral information and yield zero.
const minSamplesDivisor = 10

// BandPower returns the mean power spectral density over the configured
// band, computed on the newest SubWindow samples of the given window.
// Degenerate input never fails: an empty or too-short window, or a band
// containing no PSD bin, yields 0.
func (e *Extractor) BandPower(filtered []float64) float64 {
	sub := filtered
	if e.SubWindow > 0 && len(sub) > e.SubWindow {
		sub = sub[len(sub)-e.SubWindow:]
	}
	if len(sub) < int(e.SampleRate)/minSamplesDivisor {
		return 0
	}

	nfft := e.SubWindow
	if nfft <= 0 || nfft > len(sub) {
		nfft = len(sub)
	}
	opts := &spectral.PwelchOptions{
		NFFT:   nfft,
		Window: window.Hann,
	}
	pxx, freqs := spectral.Pwelch(sub, e.SampleRate, opts)

	var sum float64
	var n int
	for i, f := range freqs {
		if f >= e.BandLow && f <= e.BandHigh {
			sum += pxx[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
