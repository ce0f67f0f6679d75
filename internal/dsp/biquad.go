// Package dsp implements the fixed-coefficient signal conditioning used by
// both detection paths: second-order IIR sections (low-pass, high-pass,
// notch), cascades applied over a full window, DC removal, channel
// averaging, and the discrete derivative.
package dsp

import "math"

// ButterworthQ is the quality factor that makes a single second-order
// section a 2nd-order Butterworth response.
const ButterworthQ = math.Sqrt2 / 2

// Biquad is one second-order IIR section in transposed direct form II.
type Biquad struct {
	// Numerator and (normalized) denominator coefficients.
	b0, b1, b2 float64
	a1, a2     float64
	// Delay line.
	z1, z2 float64
}

// Process filters a single sample through the section.
func (f *Biquad) Process(in float64) float64 {
	out := f.b0*in + f.z1
	f.z1 = f.b1*in - f.a1*out + f.z2
	f.z2 = f.b2*in - f.a2*out
	return out
}

// Reset clears the delay line.
func (f *Biquad) Reset() {
	f.z1 = 0
	f.z2 = 0
}

// NewLowpass designs a low-pass section with the given cutoff (Hz).
func NewLowpass(sampleRate, cutoff, q float64) *Biquad {
	_, alpha, cosw0 := design(sampleRate, cutoff, q)
	b1 := 1 - cosw0
	return normalize(b1/2, b1, b1/2, alpha, cosw0)
}

// NewHighpass designs a high-pass section with the given cutoff (Hz).
func NewHighpass(sampleRate, cutoff, q float64) *Biquad {
	_, alpha, cosw0 := design(sampleRate, cutoff, q)
	b0 := (1 + cosw0) / 2
	return normalize(b0, -(1 + cosw0), b0, alpha, cosw0)
}

// NewNotch designs a notch section centered at the given frequency (Hz).
// Q controls the notch width; mains interference rejection uses a narrow
// notch (Q around 30).
func NewNotch(sampleRate, center, q float64) *Biquad {
	_, alpha, cosw0 := design(sampleRate, center, q)
	return normalize(1, -2*cosw0, 1, alpha, cosw0)
}

func design(sampleRate, freq, q float64) (w0, alpha, cosw0 float64) {
	// Clamp just below Nyquist to keep the design numerically stable.
	nyquist := sampleRate / 2
	if freq >= nyquist*0.998 {
		freq = nyquist * 0.998
	}
	w0 = 2 * math.Pi * freq / sampleRate
	alpha = math.Sin(w0) / (2 * q)
	cosw0 = math.Cos(w0)
	return w0, alpha, cosw0
}

func normalize(b0, b1, b2, alpha, cosw0 float64) *Biquad {
	a0 := 1 + alpha
	return &Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}
