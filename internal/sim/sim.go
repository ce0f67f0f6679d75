// Package sim generates synthetic headset signal for the emulator and for
// tests: seeded Gaussian background noise with blink spikes and clench
// bursts layered on top. Everything is deterministic for a given seed.
package sim

import (
	"math"
	"math/rand"
)

// Generator produces sample batches for a fixed channel set.
type Generator struct {
	rng      *rand.Rand
	rate     float64
	channels []string

	// NoiseAmp is the standard deviation of the background noise.
	NoiseAmp float64

	burstPhase float64
}

// New creates a deterministic generator.
func New(seed int64, sampleRate float64, channels []string) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		rate:     sampleRate,
		channels: append([]string(nil), channels...),
		NoiseAmp: 5.0,
	}
}

// Channels returns the configured channel names.
func (g *Generator) Channels() []string {
	return append([]string(nil), g.channels...)
}

// Batch returns n samples of background noise per channel.
func (g *Generator) Batch(n int) map[string][]float64 {
	out := make(map[string][]float64, len(g.channels))
	for _, ch := range g.channels {
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = g.rng.NormFloat64() * g.NoiseAmp
		}
		out[ch] = samples
	}
	return out
}

// Spike adds a half-sine deflection of the given amplitude across the whole
// batch on the named channels. A batch-length spike at typical batch sizes
// (~0.2 s) mimics the sharp eye-blink transient.
func (g *Generator) Spike(batch map[string][]float64, channels []string, amp float64) {
	for _, ch := range channels {
		samples := batch[ch]
		n := len(samples)
		for i := range samples {
			samples[i] += amp * math.Sin(math.Pi*float64(i)/float64(n))
		}
	}
}

// Burst adds a phase-continuous sinusoid at the given frequency and
// amplitude on the named channels, emulating the broadband muscle activity
// of a jaw clench inside the detection band.
func (g *Generator) Burst(batch map[string][]float64, channels []string, freq, amp float64) {
	step := 2 * math.Pi * freq / g.rate
	start := g.burstPhase
	var phase float64
	for _, ch := range channels {
		phase = start
		samples := batch[ch]
		for i := range samples {
			samples[i] += amp * math.Sin(phase)
			phase += step
		}
	}
	g.burstPhase = math.Mod(phase, 2*math.Pi)
}
