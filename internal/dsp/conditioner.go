package dsp

// Chain is an ordered cascade of biquad sections applied to a whole window.
// The delay lines are cleared before each application, so every call filters
// the full current window from a cold start. Re-filtering the window each
// update avoids boundary artifacts from the previous cycle; at steady state
// the output matches a stateful filter over the same data.
type Chain struct {
	sections []*Biquad
}

// NewChain builds a cascade from the given sections, applied in order.
func NewChain(sections ...*Biquad) *Chain {
	return &Chain{sections: sections}
}

// Apply filters the window through every section and returns a new slice of
// the same length. The input is not modified.
func (c *Chain) Apply(window []float64) []float64 {
	out := append([]float64(nil), window...)
	for _, s := range c.sections {
		s.Reset()
		for i, v := range out {
			out[i] = s.Process(v)
		}
	}
	return out
}

// RemoveMean subtracts the window mean from every sample (DC removal) and
// returns a new slice. An empty window comes back empty.
func RemoveMean(window []float64) []float64 {
	if len(window) == 0 {
		return nil
	}
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))
	out := make([]float64, len(window))
	for i, v := range window {
		out[i] = v - mean
	}
	return out
}

// Average combines equally-long windows into their per-sample mean. Used to
// collapse the two frontal channels into one trace before filtering.
func Average(windows ...[]float64) []float64 {
	if len(windows) == 0 {
		return nil
	}
	n := len(windows[0])
	for _, w := range windows[1:] {
		if len(w) < n {
			n = len(w)
		}
	}
	out := make([]float64, n)
	for _, w := range windows {
		for i := 0; i < n; i++ {
			out[i] += w[i]
		}
	}
	inv := 1 / float64(len(windows))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Derivative returns the discrete derivative scaled to units per second.
// The first sample is repeated so the output keeps the input length.
func Derivative(window []float64, sampleRate float64) []float64 {
	if len(window) == 0 {
		return nil
	}
	out := make([]float64, len(window))
	prev := window[0]
	for i, v := range window {
		out[i] = (v - prev) * sampleRate
		prev = v
	}
	return out
}

// MaxAbs returns the largest absolute value in the window, 0 for an empty
// window.
func MaxAbs(window []float64) float64 {
	var max float64
	for _, v := range window {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}
