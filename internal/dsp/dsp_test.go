package dsp

import (
	"math"
	"testing"
)

func sine(freq, rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func rms(w []float64) float64 {
	var sum float64
	for _, v := range w {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(w)))
}

func TestLowpassPassesDC(t *testing.T) {
	f := NewLowpass(250, 20, ButterworthQ)
	var out float64
	for i := 0; i < 2000; i++ {
		out = f.Process(1.0)
	}
	if math.Abs(out-1.0) > 1e-6 {
		t.Errorf("low-pass steady state on DC = %v, want 1.0", out)
	}
}

func TestHighpassRemovesDC(t *testing.T) {
	f := NewHighpass(250, 2, ButterworthQ)
	var out float64
	for i := 0; i < 5000; i++ {
		out = f.Process(1.0)
	}
	if math.Abs(out) > 1e-6 {
		t.Errorf("high-pass steady state on DC = %v, want ~0", out)
	}
}

func TestNotchAttenuatesCenterFrequency(t *testing.T) {
	const rate = 250.0
	in50 := sine(50, rate, 1000) // 4 seconds
	in10 := sine(10, rate, 1000)

	chain := NewChain(NewNotch(rate, 50, 30))
	out50 := chain.Apply(in50)
	out10 := chain.Apply(in10)

	// Judge on the second half, past the transient.
	att := rms(out50[500:]) / rms(in50[500:])
	if att > 0.2 {
		t.Errorf("50 Hz attenuation ratio = %v, want < 0.2", att)
	}
	pass := rms(out10[500:]) / rms(in10[500:])
	if pass < 0.9 {
		t.Errorf("10 Hz pass ratio = %v, want > 0.9", pass)
	}
}

func TestChainResetsBetweenApplications(t *testing.T) {
	const rate = 250.0
	chain := NewChain(NewHighpass(rate, 2, ButterworthQ))
	in := sine(10, rate, 500)

	first := chain.Apply(in)
	second := chain.Apply(in)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs between applications: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestChainPreservesLengthAndInput(t *testing.T) {
	in := sine(10, 250, 100)
	orig := append([]float64(nil), in...)
	out := NewChain(NewLowpass(250, 20, ButterworthQ)).Apply(in)
	if len(out) != len(in) {
		t.Fatalf("output len %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != orig[i] {
			t.Fatal("Apply modified its input")
		}
	}
}

func TestRemoveMean(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	out := RemoveMean(in)
	var sum float64
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("mean after removal = %v, want 0", sum/4)
	}
	if out[0] != -1.5 || out[3] != 1.5 {
		t.Errorf("unexpected output %v", out)
	}
	if RemoveMean(nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestAverage(t *testing.T) {
	out := Average([]float64{1, 2, 3}, []float64{3, 4, 5})
	want := []float64{2, 3, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("avg[%d]=%v, want %v", i, out[i], want[i])
		}
	}
	if len(Average([]float64{1, 2}, []float64{1})) != 1 {
		t.Error("average should truncate to the shortest window")
	}
}

func TestDerivativeOfRamp(t *testing.T) {
	const rate = 250.0
	ramp := make([]float64, 100)
	for i := range ramp {
		ramp[i] = float64(i) * 0.5 // 0.5 units per sample = 125 units/s
	}
	d := Derivative(ramp, rate)
	if d[0] != 0 {
		t.Errorf("first derivative sample = %v, want 0 (repeated first sample)", d[0])
	}
	for i := 1; i < len(d); i++ {
		if math.Abs(d[i]-125) > 1e-9 {
			t.Fatalf("derivative[%d]=%v, want 125", i, d[i])
		}
	}
}

func TestMaxAbs(t *testing.T) {
	if got := MaxAbs([]float64{1, -7, 3}); got != 7 {
		t.Errorf("MaxAbs = %v, want 7", got)
	}
	if got := MaxAbs(nil); got != 0 {
		t.Errorf("MaxAbs(nil) = %v, want 0", got)
	}
}
