// Package config holds the tunable parameters shared by the neurodeck
// workers. Defaults mirror the values the system was tuned with on the
// 4-channel headset (250 Hz, frontal power path, occipital blink path).
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"
)

// Config carries every recognized option. Each worker binds the subset it
// uses as flags; unused fields keep their defaults.
type Config struct {
	// Broker is the MQTT broker URL all workers meet on.
	Broker string

	// SampleRate is the acquisition rate in Hz.
	SampleRate float64

	// AnalysisWindowSeconds is the rolling buffer length in seconds.
	AnalysisWindowSeconds float64

	// FFTWindowSeconds is the spectral sub-window length in seconds.
	FFTWindowSeconds float64

	// CalibrationSeconds is the minimum warm-up before a baseline freezes.
	CalibrationSeconds float64

	// ReadySeconds is the settle time between blink and arming.
	ReadySeconds float64

	// RestSeconds is the pause after an executed command.
	RestSeconds float64

	// LowThresholdMultiplier and HighThresholdMultiplier scale the
	// baseline into the clench and head-move thresholds.
	LowThresholdMultiplier  float64
	HighThresholdMultiplier float64

	// FrequencyBandLow and FrequencyBandHigh bound the power band in Hz.
	FrequencyBandLow  float64
	FrequencyBandHigh float64

	// CooldownSeconds is the wall-clock gap enforced between events.
	CooldownSeconds float64

	// DebounceFrameCount is the consecutive frames a clench-level score
	// must persist before an event fires.
	DebounceFrameCount int

	// DerivativeThreshold is the blink path's absolute threshold, in
	// filtered signal units per second.
	DerivativeThreshold float64

	// Channels are the channels a worker conditions, in order.
	Channels []string

	// PollInterval is the per-cycle receive timeout / loop sleep.
	PollInterval time.Duration
}

// Default returns the power-path defaults. The blink worker overrides the
// window and channel selection before binding flags.
func Default() Config {
	return Config{
		Broker:                  "tcp://localhost:1883",
		SampleRate:              250,
		AnalysisWindowSeconds:   4.0,
		FFTWindowSeconds:        0.5,
		CalibrationSeconds:      3.0,
		ReadySeconds:            3.0,
		RestSeconds:             2.0,
		LowThresholdMultiplier:  1.5,
		HighThresholdMultiplier: 100.0,
		FrequencyBandLow:        35.0,
		FrequencyBandHigh:       110.0,
		CooldownSeconds:         1.0,
		DebounceFrameCount:      2,
		DerivativeThreshold:     20000.0,
		Channels:                []string{"Fp1", "Fp2"},
		PollInterval:            10 * time.Millisecond,
	}
}

// BindCommonFlags registers the options every worker shares.
func (c *Config) BindCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker address")
	fs.Float64Var(&c.SampleRate, "sample-rate", c.SampleRate, "Acquisition sample rate (Hz)")
	fs.DurationVar(&c.PollInterval, "poll", c.PollInterval, "Per-cycle receive timeout")
	fs.Func("channels", "Comma-separated channel names", func(v string) error {
		c.Channels = splitChannels(v)
		if len(c.Channels) == 0 {
			return fmt.Errorf("no channels given")
		}
		return nil
	})
}

// BindSignalFlags registers the options shared by the two signal workers.
func (c *Config) BindSignalFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.AnalysisWindowSeconds, "window", c.AnalysisWindowSeconds, "Analysis window (seconds)")
	fs.Float64Var(&c.CalibrationSeconds, "calibration", c.CalibrationSeconds, "Calibration warm-up (seconds)")
	fs.Float64Var(&c.CooldownSeconds, "cooldown", c.CooldownSeconds, "Cooldown between events (seconds)")
}

// BindPowerFlags registers the power-path options.
func (c *Config) BindPowerFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.FFTWindowSeconds, "fft-window", c.FFTWindowSeconds, "Spectral sub-window (seconds)")
	fs.Float64Var(&c.LowThresholdMultiplier, "low-mult", c.LowThresholdMultiplier, "Clench threshold multiplier")
	fs.Float64Var(&c.HighThresholdMultiplier, "high-mult", c.HighThresholdMultiplier, "Head-move threshold multiplier")
	fs.Float64Var(&c.FrequencyBandLow, "band-low", c.FrequencyBandLow, "Power band lower edge (Hz)")
	fs.Float64Var(&c.FrequencyBandHigh, "band-high", c.FrequencyBandHigh, "Power band upper edge (Hz)")
	fs.IntVar(&c.DebounceFrameCount, "debounce-frames", c.DebounceFrameCount, "Consecutive frames before a clench fires")
}

// BindBlinkFlags registers the blink-path options.
func (c *Config) BindBlinkFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.DerivativeThreshold, "deriv-threshold", c.DerivativeThreshold, "Blink derivative threshold (units/s)")
}

// BindSessionFlags registers the state machine options.
func (c *Config) BindSessionFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.ReadySeconds, "ready", c.ReadySeconds, "Settle time between blink and arming (seconds)")
	fs.Float64Var(&c.RestSeconds, "rest", c.RestSeconds, "Pause after a command (seconds)")
}

// Validate rejects configurations no worker can run with.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker must be set")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample-rate must be positive, got %v", c.SampleRate)
	}
	if c.AnalysisWindowSeconds <= 0 {
		return fmt.Errorf("window must be positive, got %v", c.AnalysisWindowSeconds)
	}
	if c.FFTWindowSeconds <= 0 || c.FFTWindowSeconds > c.AnalysisWindowSeconds {
		return fmt.Errorf("fft-window must be in (0, window], got %v", c.FFTWindowSeconds)
	}
	if c.FrequencyBandLow < 0 || c.FrequencyBandHigh <= c.FrequencyBandLow {
		return fmt.Errorf("band must satisfy 0 <= low < high, got [%v, %v]",
			c.FrequencyBandLow, c.FrequencyBandHigh)
	}
	if c.LowThresholdMultiplier <= 0 || c.HighThresholdMultiplier < c.LowThresholdMultiplier {
		return fmt.Errorf("multipliers must satisfy 0 < low <= high, got %v/%v",
			c.LowThresholdMultiplier, c.HighThresholdMultiplier)
	}
	if c.DebounceFrameCount < 1 {
		return fmt.Errorf("debounce-frames must be >= 1, got %d", c.DebounceFrameCount)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("at least one channel required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll must be positive, got %v", c.PollInterval)
	}
	return nil
}

// WindowSamples is the rolling buffer capacity in samples.
func (c *Config) WindowSamples() int {
	return int(c.SampleRate * c.AnalysisWindowSeconds)
}

// FFTWindowSamples is the spectral sub-window length in samples.
func (c *Config) FFTWindowSamples() int {
	return int(c.SampleRate * c.FFTWindowSeconds)
}

// Calibration returns the warm-up as a duration.
func (c *Config) Calibration() time.Duration { return secs(c.CalibrationSeconds) }

// Cooldown returns the event cooldown as a duration.
func (c *Config) Cooldown() time.Duration { return secs(c.CooldownSeconds) }

// Ready returns the settle time as a duration.
func (c *Config) Ready() time.Duration { return secs(c.ReadySeconds) }

// Rest returns the rest time as a duration.
func (c *Config) Rest() time.Duration { return secs(c.RestSeconds) }

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func splitChannels(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
