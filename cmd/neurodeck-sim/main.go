// Command neurodeck-sim emulates the headset: it publishes synthetic raw
// sample batches at the configured rate, with a scripted scenario of blinks
// and clench bursts so the whole pipeline can be exercised without
// hardware.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mwrona/neurodeck/internal/bus"
	"github.com/mwrona/neurodeck/internal/config"
	"github.com/mwrona/neurodeck/internal/sim"
)

// Scripted scenario, repeating after the first quiet calibration stretch:
// a blink, then (once the session has had time to arm) a clench burst.
type script struct {
	quiet       time.Duration // initial silence for calibration
	blinkPeriod time.Duration // one blink per period after the quiet part
	clenchDelay time.Duration // clench onset after each blink
	blinkLen    time.Duration
	clenchLen   time.Duration
	blinkAmp    float64
	clenchAmp   float64
}

// stage reports which injections are active at offset t from start.
func (s script) stage(t time.Duration) (blink, clench bool) {
	if t < s.quiet {
		return false, false
	}
	phase := (t - s.quiet) % s.blinkPeriod
	blink = phase < s.blinkLen
	clench = phase >= s.clenchDelay && phase < s.clenchDelay+s.clenchLen
	return blink, clench
}

func main() {
	cfg := config.Default()
	cfg.Channels = []string{"Fp1", "Fp2", "O1", "O2"}
	cfg.BindCommonFlags(flag.CommandLine)
	batchSamples := flag.Int("batch", 50, "Samples per published batch")
	seed := flag.Int64("seed", 1, "Noise seed")
	blinkPeriod := flag.Duration("blink-period", 10*time.Second, "Time between scripted blinks")
	clenchDelay := flag.Duration("clench-delay", 4*time.Second, "Clench onset after each blink")
	quiet := flag.Duration("quiet", 6*time.Second, "Initial quiet stretch for calibration")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("worker", "sim").Logger()

	if err := run(cfg, *batchSamples, *seed, script{
		quiet:       *quiet,
		blinkPeriod: *blinkPeriod,
		clenchDelay: *clenchDelay,
		blinkLen:    200 * time.Millisecond,
		clenchLen:   500 * time.Millisecond,
		blinkAmp:    2000,
		clenchAmp:   30,
	}, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config, batchSamples int, seed int64, sc script, logger zerolog.Logger) error {
	if batchSamples <= 0 {
		return fmt.Errorf("config: batch must be positive, got %d", batchSamples)
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("config: sample-rate must be positive, got %v", cfg.SampleRate)
	}

	conn, err := bus.Dial(cfg.Broker, "sim", logger)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	defer conn.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	gen := sim.New(seed, cfg.SampleRate, cfg.Channels)
	interval := time.Duration(float64(batchSamples) / cfg.SampleRate * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().
		Float64("rate", cfg.SampleRate).
		Int("batch", batchSamples).
		Dur("interval", interval).
		Msg("streaming synthetic signal")

	start := time.Now()
	for {
		select {
		case s := <-sigCh:
			logger.Info().Str("signal", s.String()).Msg("shutting down")
			return nil

		case now := <-ticker.C:
			batch := gen.Batch(batchSamples)
			blink, clench := sc.stage(now.Sub(start))
			if blink {
				gen.Spike(batch, []string{"O1", "O2"}, sc.blinkAmp)
			}
			if clench {
				gen.Burst(batch, []string{"Fp1", "Fp2"}, 70, sc.clenchAmp)
			}

			payload, err := bus.FormatSampleBatch(bus.SampleBatch{
				Channels:   batch,
				SampleRate: cfg.SampleRate,
				Timestamp:  now,
			})
			if err != nil {
				logger.Error().Err(err).Msg("format batch")
				continue
			}
			if err := conn.Publish(bus.TopicRawSample, payload); err != nil {
				logger.Error().Err(err).Msg("publish batch")
			}
		}
	}
}
