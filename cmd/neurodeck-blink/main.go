// Command neurodeck-blink is the blink-path worker: it consumes raw sample
// batches, band-passes the occipital trace and publishes a blink event
// whenever the signal derivative spikes past the threshold.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mwrona/neurodeck/internal/blink"
	"github.com/mwrona/neurodeck/internal/bus"
	"github.com/mwrona/neurodeck/internal/config"
)

func main() {
	cfg := config.Default()
	// Blink path watches the occipital pair over a longer window.
	cfg.AnalysisWindowSeconds = 5.0
	cfg.Channels = []string{"O1", "O2"}
	cfg.BindCommonFlags(flag.CommandLine)
	cfg.BindSignalFlags(flag.CommandLine)
	cfg.BindBlinkFlags(flag.CommandLine)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("worker", "blink").Logger()

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	conn, err := bus.Dial(cfg.Broker, "blink", logger)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	defer conn.Close()

	sub, err := conn.Subscribe(bus.TopicRawSample, bus.Queued)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	det := blink.New(cfg)
	logger.Info().
		Float64("threshold", cfg.DerivativeThreshold).
		Strs("channels", cfg.Channels).
		Msg("started, filling window")

	return runLoop(det, conn, sub, cfg.PollInterval, logger, time.Now, sigCh)
}

func runLoop(det *blink.Detector, conn bus.Conn, sub *bus.Subscription, poll time.Duration, logger zerolog.Logger, now func() time.Time, sig <-chan os.Signal) error {
	warmed := false
	for {
		select {
		case s := <-sig:
			logger.Info().Str("signal", s.String()).Msg("shutting down")
			return nil
		default:
		}

		payload, ok := sub.Receive(poll)
		if !ok {
			continue
		}

		batch, err := bus.ParseSampleBatch(payload)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping malformed message")
			continue
		}

		res, err := det.Process(batch.Channels, now())
		if err != nil {
			logger.Warn().Err(err).Msg("dropping batch")
			continue
		}

		if res.Warmed && !warmed {
			warmed = true
			logger.Info().Msg("window full, watching for blinks")
		}
		if res.Event == nil {
			continue
		}

		ev := bus.BlinkEvent{
			Triggered: true,
			Magnitude: res.Event.Magnitude,
			Timestamp: res.Event.Time,
		}
		p, err := bus.FormatBlinkEvent(ev)
		if err != nil {
			logger.Error().Err(err).Msg("format blink event")
			continue
		}
		if err := conn.Publish(bus.TopicBlink, p); err != nil {
			logger.Error().Err(err).Msg("publish blink event")
			continue
		}
		logger.Info().Float64("derivative", res.Event.Magnitude).Msg("blink detected")
	}
}
