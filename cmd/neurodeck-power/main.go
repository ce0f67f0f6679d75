// Command neurodeck-power is the power-path worker: it consumes raw sample
// batches, conditions the frontal channels, extracts band power, calibrates
// a baseline and publishes jaw-clench / head-move events.
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
	"github.com/mwrona/neurodeck/internal/move"
)

func main() {
	cfg := config.Default()
	cfg.BindCommonFlags(flag.CommandLine)
	cfg.BindSignalFlags(flag.CommandLine)
	cfg.BindPowerFlags(flag.CommandLine)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("worker", "power").Logger()

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	conn, err := bus.Dial(cfg.Broker, "power", logger)
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

	det := move.New(cfg, time.Now())
	logger.Info().
		Float64("band_low", cfg.FrequencyBandLow).
		Float64("band_high", cfg.FrequencyBandHigh).
		Strs("channels", cfg.Channels).
		Msg("started, collecting baseline")

	return runLoop(det, conn, sub, cfg.PollInterval, logger, time.Now, sigCh)
}

func runLoop(det *move.Detector, conn bus.Conn, sub *bus.Subscription, poll time.Duration, logger zerolog.Logger, now func() time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			logger.Info().Str("signal", s.String()).Msg("shutting down")
			return nil
		default:
		}

		payload, ok := sub.Receive(poll)
		if !ok {
			// Timeout is the idle path; it just drives the next cycle.
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

		if res.JustCalibrated {
			logger.Info().Float64("baseline", res.Baseline).Msg("calibrated")
		}
		if res.Event == nil {
			continue
		}

		ev := bus.MoveEvent{
			Direction: res.Event.Direction,
			Magnitude: res.Event.Magnitude,
			Timestamp: res.Event.Time,
		}
		p, err := bus.FormatMoveEvent(ev)
		if err != nil {
			logger.Error().Err(err).Msg("format move event")
			continue
		}
		if err := conn.Publish(bus.TopicMove, p); err != nil {
			logger.Error().Err(err).Msg("publish move event")
			continue
		}
		logger.Info().
			Str("kind", string(res.Event.Kind)).
			Float64("score", res.Score).
			Int("direction", res.Event.Direction).
			Msg("move detected")
	}
}
