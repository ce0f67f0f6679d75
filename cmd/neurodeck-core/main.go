// Command neurodeck-core runs the session state machine: it gates blink and
// move events into deck commands and drives the status indicator topic.
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
	"github.com/mwrona/neurodeck/internal/session"
)

func main() {
	cfg := config.Default()
	cfg.BindCommonFlags(flag.CommandLine)
	cfg.BindSessionFlags(flag.CommandLine)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("worker", "core").Logger()

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if cfg.Broker == "" {
		return fmt.Errorf("config: broker must be set")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("config: poll must be positive, got %v", cfg.PollInterval)
	}

	conn, err := bus.Dial(cfg.Broker, "core", logger)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	defer conn.Close()

	// Subscriptions go up before any effect is published so the detectors'
	// output is never produced into the void.
	blinkSub, err := conn.Subscribe(bus.TopicBlink, bus.Queued)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	moveSub, err := conn.Subscribe(bus.TopicMove, bus.Queued)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	m := session.New(cfg.Ready(), cfg.Rest(), time.Now())
	logger.Info().
		Dur("ready", cfg.Ready()).
		Dur("rest", cfg.Rest()).
		Msg("started, waiting for blink")

	// Initial indicator state.
	if err := publishStatus(conn, session.StatusBlinkWait); err != nil {
		logger.Error().Err(err).Msg("publish initial status")
	}

	return runLoop(m, conn, blinkSub, moveSub, cfg.PollInterval, logger, time.Now, sigCh)
}

func runLoop(m *session.Machine, conn bus.Conn, blinkSub, moveSub *bus.Subscription, poll time.Duration, logger zerolog.Logger, now func() time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			c := m.Counts()
			logger.Info().
				Str("signal", s.String()).
				Int("blinks", c.Blinks).
				Int("advances", c.Advances).
				Int("retreats", c.Retreats).
				Msg("shutting down")
			return nil
		default:
		}

		// Events the current mode does not consume are dropped, never
		// queued for a later window. The detectors publish into bounded
		// queues, so without this a move delivered during BLINK_WAIT
		// would replay as a command once the machine arms.
		if m.Wants() != session.WantBlink {
			discard(blinkSub, logger)
		}
		if m.Wants() != session.WantMove {
			discard(moveSub, logger)
		}

		var effects []session.Effect

		// Poll only the topic the current mode consumes.
		switch m.Wants() {
		case session.WantBlink:
			if payload, ok := blinkSub.Receive(poll); ok {
				ev, err := bus.ParseBlinkEvent(payload)
				if err != nil {
					logger.Warn().Err(err).Msg("dropping malformed message")
				} else if ev.Triggered && m.OnBlink(now()) {
					logger.Info().Msg("blink accepted, preparing")
				}
			}
		case session.WantMove:
			if payload, ok := moveSub.Receive(poll); ok {
				ev, err := bus.ParseMoveEvent(payload)
				if err != nil {
					logger.Warn().Err(err).Msg("dropping malformed message")
				} else {
					effects = m.OnMove(ev.Direction, now())
				}
			}
		default:
			// Time-driven mode: nothing to consume, just pace the loop.
			time.Sleep(poll)
		}

		effects = append(effects, m.Tick(now())...)
		for _, e := range effects {
			if err := applyEffect(conn, e); err != nil {
				logger.Error().Err(err).Msg("publish effect")
				continue
			}
			switch e.Kind {
			case session.EffectStatus:
				logger.Info().Int("mode_code", e.Code).Str("mode", m.Mode().String()).Msg("status")
			case session.EffectCommand:
				logger.Info().Int("direction", e.Direction).Msg("command")
			}
		}
	}
}

// discard drains a subscription without acting on the payloads.
func discard(sub *bus.Subscription, logger zerolog.Logger) {
	n := 0
	for {
		if _, ok := sub.Receive(0); !ok {
			break
		}
		n++
	}
	if n > 0 {
		logger.Debug().Str("topic", sub.Topic()).Int("count", n).Msg("stale events dropped")
	}
}

func applyEffect(conn bus.Conn, e session.Effect) error {
	switch e.Kind {
	case session.EffectCommand:
		payload, err := bus.FormatCommand(bus.Command{Direction: e.Direction})
		if err != nil {
			return fmt.Errorf("format command: %w", err)
		}
		return conn.Publish(bus.TopicCommand, payload)
	case session.EffectStatus:
		return publishStatus(conn, e.Code)
	}
	return fmt.Errorf("unknown effect kind %d", e.Kind)
}

func publishStatus(conn bus.Conn, code int) error {
	payload, err := bus.FormatStatus(bus.Status{ModeCode: code})
	if err != nil {
		return fmt.Errorf("format status: %w", err)
	}
	return conn.Publish(bus.TopicStatus, payload)
}
