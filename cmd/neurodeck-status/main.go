// Command neurodeck-status tails the status topic and prints mode changes,
// a console stand-in for the LED indicator overlay.
package main

import (
	"flag"
	"fmt"
	"io"
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
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("worker", "status").Logger()

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

	conn, err := bus.Dial(cfg.Broker, "status", logger)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	defer conn.Close()

	// Latest policy: if this display falls behind, only the newest mode
	// matters anyway.
	sub, err := conn.Subscribe(bus.TopicStatus, bus.Latest)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sub, cfg.PollInterval, os.Stdout, logger, sigCh)
}

func runLoop(sub *bus.Subscription, poll time.Duration, out io.Writer, logger zerolog.Logger, sig <-chan os.Signal) error {
	last := -1
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
		st, err := bus.ParseStatus(payload)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping malformed message")
			continue
		}
		if st.ModeCode == last {
			continue
		}
		last = st.ModeCode
		fmt.Fprintf(out, "%s  [%s] %s\n", time.Now().Format("15:04:05"), statusColor(st.ModeCode), statusName(st.ModeCode))
	}
}

// statusName maps a mode code to the session phase it announces.
func statusName(code int) string {
	switch code {
	case session.StatusBlinkWait:
		return "waiting for blink"
	case session.StatusReady:
		return "ready (listening for moves)"
	case session.StatusRest:
		return "resting"
	}
	return "unknown"
}

// statusColor mirrors the LED colors of the desktop indicator.
func statusColor(code int) string {
	switch code {
	case session.StatusBlinkWait:
		return "RED"
	case session.StatusReady:
		return "GREEN"
	case session.StatusRest:
		return "ORANGE"
	}
	return "?"
}
