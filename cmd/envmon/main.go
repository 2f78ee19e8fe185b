// Command envmon polls debounced buttons and publishes press events to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sweeney/envmon/internal/debounce"
	"github.com/sweeney/envmon/internal/gpio"
	"github.com/sweeney/envmon/internal/logic"
	"github.com/sweeney/envmon/internal/mqtt"
	"github.com/sweeney/envmon/internal/status"
	"github.com/sweeney/envmon/internal/web"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "envmon",
		Usage: "debounced button monitor",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "poll the buttons and publish events to MQTT",
				Flags:  append(sourceFlags(), runFlags()...),
				Action: runAction,
			},
			{
				Name:   "state",
				Usage:  "print the current state of every button and exit",
				Flags:  sourceFlags(),
				Action: stateAction,
			},
		},
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// openSource opens the input hardware selected by --source.
func openSource(cfg config) (gpio.Source, error) {
	switch cfg.Source {
	case sourceGPIOCDev:
		src, err := gpio.NewChipSource(cfg.Chip)
		if err != nil {
			return nil, err
		}
		return src, nil
	case sourcePeriph:
		src, err := gpio.NewPeriphSource()
		if err != nil {
			return nil, err
		}
		return src, nil
	case sourceMCP23017:
		src, err := gpio.OpenExpander(cfg.I2CBus, cfg.I2CAddr)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// attachButtons creates and attaches one button per --button, in order.
func attachButtons(src debounce.Source, clk clock.Clock, cfg config) ([]*debounce.Button, error) {
	buttons := make([]*debounce.Button, 0, len(cfg.Buttons))
	for _, spec := range cfg.Buttons {
		b := debounce.NewButton(src, clk)
		b.SetInterval(cfg.DebounceMs)
		b.SetActiveLevel(!spec.ActiveLow)
		if err := b.AttachMode(spec.Pin, spec.Mode); err != nil {
			return nil, fmt.Errorf("button %s: %w", spec.Name, err)
		}
		buttons = append(buttons, b)
	}
	return buttons, nil
}

func newDetector(src debounce.Source, clk clock.Clock, cfg config, logger *zap.SugaredLogger) (*logic.Detector, error) {
	buttons, err := attachButtons(src, clk, cfg)
	if err != nil {
		return nil, err
	}
	detector := logic.NewDetector(clk, cfg.Thresholds, logger)
	for i, b := range buttons {
		if err := detector.Add(cfg.Buttons[i].Name, b); err != nil {
			return nil, err
		}
	}
	return detector, nil
}

func stateAction(c *cli.Context) error {
	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}
	src, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer src.Close()

	return printState(c.App.Writer, src, cfg)
}

// printState writes one line per button with its state and raw level.
func printState(w io.Writer, src debounce.Source, cfg config) error {
	buttons, err := attachButtons(src, clock.New(), cfg)
	if err != nil {
		return err
	}
	for i, b := range buttons {
		state := status.StateReleased
		if b.IsDown() {
			state = status.StatePressed
		}
		fmt.Fprintf(w, "%s (pin %d): %s, level %s\n", cfg.Buttons[i].Name, b.Pin(), state, levelString(b.Read()))
	}
	return nil
}

func levelString(high bool) string {
	if high {
		return "high"
	}
	return "low"
}

func runAction(c *cli.Context) error {
	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}
	if cfg.Poll <= 0 {
		return fmt.Errorf("--%s %v: must be positive", flagPoll, cfg.Poll)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	return run(cfg, logger)
}

func run(cfg config, logger *zap.SugaredLogger) error {
	src, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warnf("close gpio: %v", err)
		}
	}()

	clk := clock.New()
	detector, err := newDetector(src, clk, cfg, logger.Named("detector"))
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker: cfg.Broker,
		Logger: logger.Named("mqtt"),
		Now:    clk.Now,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(clk, status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  int64(cfg.DebounceMs),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPPort:    cfg.HTTPAddr,
		Source:      cfg.Source,
	})

	l := &loop{
		detector:   detector,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat,
		clock:      clk,
		logger:     logger,
	}
	l.startup()

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("http server error: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		logger.Infof("http status server listening on %s", cfg.HTTPAddr)
	}

	logger.Infof("started: source=%s buttons=%d poll=%v debounce=%dms broker=%s heartbeat=%v",
		cfg.Source, len(cfg.Buttons), cfg.Poll, cfg.DebounceMs, cfg.Broker, cfg.Heartbeat)

	ticker := clk.Ticker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return l.run(ticker.C, sigCh)
}
