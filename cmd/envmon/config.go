package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/envmon/internal/debounce"
	"github.com/sweeney/envmon/internal/gpio"
	"github.com/sweeney/envmon/internal/logic"
)

// Flags.
const (
	flagPoll           = "poll"
	flagDebounce       = "debounce"
	flagBroker         = "broker"
	flagHeartbeat      = "heartbeat"
	flagHTTP           = "http"
	flagSource         = "source"
	flagChip           = "chip"
	flagI2CBus         = "i2c-bus"
	flagI2CAddr        = "i2c-addr"
	flagButton         = "button"
	flagLongPress      = "long-press"
	flagExtraLongPress = "extra-long-press"
	flagDebug          = "debug"
)

// Input sources.
const (
	sourceGPIOCDev = "gpiocdev"
	sourcePeriph   = "periph"
	sourceMCP23017 = "mcp23017"
)

func envVar(flag string) []string {
	return []string{"ENVMON_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))}
}

// sourceFlags select the input hardware and the buttons on it. Shared by
// every command.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagSource,
			Value:   sourceGPIOCDev,
			Usage:   "input source: gpiocdev, periph or mcp23017",
			EnvVars: envVar(flagSource),
		},
		&cli.StringFlag{
			Name:    flagChip,
			Value:   gpio.DefaultChip,
			Usage:   "GPIO character device for --source gpiocdev",
			EnvVars: envVar(flagChip),
		},
		&cli.StringFlag{
			Name:    flagI2CBus,
			Usage:   "I2C bus for --source mcp23017 (empty for the first available)",
			EnvVars: envVar(flagI2CBus),
		},
		&cli.UintFlag{
			Name:    flagI2CAddr,
			Value:   gpio.DefaultExpanderAddress,
			Usage:   "MCP23017 I2C address",
			EnvVars: envVar(flagI2CAddr),
		},
		&cli.StringSliceFlag{
			Name:    flagButton,
			Usage:   "button as name=pin[:active-low][:pullup|:pulldown] (repeatable or comma separated)",
			EnvVars: envVar(flagButton),
		},
		&cli.UintFlag{
			Name:    flagDebounce,
			Value:   uint(debounce.DefaultInterval / time.Millisecond),
			Usage:   "debounce interval in milliseconds (0 disables)",
			EnvVars: envVar(flagDebounce),
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Usage:   "enable debug logging",
			EnvVars: envVar(flagDebug),
		},
	}
}

// runFlags configure the daemon.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    flagPoll,
			Value:   10 * time.Millisecond,
			Usage:   "input polling interval",
			EnvVars: envVar(flagPoll),
		},
		&cli.StringFlag{
			Name:    flagBroker,
			Value:   "tcp://localhost:1883",
			Usage:   "MQTT broker address",
			EnvVars: envVar(flagBroker),
		},
		&cli.DurationFlag{
			Name:    flagHeartbeat,
			Value:   15 * time.Minute,
			Usage:   "heartbeat interval (0 to disable)",
			EnvVars: envVar(flagHeartbeat),
		},
		&cli.StringFlag{
			Name:    flagHTTP,
			Value:   ":80",
			Usage:   "HTTP status address (empty to disable)",
			EnvVars: envVar(flagHTTP),
		},
		&cli.DurationFlag{
			Name:    flagLongPress,
			Value:   logic.DefaultPressThresholds().Long,
			Usage:   "minimum hold for a long press",
			EnvVars: envVar(flagLongPress),
		},
		&cli.DurationFlag{
			Name:    flagExtraLongPress,
			Value:   logic.DefaultPressThresholds().ExtraLong,
			Usage:   "minimum hold for an extra-long press",
			EnvVars: envVar(flagExtraLongPress),
		},
	}
}

// buttonSpec describes one button from --button.
type buttonSpec struct {
	Name      string
	Pin       int
	ActiveLow bool
	Mode      debounce.PinMode
}

// parseButtonSpec parses name=pin[:active-low][:pullup|:pulldown]. Commas
// are taken by the flag itself to separate buttons.
func parseButtonSpec(s string) (buttonSpec, error) {
	name, rest, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok || name == "" || rest == "" {
		return buttonSpec{}, fmt.Errorf("button %q: want name=pin[:options]", s)
	}

	parts := strings.Split(rest, ":")
	pin, err := strconv.Atoi(parts[0])
	if err != nil || pin < 0 {
		return buttonSpec{}, fmt.Errorf("button %q: invalid pin %q", s, parts[0])
	}

	spec := buttonSpec{Name: name, Pin: pin, Mode: debounce.ModeInput}
	pull := false
	for _, opt := range parts[1:] {
		switch opt {
		case "active-low":
			spec.ActiveLow = true
		case "active-high":
			spec.ActiveLow = false
		case "pullup", "pulldown":
			if pull {
				return buttonSpec{}, fmt.Errorf("button %q: more than one pull option", s)
			}
			pull = true
			spec.Mode = debounce.ModeInputPullup
			if opt == "pulldown" {
				spec.Mode = debounce.ModeInputPulldown
			}
		default:
			return buttonSpec{}, fmt.Errorf("button %q: unknown option %q", s, opt)
		}
	}
	return spec, nil
}

// config is the validated command-line configuration.
type config struct {
	Poll       time.Duration
	DebounceMs uint16
	Broker     string
	Heartbeat  time.Duration
	HTTPAddr   string
	Source     string
	Chip       string
	I2CBus     string
	I2CAddr    uint16
	Buttons    []buttonSpec
	Thresholds logic.PressThresholds
	Debug      bool
}

func configFromContext(c *cli.Context) (config, error) {
	cfg := config{
		Poll:      c.Duration(flagPoll),
		Broker:    c.String(flagBroker),
		Heartbeat: c.Duration(flagHeartbeat),
		HTTPAddr:  c.String(flagHTTP),
		Source:    c.String(flagSource),
		Chip:      c.String(flagChip),
		I2CBus:    c.String(flagI2CBus),
		Debug:     c.Bool(flagDebug),
	}

	ms := c.Uint(flagDebounce)
	if ms > math.MaxUint16 {
		return config{}, fmt.Errorf("--%s %d: must be at most %d", flagDebounce, ms, math.MaxUint16)
	}
	cfg.DebounceMs = uint16(ms)

	addr := c.Uint(flagI2CAddr)
	if addr > 0x7f {
		return config{}, fmt.Errorf("--%s %#x: not a 7-bit I2C address", flagI2CAddr, addr)
	}
	cfg.I2CAddr = uint16(addr)

	switch cfg.Source {
	case sourceGPIOCDev, sourcePeriph, sourceMCP23017:
	default:
		return config{}, fmt.Errorf("--%s %q: unknown source", flagSource, cfg.Source)
	}

	cfg.Thresholds = logic.DefaultPressThresholds()
	if d := c.Duration(flagLongPress); d > 0 {
		cfg.Thresholds.Long = d
	}
	if d := c.Duration(flagExtraLongPress); d > 0 {
		cfg.Thresholds.ExtraLong = d
	}

	seen := map[string]bool{}
	for _, s := range c.StringSlice(flagButton) {
		spec, err := parseButtonSpec(s)
		if err != nil {
			return config{}, err
		}
		if seen[spec.Name] {
			return config{}, fmt.Errorf("button %q: duplicate name", spec.Name)
		}
		seen[spec.Name] = true
		cfg.Buttons = append(cfg.Buttons, spec)
	}
	if len(cfg.Buttons) == 0 {
		return config{}, fmt.Errorf("at least one --%s is required", flagButton)
	}
	return cfg, nil
}
