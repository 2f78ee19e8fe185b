package gpio

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/envmon/internal/debounce"
)

// PinLookup resolves a pin number to a periph pin. The default looks the pin
// up in the periph registry as "GPIO<n>" (BCM numbering on a Raspberry Pi).
type PinLookup func(pin int) gpio.PinIO

// PeriphSource reads host GPIO pins through periph.io.
type PeriphSource struct {
	lookup PinLookup
}

// NewPeriphSource initializes the periph host drivers.
func NewPeriphSource() (*PeriphSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}
	return NewPeriphSourceWithLookup(func(pin int) gpio.PinIO {
		return gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	}), nil
}

// NewPeriphSourceWithLookup uses lookup to resolve pins. Useful for tests.
func NewPeriphSourceWithLookup(lookup PinLookup) *PeriphSource {
	return &PeriphSource{lookup: lookup}
}

// ConfigurePinMode sets pin as an input with the pull for mode. Edge
// detection stays off: the debouncer polls.
func (s *PeriphSource) ConfigurePinMode(pin int, mode debounce.PinMode) error {
	p, err := s.pin(pin)
	if err != nil {
		return err
	}
	var pull gpio.Pull
	switch mode {
	case debounce.ModeInput:
		pull = gpio.Float
	case debounce.ModeInputPullup:
		pull = gpio.PullUp
	case debounce.ModeInputPulldown:
		pull = gpio.PullDown
	default:
		return fmt.Errorf("unsupported pin mode %v", mode)
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return fmt.Errorf("configure %s: %w", p, err)
	}
	return nil
}

// ReadRawState returns the level of pin. periph reports no read errors for
// host pins, so only an unknown pin fails.
func (s *PeriphSource) ReadRawState(pin int) (bool, error) {
	p, err := s.pin(pin)
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

// Close is a no-op; periph host pins need no release.
func (s *PeriphSource) Close() error {
	return nil
}

func (s *PeriphSource) pin(n int) (gpio.PinIO, error) {
	if s.lookup == nil {
		return nil, errors.New("gpio: periph source not initialized")
	}
	p := s.lookup(n)
	if p == nil {
		return nil, fmt.Errorf("failed to open pin GPIO%d", n)
	}
	return p, nil
}
