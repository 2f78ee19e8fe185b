package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sweeney/envmon/internal/debounce"
)

// DefaultExpanderAddress is the MCP23017 address with A0-A2 grounded.
const DefaultExpanderAddress = 0x20

// MCP23017 registers in the power-on IOCON.BANK=0 layout. Port B registers
// follow their port A counterparts.
const (
	regIODIRA = 0x00
	regGPPUA  = 0x0C
	regGPIOA  = 0x12
)

// ExpanderPins is the number of inputs on an MCP23017: 0-7 on port A, 8-15
// on port B.
const ExpanderPins = 16

// ExpanderSource reads inputs of an MCP23017 I/O expander over I2C.
// The chip has pull-ups only; pull-down mode is rejected.
type ExpanderSource struct {
	dev    *i2c.Dev
	closer i2c.BusCloser
}

// OpenExpander opens the named I2C bus ("" for the first one) and talks to
// the expander at addr.
func OpenExpander(busName string, addr uint16) (*ExpanderSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	s := NewExpanderSource(bus, addr)
	s.closer = bus
	return s, nil
}

// NewExpanderSource uses an already open bus. The caller keeps ownership of
// the bus.
func NewExpanderSource(bus i2c.Bus, addr uint16) *ExpanderSource {
	return &ExpanderSource{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// ConfigurePinMode makes pin an input and sets its pull-up.
func (s *ExpanderSource) ConfigurePinMode(pin int, mode debounce.PinMode) error {
	reg, bit, err := portBit(pin)
	if err != nil {
		return err
	}
	var pullUp bool
	switch mode {
	case debounce.ModeInput:
	case debounce.ModeInputPullup:
		pullUp = true
	default:
		return fmt.Errorf("mcp23017: unsupported pin mode %v", mode)
	}
	if err := s.updateBit(regIODIRA+reg, bit, true); err != nil {
		return fmt.Errorf("mcp23017: set direction of pin %d: %w", pin, err)
	}
	if err := s.updateBit(regGPPUA+reg, bit, pullUp); err != nil {
		return fmt.Errorf("mcp23017: set pull-up of pin %d: %w", pin, err)
	}
	return nil
}

// ReadRawState reads the port register holding pin.
func (s *ExpanderSource) ReadRawState(pin int) (bool, error) {
	reg, bit, err := portBit(pin)
	if err != nil {
		return false, err
	}
	v, err := s.readReg(regGPIOA + reg)
	if err != nil {
		return false, fmt.Errorf("mcp23017: read pin %d: %w", pin, err)
	}
	return v&bit != 0, nil
}

// Close closes the bus if OpenExpander opened it.
func (s *ExpanderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *ExpanderSource) readReg(reg byte) (byte, error) {
	var r [1]byte
	if err := s.dev.Tx([]byte{reg}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (s *ExpanderSource) writeReg(reg, v byte) error {
	return s.dev.Tx([]byte{reg, v}, nil)
}

func (s *ExpanderSource) updateBit(reg, bit byte, set bool) error {
	v, err := s.readReg(reg)
	if err != nil {
		return err
	}
	nv := v &^ bit
	if set {
		nv |= bit
	}
	if nv == v {
		return nil
	}
	return s.writeReg(reg, nv)
}

// portBit maps a pin to its port register offset (0 for A, 1 for B) and mask.
func portBit(pin int) (byte, byte, error) {
	if pin < 0 || pin >= ExpanderPins {
		return 0, 0, fmt.Errorf("mcp23017: pin %d out of range 0-%d", pin, ExpanderPins-1)
	}
	return byte(pin / 8), 1 << uint(pin%8), nil
}
