package gpio

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/envmon/internal/debounce"
)

// fakeBus emulates the MCP23017 register file behind an I2C bus.
type fakeBus struct {
	addr   uint16
	regs   [0x16]byte
	writes int
	err    error
}

func newFakeBus(addr uint16) *fakeBus {
	b := &fakeBus{addr: addr}
	// Power-on state: all pins inputs.
	b.regs[regIODIRA] = 0xFF
	b.regs[regIODIRA+1] = 0xFF
	return b
}

func (b *fakeBus) String() string { return "fake-i2c" }

func (b *fakeBus) SetSpeed(f physic.Frequency) error { return nil }

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	if addr != b.addr {
		return errors.New("NAK")
	}
	if len(w) == 0 {
		return errors.New("no register")
	}
	reg := w[0]
	if len(w) > 1 {
		b.regs[reg] = w[1]
		b.writes++
	}
	if len(r) > 0 {
		r[0] = b.regs[reg]
	}
	return nil
}

func TestExpanderReadPortA(t *testing.T) {
	bus := newFakeBus(DefaultExpanderAddress)
	bus.regs[regGPIOA] = 0b0000_0100
	s := NewExpanderSource(bus, DefaultExpanderAddress)

	for pin := 0; pin < 8; pin++ {
		got, err := s.ReadRawState(pin)
		if err != nil {
			t.Fatalf("pin %d: unexpected error: %v", pin, err)
		}
		if got != (pin == 2) {
			t.Errorf("pin %d: got %v, want %v", pin, got, pin == 2)
		}
	}
}

func TestExpanderReadPortB(t *testing.T) {
	bus := newFakeBus(DefaultExpanderAddress)
	bus.regs[regGPIOA+1] = 0b1000_0001
	s := NewExpanderSource(bus, DefaultExpanderAddress)

	for _, tt := range []struct {
		pin  int
		want bool
	}{{8, true}, {9, false}, {14, false}, {15, true}} {
		got, err := s.ReadRawState(tt.pin)
		if err != nil {
			t.Fatalf("pin %d: unexpected error: %v", tt.pin, err)
		}
		if got != tt.want {
			t.Errorf("pin %d: got %v, want %v", tt.pin, got, tt.want)
		}
	}
}

func TestExpanderPinOutOfRange(t *testing.T) {
	s := NewExpanderSource(newFakeBus(DefaultExpanderAddress), DefaultExpanderAddress)

	if _, err := s.ReadRawState(16); err == nil {
		t.Error("expected error for pin 16")
	}
	if _, err := s.ReadRawState(-1); err == nil {
		t.Error("expected error for pin -1")
	}
}

func TestExpanderConfigurePullup(t *testing.T) {
	bus := newFakeBus(DefaultExpanderAddress)
	bus.regs[regIODIRA+1] = 0x00 // port B set to outputs
	s := NewExpanderSource(bus, DefaultExpanderAddress)

	if err := s.ConfigurePinMode(10, debounce.ModeInputPullup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.regs[regIODIRA+1] != 0b0000_0100 {
		t.Errorf("IODIRB: got %08b, want 00000100", bus.regs[regIODIRA+1])
	}
	if bus.regs[regGPPUA+1] != 0b0000_0100 {
		t.Errorf("GPPUB: got %08b, want 00000100", bus.regs[regGPPUA+1])
	}

	// Plain input clears the pull-up and leaves other bits alone.
	bus.regs[regGPPUA+1] |= 0b1000_0000
	if err := s.ConfigurePinMode(10, debounce.ModeInput); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.regs[regGPPUA+1] != 0b1000_0000 {
		t.Errorf("GPPUB: got %08b, want 10000000", bus.regs[regGPPUA+1])
	}
}

func TestExpanderConfigureSkipsRedundantWrites(t *testing.T) {
	bus := newFakeBus(DefaultExpanderAddress)
	s := NewExpanderSource(bus, DefaultExpanderAddress)

	// Already an input without pull-up.
	if err := s.ConfigurePinMode(3, debounce.ModeInput); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.writes != 0 {
		t.Errorf("expected no register writes, got %d", bus.writes)
	}
}

func TestExpanderRejectsPulldown(t *testing.T) {
	s := NewExpanderSource(newFakeBus(DefaultExpanderAddress), DefaultExpanderAddress)

	if err := s.ConfigurePinMode(1, debounce.ModeInputPulldown); err == nil {
		t.Error("expected error: MCP23017 has no pull-downs")
	}
}

func TestExpanderBusError(t *testing.T) {
	bus := newFakeBus(DefaultExpanderAddress)
	bus.err = errors.New("i2c: bus disconnected")
	s := NewExpanderSource(bus, DefaultExpanderAddress)

	_, err := s.ReadRawState(0)
	if !errors.Is(err, bus.err) {
		t.Errorf("expected wrapped bus error, got %v", err)
	}
}

func TestExpanderWrongAddress(t *testing.T) {
	s := NewExpanderSource(newFakeBus(DefaultExpanderAddress), 0x27)

	if _, err := s.ReadRawState(0); err == nil {
		t.Error("expected error when nothing answers at the address")
	}
}

func TestExpanderDebouncedButton(t *testing.T) {
	bus := newFakeBus(DefaultExpanderAddress)
	bus.regs[regGPIOA] = 0b0000_0001 // pin 0 pulled up, released
	s := NewExpanderSource(bus, DefaultExpanderAddress)

	b := debounce.NewButton(s, nil)
	b.SetActiveLevel(false)
	b.SetInterval(0)
	if err := b.AttachMode(0, debounce.ModeInputPullup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bus.regs[regGPIOA] = 0
	if _, err := b.Update(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Pressed() {
		t.Error("expected press when the pin is pulled to ground")
	}
}

func TestExpanderCloseWithoutOwnedBus(t *testing.T) {
	s := NewExpanderSource(newFakeBus(DefaultExpanderAddress), DefaultExpanderAddress)
	if err := s.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
