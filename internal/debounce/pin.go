package debounce

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
)

// ErrNotAttached is returned by Update when no pin is bound.
var ErrNotAttached = errors.New("debounce: pin not attached")

// PinMode is the electrical configuration of an input pin.
type PinMode uint8

const (
	ModeInput PinMode = iota
	ModeInputPullup
	ModeInputPulldown
)

func (m PinMode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeInputPullup:
		return "input-pullup"
	case ModeInputPulldown:
		return "input-pulldown"
	default:
		return fmt.Sprintf("PinMode(%d)", uint8(m))
	}
}

// Source reads raw digital levels, typically a GPIO chip or an I/O expander.
// Reads must not have side effects; several PinDebouncers may share one
// Source within the same tick.
type Source interface {
	// ReadRawState returns the instantaneous level of pin.
	ReadRawState(pin int) (bool, error)
	// ConfigurePinMode sets up pin as an input.
	ConfigurePinMode(pin int, mode PinMode) error
}

// ReadError is a hardware-access failure while sampling a pin.
type ReadError struct {
	Pin int
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("debounce: read pin %d: %v", e.Pin, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// PinDebouncer debounces one pin of a Source.
type PinDebouncer struct {
	*Debouncer

	src      Source
	pin      int
	attached bool
}

// NewPinDebouncer creates an unattached PinDebouncer. Update fails with
// ErrNotAttached until Attach or AttachMode succeeds.
func NewPinDebouncer(src Source, clk clock.Clock) *PinDebouncer {
	p := &PinDebouncer{src: src, pin: -1}
	p.Debouncer = New(p.readCurrentState, clk)
	return p
}

// NewPinDebouncerAttached creates a PinDebouncer bound to an already
// configured pin with the given interval in milliseconds.
func NewPinDebouncerAttached(src Source, clk clock.Clock, pin int, ms uint16) (*PinDebouncer, error) {
	p := NewPinDebouncer(src, clk)
	if err := p.Attach(pin); err != nil {
		return nil, err
	}
	p.SetInterval(ms)
	return p, nil
}

// AttachMode configures pin on the Source and binds to it.
func (p *PinDebouncer) AttachMode(pin int, mode PinMode) error {
	if p.src == nil {
		return ErrNotAttached
	}
	if err := p.src.ConfigurePinMode(pin, mode); err != nil {
		return fmt.Errorf("configure pin %d as %s: %w", pin, mode, err)
	}
	return p.Attach(pin)
}

// Attach binds to pin without touching its mode. The current level becomes
// the initial stable state and is never reported as an edge.
func (p *PinDebouncer) Attach(pin int) error {
	if p.src == nil {
		return ErrNotAttached
	}
	level, err := p.src.ReadRawState(pin)
	if err != nil {
		return &ReadError{Pin: pin, Err: err}
	}
	p.pin = pin
	p.attached = true
	p.seed(level)
	return nil
}

// Pin returns the bound pin, or -1 if unattached.
func (p *PinDebouncer) Pin() int {
	return p.pin
}

// Attached reports whether a pin is bound.
func (p *PinDebouncer) Attached() bool {
	return p.attached
}

func (p *PinDebouncer) readCurrentState() (bool, error) {
	if !p.attached || p.src == nil {
		return false, ErrNotAttached
	}
	level, err := p.src.ReadRawState(p.pin)
	if err != nil {
		return false, &ReadError{Pin: p.pin, Err: err}
	}
	return level, nil
}
