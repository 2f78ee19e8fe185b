package debounce

import "github.com/benbjohnson/clock"

// Button maps the debounced level of a pin to physical presses.
// It never calls Update; the owner drives the polling cycle.
type Button struct {
	*PinDebouncer

	activeLevel bool
}

// NewButton creates an unattached Button that treats a high level as pressed.
func NewButton(src Source, clk clock.Clock) *Button {
	return &Button{
		PinDebouncer: NewPinDebouncer(src, clk),
		activeLevel:  true,
	}
}

// SetActiveLevel sets the level that means "pressed": true for active-high
// wiring, false for a switch to ground with a pull-up.
func (b *Button) SetActiveLevel(level bool) {
	b.activeLevel = level
}

// ActiveLevel returns the level that means "pressed".
func (b *Button) ActiveLevel() bool {
	return b.activeLevel
}

// Pressed reports that the last Update turned the button on.
func (b *Button) Pressed() bool {
	return b.Changed() && b.Read() == b.activeLevel
}

// Released reports that the last Update turned the button off.
func (b *Button) Released() bool {
	return b.Changed() && b.Read() != b.activeLevel
}

// IsDown reports whether the button is currently held.
func (b *Button) IsDown() bool {
	return b.Read() == b.activeLevel
}
