package gpio

import (
	"fmt"

	"github.com/sweeney/envmon/internal/debounce"
)

// FakeSource is a test double that returns scripted raw levels per pin.
type FakeSource struct {
	// Samples contains scripted levels per pin.
	// Each ReadRawState call for a pin consumes that pin's next sample.
	Samples map[int][]bool

	// index tracks current position per pin
	index map[int]int

	// Modes records the last mode configured per pin.
	Modes map[int]debounce.PinMode

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadRawState for every pin.
	ReadError error

	// PinErrors, if set for a pin, will be returned by ReadRawState for it.
	PinErrors map[int]error

	// ConfigureError, if set, will be returned by ConfigurePinMode.
	ConfigureError error
}

// NewFakeSource creates a FakeSource with the given per-pin samples.
func NewFakeSource(samples map[int][]bool) *FakeSource {
	if samples == nil {
		samples = map[int][]bool{}
	}
	return &FakeSource{
		Samples:   samples,
		index:     map[int]int{},
		Modes:     map[int]debounce.PinMode{},
		PinErrors: map[int]error{},
	}
}

// ReadRawState returns the next scripted sample for pin.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSource) ReadRawState(pin int) (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if err := f.PinErrors[pin]; err != nil {
		return false, err
	}

	samples := f.Samples[pin]
	if len(samples) == 0 {
		return false, fmt.Errorf("no samples configured for pin %d", pin)
	}

	i := f.index[pin]
	sample := samples[i]
	if i < len(samples)-1 {
		f.index[pin] = i + 1
	}
	return sample, nil
}

// ConfigurePinMode records mode for pin.
func (f *FakeSource) ConfigurePinMode(pin int, mode debounce.PinMode) error {
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.Modes[pin] = mode
	return nil
}

// Set replaces the script for pin with a single level held from now on.
func (f *FakeSource) Set(pin int, level bool) {
	f.Samples[pin] = []bool{level}
	f.index[pin] = 0
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds every pin to the beginning of its samples.
func (f *FakeSource) Reset() {
	f.index = map[int]int{}
	f.Closed = false
}
