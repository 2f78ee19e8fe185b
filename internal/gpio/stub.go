//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/envmon/internal/debounce"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// ChipSource is not available on non-Linux platforms.
type ChipSource struct{}

// NewChipSource returns an error on non-Linux platforms.
func NewChipSource(name string) (*ChipSource, error) {
	return nil, errUnsupported
}

// ConfigurePinMode is not implemented on non-Linux platforms.
func (s *ChipSource) ConfigurePinMode(pin int, mode debounce.PinMode) error {
	return errUnsupported
}

// ReadRawState is not implemented on non-Linux platforms.
func (s *ChipSource) ReadRawState(pin int) (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *ChipSource) Close() error {
	return nil
}
