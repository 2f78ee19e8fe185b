//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"

	"github.com/sweeney/envmon/internal/debounce"
)

// ChipSource reads lines of a Linux GPIO character device.
// Lines are requested on first use and kept open until Close.
type ChipSource struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewChipSource opens the named GPIO chip, e.g. "gpiochip0".
func NewChipSource(name string) (*ChipSource, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(DefaultConsumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &ChipSource{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

// ConfigurePinMode requests pin as an input with the bias for mode.
func (s *ChipSource) ConfigurePinMode(pin int, mode debounce.PinMode) error {
	bias, err := biasFor(mode)
	if err != nil {
		return err
	}
	if line, ok := s.lines[pin]; ok {
		if err := line.Reconfigure(gpiocdev.AsInput, bias); err != nil {
			return fmt.Errorf("reconfigure pin %d: %w", pin, err)
		}
		return nil
	}
	line, err := s.chip.RequestLine(pin, gpiocdev.AsInput, bias)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", pin, err)
	}
	s.lines[pin] = line
	return nil
}

// ReadRawState returns the physical level of pin. A line that was never
// configured is requested as an input without changing its bias.
func (s *ChipSource) ReadRawState(pin int) (bool, error) {
	line, ok := s.lines[pin]
	if !ok {
		var err error
		line, err = s.chip.RequestLine(pin, gpiocdev.AsInput)
		if err != nil {
			return false, fmt.Errorf("request pin %d: %w", pin, err)
		}
		s.lines[pin] = line
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// Close releases GPIO resources.
// Lines are put back to input with pull-down (matching Pi boot defaults)
// before closing so external hardware cannot hold them in odd states at boot.
func (s *ChipSource) Close() error {
	var err error
	for pin, line := range s.lines {
		if rerr := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("reconfigure pin %d: %w", pin, rerr))
		}
		if cerr := line.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close pin %d: %w", pin, cerr))
		}
	}
	s.lines = map[int]*gpiocdev.Line{}
	if s.chip != nil {
		if cerr := s.chip.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close chip: %w", cerr))
		}
		s.chip = nil
	}
	return err
}

func biasFor(mode debounce.PinMode) (gpiocdev.LineBias, error) {
	switch mode {
	case debounce.ModeInput:
		return gpiocdev.WithBiasDisabled, nil
	case debounce.ModeInputPullup:
		return gpiocdev.WithPullUp, nil
	case debounce.ModeInputPulldown:
		return gpiocdev.WithPullDown, nil
	default:
		return gpiocdev.WithBiasAsIs, fmt.Errorf("unsupported pin mode %v", mode)
	}
}
