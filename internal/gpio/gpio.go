// Package gpio provides raw digital input sources for the debouncer.
// The real implementations use the Linux GPIO character device, periph.io
// host GPIO, or an MCP23017 I/O expander on an I2C bus.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/envmon/internal/debounce"

// Source is a debounce.Source that holds hardware resources.
type Source interface {
	debounce.Source

	// Close releases the underlying lines or bus.
	Close() error
}

// Defaults for the Linux character device source.
const (
	DefaultChip     = "gpiochip0"
	DefaultConsumer = "envmon"
)

var (
	_ Source = (*ChipSource)(nil)
	_ Source = (*PeriphSource)(nil)
	_ Source = (*ExpanderSource)(nil)
	_ Source = (*FakeSource)(nil)
)
