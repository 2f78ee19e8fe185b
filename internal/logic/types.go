// Package logic turns debounced button edges into device input events.
// It owns no hardware: buttons read through their debounce.Source and time
// comes from an injected clock.
package logic

import "time"

// EventType represents a debounced button transition.
type EventType string

const (
	EventPressed  EventType = "PRESSED"
	EventReleased EventType = "RELEASED"
)

// PressLength classifies how long a button was held before release.
type PressLength uint8

const (
	// NoPress is a release shorter than the short-press threshold.
	NoPress PressLength = iota
	ShortPress
	LongPress
	ExtraLongPress
)

func (p PressLength) String() string {
	switch p {
	case ShortPress:
		return "SHORT"
	case LongPress:
		return "LONG"
	case ExtraLongPress:
		return "EXTRA_LONG"
	default:
		return "NONE"
	}
}

// PressThresholds are the minimum hold durations for each press length.
type PressThresholds struct {
	Short     time.Duration
	Long      time.Duration
	ExtraLong time.Duration
}

// DefaultPressThresholds returns 50ms / 1.5s / 3s.
func DefaultPressThresholds() PressThresholds {
	return PressThresholds{
		Short:     50 * time.Millisecond,
		Long:      1500 * time.Millisecond,
		ExtraLong: 3000 * time.Millisecond,
	}
}

// Classify returns the longest press length whose threshold held reaches.
func (p PressThresholds) Classify(held time.Duration) PressLength {
	switch {
	case p.ExtraLong > 0 && held >= p.ExtraLong:
		return ExtraLongPress
	case p.Long > 0 && held >= p.Long:
		return LongPress
	case held >= p.Short:
		return ShortPress
	default:
		return NoPress
	}
}

// Event represents a button transition to be published.
type Event struct {
	Timestamp time.Time
	Input     string
	Type      EventType
	// Held is how long the button was down. Set on release only.
	Held time.Duration
	// Press classifies Held. Set on release only.
	Press PressLength
}

// InputState is a point-in-time view of one input.
type InputState struct {
	Name string
	Pin  int
	// Known is false while the last sample failed.
	Known bool
	Down  bool
	Since time.Duration
	Err   string
}

// EventCounts tracks the number of presses and releases per input since startup.
type EventCounts map[string]InputCounts

// InputCounts holds the event counters of one input.
type InputCounts struct {
	Pressed  int
	Released int
}

// Clone returns an independent copy.
func (c EventCounts) Clone() EventCounts {
	out := make(EventCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
