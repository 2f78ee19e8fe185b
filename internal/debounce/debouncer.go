// Package debounce turns a noisy digital input into a stable logical level.
// It has no hardware dependencies: raw samples come from an injected read
// function and time from an injected clock, so every behaviour can be driven
// tick by tick in tests.
//
// The owner polls: call Update exactly once per loop iteration, then query
// Read, Changed, Rose, Fell, Duration and PreviousDuration. Calling Update more
// than once per iteration double-advances the timers; skipping iterations can
// miss transitions shorter than the polling period.
package debounce

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultInterval is the debounce window used until SetInterval is called.
const DefaultInterval = 10 * time.Millisecond

// ReadFunc samples the current raw level of an input.
type ReadFunc func() (bool, error)

// Debouncer accepts a raw level as the new stable state only after it has
// been sampled continuously, without any raw change, for the whole interval.
type Debouncer struct {
	read  ReadFunc
	clock clock.Clock

	interval time.Duration

	debounced bool
	unstable  bool
	changed   bool

	lastUnstableChange time.Time
	stateChange        time.Time
	previousDuration   time.Duration

	err error
}

// New creates a Debouncer sampling through read. A nil clk uses the wall clock.
func New(read ReadFunc, clk clock.Clock) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &Debouncer{
		read:               read,
		clock:              clk,
		interval:           DefaultInterval,
		lastUnstableChange: now,
		stateChange:        now,
	}
}

// SetInterval sets the debounce window in milliseconds. It takes effect on the
// next Update. Zero disables debouncing.
func (d *Debouncer) SetInterval(ms uint16) {
	d.interval = time.Duration(ms) * time.Millisecond
}

// Interval returns the debounce window.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Update takes one sample and reports whether the stable state flipped.
// A failed sample returns the error, reports no change and leaves the
// debounce timers untouched.
func (d *Debouncer) Update() (bool, error) {
	d.changed = false

	raw, err := d.read()
	if err != nil {
		d.err = err
		return false, err
	}
	d.err = nil

	now := d.clock.Now()

	// Any raw transition restarts the window.
	if raw != d.unstable {
		d.unstable = raw
		d.lastUnstableChange = now
	}

	if raw == d.debounced || now.Sub(d.lastUnstableChange) < d.interval {
		return false, nil
	}

	d.previousDuration = now.Sub(d.stateChange)
	d.stateChange = now
	d.debounced = raw
	d.changed = true
	return true, nil
}

// seed sets both stable and raw state without reporting an edge and restarts
// the debounce window.
func (d *Debouncer) seed(level bool) {
	d.debounced = level
	d.unstable = level
	d.changed = false
	d.err = nil
	d.lastUnstableChange = d.clock.Now()
}

// Read returns the stable state.
func (d *Debouncer) Read() bool {
	return d.debounced
}

// Changed reports whether the last Update flipped the stable state.
func (d *Debouncer) Changed() bool {
	return d.changed
}

// Rose reports a low to high transition on the last Update.
func (d *Debouncer) Rose() bool {
	return d.changed && d.debounced
}

// Fell reports a high to low transition on the last Update.
func (d *Debouncer) Fell() bool {
	return d.changed && !d.debounced
}

// Duration returns how long the current stable state has lasted so far.
func (d *Debouncer) Duration() time.Duration {
	return d.clock.Since(d.stateChange)
}

// PreviousDuration returns how long the previous stable state lasted.
// It only changes when the stable state flips.
func (d *Debouncer) PreviousDuration() time.Duration {
	return d.previousDuration
}

// Err returns the failure from the last Update, or nil if it sampled
// successfully. While it is non-nil the stable state is unknown.
func (d *Debouncer) Err() error {
	return d.err
}
