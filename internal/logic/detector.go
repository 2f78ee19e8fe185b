package logic

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/envmon/internal/debounce"
)

type input struct {
	name    string
	button  *debounce.Button
	failing bool
}

// Detector polls a fixed set of buttons and reports their debounced edges.
type Detector struct {
	clock         clock.Clock
	thresholds    PressThresholds
	logger        *zap.SugaredLogger
	inputs        []*input
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a detector with no inputs. The clock must be the one
// the buttons were created with; its current time is the start time used
// for uptime in heartbeat events.
func NewDetector(clk clock.Clock, thresholds PressThresholds, logger *zap.SugaredLogger) *Detector {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	now := clk.Now()
	return &Detector{
		clock:         clk,
		thresholds:    thresholds,
		logger:        logger,
		startTime:     now,
		lastHeartbeat: now,
		eventCounts:   EventCounts{},
	}
}

// Add registers an attached button under a unique name. Buttons are
// updated in registration order.
func (d *Detector) Add(name string, b *debounce.Button) error {
	if name == "" {
		return fmt.Errorf("input name must not be empty")
	}
	if b == nil {
		return fmt.Errorf("input %s: nil button", name)
	}
	for _, in := range d.inputs {
		if in.name == name {
			return fmt.Errorf("input %s: already registered", name)
		}
	}
	d.inputs = append(d.inputs, &input{name: name, button: b})
	d.eventCounts[name] = InputCounts{}
	return nil
}

// Process updates every button exactly once and returns the resulting
// events. Read failures are combined into the returned error; a failing
// input produces no event and does not stop the others.
func (d *Detector) Process() ([]Event, error) {
	var (
		events []Event
		errs   error
	)
	now := d.clock.Now()

	for _, in := range d.inputs {
		if _, err := in.button.Update(); err != nil {
			if !in.failing {
				d.logger.Warnf("input %s: read error: %v", in.name, err)
				in.failing = true
			}
			errs = multierr.Append(errs, fmt.Errorf("input %s: %w", in.name, err))
			continue
		}
		if in.failing {
			d.logger.Infof("input %s: read recovered", in.name)
			in.failing = false
		}

		switch {
		case in.button.Pressed():
			events = append(events, Event{
				Timestamp: now,
				Input:     in.name,
				Type:      EventPressed,
			})
		case in.button.Released():
			held := in.button.PreviousDuration()
			events = append(events, Event{
				Timestamp: now,
				Input:     in.name,
				Type:      EventReleased,
				Held:      held,
				Press:     d.thresholds.Classify(held),
			})
		}
	}

	for _, e := range events {
		c := d.eventCounts[e.Input]
		switch e.Type {
		case EventPressed:
			c.Pressed++
		case EventReleased:
			c.Released++
		}
		d.eventCounts[e.Input] = c
	}

	return events, errs
}

// States returns the current state of every input in registration order.
func (d *Detector) States() []InputState {
	out := make([]InputState, 0, len(d.inputs))
	for _, in := range d.inputs {
		s := InputState{
			Name:  in.name,
			Pin:   in.button.Pin(),
			Known: in.button.Err() == nil,
			Down:  in.button.IsDown(),
			Since: in.button.Duration(),
		}
		if err := in.button.Err(); err != nil {
			s.Err = err.Error()
		}
		out = append(out, s)
	}
	return out
}

// EventCountsSnapshot returns a copy of the per-input event counts.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts.Clone()
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts.Clone(),
	}
}
