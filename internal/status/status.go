// Package status provides a thread-safe status tracker for the envmon daemon.
// It is written by the polling loop and read by HTTP handlers and the MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/envmon/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	Source      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Inputs        []logic.InputState
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether every input has been read successfully on the last tick.
func (s Snapshot) Ready() bool {
	if len(s.Inputs) == 0 {
		return false
	}
	for _, in := range s.Inputs {
		if !in.Known {
			return false
		}
	}
	return true
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clock clock.Clock
	mu    sync.RWMutex
	snap  Snapshot
}

// NewTracker creates a Tracker with the given config. The start time is the
// clock's current time.
func NewTracker(clk clock.Clock, cfg Config) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{
		clock: clk,
		snap: Snapshot{
			StartTime: clk.Now(),
			Config:    cfg,
		},
	}
}

// Update sets input states and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(inputs []logic.InputState, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Inputs = inputs
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Inputs = append([]logic.InputState(nil), t.snap.Inputs...)
	s.Counts = t.snap.Counts.Clone()
	if t.snap.Network != nil {
		n := *t.snap.Network
		s.Network = &n
	}
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
