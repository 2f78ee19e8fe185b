package status

import (
	"encoding/json"
	"time"
)

// Input state names used in JSON and on the status page.
const (
	StatePressed  = "PRESSED"
	StateReleased = "RELEASED"
	StateUnknown  = "UNKNOWN"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Inputs        []InputJSON  `json:"inputs"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// InputJSON is the JSON representation of one input.
type InputJSON struct {
	Name     string `json:"name"`
	Pin      int    `json:"pin"`
	State    string `json:"state"`
	SinceMs  int64  `json:"since_ms"`
	Pressed  int    `json:"pressed"`
	Released int    `json:"released"`
	Error    string `json:"error,omitempty"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	Source      string `json:"source"`
}

// InputStateName returns PRESSED, RELEASED or UNKNOWN for an input.
func InputStateName(known, down bool) string {
	switch {
	case !known:
		return StateUnknown
	case down:
		return StatePressed
	default:
		return StateReleased
	}
}

func buildInner(snap Snapshot) StatusInner {
	inputs := make([]InputJSON, 0, len(snap.Inputs))
	for _, in := range snap.Inputs {
		c := snap.Counts[in.Name]
		inputs = append(inputs, InputJSON{
			Name:     in.Name,
			Pin:      in.Pin,
			State:    InputStateName(in.Known, in.Down),
			SinceMs:  in.Since.Milliseconds(),
			Pressed:  c.Pressed,
			Released: c.Released,
			Error:    in.Err,
		})
	}

	inner := StatusInner{
		Ready:         snap.Ready(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Inputs:        inputs,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			Source:      snap.Config.Source,
		},
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
