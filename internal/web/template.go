package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/envmon/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": formatDuration,
	"lower":    strings.ToLower,
}).Parse(indexHTML))

// formatDuration renders d as "1d 2h 3m 4s", omitting leading zero units.
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>envmon</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.pressed { color: green; font-weight: bold; }
.released { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>envmon</h1>

<h2>Inputs</h2>
<table>
<tr><th>Name</th><th>Pin</th><th>State</th><th>For</th><th>Presses</th></tr>
{{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Pin}}</td><td class="{{lower .State}}"{{if .Err}} title="{{.Err}}"{{end}}>{{.State}}</td><td>{{duration .Since}}</td><td>{{.Pressed}}</td></tr>
{{else}}<tr><td colspan="5">no inputs configured</td></tr>
{{end}}</table>
<p>Ready: {{if .Ready}}yes{{else}}no{{end}}</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{duration .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type inputRow struct {
	Name    string
	Pin     int
	State   string
	Since   time.Duration
	Pressed int
	Err     string
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	rows := make([]inputRow, 0, len(snap.Inputs))
	for _, in := range snap.Inputs {
		rows = append(rows, inputRow{
			Name:    in.Name,
			Pin:     in.Pin,
			State:   status.InputStateName(in.Known, in.Down),
			Since:   in.Since,
			Pressed: snap.Counts[in.Name].Pressed,
			Err:     in.Err,
		})
	}

	// Snapshot has Uptime() and Ready() methods but the template needs fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Ready  bool
		Rows   []inputRow
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Ready:    snap.Ready(),
		Rows:     rows,
	}
	return indexTmpl.Execute(w, data)
}
