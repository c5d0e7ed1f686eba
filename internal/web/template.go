package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/duck-deterrent/internal/logic"
	"github.com/sweeney/duck-deterrent/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
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
	},
	"stateClass": func(s logic.State) string {
		switch s {
		case logic.StateArmed:
			return "armed"
		case logic.StateRamp, logic.StateBlast:
			return "active"
		case logic.StateRecover:
			return "recover"
		default:
			return "init"
		}
	},
	"level": func(on bool) string {
		if on {
			return "high"
		}
		return "low"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Duck Deterrent{{if .Config.DeviceID}} ({{.Config.DeviceID}}){{end}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.armed { color: green; font-weight: bold; }
.active { color: orange; font-weight: bold; }
.recover { color: red; }
.init { color: #888; }
.high { color: orange; }
.low { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Duck Deterrent{{if .Config.DeviceID}} <small>{{.Config.DeviceID}}</small>{{end}}</h1>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state" class="{{stateClass .State}}">{{.State}}</td></tr>
<tr><th>Triggers</th><td id="triggers">{{.Counters.TriggerCount}}</td></tr>
<tr><th>Sensor problem</th><td>{{if .Counters.Problem}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th>PIR</th><td class="{{level .Sensors.PIR}}">{{level .Sensors.PIR}}</td></tr>
<tr><th>Microwave</th><td class="{{level .Sensors.Mwave}}">{{level .Sensors.Mwave}}</td></tr>
<tr><th>Presence</th><td>{{if .Sensors.Detected}}detected{{else}}clear{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Ramp / Blast / Recover</th><td>{{.Config.RampMs}}ms / {{.Config.BlastMs}}ms / {{.Config.RecoverMs}}ms</td></tr>
<tr><th>Sample / Tick</th><td>{{.Config.SampleMs}}ms / {{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// The template needs Uptime as a field, not a method.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
