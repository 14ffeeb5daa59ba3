package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/gpiodev/internal/status"
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
	"onOff": func(active bool) string {
		if active {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>gpiomon</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.footer { color: #888; font-size: 0.9em; }
</style>
</head>
<body>
<h1>gpiomon</h1>
<table>
<tr><th>Device</th><th>Kind</th><th>State</th><th>Value</th><th>Act</th><th>Deact</th><th>Held</th></tr>
{{range .Devices}}
<tr>
<td>{{.Name}}</td>
<td>{{.Kind}}</td>
<td class="{{if .Active}}on{{else}}off{{end}}">{{onOff .Active}}</td>
<td>{{printf "%.2f" .Value}}</td>
<td>{{.Activations}}</td>
<td>{{.Deactivations}}</td>
<td>{{.Holds}}</td>
</tr>
{{end}}
</table>
<p class="footer">
uptime {{uptime .Uptime}} |
mqtt {{if .MQTTConnected}}connected{{else}}disconnected{{end}} |
poll {{.Config.PollMs}}ms | bounce {{.Config.BounceMs}}ms
</p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Template and data are fixed shapes; an execute error means a template
	// bug caught in tests, not a runtime condition worth handling.
	_ = indexTmpl.Execute(w, snap)
}
