package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/breathwork/internal/audio"
	"github.com/sweeney/breathwork/internal/status"
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
	"clock": func(seconds int) string {
		return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
	},
	"css": func(s string) template.CSS {
		return template.CSS(s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Breathwork</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.swatch { width: 100%; height: 4em; border-radius: 8px; margin: 1em 0; transition: background 1s; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; margin: 2px; }
</style>
</head>
<body>
<h1>Breathwork</h1>

<div id="swatch" class="swatch" style="background: {{css .Session.Color.Hex}}"></div>

<h2>Session</h2>
<table>
<tr><th>State</th><td id="active">{{if .Session.Active}}active{{else}}idle{{end}}</td></tr>
<tr><th>Technique</th><td id="technique">{{.Session.Technique}} ({{.Session.Pattern}})</td></tr>
<tr><th>Phase</th><td id="phase">{{if .Session.Active}}{{.Session.Phase}} {{.Session.SecondsRemaining}}s{{else}}-{{end}}</td></tr>
<tr><th>Elapsed</th><td id="elapsed">{{clock .Session.TotalElapsed}}</td></tr>
<tr><th>Cycles</th><td id="cycles">{{.Session.CompletedCycles}}</td></tr>
<tr><th>Chromotherapy</th><td id="chroma">{{if .Session.ChromotherapyActive}}{{.Session.ChromaMode}}{{else}}off{{end}}</td></tr>
<tr><th>Audio</th><td id="audio">{{if .Session.AudioPlaying}}{{.Session.SelectedTrack}}{{if .Session.AudioFallback}} (tone){{end}}{{else}}off{{end}}</td></tr>
</table>

<p>
<button onclick="post('/session/start', {})">Start</button>
<button onclick="post('/session/stop')">Stop</button>
<button onclick="post('/session/reset')">Reset</button>
<button onclick="post('/chromotherapy/start')">Chromotherapy</button>
<button onclick="post('/chromotherapy/stop')">Stop colours</button>
</p>
<p>
<select id="track" onchange="post('/audio/track', {track: this.value})">
{{range .Tracks}}<option value="{{.ID}}"{{if eq .ID $.Session.SelectedTrack}} selected{{end}}>{{.Title}}</option>
{{end}}</select>
<input id="volume" type="range" min="0" max="1" step="0.05" value="{{.Session.Volume}}" onchange="post('/audio/volume', {volume: parseFloat(this.value)})">
</p>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Sessions</th><td>{{.Counts.Sessions}} started, {{.Counts.Summaries}} recorded</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/techniques">Techniques</a> · <a href="/metrics">Metrics</a></p>
<script>
(function() {
  function mmss(s) {
    var m = Math.floor(s / 60), r = s % 60;
    return (m < 10 ? "0" : "") + m + ":" + (r < 10 ? "0" : "") + r;
  }

  function render(st) {
    var s = st.status.session;
    document.getElementById("swatch").style.background = s.color;
    document.getElementById("active").textContent = s.active ? "active" : "idle";
    document.getElementById("technique").textContent = s.technique + " (" + s.pattern + ")";
    document.getElementById("phase").textContent = s.active ? s.phase + " " + s.seconds_remaining + "s" : "-";
    document.getElementById("elapsed").textContent = mmss(s.total_elapsed);
    document.getElementById("cycles").textContent = s.completed_cycles;
    document.getElementById("chroma").textContent = s.chromotherapy.active ? s.chromotherapy.mode : "off";
    document.getElementById("audio").textContent = s.audio.playing ? s.audio.track + (s.audio.fallback ? " (tone)" : "") : "off";
  }

  function poll() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(render).catch(function() {});
  }

  window.post = function(path, body) {
    fetch(path, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: body ? JSON.stringify(body) : ""
    }).then(poll);
  };

  setInterval(poll, 1000);
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, tracks []audio.Track) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Tracks []audio.Track
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Tracks:   tracks,
	}
	indexTmpl.Execute(w, data)
}
