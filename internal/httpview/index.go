package httpview

import "github.com/rileyhilliard/fv/internal/ui"

type mark struct {
	Field string
	Color string
}

type indexModel struct {
	Title string
	Topic string
	Marks []mark
}

func (s *Server) indexModel() indexModel {
	marks := make([]mark, len(s.opts.Labels))
	for i, label := range s.opts.Labels {
		marks[i] = mark{Field: label, Color: string(ui.SeriesColor(i))}
	}
	return indexModel{Title: s.opts.Title, Topic: s.opts.Topic, Marks: marks}
}

// The page loads the full buffer once, then appends websocket batches. If
// the stream drops it falls back to polling /api/v1/data?since=.
const indexHTML = `<!DOCTYPE html>
<html><head>
<meta charset="utf-8">
<title>{{ .Title }}{{ if .Topic }} · {{ .Topic }}{{ end }}</title>
<style>
	body { background: #0d0d1a; color: #e6e6f0; font-family: monospace; margin: 1em; }
	#status { color: #8888aa; }
	.plot { width: 100%; margin-bottom: 1em; }
</style>
<script type="module">
import * as Plot from "https://cdn.jsdelivr.net/npm/@observablehq/plot@0.6/+esm";

const marks = [{{ range .Marks }}{field: {{ .Field }}, color: {{ .Color }}},{{ end }}];
const maxEntries = 5000;
let data = [];
let lastSeq = 0;

function add(entries) {
	for (const e of entries) {
		if (e.seq <= lastSeq) continue;
		if (e.ts !== undefined) e.ts = new Date(e.ts);
		data.push(e);
		lastSeq = e.seq;
	}
	if (data.length > maxEntries) data = data.slice(data.length - maxEntries);
}

function draw() {
	const x = data.length && data[0].ts !== undefined ? "ts" : "seq";
	const root = document.getElementById("plots");
	root.replaceChildren(...marks.map(m => {
		const plot = Plot.plot({
			width: root.clientWidth,
			height: 240,
			style: {background: "transparent"},
			y: {grid: true, label: m.field},
			marks: [Plot.line(data, {x: x, y: m.field, stroke: m.color, curve: "basis"})],
		});
		plot.classList.add("plot");
		return plot;
	}));
	document.getElementById("status").textContent = data.length + " samples, seq " + lastSeq;
}

function poll() {
	fetch("/api/v1/data?since=" + lastSeq)
		.then(response => response.json())
		.then(json => { add(json); draw(); })
		.finally(() => setTimeout(poll, 5000));
}

function stream() {
	const proto = location.protocol === "https:" ? "wss:" : "ws:";
	const ws = new WebSocket(proto + "//" + location.host + "/api/v1/stream");
	ws.onmessage = ev => {
		const msg = JSON.parse(ev.data);
		add(msg.entries);
		draw();
	};
	ws.onclose = () => setTimeout(poll, 1000);
}

stream();
</script>
</head>
<body>
	<h3>{{ .Title }}{{ if .Topic }} · {{ .Topic }}{{ end }}</h3>
	<div id="status">waiting for data</div>
	<div id="plots"></div>
</body>
</html>
`
