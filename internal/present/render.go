package present

import (
	"html/template"
	"io"
)

var funcs = template.FuncMap{
	"singlePointMessage": func() string { return SinglePointMessage },
}

var page = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Header.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
main{max-width:960px;margin:0 auto;padding:24px}
.up{color:#16a34a}.down{color:#dc2626}
.skeleton{display:inline-block;width:160px;height:28px;background:#e2e8f0;border-radius:4px}
.chart{position:relative;min-height:360px;background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:12px}
.overlay{position:absolute;inset:0;background:rgba(255,255,255,.6);display:flex;align-items:center;justify-content:center}
.msg{padding:48px;text-align:center;color:#64748b}.err{color:#dc2626}
button[aria-pressed=true]{font-weight:bold}
footer{margin-top:24px;font-size:12px;color:#64748b;text-align:center}
</style>
</head>
<body>
<main id="app" data-version="{{.Version}}">
<header>
  <h1>{{.Header.Title}}</h1>
  <p>{{.Header.Subtitle}} &middot; <span>{{.Header.MarketStatus}}</span></p>
  {{if .Header.Skeleton}}<span class="skeleton"></span>
  {{else}}<h2>{{.Header.Price}}
    <small class="{{if .Header.Positive}}up{{else}}down{{end}}">{{.Header.Change}} ({{.Header.ChangePercent}})</small></h2>{{end}}
  <button onclick="post('/api/refresh')" {{if .Header.RefreshDisabled}}disabled{{end}}>Refresh</button>
</header>
<section>
  {{range .Timeframes}}<button aria-pressed="{{.Active}}" onclick="post('/api/timeframe',{timeframe:'{{.ID}}'})">{{.Label}}</button>{{end}}
  <select onchange="post('/api/comparison',{option:this.value})">
    {{range .Comparisons}}<option value="{{.ID}}" {{if .Active}}selected{{end}}>{{.Label}}</option>{{end}}
  </select>
</section>
<section>
  <button onclick="post('/api/nav/zoom-in')" {{if not .Controls.CanZoomIn}}disabled{{end}}>Zoom in</button>
  <button onclick="post('/api/nav/zoom-out')" {{if not .Controls.CanZoomOut}}disabled{{end}}>Zoom out</button>
  <button onclick="post('/api/nav/pan-left')" {{if not .Controls.CanPanLeft}}disabled{{end}}>&larr;</button>
  <button onclick="post('/api/nav/pan-right')" {{if not .Controls.CanPanRight}}disabled{{end}}>&rarr;</button>
  <button onclick="post('/api/nav/reset')" {{if not .Controls.CanReset}}disabled{{end}}>Reset</button>
</section>
<section class="chart">
  {{if .Chart.Error}}<div class="msg err">{{.Chart.Error}}</div>
  {{else if .Chart.ShowChart}}{{if .Chart.Image}}<img alt="price chart" width="100%" src="/api/chart.svg?v={{.Version}}">
    {{with .Chart.ComparisonLabel}}<p>Compared with {{.}}</p>{{end}}
    {{else}}<div class="msg">{{singlePointMessage}}</div>{{end}}
  {{else if .Chart.EmptyMessage}}<div class="msg">{{.Chart.EmptyMessage}}</div>{{end}}
  {{if .Chart.Overlay}}<div class="overlay">Loading&hellip;</div>{{end}}
</section>
<footer>{{.Footer}}</footer>
</main>
<script>
function post(path, body){
  fetch(path,{method:'POST',headers:{'Content-Type':'application/json'},body:body?JSON.stringify(body):null});
}
function reload(){
  fetch('/').then(r=>r.text()).then(html=>{
    const doc=new DOMParser().parseFromString(html,'text/html');
    document.getElementById('app').replaceWith(doc.getElementById('app'));
  });
}
(function connect(){
  const ws=new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws');
  // A text frame may carry several newline-separated envelopes.
  ws.onmessage=e=>{
    const lines=String(e.data).split('\n');
    if(lines.some(l=>{try{return JSON.parse(l).type==='view';}catch(_){return false;}}))reload();
  };
  ws.onclose=()=>setTimeout(connect,2000);
})();
</script>
</body>
</html>
`))

// Render writes v as the dashboard HTML page.
func Render(w io.Writer, v View) error {
	return page.Execute(w, v)
}
