package dashboard

// dashboardHTML is the self-contained monitoring page. It polls the state
// endpoint for counters and subscribes to the SSE stream for the live feed.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>OpenAlerts</title>
<style>
  :root { color-scheme: dark; }
  body { font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
         background: #0d1117; color: #c9d1d9; margin: 0; padding: 1.5rem; }
  h1 { font-size: 1.2rem; margin: 0 0 1rem; }
  h1 .dot { color: #3fb950; }
  .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
          gap: .75rem; margin-bottom: 1.5rem; }
  .stat { background: #161b22; border: 1px solid #30363d; border-radius: 6px;
          padding: .75rem; }
  .stat .label { font-size: .7rem; color: #8b949e; text-transform: uppercase; }
  .stat .value { font-size: 1.4rem; }
  .cols { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
  .panel { background: #161b22; border: 1px solid #30363d; border-radius: 6px;
           padding: .75rem; max-height: 26rem; overflow-y: auto; }
  .panel h2 { font-size: .85rem; margin: 0 0 .5rem; color: #8b949e; }
  .row { padding: .3rem 0; border-bottom: 1px solid #21262d; font-size: .8rem; }
  .sev-info { color: #58a6ff; } .sev-warn { color: #d29922; }
  .sev-error { color: #f85149; } .sev-critical { color: #ff7b72; }
  .alert { border-left: 3px solid #f85149; padding-left: .5rem; }
</style>
</head>
<body>
<h1><span class="dot">●</span> OpenAlerts</h1>
<div class="grid" id="stats"></div>
<div class="cols">
  <div class="panel"><h2>Live Events</h2><div id="events"></div></div>
  <div class="panel"><h2>Alerts</h2><div id="alerts"></div></div>
</div>
<script>
const maxRows = 200;
function fmtTs(ts) { return new Date(ts * 1000).toLocaleTimeString(); }
function prepend(id, html) {
  const el = document.getElementById(id);
  el.insertAdjacentHTML("afterbegin", html);
  while (el.children.length > maxRows) el.removeChild(el.lastChild);
}
function eventRow(e) {
  const sev = e.severity || "info";
  return '<div class="row sev-' + sev + '">' + fmtTs(e.ts) + " " + e.type +
    (e.agent_name ? " [" + e.agent_name + "]" : "") +
    (e.tool_name ? " " + e.tool_name : "") +
    (e.error ? " — " + e.error : "") + "</div>";
}
function alertRow(a) {
  return '<div class="row alert sev-' + a.severity + '">' + fmtTs(a.ts) +
    " <b>" + a.title + "</b><br>" + a.detail + "</div>";
}
async function refreshStats() {
  const res = await fetch("/openalerts/state");
  const s = await res.json();
  const cards = [
    ["Uptime", Math.floor(s.uptime_ms / 1000) + "s"],
    ["Events", s.stats.events_processed],
    ["LLM Calls", s.stats.llm_calls],
    ["LLM Errors", s.stats.llm_errors],
    ["Tool Calls", s.stats.tool_calls],
    ["Tool Errors", s.stats.tool_errors],
    ["Tokens", s.stats.tokens_used],
    ["Alerts", s.recent_alerts.length],
  ];
  document.getElementById("stats").innerHTML = cards.map(
    ([l, v]) => '<div class="stat"><div class="label">' + l +
      '</div><div class="value">' + v + "</div></div>").join("");
}
const es = new EventSource("/openalerts/events");
es.addEventListener("history", ev => {
  JSON.parse(ev.data).slice().reverse().forEach(e => prepend("events", eventRow(e)));
});
es.addEventListener("alert_history", ev => {
  JSON.parse(ev.data).slice().reverse().forEach(a => prepend("alerts", alertRow(a)));
});
es.addEventListener("openalerts", ev => prepend("events", eventRow(JSON.parse(ev.data))));
es.addEventListener("alert", ev => { prepend("alerts", alertRow(JSON.parse(ev.data))); refreshStats(); });
refreshStats();
setInterval(refreshStats, 5000);
</script>
</body>
</html>
`
