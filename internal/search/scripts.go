package search

// clickUpdateScript is the Painless source applied on every track_click
// call, ported verbatim in structure from CLICK_UPDATE_SCRIPT in
// original_source/app/search_api.py. prevLast defaults to the update's
// own now_ms when the document has never been clicked, which is why the
// first click always scores with zero decay (see DESIGN.md's open
// question #4).
const clickUpdateScript = `
if (ctx._source.clicks_total == null) { ctx._source.clicks_total = 0; }
if (ctx._source.recent_clicks == null) { ctx._source.recent_clicks = 0.0; }
long prevLast = ctx._source.containsKey('last_clicked_at_ms') && ctx._source.last_clicked_at_ms != null ? ctx._source.last_clicked_at_ms : params.now_ms;
ctx._source.clicks_total += 1;
ctx._source.recent_clicks += 1;
ctx._source.last_clicked_at_ms = params.now_ms;
ctx._source.last_clicked_at = params.now_iso;
double decayHours = (params.now_ms - prevLast) / 3600000.0;
double decay = decayHours * params.decay_per_hour;
ctx._source.ranking_score = Math.log(ctx._source.clicks_total + 1.0) + (ctx._source.recent_clicks * 0.7) - decay;
`

// decayScript is the periodic sweep's Painless source, ported verbatim
// in structure from DECAY_SCRIPT.
const decayScript = `
if (ctx._source.recent_clicks == null) { ctx._source.recent_clicks = 0.0; }
if (ctx._source.clicks_total == null) { ctx._source.clicks_total = 0; }
ctx._source.recent_clicks = ctx._source.recent_clicks * params.recent_click_multiplier;
if (ctx._source.recent_clicks < 0.01) { ctx._source.recent_clicks = 0.0; }
long last = ctx._source.containsKey('last_clicked_at_ms') && ctx._source.last_clicked_at_ms != null ? ctx._source.last_clicked_at_ms : params.now_ms;
double decayHours = (params.now_ms - last) / 3600000.0;
double decay = decayHours * params.decay_per_hour;
ctx._source.ranking_score = Math.log(ctx._source.clicks_total + 1.0) + (ctx._source.recent_clicks * 0.7) - decay;
`
