// Package ranking implements the pure click-driven scoring formula (C9):
// score = ln(clicks_total+1) + 0.7*recent_clicks - decay_per_hour*decay_hours,
// ported verbatim from original_source/app/ranking.py.
package ranking

import (
	"math"
	"time"
)

// DefaultDecayPerHour matches RANKING_DECAY_PER_HOUR in original_source's
// config.py.
const DefaultDecayPerHour = 0.05

// recentClickWeight is the fixed 0.7 multiplier on recent_clicks in the
// scoring formula; it is not configurable in the source this was ported
// from.
const recentClickWeight = 0.7

// CurrentTimeMs returns the current time as Unix milliseconds, the unit
// every ranking timestamp in this package is expressed in.
func CurrentTimeMs() int64 {
	return time.Now().UnixMilli()
}

// ComputeDecayHours returns the elapsed hours since lastClickedAtMs, or
// zero if there has been no click yet (lastClickedAtMs == nil). Negative
// elapsed time (clock skew) is floored to zero.
func ComputeDecayHours(lastClickedAtMs *int64, nowMs int64) float64 {
	if lastClickedAtMs == nil {
		return 0.0
	}
	hours := float64(nowMs-*lastClickedAtMs) / 3_600_000.0
	if hours < 0 {
		return 0.0
	}
	return hours
}

// ComputeRankingScore implements spec.md §4.9's formula exactly.
func ComputeRankingScore(clicksTotal int64, recentClicks float64, lastClickedAtMs *int64, nowMs int64, decayPerHour float64) float64 {
	decayHours := ComputeDecayHours(lastClickedAtMs, nowMs)
	decay := decayHours * decayPerHour
	return math.Log(float64(clicksTotal)+1.0) + recentClicks*recentClickWeight - decay
}
