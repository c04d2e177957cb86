// Package click implements the Click Recorder (C10): it logs a click
// event and atomically upserts the clicked document's ranking fields,
// ported from track_click in original_source/app/search_api.py.
package click

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/devraghav/offlineseo/internal/ranking"
	"github.com/devraghav/offlineseo/internal/search"
)

// Event mirrors the ClickEvent request body spec.md §6's POST
// /track_click accepts.
type Event struct {
	URL      string
	UserID   string
	Metadata map[string]interface{}
}

// Result is the response body returned to the caller.
type Result struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

// Recorder ties a search.Backend to the ranking formula's decay_per_hour
// setting.
type Recorder struct {
	backend      *search.Backend
	decayPerHour float64
	logger       zerolog.Logger
}

// New builds a Recorder.
func New(backend *search.Backend, decayPerHour float64, logger zerolog.Logger) *Recorder {
	return &Recorder{
		backend:      backend,
		decayPerHour: decayPerHour,
		logger:       logger.With().Str("component", "click-recorder").Logger(),
	}
}

// TrackClick appends event to the click log and applies the scripted
// ranking update to the corresponding document, upserting a stub
// document (url, title = url, and first-click counters, timestamps and
// ranking_score) if it hasn't been indexed yet. The script's
// prev_last defaults to the update's own now_ms (see
// search.clickUpdateScript), so the very first click on a page always
// computes zero decay — this is the documented behavior, not a bug (see
// DESIGN.md open question #4).
func (r *Recorder) TrackClick(ctx context.Context, event Event) (Result, error) {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	if err := r.backend.LogClickEvent(ctx, search.ClickEvent{
		URL:       event.URL,
		UserID:    event.UserID,
		ClickedAt: now,
		Metadata:  event.Metadata,
	}); err != nil {
		return Result{}, fmt.Errorf("logging click for %s: %w", event.URL, err)
	}

	score := ranking.ComputeRankingScore(1, 1.0, &nowMs, nowMs, r.decayPerHour)
	upsert := &search.Document{
		URL:             event.URL,
		Title:           event.URL,
		ClicksTotal:     1,
		RecentClicks:    1.0,
		LastClickedAtMs: &nowMs,
		LastClickedAt:   &now,
		RankingScore:    score,
	}

	params := map[string]interface{}{
		"now_ms":         nowMs,
		"now_iso":        now.Format(time.RFC3339),
		"decay_per_hour": r.decayPerHour,
	}

	if err := r.backend.ApplyClickUpdate(ctx, event.URL, params, upsert); err != nil {
		return Result{}, fmt.Errorf("updating ranking for %s: %w", event.URL, err)
	}

	r.logger.Info().Str("url", event.URL).Msg("click tracked")
	return Result{Status: "tracked", URL: event.URL}, nil
}
