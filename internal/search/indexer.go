package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/devraghav/offlineseo/internal/ranking"
)

// Indexer is C8: it accepts crawled documents and writes them to the
// pages index, filling in the ranking defaults a freshly-crawled page
// has never earned yet, matching Indexer._with_click_defaults /
// index_document / bulk_index in original_source/app/indexer.py.
type Indexer struct {
	backend      *Backend
	decayPerHour float64
	logger       zerolog.Logger
}

// NewIndexer builds an Indexer bound to backend.
func NewIndexer(backend *Backend, decayPerHour float64, logger zerolog.Logger) *Indexer {
	return &Indexer{
		backend:      backend,
		decayPerHour: decayPerHour,
		logger:       logger.With().Str("component", "indexer").Logger(),
	}
}

// withClickDefaults fills in zero-valued ranking fields on a freshly
// crawled document and computes its initial ranking_score, mirroring
// _with_click_defaults: a never-clicked page scores purely on
// ln(0+1) == 0, so its ranking_score is always 0 unless it already
// carries click history (e.g. a re-crawl of a previously indexed page).
func (ix *Indexer) withClickDefaults(doc *Document) {
	if doc.RankingScore == 0 {
		now := ranking.CurrentTimeMs()
		doc.RankingScore = ranking.ComputeRankingScore(
			doc.ClicksTotal, doc.RecentClicks, doc.LastClickedAtMs, now, ix.decayPerHour,
		)
	}
}

// IndexDocument upserts a single freshly-crawled document.
func (ix *Indexer) IndexDocument(ctx context.Context, doc *Document) error {
	ix.withClickDefaults(doc)
	ix.logger.Info().Str("url", doc.URL).Msg("indexing document")
	if err := ix.backend.IndexDocument(ctx, doc); err != nil {
		return fmt.Errorf("indexing %s: %w", doc.URL, err)
	}
	return nil
}

// BulkIndex upserts many documents, skipping pages whose extracted
// content is too thin to be worth indexing (spec.md §6's 50-character
// floor on content_length).
func (ix *Indexer) BulkIndex(ctx context.Context, docs []*Document) error {
	for _, doc := range docs {
		if doc.ContentLength < 50 {
			ix.logger.Debug().Str("url", doc.URL).Int("content_length", doc.ContentLength).Msg("skipping thin document")
			continue
		}
		if err := ix.IndexDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
