package search

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBuildSearchBodyShape(t *testing.T) {
	body := BuildSearchBody("widgets")

	query, ok := body["query"].(map[string]interface{})
	assert.True(t, ok)
	multiMatch, ok := query["multi_match"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "widgets", multiMatch["query"])

	fields, ok := multiMatch["fields"].([]string)
	assert.True(t, ok)
	assert.Equal(t, []string{"title^3", "h1^2", "meta_description^1.5", "content"}, fields)

	sort, ok := body["sort"].([]map[string]interface{})
	assert.True(t, ok)
	assert.Len(t, sort, 2)
	rankingSort := sort[0]["ranking_score"].(map[string]interface{})
	assert.Equal(t, "desc", rankingSort["order"])
	assert.Equal(t, "_last", rankingSort["missing"])
}

func TestClickUpdateScriptHasFirstClickZeroDecayShape(t *testing.T) {
	assert.True(t, strings.Contains(clickUpdateScript, "params.now_ms"))
	assert.True(t, strings.Contains(clickUpdateScript, "clicks_total += 1"))
	assert.True(t, strings.Contains(clickUpdateScript, "prevLast"))
}

func TestDecayScriptFloorsRecentClicks(t *testing.T) {
	assert.True(t, strings.Contains(decayScript, "recent_clicks < 0.01"))
	assert.True(t, strings.Contains(decayScript, "recent_click_multiplier"))
}

func TestWithClickDefaultsSetsScoreForFreshDocument(t *testing.T) {
	ix := NewIndexer(nil, 0.05, zerolog.Nop())
	doc := &Document{URL: "https://example.com/a"}
	ix.withClickDefaults(doc)
	assert.Equal(t, 0.0, doc.RankingScore)
}

func TestWithClickDefaultsPreservesExistingScore(t *testing.T) {
	ix := NewIndexer(nil, 0.05, zerolog.Nop())
	doc := &Document{URL: "https://example.com/a", RankingScore: 1.5}
	ix.withClickDefaults(doc)
	assert.Equal(t, 1.5, doc.RankingScore)
}

func TestBulkIndexSkipsThinDocuments(t *testing.T) {
	ix := NewIndexer(nil, 0.05, zerolog.Nop())
	docs := []*Document{
		{URL: "https://example.com/thin", ContentLength: 10},
		{URL: "https://example.com/also-thin", ContentLength: 49},
	}
	err := ix.BulkIndex(context.Background(), docs)
	assert.NoError(t, err)
}
