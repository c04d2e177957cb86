// Package search wraps a concrete Elasticsearch-shaped backend behind the
// operations original_source/app/indexer.py, search_api.py and
// index_schemas.py need: index a document, run a keyword search, apply a
// scripted partial update, and sweep ranking decay across every document.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog"
)

// Document is the persisted representation of a crawled page, covering
// both the SEO fields from internal/pagedoc and the ranking fields
// C9-C11 maintain, matching spec.md §3's Document exactly.
type Document struct {
	URL             string     `json:"url"`
	CanonicalURL    string     `json:"canonical_url"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Summary         string     `json:"summary"`
	H1              string     `json:"h1"`
	HeadingsH1      []string   `json:"headings_h1"`
	HeadingsH2      []string   `json:"headings_h2"`
	HeadingsH3      []string   `json:"headings_h3"`
	MetaDescription string     `json:"meta_description"`
	MetaKeywords    string     `json:"meta_keywords"`
	Lang            string     `json:"lang"`
	CrawledAt       time.Time  `json:"crawled_at"`
	ContentLength   int        `json:"content_length"`
	ClicksTotal     int64      `json:"clicks_total"`
	RecentClicks    float64    `json:"recent_clicks"`
	LastClickedAtMs *int64     `json:"last_clicked_at_ms,omitempty"`
	LastClickedAt   *time.Time `json:"last_clicked_at,omitempty"`
	RankingScore    float64    `json:"ranking_score"`
}

// ClickEvent is one append-only entry in the click log index.
type ClickEvent struct {
	URL       string                 `json:"url"`
	UserID    string                 `json:"user_id,omitempty"`
	ClickedAt time.Time              `json:"clicked_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Backend binds the index names this service writes to onto a concrete
// Elasticsearch client.
type Backend struct {
	client           *elasticsearch.Client
	pagesIndex       string
	clickEventsIndex string
	logger           zerolog.Logger
}

// Config configures a Backend. Transport is only set in tests, to point
// the client at an httptest.Server or a fake RoundTripper instead of a
// real Elasticsearch cluster.
type Config struct {
	URL              string
	PagesIndex       string
	ClickEventsIndex string
	Logger           zerolog.Logger
	Transport        http.RoundTripper
}

// NewBackend connects to the configured Elasticsearch endpoint and
// ensures both indices exist.
func NewBackend(ctx context.Context, cfg Config) (*Backend, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("building elasticsearch client: %w", err)
	}

	b := &Backend{
		client:           client,
		pagesIndex:       cfg.PagesIndex,
		clickEventsIndex: cfg.ClickEventsIndex,
		logger:           cfg.Logger.With().Str("component", "search-backend").Logger(),
	}

	if err := EnsureIndices(ctx, client, cfg.PagesIndex, cfg.ClickEventsIndex); err != nil {
		return nil, err
	}
	return b, nil
}

// IndexDocument upserts doc into the pages index, keyed by its URL.
func (b *Backend) IndexDocument(ctx context.Context, doc *Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document %s: %w", doc.URL, err)
	}

	resp, err := esapi.IndexRequest{
		Index:      b.pagesIndex,
		DocumentID: doc.URL,
		Body:       bytes.NewReader(payload),
	}.Do(ctx, b.client)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.URL, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("indexing document %s: %s", doc.URL, resp.String())
	}
	return nil
}

// LogClickEvent appends event to the click events index.
func (b *Backend) LogClickEvent(ctx context.Context, event ClickEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling click event for %s: %w", event.URL, err)
	}

	resp, err := esapi.IndexRequest{
		Index: b.clickEventsIndex,
		Body:  bytes.NewReader(payload),
	}.Do(ctx, b.client)
	if err != nil {
		return fmt.Errorf("logging click event for %s: %w", event.URL, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("logging click event for %s: %s", event.URL, resp.String())
	}
	return nil
}

// UpdateWithScript runs a scripted partial update against the pages
// index, upserting upsertDoc if the document does not yet exist.
// refresh controls Elasticsearch's refresh policy ("wait_for", "true",
// or "" for the default async refresh).
func (b *Backend) UpdateWithScript(ctx context.Context, url, script string, params map[string]interface{}, upsertDoc *Document, refresh string) error {
	body := map[string]interface{}{
		"script": map[string]interface{}{
			"source": script,
			"lang":   "painless",
			"params": params,
		},
		"upsert": upsertDoc,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling update for %s: %w", url, err)
	}

	resp, err := esapi.UpdateRequest{
		Index:      b.pagesIndex,
		DocumentID: url,
		Body:       bytes.NewReader(payload),
		Refresh:    refresh,
	}.Do(ctx, b.client)
	if err != nil {
		return fmt.Errorf("updating document %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("updating document %s: %s", url, resp.String())
	}
	return nil
}

// UpdateByQueryWithScript runs script across every document in the pages
// index (a match_all query), with conflicts policy "proceed" so concurrent click updates
// never abort the sweep, matching spec.md §4.11.
func (b *Backend) UpdateByQueryWithScript(ctx context.Context, script string, params map[string]interface{}) error {
	body := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"script": map[string]interface{}{
			"source": script,
			"lang":   "painless",
			"params": params,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling decay sweep body: %w", err)
	}

	resp, err := esapi.UpdateByQueryRequest{
		Index:     []string{b.pagesIndex},
		Body:      bytes.NewReader(payload),
		Conflicts: "proceed",
		Refresh:   boolPtr(true),
	}.Do(ctx, b.client)
	if err != nil {
		return fmt.Errorf("running decay sweep: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("running decay sweep: %s", resp.String())
	}
	return nil
}

// ApplyClickUpdate runs the click-ranking scripted update for url with
// "wait_for" refresh so a caller polling /search right after track_click
// sees the updated score, matching spec.md §4.10's requirement.
func (b *Backend) ApplyClickUpdate(ctx context.Context, url string, params map[string]interface{}, upsertDoc *Document) error {
	return b.UpdateWithScript(ctx, url, clickUpdateScript, params, upsertDoc, "wait_for")
}

// ApplyDecaySweep runs the periodic decay script across every document.
func (b *Backend) ApplyDecaySweep(ctx context.Context, params map[string]interface{}) error {
	return b.UpdateByQueryWithScript(ctx, decayScript, params)
}

// Search runs a pre-built query body against the pages index and returns
// the raw hits as decoded JSON, leaving field extraction to the caller
// (internal/api), matching search_api.py's thin pass-through of
// Elasticsearch's hit structure.
func (b *Backend) Search(ctx context.Context, body map[string]interface{}, size int) ([]Hit, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling search body: %w", err)
	}

	resp, err := esapi.SearchRequest{
		Index: []string{b.pagesIndex},
		Body:  bytes.NewReader(payload),
		Size:  intPtr(size),
	}.Do(ctx, b.client)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("searching: %s", resp.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return parsed.Hits.Hits, nil
}

// Hit is a single search result, carrying the document source, its
// relevance score, and any highlighted fragments.
type Hit struct {
	Score     float64                `json:"_score"`
	Source    Document               `json:"_source"`
	Highlight map[string][]string    `json:"highlight,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }
