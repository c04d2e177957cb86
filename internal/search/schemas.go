package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// pagesIndexBody is the mapping for the pages index, ported in structure
// (keyword vs text typing matters) from
// original_source/app/index_schemas.py's SEO_INDEX_BODY.
var pagesIndexBody = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"url":           map[string]interface{}{"type": "keyword"},
			"canonical_url": map[string]interface{}{"type": "keyword"},
			"title": map[string]interface{}{
				"type": "text",
				"fields": map[string]interface{}{
					"raw": map[string]interface{}{"type": "keyword", "ignore_above": 256},
				},
			},
			"content":            map[string]interface{}{"type": "text"},
			"summary":            map[string]interface{}{"type": "text"},
			"h1":                 map[string]interface{}{"type": "text"},
			"headings_h1":        map[string]interface{}{"type": "text"},
			"headings_h2":        map[string]interface{}{"type": "text"},
			"headings_h3":        map[string]interface{}{"type": "text"},
			"meta_description":   map[string]interface{}{"type": "text"},
			"meta_keywords":      map[string]interface{}{"type": "text"},
			"lang":               map[string]interface{}{"type": "keyword"},
			"crawled_at":         map[string]interface{}{"type": "date"},
			"content_length":     map[string]interface{}{"type": "integer"},
			"clicks_total":       map[string]interface{}{"type": "long"},
			"recent_clicks":      map[string]interface{}{"type": "double"},
			"last_clicked_at":    map[string]interface{}{"type": "date"},
			"last_clicked_at_ms": map[string]interface{}{"type": "long"},
			"ranking_score":      map[string]interface{}{"type": "double"},
		},
	},
}

// clickLogIndexBody is the mapping for the append-only click event log,
// ported from CLICK_LOG_INDEX_BODY.
var clickLogIndexBody = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"url":        map[string]interface{}{"type": "keyword"},
			"user_id":    map[string]interface{}{"type": "keyword"},
			"clicked_at": map[string]interface{}{"type": "date"},
			"metadata":   map[string]interface{}{"type": "object"},
		},
	},
}

// EnsureIndices creates the pages and click-events indices with their
// mappings if they do not already exist, matching ensure_indices in
// original_source/app/index_schemas.py.
func EnsureIndices(ctx context.Context, client *elasticsearch.Client, pagesIndex, clickEventsIndex string) error {
	if err := ensureIndex(ctx, client, pagesIndex, pagesIndexBody); err != nil {
		return fmt.Errorf("ensuring pages index %s: %w", pagesIndex, err)
	}
	if err := ensureIndex(ctx, client, clickEventsIndex, clickLogIndexBody); err != nil {
		return fmt.Errorf("ensuring click events index %s: %w", clickEventsIndex, err)
	}
	return nil
}

func ensureIndex(ctx context.Context, client *elasticsearch.Client, index string, body map[string]interface{}) error {
	existsResp, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, client)
	if err != nil {
		return err
	}
	defer existsResp.Body.Close()
	if existsResp.StatusCode == 200 {
		return nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	createResp, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(payload),
	}.Do(ctx, client)
	if err != nil {
		return err
	}
	defer createResp.Body.Close()
	if createResp.IsError() {
		return fmt.Errorf("create index %s: %s", index, createResp.String())
	}
	return nil
}
