package click

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/devraghav/offlineseo/internal/search"
)

// recordingTransport is a fake http.RoundTripper standing in for a real
// Elasticsearch cluster, matching internal/search's test style.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	handler  func(*http.Request) (*http.Response, error)
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.bodies = append(t.bodies, body)
	t.mu.Unlock()
	return t.handler(req)
}

func jsonResp(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func allIndicesExistHandler(_ *http.Request) (*http.Response, error) {
	return jsonResp(200, "{}"), nil
}

func newTestRecorder(t *testing.T, handler func(*http.Request) (*http.Response, error)) (*Recorder, *recordingTransport) {
	transport := &recordingTransport{handler: handler}
	backend, err := search.NewBackend(context.Background(), search.Config{
		URL:              "http://fake-es:9200",
		PagesIndex:       "pages",
		ClickEventsIndex: "click_events",
		Logger:           zerolog.Nop(),
		Transport:        transport,
	})
	assert.NoError(t, err)
	return New(backend, 0.05, zerolog.Nop()), transport
}

func TestTrackClickReturnsTrackedResult(t *testing.T) {
	handler := func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodHead {
			return allIndicesExistHandler(req)
		}
		if strings.Contains(req.URL.Path, "_update") {
			return jsonResp(200, `{"result":"updated"}`), nil
		}
		return jsonResp(201, `{"result":"created"}`), nil
	}
	r, _ := newTestRecorder(t, handler)

	result, err := r.TrackClick(context.Background(), Event{URL: "https://example.com/a"})
	assert.NoError(t, err)
	assert.Equal(t, "tracked", result.Status)
	assert.Equal(t, "https://example.com/a", result.URL)
}

// TestTrackClickFirstClickHasZeroDecay asserts the upsert body sent on the
// very first click for a page scores with zero decay, matching DESIGN.md's
// recorded decision on open question #4.
func TestTrackClickFirstClickHasZeroDecay(t *testing.T) {
	var updateBody []byte
	handler := func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodHead {
			return allIndicesExistHandler(req)
		}
		if strings.Contains(req.URL.Path, "_update") {
			body, _ := io.ReadAll(req.Body)
			updateBody = body
			return jsonResp(200, `{"result":"updated"}`), nil
		}
		return jsonResp(201, `{"result":"created"}`), nil
	}
	r, _ := newTestRecorder(t, handler)

	_, err := r.TrackClick(context.Background(), Event{URL: "https://example.com/fresh"})
	assert.NoError(t, err)

	var payload struct {
		Upsert search.Document `json:"upsert"`
	}
	assert.NoError(t, json.Unmarshal(updateBody, &payload))

	assert.Equal(t, int64(1), payload.Upsert.ClicksTotal)
	assert.Equal(t, 1.0, payload.Upsert.RecentClicks)
	assert.NotNil(t, payload.Upsert.LastClickedAtMs)
	assert.InDelta(t, math.Log(2)+0.7, payload.Upsert.RankingScore, 1e-9)
}

func TestTrackClickLogsClickEventBeforeUpdating(t *testing.T) {
	var paths []string
	handler := func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodHead {
			return allIndicesExistHandler(req)
		}
		paths = append(paths, req.URL.Path)
		if strings.Contains(req.URL.Path, "_update") {
			return jsonResp(200, `{"result":"updated"}`), nil
		}
		return jsonResp(201, `{"result":"created"}`), nil
	}
	r, _ := newTestRecorder(t, handler)

	_, err := r.TrackClick(context.Background(), Event{URL: "https://example.com/a", UserID: "u1"})
	assert.NoError(t, err)

	assert.Len(t, paths, 2)
	assert.True(t, strings.Contains(paths[0], "click_events"), "click event must be logged before the ranking update")
	assert.True(t, strings.Contains(paths[1], "pages"), "ranking update targets the pages index")
}

func TestTrackClickPropagatesLogFailure(t *testing.T) {
	handler := func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodHead {
			return allIndicesExistHandler(req)
		}
		return jsonResp(500, `{"error":"boom"}`), nil
	}
	r, _ := newTestRecorder(t, handler)

	_, err := r.TrackClick(context.Background(), Event{URL: "https://example.com/a"})
	assert.Error(t, err)
}
