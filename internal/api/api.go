// Package api exposes the search/click surface over HTTP, grounded in
// original_source/app/search_api.py's FastAPI routes, rebuilt on gin (the
// pack's HTTP JSON framework of choice) with gin-contrib/cors for its
// development-default allow-all policy.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/devraghav/offlineseo/internal/click"
	"github.com/devraghav/offlineseo/internal/search"
)

// defaultSearchSize matches spec.md §6's default size=10.
const defaultSearchSize = 10

// snippetMaxChars bounds the last-resort snippet fallback to the first
// 200 characters of content, matching spec.md §6.
const snippetMaxChars = 200

// SearchResult is the JSON shape returned by GET /search, matching
// search_api.py's SearchResult pydantic model field-for-field.
type SearchResult struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Snippet         string   `json:"snippet"`
	Score           float64  `json:"score"`
	RankingScore    *float64 `json:"ranking_score,omitempty"`
	H1              string   `json:"h1,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	CrawledAt       string   `json:"crawled_at,omitempty"`
	ContentLength   int      `json:"content_length,omitempty"`
}

// Server wires the backend and click recorder onto an HTTP mux.
type Server struct {
	backend  *search.Backend
	recorder *click.Recorder
	logger   zerolog.Logger
	engine   *gin.Engine
}

// NewServer builds a Server ready to Run or be wrapped in an http.Server.
func NewServer(backend *search.Backend, recorder *click.Recorder, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"*"},
		AllowHeaders:    []string{"*"},
	}))

	s := &Server{
		backend:  backend,
		recorder: recorder,
		logger:   logger.With().Str("component", "api").Logger(),
		engine:   engine,
	}

	engine.GET("/search", s.handleSearch)
	engine.POST("/track_click", s.handleTrackClick)
	return s
}

// Engine exposes the underlying gin engine, e.g. for http.ListenAndServe.
func (s *Server) Engine() http.Handler {
	return s.engine
}

func (s *Server) handleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	size := defaultSearchSize
	if raw := c.Query("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			size = parsed
		}
	}

	hits, err := s.backend.Search(c.Request.Context(), search.BuildSearchBody(q), size)
	if err != nil {
		s.logger.Error().Err(err).Str("q", q).Msg("search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "search backend unavailable"})
		return
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, toSearchResult(hit))
	}
	c.JSON(http.StatusOK, results)
}

// toSearchResult applies the snippet fallback chain (highlight -> summary
// -> first 200 chars of content) and the title fallback to url, matching
// search_api.py's search() handler.
func toSearchResult(hit search.Hit) SearchResult {
	doc := hit.Source

	snippet := ""
	if fragments, ok := hit.Highlight["content"]; ok && len(fragments) > 0 {
		snippet = fragments[0]
	} else if doc.Summary != "" {
		snippet = doc.Summary
	} else if len(doc.Content) > snippetMaxChars {
		snippet = doc.Content[:snippetMaxChars]
	} else {
		snippet = doc.Content
	}

	title := doc.Title
	if title == "" {
		title = doc.URL
	}

	result := SearchResult{
		URL:             doc.URL,
		Title:           title,
		Snippet:         snippet,
		Score:           hit.Score,
		H1:              doc.H1,
		MetaDescription: doc.MetaDescription,
		ContentLength:   doc.ContentLength,
	}
	if !doc.CrawledAt.IsZero() {
		result.CrawledAt = doc.CrawledAt.Format("2006-01-02T15:04:05Z07:00")
	}
	result.RankingScore = &doc.RankingScore
	return result
}

type trackClickRequest struct {
	URL      string                 `json:"url" binding:"required"`
	UserID   string                 `json:"user_id"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleTrackClick(c *gin.Context) {
	var req trackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.recorder.TrackClick(c.Request.Context(), click.Event{
		URL:      req.URL,
		UserID:   req.UserID,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("url", req.URL).Msg("track click failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to track click"})
		return
	}
	c.JSON(http.StatusOK, result)
}
