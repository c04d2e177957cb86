package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/devraghav/offlineseo/internal/config"
	"github.com/devraghav/offlineseo/internal/crawl"
	"github.com/devraghav/offlineseo/internal/fetcher"
	"github.com/devraghav/offlineseo/internal/frontier"
	"github.com/devraghav/offlineseo/internal/messaging"
	"github.com/devraghav/offlineseo/internal/pagedoc"
	"github.com/devraghav/offlineseo/internal/robots"
	"github.com/devraghav/offlineseo/internal/search"
)

// newCrawlCmd runs a single crawl to completion and indexes every page,
// mirroring original_source/scripts/run_crawler_once.py.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run a single crawl to completion and index the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawlOnce(cmd.Context())
		},
	}
}

func runCrawlOnce(parentCtx context.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("cmd", "crawl").Logger()

	cfg := config.FromEnv()
	if len(cfg.SeedURLs) == 0 {
		return fmt.Errorf("no SEED_URLS configured; nothing to crawl")
	}

	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := search.NewBackend(ctx, search.Config{
		URL:              cfg.ElasticsearchURL,
		PagesIndex:       cfg.ElasticsearchIdx,
		ClickEventsIndex: cfg.ClickEventsIdx,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("connecting to search backend: %w", err)
	}
	indexer := search.NewIndexer(backend, cfg.DecayPerHour, logger)

	fr := frontier.New(cfg.MaxPages)
	rm := robots.NewManager(cfg.UserAgent, &http.Client{Timeout: cfg.RequestTimeout}, nil, logger)
	fe := fetcher.New(fetcher.Options{
		UserAgent:      cfg.UserAgent,
		Concurrency:    cfg.Concurrency,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	defer fe.Close()

	bus := messaging.NewBus(64)
	events := make(chan messaging.Event, 64)
	go bus.Consume(events)
	go logCrawlEvents(logger, events)
	defer bus.Close()

	driver := crawl.New(crawl.Options{
		Frontier:       fr,
		Robots:         rm,
		Fetcher:        fe,
		Concurrency:    cfg.Concurrency,
		SameDomainOnly: cfg.SameDomainOnly,
		Events:         bus,
		Logger:         logger,
	})

	results, shutdown := driver.Crawl(ctx, cfg.SeedURLs)
	defer shutdown()

	for result := range results {
		doc, err := pagedoc.Parse(result.URL, result.Body)
		if err != nil {
			logger.Error().Err(err).Str("url", result.URL).Msg("failed to parse page")
			bus.Produce(messaging.Event{Kind: messaging.EventPageDropped, URL: result.URL, Err: err})
			continue
		}
		if doc.ContentLength < 50 {
			logger.Info().Str("url", result.URL).Int("content_length", doc.ContentLength).Msg("skipping page, content too short")
			continue
		}

		searchDoc := &search.Document{
			URL:             doc.URL,
			CanonicalURL:    doc.CanonicalURL,
			Title:           doc.Title,
			Content:         doc.Content,
			Summary:         doc.Summary,
			H1:              doc.H1,
			HeadingsH1:      doc.HeadingsH1,
			HeadingsH2:      doc.HeadingsH2,
			HeadingsH3:      doc.HeadingsH3,
			MetaDescription: doc.MetaDescription,
			MetaKeywords:    doc.MetaKeywords,
			Lang:            doc.Lang,
			CrawledAt:       doc.CrawledAt,
			ContentLength:   doc.ContentLength,
		}
		if err := indexer.IndexDocument(ctx, searchDoc); err != nil {
			logger.Error().Err(err).Str("url", result.URL).Msg("failed to index page")
			continue
		}
		bus.Produce(messaging.Event{Kind: messaging.EventPageCrawled, URL: result.URL})
	}

	logger.Info().Int("pages_crawled", fr.PagesCrawled()).Msg("crawl complete")
	return nil
}

func logCrawlEvents(logger zerolog.Logger, events <-chan messaging.Event) {
	for event := range events {
		ev := logger.Info()
		if event.Err != nil {
			ev = logger.Warn().Err(event.Err)
		}
		ev.Str("kind", event.Kind).Str("url", event.URL).Msg("crawl event")
	}
}
