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

	"github.com/devraghav/offlineseo/internal/api"
	"github.com/devraghav/offlineseo/internal/click"
	"github.com/devraghav/offlineseo/internal/config"
	"github.com/devraghav/offlineseo/internal/decay"
	"github.com/devraghav/offlineseo/internal/search"
)

// newServeCmd starts the HTTP search/click API and the decay sweeper,
// mirroring search_api.py's FastAPI app + its startup decay_loop.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the search and click-tracking HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parentCtx context.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("cmd", "serve").Logger()

	cfg := config.FromEnv()

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

	recorder := click.New(backend, cfg.DecayPerHour, logger)

	sweeper := decay.New(decay.Options{
		Backend:               backend,
		Interval:              cfg.DecayInterval,
		DecayPerHour:          cfg.DecayPerHour,
		RecentClickMultiplier: cfg.RecentClickMult,
		Logger:                logger,
	})
	sweeper.Start(ctx)

	server := api.NewServer(backend, recorder, logger)
	httpServer := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: server.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.APIAddr).Msg("serving search API")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
