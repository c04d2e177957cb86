// Package fetcher performs HTTP GETs with retries, linear backoff and a
// process-wide concurrency cap, grounded in the teacher's
// fetcher.stdHttpFetcher but generalized to spec.md §4.5's exact retry
// and backoff contract.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Fetcher issues politeness-aware HTTP GETs on behalf of the crawler.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxRetries   int
	retryBackoff time.Duration
	sem          *semaphore.Weighted
	clock        clock.Clock
	logger       zerolog.Logger
}

// Options configures a new Fetcher. Concurrency bounds the number of
// simultaneous in-flight HTTP calls globally, independent of worker
// count (spec.md §4.5).
type Options struct {
	UserAgent      string
	Concurrency    int
	MaxRetries     int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
	Clock          clock.Clock
	Logger         zerolog.Logger
}

// New builds a Fetcher. Its http.Client's transport applies a thin layer
// of low-level connection-retry resilience via rehttp (the teacher's
// dependency), separate from the application-level retry loop in Fetch,
// which implements spec.md's linear backoff and per-attempt semaphore
// acquisition.
func New(opts Options) *Fetcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	transport := rehttp.NewTransport(
		&http.Transport{TLSClientConfig: &tls.Config{}},
		rehttp.RetryAll(rehttp.RetryMaxRetries(1), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(100*time.Millisecond, time.Second),
	)

	return &Fetcher{
		client:       &http.Client{Timeout: opts.RequestTimeout, Transport: transport},
		userAgent:    opts.UserAgent,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		sem:          semaphore.NewWeighted(int64(opts.Concurrency)),
		clock:        clk,
		logger:       opts.Logger.With().Str("component", "fetcher").Logger(),
	}
}

// Close releases the fetcher's HTTP client resources.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Fetch performs up to maxRetries attempts at url. Each attempt acquires
// a slot on the process-wide semaphore (released before any backoff
// sleep, so a retrying URL gives up its slot between attempts — see
// spec.md §9's third open question), issues a GET with the configured
// User-Agent, and follows redirects. Any non-2xx status is a failure.
// On all but the last attempt it sleeps retryBackoff*attempt before
// retrying; after the final failure it returns the last error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		body, err := f.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.logger.Warn().Err(err).Str("url", url).Int("attempt", attempt).Msg("fetch attempt failed")

		if attempt < f.maxRetries {
			sleep := time.Duration(attempt) * f.retryBackoff
			select {
			case <-f.clock.After(sleep):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("fetching %s failed after %d attempts: %w", url, f.maxRetries, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, url string) (string, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer f.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("GET %s: status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", url, err)
	}
	return string(body), nil
}
