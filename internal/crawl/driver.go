// Package crawl implements the worker pool (C6) and crawl driver (C7) of
// spec.md §4.6-4.7: a pool of goroutines sharing a work queue, the
// frontier, the robots manager and a fetcher, producing a lazy stream of
// crawled pages while respecting politeness and the page cap. Grounded in
// the teacher's WebCrawler.Crawl/crawlPage, generalized from the teacher's
// fixed-capacity semaphore-and-channel scheme to the queue in queue.go and
// an errgroup-supervised worker pool.
package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/devraghav/offlineseo/internal/fetcher"
	"github.com/devraghav/offlineseo/internal/frontier"
	"github.com/devraghav/offlineseo/internal/messaging"
	"github.com/devraghav/offlineseo/internal/robots"
)

// drainPollInterval is how often the driver checks whether the work queue
// has drained. It is not configurable: it only affects shutdown latency,
// never correctness.
const drainPollInterval = 20 * time.Millisecond

// Options configures a Driver.
type Options struct {
	Frontier       *frontier.Frontier
	Robots         *robots.Manager
	Fetcher        *fetcher.Fetcher
	Concurrency    int
	SameDomainOnly bool
	Events         messaging.Producer
	Clock          clock.Clock
	Logger         zerolog.Logger
}

// Driver runs a crawl to completion, producing results on a channel.
type Driver struct {
	frontier       *frontier.Frontier
	robots         *robots.Manager
	fetcher        *fetcher.Fetcher
	concurrency    int
	sameDomainOnly bool
	events         messaging.Producer
	clock          clock.Clock
	logger         zerolog.Logger
}

// New builds a Driver from its collaborators.
func New(opts Options) *Driver {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	events := opts.Events
	if events == nil {
		events = messaging.NewNop()
	}
	return &Driver{
		frontier:       opts.Frontier,
		robots:         opts.Robots,
		fetcher:        opts.Fetcher,
		concurrency:    opts.Concurrency,
		sameDomainOnly: opts.SameDomainOnly,
		events:         events,
		clock:          clk,
		logger:         opts.Logger.With().Str("component", "crawl-driver").Logger(),
	}
}

// Crawl seeds the frontier with seedURLs, starts the worker pool and
// returns a lazily-produced stream of results plus a shutdown function.
// The returned channel is closed once the crawl drains naturally or
// shutdown is called; shutdown is idempotent and safe to call more than
// once, including after natural completion.
func (d *Driver) Crawl(ctx context.Context, seedURLs []string) (<-chan Result, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	queue := newWorkQueue()
	results := make(chan Result, d.concurrency)

	for _, seed := range seedURLs {
		if d.frontier.MarkEnqueued(seed) {
			queue.Push(seed)
		}
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	for i := 0; i < d.concurrency; i++ {
		group.Go(func() error {
			runWorker(groupCtx, workerDeps{
				queue:          queue,
				results:        results,
				frontier:       d.frontier,
				robots:         d.robots,
				fetcher:        d.fetcher,
				sameDomainOnly: d.sameDomainOnly,
				events:         d.events,
				logger:         d.logger,
			})
			return nil
		})
	}

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			cancel()
			queue.Close()
			group.Wait()
			close(results)
		})
	}

	go d.monitor(runCtx, queue, shutdown)

	return results, shutdown
}

// monitor logs crawl speed once a second and triggers shutdown once the
// queue has drained or the run context is cancelled by the caller,
// matching spec.md §4.7 steps 3-5.
func (d *Driver) monitor(ctx context.Context, queue *workQueue, shutdown func()) {
	start := d.clock.Now()
	speedTicker := d.clock.Ticker(time.Second)
	defer speedTicker.Stop()
	pollTicker := d.clock.Ticker(drainPollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-speedTicker.C:
			d.logSpeed(start)
		case <-pollTicker.C:
			if queue.Drained() {
				d.logSpeed(start)
				shutdown()
				return
			}
		case <-ctx.Done():
			d.logSpeed(start)
			shutdown()
			return
		}
	}
}

func (d *Driver) logSpeed(start time.Time) {
	elapsed := d.clock.Now().Sub(start).Seconds()
	pages := d.frontier.PagesCrawled()
	speed := 0.0
	if elapsed > 0 {
		speed = float64(pages) / elapsed
	}
	d.logger.Info().
		Int("pages_crawled", pages).
		Float64("pages_per_sec", speed).
		Msg("crawl speed")
}
