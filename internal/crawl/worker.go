package crawl

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/devraghav/offlineseo/internal/fetcher"
	"github.com/devraghav/offlineseo/internal/frontier"
	"github.com/devraghav/offlineseo/internal/messaging"
	"github.com/devraghav/offlineseo/internal/robots"
	"github.com/devraghav/offlineseo/internal/urlnorm"
)

// Result is one successfully fetched and accepted page.
type Result struct {
	URL  string
	Body string
}

// workerDeps bundles the shared collaborators every worker goroutine pulls
// URLs against, grounded in the teacher's WebCrawler.crawlPage but split
// across the dedicated frontier/robots/fetcher packages this rewrite uses
// instead of the teacher's single crawlingRules/cache pairing.
type workerDeps struct {
	queue          *workQueue
	results        chan<- Result
	frontier       *frontier.Frontier
	robots         *robots.Manager
	fetcher        *fetcher.Fetcher
	sameDomainOnly bool
	events         messaging.Producer
	logger         zerolog.Logger
}

// runWorker implements spec.md §4.6's loop: it pulls URLs until the queue
// is drained or ctx is cancelled, always acknowledging a popped item via
// queue.Done, even when the item is dropped for policy or fetch-failure
// reasons.
func runWorker(ctx context.Context, deps workerDeps) {
	for {
		url, ok := deps.queue.Pop(ctx)
		if !ok {
			return
		}
		processURL(ctx, url, deps)
		deps.queue.Done()
	}
}

func processURL(ctx context.Context, rawURL string, deps workerDeps) {
	if deps.frontier.Stopped() {
		deps.events.Produce(messaging.Event{Kind: messaging.EventCrawlStopped, URL: rawURL})
		return
	}

	origin, err := urlnorm.Origin(rawURL)
	if err == nil {
		deps.robots.EnsureRules(ctx, origin)
		if !deps.robots.IsAllowed(rawURL) {
			deps.frontier.MarkVisited(rawURL)
			deps.events.Produce(messaging.Event{Kind: messaging.EventRobotsBlocked, URL: rawURL})
			return
		}
		deps.robots.WaitForCrawlDelay(ctx, rawURL)
	}

	body, err := deps.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		deps.logger.Warn().Err(err).Str("url", rawURL).Msg("terminal fetch failure, dropping url")
		return
	}

	if _, ok := deps.frontier.ReserveSlot(); !ok {
		return
	}
	deps.frontier.MarkVisited(rawURL)

	select {
	case deps.results <- Result{URL: rawURL, Body: body}:
	case <-ctx.Done():
		return
	}

	if deps.frontier.Stopped() {
		return
	}

	for _, href := range extractLinks(body) {
		normalized, ok := urlnorm.Normalize(rawURL, href)
		if !ok {
			continue
		}
		if !urlnorm.SameDomain(rawURL, normalized, deps.sameDomainOnly) {
			continue
		}
		if deps.frontier.MarkEnqueued(normalized) {
			deps.queue.Push(normalized)
		}
	}
}
