package robots

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/devraghav/offlineseo/internal/urlnorm"
)

// robotsTxtPath is the well-known path every origin is asked for once.
const robotsTxtPath = "/robots.txt"

// Manager is the per-origin rule cache, single-flight fetcher and
// crawl-delay pacer of spec.md §4.3. The zero value is not usable; build
// one with NewManager.
type Manager struct {
	userAgent string
	client    *http.Client
	clock     clock.Clock
	logger    zerolog.Logger

	mu    sync.RWMutex
	rules map[string]Rules

	group singleflight.Group

	locksMu     sync.Mutex
	delayLocks  map[string]*sync.Mutex
	nextMu      sync.Mutex
	nextAllowed map[string]time.Time
}

// NewManager builds a Manager that fetches robots.txt with client (which
// should already carry the crawl's timeout and user-agent transport) and
// paces crawl-delay waits using clk — inject clock.NewMock() in tests.
func NewManager(userAgent string, client *http.Client, clk clock.Clock, logger zerolog.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		userAgent:   userAgent,
		client:      client,
		clock:       clk,
		logger:      logger.With().Str("component", "robots").Logger(),
		rules:       make(map[string]Rules),
		delayLocks:  make(map[string]*sync.Mutex),
		nextAllowed: make(map[string]time.Time),
	}
}

// delayLockFor returns origin's crawl-delay mutex, creating it on first
// use. Guarded by its own small mutex so lock creation itself doesn't
// serialize unrelated origins against each other.
func (m *Manager) delayLockFor(origin string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.delayLocks[origin]
	if !ok {
		lock = &sync.Mutex{}
		m.delayLocks[origin] = lock
	}
	return lock
}

// EnsureRules fetches origin's robots.txt at most once, parses it, and
// caches the result. Concurrent callers for the same origin single-flight
// onto the same HTTP fetch and observe the same parsed Rules. Any
// non-200 status or network error yields empty (allow-all) rules —
// robots fetch failures never abort crawling.
func (m *Manager) EnsureRules(ctx context.Context, origin string) Rules {
	m.mu.RLock()
	if r, ok := m.rules[origin]; ok {
		m.mu.RUnlock()
		return r
	}
	m.mu.RUnlock()

	v, _, _ := m.group.Do(origin, func() (interface{}, error) {
		m.mu.RLock()
		if r, ok := m.rules[origin]; ok {
			m.mu.RUnlock()
			return r, nil
		}
		m.mu.RUnlock()

		rules := m.fetchAndParse(ctx, origin)
		m.mu.Lock()
		m.rules[origin] = rules
		m.mu.Unlock()
		return rules, nil
	})
	return v.(Rules)
}

func (m *Manager) fetchAndParse(ctx context.Context, origin string) Rules {
	robotsURL := origin + robotsTxtPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		m.logger.Warn().Err(err).Str("origin", origin).Msg("building robots.txt request failed; allowing by default")
		return Rules{}
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn().Err(err).Str("origin", origin).Msg("fetching robots.txt failed; allowing by default")
		return Rules{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.Info().Int("status", resp.StatusCode).Str("origin", origin).Msg("robots.txt not available; allowing by default")
		return Rules{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		m.logger.Warn().Err(err).Str("origin", origin).Msg("reading robots.txt failed; allowing by default")
		return Rules{}
	}
	return Parse(string(body), m.userAgent)
}

// IsAllowed reports whether url is allowed by its origin's cached rules.
// Unknown origins are allow-all.
func (m *Manager) IsAllowed(rawURL string) bool {
	origin, err := urlnorm.Origin(rawURL)
	if err != nil {
		return true
	}
	path, err := urlnorm.PathWithQuery(rawURL)
	if err != nil {
		return true
	}

	m.mu.RLock()
	rules, ok := m.rules[origin]
	m.mu.RUnlock()
	if !ok {
		return true
	}
	return rules.IsAllowed(path)
}

// WaitForCrawlDelay blocks until the origin's crawl-delay has elapsed
// since the previous call, then reserves the next slot, exactly as
// spec.md §4.3 specifies: the wait+bump is serialized on a per-origin
// mutex (delayLockFor), keyed the same way rules/nextAllowed are, so
// concurrent workers issue requests to the same origin at least
// crawl_delay apart, in first-come order, without blocking workers
// crawling unrelated origins.
func (m *Manager) WaitForCrawlDelay(ctx context.Context, rawURL string) {
	origin, err := urlnorm.Origin(rawURL)
	if err != nil {
		return
	}

	m.mu.RLock()
	rules, ok := m.rules[origin]
	m.mu.RUnlock()
	if !ok || rules.CrawlDelay <= 0 {
		return
	}
	delay := time.Duration(rules.CrawlDelay * float64(time.Second))

	lock := m.delayLockFor(origin)
	lock.Lock()
	defer lock.Unlock()

	now := m.clock.Now()
	m.nextMu.Lock()
	next, ok := m.nextAllowed[origin]
	m.nextMu.Unlock()
	if !ok {
		next = now
	}
	wait := next.Sub(now)
	if wait > 0 {
		select {
		case <-m.clock.After(wait):
		case <-ctx.Done():
		}
	}
	m.nextMu.Lock()
	m.nextAllowed[origin] = m.clock.Now().Add(delay)
	m.nextMu.Unlock()
}
