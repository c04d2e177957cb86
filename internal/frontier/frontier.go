// Package frontier tracks which URLs have been seen, are in flight, or
// have been emitted, and enforces the process-wide page cap. It is
// adapted from the teacher's memoryCache (cache.go): same mutex-protected
// map idea, generalized from a namespaced string cache into the two
// specific sets and counters spec.md §4.4 requires.
package frontier

import "sync"

// Frontier is the shared, mutex-protected state of spec.md §3/§4.4.
// The zero value is not usable (its sets are nil maps); build one with New.
type Frontier struct {
	mu           sync.Mutex
	visited      map[string]struct{}
	enqueued     map[string]struct{}
	pagesCrawled int
	maxPages     int
	stopped      bool
}

// New builds a Frontier capped at maxPages emitted pages.
func New(maxPages int) *Frontier {
	return &Frontier{
		visited:  make(map[string]struct{}),
		enqueued: make(map[string]struct{}),
		maxPages: maxPages,
	}
}

// MarkEnqueued inserts url into the enqueued set and returns true, unless
// stop is set or url is already visited or enqueued, in which case it
// returns false without mutating state.
func (f *Frontier) MarkEnqueued(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return false
	}
	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.enqueued[url]; ok {
		return false
	}
	f.enqueued[url] = struct{}{}
	return true
}

// MarkVisited adds url to the visited set.
func (f *Frontier) MarkVisited(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited[url] = struct{}{}
}

// ReserveSlot increments the page counter and returns its new value,
// unless the cap has already been reached, in which case it sets stop
// and returns (0, false). Reserving the slot that reaches the cap also
// sets stop, so pages_crawled never exceeds max_pages.
func (f *Frontier) ReserveSlot() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pagesCrawled >= f.maxPages {
		f.stopped = true
		return 0, false
	}
	f.pagesCrawled++
	if f.pagesCrawled >= f.maxPages {
		f.stopped = true
	}
	return f.pagesCrawled, true
}

// RequestStop sets the one-shot stop flag; it stays set once set.
func (f *Frontier) RequestStop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// Stopped reports the current value of the stop flag.
func (f *Frontier) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// PagesCrawled returns the current count of reserved (emitted) pages.
func (f *Frontier) PagesCrawled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pagesCrawled
}
