package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/devraghav/offlineseo/internal/fetcher"
	"github.com/devraghav/offlineseo/internal/frontier"
	"github.com/devraghav/offlineseo/internal/robots"
)

// pageGraph is a tiny fixed link graph served over httptest, used to drive
// the driver end-to-end without any real network access.
var pageGraph = map[string]string{
	"/":  `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`,
	"/a": `<html><body><a href="/c">c</a><a href="/">home</a></body></html>`,
	"/b": `<html><body>no outbound links</body></html>`,
	"/c": `<html><body>leaf page</body></html>`,
}

func newGraphServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pageGraph[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
}

func newTestDriver(maxPages, concurrency int) (*Driver, *frontier.Frontier) {
	fr := frontier.New(maxPages)
	rm := robots.NewManager("test-agent", http.DefaultClient, nil, zerolog.Nop())
	fe := fetcher.New(fetcher.Options{
		UserAgent:      "test-agent",
		Concurrency:    concurrency,
		MaxRetries:     2,
		RetryBackoff:   time.Millisecond,
		RequestTimeout: 5 * time.Second,
		Logger:         zerolog.Nop(),
	})
	d := New(Options{
		Frontier:       fr,
		Robots:         rm,
		Fetcher:        fe,
		Concurrency:    concurrency,
		SameDomainOnly: true,
		Logger:         zerolog.Nop(),
	})
	return d, fr
}

func TestCrawlVisitsEveryReachablePageExactlyOnce(t *testing.T) {
	server := newGraphServer(t)
	defer server.Close()

	d, _ := newTestDriver(10, 2)
	results, shutdown := d.Crawl(context.Background(), []string{server.URL + "/"})

	seen := map[string]int{}
	timeout := time.After(5 * time.Second)
collect:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break collect
			}
			seen[r.URL]++
		case <-timeout:
			t.Fatal("crawl did not complete in time")
		}
	}
	shutdown()

	assert.Equal(t, 4, len(seen), fmt.Sprintf("expected 4 distinct pages, got %v", seen))
	for url, count := range seen {
		assert.Equal(t, 1, count, "url %s emitted more than once", url)
	}
}

func TestCrawlRespectsPageCap(t *testing.T) {
	server := newGraphServer(t)
	defer server.Close()

	d, fr := newTestDriver(2, 1)
	results, shutdown := d.Crawl(context.Background(), []string{server.URL + "/"})

	var urls []string
	timeout := time.After(5 * time.Second)
collect:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break collect
			}
			urls = append(urls, r.URL)
		case <-timeout:
			t.Fatal("crawl did not complete in time")
		}
	}
	shutdown()

	assert.LessOrEqual(t, len(urls), 2)
	assert.Equal(t, len(urls), fr.PagesCrawled())
}

func TestCrawlShutdownIsIdempotent(t *testing.T) {
	server := newGraphServer(t)
	defer server.Close()

	d, _ := newTestDriver(10, 2)
	results, shutdown := d.Crawl(context.Background(), []string{server.URL + "/"})

	for range results {
	}
	shutdown()
	assert.NotPanics(t, func() { shutdown() })
}

func TestCrawlSkipsDisallowedPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /b\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := pageGraph[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d, _ := newTestDriver(10, 2)
	results, shutdown := d.Crawl(context.Background(), []string{server.URL + "/"})

	var urls []string
	timeout := time.After(5 * time.Second)
collect:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break collect
			}
			urls = append(urls, r.URL)
		case <-timeout:
			t.Fatal("crawl did not complete in time")
		}
	}
	shutdown()

	sort.Strings(urls)
	for _, u := range urls {
		assert.NotContains(t, u, "/b")
	}
}
