package crawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractLinks returns the raw (unnormalized) href values of every anchor
// tag in html, grounded in the teacher's goquery-based link parser
// (crawler/fetcher/parser.go), generalized to return hrefs directly rather
// than parsed *url.URL values so the worker can run them through
// urlnorm.Normalize uniformly with the rest of the pipeline.
func extractLinks(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		links = append(links, href)
	})
	return links
}
