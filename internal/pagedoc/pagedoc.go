// Package pagedoc extracts SEO-relevant fields from a fetched HTML page.
// spec.md treats this as an external pure-function collaborator
// (parse(url, html) -> Document); this package implements it, porting
// original_source/app/parser_cleaner.py's algorithm onto goquery (the
// teacher's HTML library) instead of BeautifulSoup+readability.
package pagedoc

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Document is the SEO-relevant extraction of one crawled page, matching
// the non-ranking fields of spec.md §3's Document.
type Document struct {
	URL              string
	CanonicalURL     string
	Title            string
	Content          string
	Summary          string
	H1               string
	HeadingsH1       []string
	HeadingsH2       []string
	HeadingsH3       []string
	MetaDescription  string
	MetaKeywords     string
	Lang             string
	CrawledAt        time.Time
	ContentLength    int
}

// codeKeywords is the fixed set of tokens that mark a line as probable
// JS/CSS/code junk rather than human-readable content, ported from
// _looks_like_code_or_css.
var codeKeywords = []string{
	"function ", "var ", "let ", "const ", "=>", "if(", "for(", "while(",
	"return ", "{", "}", ";", "/*", "*/", ".class",
	"background:", "color:", "margin:", "padding:",
}

// Parse extracts title, meta description/keywords, language, canonical
// URL, headings and a cleaned main-content string from html.
func Parse(url, html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Document{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = metaContent(doc, "property", "og:title")
	}

	metaDesc := firstMetaTag(doc, []metaQuery{
		{"name", "description"},
		{"property", "og:description"},
		{"property", "twitter:description"},
	})
	metaKeywords := metaContent(doc, "name", "keywords")

	lang := strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))

	canonical := ""
	doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if strings.Contains(strings.ToLower(rel), "canonical") {
			if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
				canonical = strings.TrimSpace(href)
				return false
			}
		}
		return true
	})
	if canonical == "" {
		canonical = url
	}

	h1Tags := headingTexts(doc, "h1")
	h2Tags := headingTexts(doc, "h2")
	h3Tags := headingTexts(doc, "h3")
	primaryH1 := ""
	if len(h1Tags) > 0 {
		primaryH1 = h1Tags[0]
	}

	content := extractMainContent(doc)
	if metaDesc == "" && content != "" {
		metaDesc = truncate(content, 160)
	}
	summary := truncate(content, 250)

	return Document{
		URL:             url,
		CanonicalURL:    canonical,
		Title:           title,
		Content:         content,
		ContentLength:   len(content),
		Summary:         summary,
		H1:              primaryH1,
		HeadingsH1:      h1Tags,
		HeadingsH2:      h2Tags,
		HeadingsH3:      h3Tags,
		MetaDescription: metaDesc,
		MetaKeywords:    metaKeywords,
		Lang:            lang,
		CrawledAt:       time.Now().UTC(),
	}, nil
}

type metaQuery struct {
	attr, value string
}

func firstMetaTag(doc *goquery.Document, queries []metaQuery) string {
	for _, q := range queries {
		if v := metaContent(doc, q.attr, q.value); v != "" {
			return v
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, attr, value string) string {
	result := ""
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && v == value {
			if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
				result = strings.TrimSpace(content)
				return false
			}
		}
		return true
	})
	return result
}

func headingTexts(doc *goquery.Document, tag string) []string {
	var out []string
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// extractMainContent strips script/style/noscript/link/nav/footer nodes,
// selects the densest remaining block (selectDensestBlock), then joins its
// text lines that don't look like code or CSS, collapsing whitespace. This
// mirrors parser_cleaner.py's pipeline: readability.Document(html).summary()
// picks the main content block, then script/style/nav/footer stripping and
// the junk-line filter clean it up. No Go readability library exists in
// the retrieval pack, so the block-selection step is reimplemented
// directly on goquery below.
func extractMainContent(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	clone := body.Clone()
	clone.Find("script, style, noscript, link, nav, footer").Remove()

	main := selectDensestBlock(clone)

	text := main.Text()
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if looksLikeCodeOrCSS(line) {
			continue
		}
		kept = append(kept, line)
	}
	joined := strings.Join(kept, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// minDensityBlockText is the minimum text length (after stripping link
// text) a candidate container must clear to be considered over the page
// root, avoiding picking some tiny aside as "densest" on short pages.
const minDensityBlockText = 120

// selectDensestBlock is a simplified port of the Arc90/readability
// algorithm root's readability.Document.summary() runs: score every
// div/article/section/main/td by its text length minus its link text
// length (link-heavy blocks like nav rails and sidebars score low) plus a
// bonus per paragraph (article bodies are built from <p> tags), and keep
// the highest-scoring one. Falls back to root itself when no candidate
// clears minDensityBlockText, e.g. a short page with no container
// elements at all.
func selectDensestBlock(root *goquery.Selection) *goquery.Selection {
	best := root
	bestScore := -1.0

	root.Find("div, article, section, main, td").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < minDensityBlockText {
			return
		}
		linkText := strings.TrimSpace(s.Find("a").Text())
		paragraphs := s.Find("p").Length()
		score := float64(len(text)-len(linkText)) + float64(paragraphs)*20

		if score > bestScore {
			bestScore = score
			best = s
		}
	})

	return best
}

// looksLikeCodeOrCSS is a heuristic port of _looks_like_code_or_css: drop
// very long single-line blocks (likely minified code), drop lines with a
// high special-character ratio, and drop lines hitting several code
// keywords at once.
func looksLikeCodeOrCSS(line string) bool {
	if line == "" {
		return false
	}
	if len(line) > 400 {
		return true
	}

	special := 0
	for _, r := range line {
		if !isAlnumOrSpace(r) {
			special++
		}
	}
	ratio := float64(special) / float64(len(line))
	if len(line) > 80 && ratio > 0.35 {
		return true
	}

	hits := 0
	for _, kw := range codeKeywords {
		if strings.Contains(line, kw) {
			hits++
		}
	}
	return hits >= 3
}

func isAlnumOrSpace(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '\t':
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
