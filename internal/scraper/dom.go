package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"naokomik/internal/sanitize"
	"naokomik/internal/upstream"
)

// Suggested freshness per endpoint volatility. Sent with every fetch; the
// adapters never cache anything themselves.
const (
	TTLList    = 5 * time.Minute
	TTLSearch  = time.Minute
	TTLDetail  = 10 * time.Minute
	TTLChapter = time.Hour
)

// fetchDocument GETs r.URL and parses it for selector queries.
func fetchDocument(ctx context.Context, c *upstream.Client, r upstream.Request) (*goquery.Document, error) {
	body, err := c.Get(ctx, r)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// cleanImageURL drops the query string (resize/cache-buster params break some
// CDNs) and moves the retired komiku image host to its replacement.
func cleanImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	return strings.Replace(raw, "img.komiku.id", "cdn.komiku.co.id", 1)
}

// imageURL runs an attribute value through cleaning and the URL allowlist.
func imageURL(raw string) string {
	return sanitize.URL(cleanImageURL(raw))
}

// text is the sanitized text of the first match of selector under s.
func text(s *goquery.Selection, selector string) string {
	return sanitize.Text(s.Find(selector).First().Text())
}

func attr(s *goquery.Selection, selector, name string) string {
	v, _ := s.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

var (
	trailingChapter = regexp.MustCompile(`(?i)\s*chapter.*$`)
	titleChapterNum = regexp.MustCompile(`(?i)chapter\s*([\d.]+)`)
	slugChapterNum  = regexp.MustCompile(`(?i)chapter-?([\d.]+)`)
)

// stripChapter turns "One Piece Chapter 1100" into "One Piece".
func stripChapter(s string) string {
	return strings.TrimSpace(trailingChapter.ReplaceAllString(s, ""))
}

// chapterNumber reads the chapter number from the page title, then the slug.
func chapterNumber(title, slug string) string {
	if m := titleChapterNum.FindStringSubmatch(title); m != nil {
		return strings.TrimRight(m[1], ".")
	}
	if m := slugChapterNum.FindStringSubmatch(slug); m != nil {
		return strings.TrimRight(m[1], ".")
	}
	return ""
}

// mangaSlugOf finds the manga a chapter page belongs to: a link into /manga/
// if the page has one, else the slug prefix before "-chapter".
func mangaSlugOf(doc *goquery.Document, chapterSlug string) string {
	if href, ok := doc.Find("a[href*='/manga/']").First().Attr("href"); ok {
		if s := lastSegment(href); s != "" && !strings.EqualFold(s, "manga") {
			return sanitize.Text(s)
		}
	}
	if i := strings.Index(strings.ToLower(chapterSlug), "-chapter"); i > 0 {
		return sanitize.Text(chapterSlug[:i])
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
