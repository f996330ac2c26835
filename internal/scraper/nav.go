package scraper

import (
	"net/url"
	"regexp"
	"strings"
)

// NavPolicy decides whether a prev/next link really points at a chapter.
// The same markup region sometimes links back to the manga's index page, and
// following that would be worse than showing no navigation at all.
//
// A slug is accepted when it matches at least one Chapter pattern and no
// Index pattern. Patterns are per adapter; the defaults are best effort.
type NavPolicy struct {
	Chapter []*regexp.Regexp
	Index   []*regexp.Regexp
}

// DefaultNavPolicy covers the slug shapes both sources use today, e.g.
// "one-piece-chapter-1100", "solo-leveling-ch-12", "komik-x-123-bahasa-indonesia".
func DefaultNavPolicy() NavPolicy {
	return NavPolicy{
		Chapter: []*regexp.Regexp{
			regexp.MustCompile(`(?i)chapter`),
			regexp.MustCompile(`(?i)(^|-)ch-?\d`),
			regexp.MustCompile(`-\d+(\.\d+)?(-|$)`),
			regexp.MustCompile(`\d+$`),
		},
		Index: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^manga(-|$)`),
			regexp.MustCompile(`(?i)^(daftar-komik|komik|page|genres?|tag|search)$`),
		},
	}
}

// Accept returns the chapter slug href points at, or "" when the link is
// missing or looks like anything other than a chapter. mangaSlug is the slug
// of the manga the current chapter belongs to, if known.
func (p NavPolicy) Accept(href, mangaSlug string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segments := pathSegments(u.Path)
	if len(segments) == 0 {
		return ""
	}
	for _, seg := range segments {
		if strings.EqualFold(seg, "manga") {
			return ""
		}
	}

	slug := segments[len(segments)-1]
	if mangaSlug != "" && strings.EqualFold(slug, mangaSlug) {
		return ""
	}
	for _, re := range p.Index {
		if re.MatchString(slug) {
			return ""
		}
	}
	for _, re := range p.Chapter {
		if re.MatchString(slug) {
			return slug
		}
	}
	return ""
}

func pathSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// lastSegment returns the final non-empty path segment of href.
// Sources link with absolute and root-relative URLs interchangeably.
func lastSegment(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	segs := pathSegments(u.Path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
