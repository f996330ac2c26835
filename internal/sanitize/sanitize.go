// Package sanitize cleans scraped text, markup and URLs before they leave the
// service. Every field an adapter returns goes through one of these functions.
// None of them fail: bad input degrades to an empty string.
package sanitize

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// InlineTags are the only elements HTML keeps. Attributes are always dropped.
var InlineTags = []string{"b", "i", "em", "strong", "p", "br", "span"}

var (
	strict = bluemonday.StrictPolicy()
	inline = newInlinePolicy()
)

func newInlinePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(InlineTags...)
	p.AllowNoAttrs().OnElements(InlineTags...)
	return p
}

// Text strips every tag, decodes named and numeric entities and trims spaces.
//
// Decoding can expose markup that was escaped in the source ("&lt;b&gt;"), so
// the strip/decode step repeats until the output stops changing. That makes
// Text(Text(x)) == Text(x) however deeply the input was encoded.
func Text(in string) string {
	s := textPass(in)
	// A pass that changes s removes a tag or decodes an entity, so it
	// shortens s; len(in) passes always reach the fixed point.
	for i := 0; i < len(in); i++ {
		next := textPass(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func textPass(s string) string {
	s = strict.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

// HTML keeps InlineTags (without attributes) and removes every other tag while
// leaving its text in place. Script and style bodies are dropped entirely.
//
// The result is markup: "<", ">" and "&" in text stay escaped so that decoded
// text can never turn back into a tag. Quotes and non-breaking spaces are
// decoded.
func HTML(in string) string {
	if in == "" {
		return ""
	}
	s := inline.Sanitize(in)
	s = strings.NewReplacer("&#39;", "'", "&#34;", `"`, "\u00a0", " ").Replace(s)
	return strings.TrimSpace(s)
}

// URL returns in unchanged if it is an absolute http(s) URL with a host or a
// root-relative path, and "" otherwise (javascript:, data:, "//host",
// malformed input, ...).
func URL(in string) string {
	if in == "" {
		return ""
	}
	u, err := url.Parse(in)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return ""
		}
		return in
	case "":
		// "//host/x" is network-relative and "/\host" is read as such by browsers.
		if strings.HasPrefix(in, "/") && !strings.HasPrefix(in, "//") &&
			!strings.ContainsRune(in, '\\') && u.Host == "" {
			return in
		}
	}
	return ""
}

// URLs maps URL over in and drops the empties.
func URLs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		if u := URL(raw); u != "" {
			out = append(out, u)
		}
	}
	return out
}
