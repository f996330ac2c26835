package proxy

import (
	"net/url"
	"strings"
)

// Path is where the proxy handler is mounted.
const Path = "/proxy"

// URLFor points an image URL at the proxy. publicBase ("https://api.example")
// is prepended when set; otherwise the result is root-relative. Non-http(s)
// values and URLs that already go through the proxy are returned unchanged.
func URLFor(publicBase, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return raw
	}
	if isProxied(publicBase, u) {
		return raw
	}
	return strings.TrimRight(publicBase, "/") + Path + "?url=" + url.QueryEscape(raw)
}

// URLsFor maps URLFor over urls into a new slice.
func URLsFor(publicBase string, urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = URLFor(publicBase, u)
	}
	return out
}

func isProxied(publicBase string, u *url.URL) bool {
	if u.Path != Path || u.Query().Get("url") == "" {
		return false
	}
	if publicBase == "" {
		return false
	}
	base, err := url.Parse(publicBase)
	return err == nil && strings.EqualFold(base.Host, u.Host)
}
