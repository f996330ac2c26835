// Package proxy relays images from allowlisted hosts so browsers never hit
// the sources' hotlink protection directly.
package proxy

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultAllowedDomains are the image hosts the two sources serve from.
// A leading "~" marks a substring rule.
var DefaultAllowedDomains = []string{
	"komiku.org",
	"cdn.komiku.co.id",
	"img.komiku.id",
	"api.komiku.org",
	"i0.wp.com",
	"i1.wp.com",
	"i2.wp.com",
	"i3.wp.com",
	"~komikcast",
}

// Allowlist matches hostnames against domain rules. A plain rule matches the
// host itself and any subdomain of it. A substring rule ("~komikcast")
// matches when the host's registrable domain contains the text, so it follows
// a rotating domain like komikcast03.com without also matching
// komikcast.attacker.net.
type Allowlist struct {
	domains    []string
	substrings []string
}

// NewAllowlist parses rules. Empty entries, entries with a scheme, port or
// path, and bare public suffixes such as "com" or "co.id" are ignored.
func NewAllowlist(rules ...string) *Allowlist {
	a := &Allowlist{}
	for _, r := range rules {
		a.Add(r)
	}
	return a
}

// Add appends one rule and reports whether it was accepted.
func (a *Allowlist) Add(rule string) bool {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if sub, ok := strings.CutPrefix(rule, "~"); ok {
		if sub == "" || strings.ContainsAny(sub, "/:. ") {
			return false
		}
		a.substrings = append(a.substrings, sub)
		return true
	}

	rule = strings.TrimPrefix(rule, ".")
	if rule == "" || strings.ContainsAny(rule, "/: ") {
		return false
	}
	if ps, _ := publicsuffix.PublicSuffix(rule); ps == rule {
		return false
	}
	for _, d := range a.domains {
		if d == rule {
			return true
		}
	}
	a.domains = append(a.domains, rule)
	return true
}

// AddURLHost allows the host of a base URL, e.g. a configured source mirror.
func (a *Allowlist) AddURLHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	return a.Add(u.Hostname())
}

// Rules returns the active rules in the same syntax NewAllowlist accepts.
func (a *Allowlist) Rules() []string {
	out := append([]string(nil), a.domains...)
	for _, s := range a.substrings {
		out = append(out, "~"+s)
	}
	return out
}

// AllowedHost reports whether host (no port) passes the list. IP literals
// never match.
func (a *Allowlist) AllowedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return false
	}
	for _, d := range a.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	if len(a.substrings) == 0 {
		return false
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	for _, s := range a.substrings {
		if strings.Contains(reg, s) {
			return true
		}
	}
	return false
}

// Allowed reports whether raw is an absolute http(s) URL on an allowed host.
func (a *Allowlist) Allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return a.allowedURL(u)
}

func (a *Allowlist) allowedURL(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.User != nil {
		return false
	}
	return a.AllowedHost(u.Hostname())
}
