package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"naokomik/internal/upstream"
)

// ErrDomainRejected is returned when the target, or a redirect it issues,
// is not on the allowlist.
var ErrDomainRejected = errors.New("proxy: domain not allowed")

const (
	DefaultContentType = "image/jpeg"
	MaxImageBytes      = 20 << 20
	maxRedirects       = 5
)

// Image is a streamed upstream response. The caller closes Body.
type Image struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

type Gateway struct {
	Allow  *Allowlist
	client *upstream.Client
}

// NewGateway builds a gateway whose client refuses redirects leaving the
// allowlist. opts are applied after that policy.
func NewGateway(allow *Allowlist, cfg upstream.Config, opts ...upstream.Option) *Gateway {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxImageBytes
	}
	g := &Gateway{Allow: allow}
	opts = append([]upstream.Option{upstream.WithCheckRedirect(g.checkRedirect)}, opts...)
	g.client = upstream.New(cfg, opts...)
	return g
}

func (g *Gateway) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("proxy: stopped after %d redirects", maxRedirects)
	}
	if !g.Allow.allowedURL(req.URL) {
		return ErrDomainRejected
	}
	return nil
}

// Fetch validates raw against the allowlist and, only if it passes, issues a
// single GET with the target's own origin as Referer.
func (g *Gateway) Fetch(ctx context.Context, raw string) (*Image, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !g.Allow.allowedURL(u) {
		return nil, ErrDomainRejected
	}
	target := u.String()

	resp, err := g.client.Do(ctx, upstream.Request{
		URL:     target,
		Referer: upstream.Origin(target),
		Accept:  upstream.AcceptImage,
	})
	if err != nil {
		return nil, err
	}

	if resp.ContentLength > g.client.MaxBody {
		resp.Body.Close()
		return nil, &upstream.Error{URL: target, Err: upstream.ErrBodyTooLarge}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = DefaultContentType
	}
	return &Image{Body: resp.Body, ContentType: ct, ContentLength: resp.ContentLength}, nil
}
