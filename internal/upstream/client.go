// Package upstream is the single way the service talks to third-party hosts:
// manga sources and image CDNs. Every request gets an explicit timeout,
// browser-like headers, a per-host throttle and a bounded body.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BrowserUserAgent is sent on every outbound request. Some sources block
// anything that does not look like a desktop browser.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	AcceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	AcceptImage = "image/webp,image/avif,image/*,*/*;q=0.8"
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	// RPS <= 0 disables the per-host throttle.
	RPS          float64
	Burst        int
	MaxBodyBytes int64
}

// Request describes one GET.
type Request struct {
	URL      string
	Referer  string
	Accept   string
	Language string
	// CacheTTL is the freshness the caller is happy with. It is sent as a
	// Cache-Control request directive so caching transports or intermediaries
	// can answer from cache; Client itself never caches.
	CacheTTL time.Duration
}

type Client struct {
	HTTP      *http.Client
	UserAgent string
	MaxBody   int64
	// Timeout bounds the throttle wait and the request together.
	Timeout time.Duration

	rps      rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type Option func(*Client)

// WithCheckRedirect installs a redirect policy, e.g. to re-validate targets.
func WithCheckRedirect(fn func(req *http.Request, via []*http.Request) error) Option {
	return func(c *Client) { c.HTTP.CheckRedirect = fn }
}

// WithTransport swaps the round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.HTTP.Transport = rt }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = BrowserUserAgent
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	c := &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		MaxBody:   cfg.MaxBodyBytes,
		Timeout:   cfg.Timeout,
		rps:       rate.Limit(cfg.RPS),
		burst:     cfg.Burst,
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) limiter(host string) *rate.Limiter {
	if c.rps <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.rps, c.burst)
		c.limiters[host] = l
	}
	return l
}

// Do performs the GET and returns the response for any 2xx status. The caller
// owns resp.Body. Every other outcome is an *Error with the body closed.
//
// Timeout covers the throttle wait as well as the request: a wait that cannot
// finish before the deadline fails at once instead of queueing.
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, &Error{URL: r.URL, Err: fmt.Errorf("parse url: %w", err)}
	}

	cancel := context.CancelFunc(func() {})
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
	}
	resp, err := c.do(ctx, u.Host, r)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	if c.MaxBody > 0 {
		resp.Body = &limitedBody{ReadCloser: resp.Body, left: c.MaxBody}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, host string, r Request) (*http.Response, error) {
	if l := c.limiter(host); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, &Error{URL: r.URL, Err: fmt.Errorf("throttle: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, &Error{URL: r.URL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if r.Referer != "" {
		req.Header.Set("Referer", r.Referer)
	}
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	}
	if r.Language != "" {
		req.Header.Set("Accept-Language", r.Language)
	}
	if r.CacheTTL > 0 {
		req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(int(r.CacheTTL/time.Second)))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &Error{URL: r.URL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &Error{URL: r.URL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Get is Do plus reading the whole body.
func (c *Client) Get(ctx context.Context, r Request) ([]byte, error) {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: r.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// cancelBody releases the request deadline once the caller is done reading.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// ErrBodyTooLarge is returned from Read once MaxBody bytes have been consumed
// and more remain.
var ErrBodyTooLarge = errors.New("upstream: response body too large")

type limitedBody struct {
	io.ReadCloser
	left int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		// Probe one byte so a body of exactly MaxBody bytes still ends cleanly.
		var one [1]byte
		n, err := b.ReadCloser.Read(one[:])
		if n > 0 {
			return 0, ErrBodyTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.ReadCloser.Read(p)
	b.left -= int64(n)
	return n, err
}

// Origin returns scheme://host of raw, which sources expect as Referer.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
