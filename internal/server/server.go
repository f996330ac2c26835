// Package server assembles the HTTP service from configuration.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"naokomik/internal/httpx"
	"naokomik/internal/manga"
	"naokomik/internal/metrics"
	"naokomik/internal/proxy"
	"naokomik/internal/ratelimit"
	"naokomik/internal/scraper"
	"naokomik/internal/upstream"
	"naokomik/pkg/utils"
)

// MaxPageBytes caps a scraped HTML page.
const MaxPageBytes = 5 << 20

// Deps is everything the router needs. Build fills it from config; tests
// construct it directly.
type Deps struct {
	Log           *slog.Logger
	Aggregator    manga.Aggregator
	Gateway       *proxy.Gateway
	Limiter       *ratelimit.Store
	Metrics       *metrics.Metrics
	PublicBaseURL string
}

// NewRouter mounts /health, /metrics, /proxy and the rate limited /manga group.
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.AccessLog(log.With("component", "http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", d.Metrics.Handler())

	ph := proxy.NewHandler(d.Gateway, log)
	ph.Observe = d.Metrics.ProxyOutcome
	ph.RegisterRoutes(r)

	group := r.Group("/manga")
	group.Use(ratelimit.Middleware(d.Limiter, log, d.Metrics.RateLimited))
	manga.NewHandler(d.Aggregator, d.PublicBaseURL, log).RegisterRoutes(group)

	r.NoRoute(func(c *gin.Context) {
		httpx.Error(c, http.StatusNotFound, "Not found")
	})
	return r
}

// App is a built service: the router plus the pieces with a lifecycle.
type App struct {
	Router   *gin.Engine
	Limiter  *ratelimit.Store
	Failover *scraper.Failover
	Metrics  *metrics.Metrics
}

// Build wires sources, failover, limiter, proxy and metrics from cfg. The
// caller starts and stops Limiter.
func Build(cfg utils.Config, log *slog.Logger) *App {
	m := metrics.New()
	f := NewFailover(cfg, log).WithObserver(m)
	limiter := ratelimit.NewStore(ratelimit.Config{
		MaxRequests: cfg.RateLimit.Requests,
		Window:      cfg.RateLimit.Window,
		SweepEvery:  cfg.RateLimit.SweepEvery,
	})

	router := NewRouter(Deps{
		Log:           log,
		Aggregator:    f,
		Gateway:       NewGateway(cfg),
		Limiter:       limiter,
		Metrics:       m,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	return &App{Router: router, Limiter: limiter, Failover: f, Metrics: m}
}

// NewGateway builds the image proxy. It is bounded by PROXY_TIMEOUT_MS only;
// the per-host throttle applies to page fetches, not images.
func NewGateway(cfg utils.Config, opts ...upstream.Option) *proxy.Gateway {
	return proxy.NewGateway(NewAllowlist(cfg), upstream.Config{Timeout: cfg.Proxy.Timeout}, opts...)
}

// NewSources returns the configured sources, primary first.
func NewSources(cfg utils.Config) (primary *scraper.Komiku, secondary *scraper.Komikcast) {
	client := upstream.New(upstream.Config{
		Timeout:      cfg.Upstream.Timeout,
		RPS:          cfg.Upstream.RPS,
		Burst:        cfg.Upstream.Burst,
		MaxBodyBytes: MaxPageBytes,
	})
	primary = scraper.NewKomiku(client, cfg.Sources.KomikuBaseURL, cfg.Sources.KomikuAPIBaseURL)
	secondary = scraper.NewKomikcast(client, cfg.Sources.KomikcastBaseURL)
	return primary, secondary
}

func NewFailover(cfg utils.Config, log *slog.Logger) *scraper.Failover {
	primary, secondary := NewSources(cfg)
	return scraper.NewFailover(log, primary, secondary)
}

// NewAllowlist is the built-in image hosts, the configured extras and the
// hosts of every configured source.
func NewAllowlist(cfg utils.Config) *proxy.Allowlist {
	a := proxy.NewAllowlist(proxy.DefaultAllowedDomains...)
	for _, d := range cfg.Proxy.AllowedDomains {
		a.Add(d)
	}
	a.AddURLHost(cfg.Sources.KomikuBaseURL)
	a.AddURLHost(cfg.Sources.KomikuAPIBaseURL)
	a.AddURLHost(cfg.Sources.KomikcastBaseURL)
	return a
}
