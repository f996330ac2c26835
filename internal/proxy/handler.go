package proxy

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"naokomik/internal/httpx"
	"naokomik/internal/upstream"
)

// CacheControl is sent with every proxied image; bytes behind a URL never change.
const CacheControl = "public, max-age=86400, immutable"

// Outcome labels passed to Handler.Observe.
const (
	OutcomeOK       = "ok"
	OutcomeBadInput = "bad_request"
	OutcomeRejected = "rejected"
	OutcomeUpstream = "upstream_error"
)

type Handler struct {
	Gateway *Gateway
	Log     *slog.Logger
	// Observe, if set, is called once per request with an Outcome label.
	Observe func(outcome string)
}

func NewHandler(gw *Gateway, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Gateway: gw, Log: log.With("component", "proxy")}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/proxy", h.image) // GET /proxy?url=<encoded>
}

func (h *Handler) image(c *gin.Context) {
	// c.Query has already decoded the parameter once; decoding again would
	// let a double-encoded URL slip past the allowlist.
	raw := c.Query("url")
	if raw == "" {
		h.observe(OutcomeBadInput)
		httpx.Error(c, http.StatusBadRequest, "Missing url parameter")
		return
	}

	img, err := h.Gateway.Fetch(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, raw, err)
		return
	}
	defer img.Body.Close()

	h.observe(OutcomeOK)
	c.DataFromReader(http.StatusOK, img.ContentLength, img.ContentType, img.Body, map[string]string{
		"Cache-Control":                CacheControl,
		"Access-Control-Allow-Origin":  "*",
		"X-Content-Type-Options":       "nosniff",
		"Cross-Origin-Resource-Policy": "cross-origin",
	})
}

func (h *Handler) fail(c *gin.Context, raw string, err error) {
	log := httpx.Logger(c, h.Log)

	if errors.Is(err, ErrDomainRejected) {
		h.observe(OutcomeRejected)
		log.Warn("proxy domain rejected", "abuse_signal", true, "host", hostOf(raw), "client", c.ClientIP())
		httpx.Error(c, http.StatusForbidden, "Domain not allowed")
		return
	}

	h.observe(OutcomeUpstream)
	status := upstream.StatusCode(err)
	log.Warn("proxy fetch failed", "host", hostOf(raw), "status", status, "error", err)
	httpx.Error(c, clientStatus(status), "Failed to fetch image")
}

// clientStatus passes upstream 4xx/5xx through and turns everything else
// (no response, 1xx, 3xx) into 502.
func clientStatus(upstreamStatus int) int {
	if upstreamStatus >= 400 && upstreamStatus <= 599 {
		return upstreamStatus
	}
	return http.StatusBadGateway
}

func (h *Handler) observe(outcome string) {
	if h.Observe != nil {
		h.Observe(outcome)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
