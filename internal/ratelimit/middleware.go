package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"naokomik/internal/httpx"
)

const RejectMessage = "Too many requests. Please try again later."

// ClientID identifies the caller: the first X-Forwarded-For hop, then
// X-Real-IP, else "unknown". These headers are only trustworthy behind a
// proxy that overwrites them.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if id := strings.TrimSpace(first); id != "" {
			return id
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// Middleware enforces s on every request it wraps. onReject, if set, is
// called once per rejected request.
func Middleware(s *Store, log *slog.Logger, onReject func()) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "ratelimit")

	return func(c *gin.Context) {
		id := ClientID(c.Request)
		res := s.Check(id)

		reset := strconv.Itoa(ceilSeconds(res.ResetIn))
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", reset)

		if !res.Allowed {
			c.Header("Retry-After", reset)
			httpx.Logger(c, log).Debug("rate limited", "client", id, "path", c.Request.URL.Path)
			if onReject != nil {
				onReject()
			}
			httpx.Error(c, http.StatusTooManyRequests, RejectMessage)
			return
		}
		c.Next()
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
