package manga

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"naokomik/internal/httpx"
	"naokomik/internal/proxy"
	"naokomik/internal/sanitize"
	"naokomik/internal/scraper"
	"naokomik/pkg/models"
)

// Cache-Control per endpoint, matching how often the data changes.
const (
	CacheList    = "public, max-age=300, stale-while-revalidate=600"
	CacheSearch  = "public, max-age=60"
	CacheDetail  = "public, max-age=600"
	CacheChapter = "public, max-age=3600"
)

const (
	DefaultTag     = "hot"
	minQueryLength = 2
	failedMessage  = "Failed to fetch data from all sources"
)

// Aggregator is the failover orchestrator as seen by the handlers.
type Aggregator interface {
	LatestManga(ctx context.Context, page int, tag string) (scraper.Result[models.PaginatedResponse[models.Manga]], error)
	SearchManga(ctx context.Context, query string, page int) (scraper.Result[models.PaginatedResponse[models.Manga]], error)
	MangaDetail(ctx context.Context, slug string) (scraper.Result[models.MangaDetail], error)
	ChapterImages(ctx context.Context, slug string) (scraper.Result[models.ChapterContent], error)
}

type Handler struct {
	Agg Aggregator
	// PublicBaseURL prefixes proxied image URLs; empty keeps them root-relative.
	PublicBaseURL string
	Log           *slog.Logger
}

func NewHandler(agg Aggregator, publicBaseURL string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Agg: agg, PublicBaseURL: publicBaseURL, Log: log.With("component", "manga")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                  // GET /manga
	rg.GET("/search", h.search)         // GET /manga/search?q=
	rg.GET("/chapter/:slug", h.chapter) // GET /manga/chapter/:slug
	rg.GET("/:slug", h.detail)          // GET /manga/:slug
}

func (h *Handler) list(c *gin.Context) {
	page := parsePage(c.Query("page"))
	tag := sanitize.Text(c.Query("tag"))
	if tag == "" {
		tag = DefaultTag
	}

	res, err := h.Agg.LatestManga(c.Request.Context(), page, tag)
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	c.Header("Cache-Control", CacheList)
	c.JSON(http.StatusOK, gin.H{
		"data":        res.Data.Data,
		"source":      res.Source,
		"currentPage": res.Data.CurrentPage,
		"nextPage":    res.Data.NextPage,
		"prevPage":    res.Data.PrevPage,
	})
}

func (h *Handler) search(c *gin.Context) {
	q := sanitize.Text(c.Query("q"))
	if utf8.RuneCountInString(q) < minQueryLength {
		httpx.Error(c, http.StatusBadRequest, "Query must be at least 2 characters")
		return
	}
	page := parsePage(c.Query("page"))

	res, err := h.Agg.SearchManga(c.Request.Context(), q, page)
	if err != nil {
		h.fail(c, "search", err)
		return
	}

	c.Header("Cache-Control", CacheSearch)
	c.JSON(http.StatusOK, gin.H{
		"data":        res.Data.Data,
		"query":       q,
		"source":      res.Source,
		"currentPage": res.Data.CurrentPage,
		"nextPage":    res.Data.NextPage,
		"prevPage":    res.Data.PrevPage,
	})
}

func (h *Handler) detail(c *gin.Context) {
	slug, ok := cleanSlug(c.Param("slug"))
	if !ok {
		httpx.Error(c, http.StatusBadRequest, "Missing or invalid slug")
		return
	}

	res, err := h.Agg.MangaDetail(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, "detail", err)
		return
	}

	c.Header("Cache-Control", CacheDetail)
	c.JSON(http.StatusOK, gin.H{"data": res.Data, "source": res.Source})
}

func (h *Handler) chapter(c *gin.Context) {
	slug, ok := cleanSlug(c.Param("slug"))
	if !ok {
		httpx.Error(c, http.StatusBadRequest, "Missing or invalid slug")
		return
	}

	res, err := h.Agg.ChapterImages(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, "chapter", err)
		return
	}

	content := res.Data
	content.Images = proxy.URLsFor(h.PublicBaseURL, content.Images)

	c.Header("Cache-Control", CacheChapter)
	c.JSON(http.StatusOK, gin.H{"data": content, "source": res.Source})
}

// fail logs the full cause and answers with a generic 500; upstream URLs
// and per-source errors stay in the log.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	httpx.Logger(c, h.Log).Error("aggregation failed", "op", op, "path", c.Request.URL.Path, "error", err)
	httpx.Error(c, http.StatusInternalServerError, failedMessage)
}

// cleanSlug rejects empty and dot-segment slugs, which would change the
// meaning of the upstream path they are joined into.
func cleanSlug(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\?#") {
		return "", false
	}
	return s, true
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
