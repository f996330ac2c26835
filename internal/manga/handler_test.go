package manga

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naokomik/internal/scraper"
	"naokomik/pkg/models"
)

type fakeAgg struct {
	err error

	gotPage  int
	gotTag   string
	gotQuery string
	gotSlug  string
	calls    int
}

func (f *fakeAgg) LatestManga(_ context.Context, page int, tag string) (scraper.Result[models.PaginatedResponse[models.Manga]], error) {
	f.calls++
	f.gotPage, f.gotTag = page, tag
	if f.err != nil {
		return scraper.Result[models.PaginatedResponse[models.Manga]]{}, f.err
	}
	return scraper.Result[models.PaginatedResponse[models.Manga]]{
		Data:   models.Paginate([]models.Manga{{Title: "One Piece", Slug: "one-piece"}}, map[string][]string{"tag": {tag}}, page, true),
		Source: "komiku",
	}, nil
}

func (f *fakeAgg) SearchManga(_ context.Context, q string, page int) (scraper.Result[models.PaginatedResponse[models.Manga]], error) {
	f.calls++
	f.gotQuery, f.gotPage = q, page
	if f.err != nil {
		return scraper.Result[models.PaginatedResponse[models.Manga]]{}, f.err
	}
	return scraper.Result[models.PaginatedResponse[models.Manga]]{
		Data:   models.Paginate([]models.Manga{{Title: "Solo Leveling", Slug: "solo-leveling"}}, map[string][]string{"q": {q}}, page, false),
		Source: "komikcast",
	}, nil
}

func (f *fakeAgg) MangaDetail(_ context.Context, slug string) (scraper.Result[models.MangaDetail], error) {
	f.calls++
	f.gotSlug = slug
	if f.err != nil {
		return scraper.Result[models.MangaDetail]{}, f.err
	}
	return scraper.Result[models.MangaDetail]{
		Data: models.MangaDetail{
			Manga:    models.Manga{Title: "One Piece", Slug: slug},
			Chapters: []models.Chapter{{Number: "1", Slug: "one-piece-chapter-1"}},
		},
		Source: "komiku",
	}, nil
}

func (f *fakeAgg) ChapterImages(_ context.Context, slug string) (scraper.Result[models.ChapterContent], error) {
	f.calls++
	f.gotSlug = slug
	if f.err != nil {
		return scraper.Result[models.ChapterContent]{}, f.err
	}
	return scraper.Result[models.ChapterContent]{
		Data: models.ChapterContent{Images: []string{
			"https://cdn.komiku.co.id/ch/1.jpg",
			"/proxy?url=https%3A%2F%2Fcdn.komiku.co.id%2Fch%2F2.jpg",
		}},
		Source: "komikcast",
	}, nil
}

func newRouter(agg Aggregator, publicBase string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(agg, publicBase, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r.Group("/manga"))
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestList(t *testing.T) {
	agg := &fakeAgg{}
	w := get(newRouter(agg, ""), "/manga?page=2&tag=rekomendasi")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CacheList, w.Header().Get("Cache-Control"))
	assert.Equal(t, 2, agg.gotPage)
	assert.Equal(t, "rekomendasi", agg.gotTag)

	body := decode(t, w)
	assert.Equal(t, "komiku", body["source"])
	assert.Equal(t, float64(2), body["currentPage"])
	assert.Equal(t, "?page=3&tag=rekomendasi", body["nextPage"])
	assert.Equal(t, "?page=1&tag=rekomendasi", body["prevPage"])
	assert.Len(t, body["data"], 1)
}

func TestList_Defaults(t *testing.T) {
	agg := &fakeAgg{}
	w := get(newRouter(agg, ""), "/manga?page=-4")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, agg.gotPage)
	assert.Equal(t, DefaultTag, agg.gotTag)
	assert.Nil(t, decode(t, w)["prevPage"])
}

func TestSearch(t *testing.T) {
	agg := &fakeAgg{}
	w := get(newRouter(agg, ""), "/manga/search?q=%20solo%20")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CacheSearch, w.Header().Get("Cache-Control"))
	assert.Equal(t, "solo", agg.gotQuery)

	body := decode(t, w)
	assert.Equal(t, "solo", body["query"])
	assert.Equal(t, "komikcast", body["source"])
	assert.Nil(t, body["nextPage"])
}

func TestSearch_ShortQuery(t *testing.T) {
	for _, target := range []string{"/manga/search", "/manga/search?q=a", "/manga/search?q=%3Cb%3E%3C%2Fb%3Ex"} {
		agg := &fakeAgg{}
		w := get(newRouter(agg, ""), target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Zero(t, agg.calls, target)

		body := decode(t, w)
		assert.Contains(t, body["error"], "message")
	}
}

func TestDetail(t *testing.T) {
	agg := &fakeAgg{}
	w := get(newRouter(agg, ""), "/manga/one-piece")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CacheDetail, w.Header().Get("Cache-Control"))
	assert.Equal(t, "one-piece", agg.gotSlug)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "One Piece", data["title"])
}

func TestDetail_InvalidSlug(t *testing.T) {
	agg := &fakeAgg{}
	w := get(newRouter(agg, ""), "/manga/..")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, agg.calls)

	w = get(newRouter(agg, ""), "/manga/%20")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChapter_RewritesImages(t *testing.T) {
	agg := &fakeAgg{}
	w := get(newRouter(agg, "https://api.naokomik.test"), "/manga/chapter/one-piece-chapter-1")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CacheChapter, w.Header().Get("Cache-Control"))

	body := decode(t, w)
	assert.Equal(t, "komikcast", body["source"])
	images := body["data"].(map[string]any)["images"].([]any)
	assert.Equal(t, []any{
		"https://api.naokomik.test/proxy?url=https%3A%2F%2Fcdn.komiku.co.id%2Fch%2F1.jpg",
		"/proxy?url=https%3A%2F%2Fcdn.komiku.co.id%2Fch%2F2.jpg",
	}, images)
}

func TestFailureIsGeneric500(t *testing.T) {
	agg := &fakeAgg{err: &scraper.FailoverError{Op: "chapter", Attempts: []scraper.Attempt{
		{Source: "komiku", Err: errors.New("upstream: https://komiku.org/secret: status 404")},
	}}}
	r := newRouter(agg, "")

	for _, target := range []string{"/manga", "/manga/search?q=one", "/manga/x", "/manga/chapter/x-chapter-1"} {
		w := get(r, target)
		assert.Equal(t, http.StatusInternalServerError, w.Code, target)
		assert.NotContains(t, w.Body.String(), "komiku.org", target)
		assert.Empty(t, w.Header().Get("Cache-Control"), target)

		errBody := decode(t, w)["error"].(map[string]any)
		assert.Equal(t, failedMessage, errBody["message"])
	}
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, parsePage(""))
	assert.Equal(t, 1, parsePage("abc"))
	assert.Equal(t, 1, parsePage("0"))
	assert.Equal(t, 7, parsePage(" 7 "))
}
