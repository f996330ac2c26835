package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFile(t *testing.T) {
	assert.Equal(t, filepath.Join("m", "index.html"), pageFile("m", "/"))
	assert.Equal(t, filepath.Join("m", "chapter", "x-chapter-1.html"), pageFile("m", "/chapter/x-chapter-1/"))
	assert.Equal(t, filepath.Join("m", "etc", "passwd.html"), pageFile("m", "/../../etc/passwd"))
	assert.Equal(t, "", pageFile("m", `/a\..\b`))
}

func TestPageHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "manga"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manga", "one-piece.html"), []byte("<h1>One Piece</h1>"), 0o600))

	h := pageHandler(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manga/one-piece/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<h1>One Piece</h1>", w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manga/missing/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/manga/one-piece/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
