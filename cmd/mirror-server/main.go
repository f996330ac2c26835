// mirror-server serves saved source pages from disk so the api-server can run
// without network access:
//
//	mirror-server -dir ./mirror -addr :9000 &
//	KOMIKCAST_LINK=http://localhost:9000 api-server
//
// A request for /chapter/one-piece-chapter-1/ is answered with
// <dir>/chapter/one-piece-chapter-1.html; "/" maps to <dir>/index.html.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

func main() {
	dir := flag.String("dir", "mirror", "directory of saved .html pages")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "mirror")
	log.Info("mirror-server listening", "addr", *addr, "dir", *dir)
	if err := http.ListenAndServe(*addr, pageHandler(*dir, log)); err != nil {
		log.Error("mirror-server stopped", "error", err)
		os.Exit(1)
	}
}

// pageFile maps a request path onto a file under dir. Paths that try to
// leave dir resolve to "".
func pageFile(dir, urlPath string) string {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		clean = "/index"
	}
	if strings.Contains(clean, "\\") {
		return ""
	}
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))+".html")
}

func pageHandler(dir string, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		file := pageFile(dir, r.URL.Path)
		if file == "" {
			http.NotFound(w, r)
			return
		}
		b, err := os.ReadFile(file)
		if err != nil {
			log.Debug("page not mirrored", "path", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
}
