// Package web serves the browser client from a directory on disk as a
// single-page application (SPA).
package web

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

// StaticHandler returns an http.Handler that serves files from dir and falls
// back to index.html for any path that doesn't match a file.
func StaticHandler(dir string) http.Handler {
	root := os.DirFS(dir)
	fileServer := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		if info, err := fs.Stat(root, name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		if _, err := fs.Stat(root, "index.html"); err != nil {
			slog.Debug("web: no client build found", "dir", dir)
			http.NotFound(w, r)
			return
		}

		// Unknown path: serve index.html for client-side routing.
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
