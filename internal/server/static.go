package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// mountStatic serves the bundled web UI when the configured web directory
// exists; without one the root responds with a JSON pointer instead.
func (s *Server) mountStatic(r chi.Router) {
	webDir := s.config.App.WebDir
	if info, err := os.Stat(webDir); err != nil || !info.IsDir() {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			s.renderData(w, s.config.App.Name, map[string]string{
				"health": "/health",
				"docs":   "https://github.com/orgball2608/insta-downloader-api",
			})
		})
		return
	}

	fs := http.FileServer(http.Dir(webDir))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(webDir, "index.html"))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", fs))
}
