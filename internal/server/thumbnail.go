package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// handleThumbnail relays CDN-hosted images so browser clients are not
// blocked by the CDN's cross-origin policy. Only https URLs pointed at
// allow-listed hosts are relayed.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.renderValidation(w, "Query parameter 'url' is required.")
		return
	}

	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme != "https" || !s.allowedThumbnailHost(target.Hostname()) {
		s.renderValidation(w, "URL is not an allowed Instagram CDN address.")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		s.renderValidation(w, "URL is not an allowed Instagram CDN address.")
		return
	}
	if ua := s.config.Instagram.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Referer", "https://www.instagram.com/")

	resp, err := s.http.Do(req)
	if err != nil {
		s.renderUpstreamFailure(w)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.renderUpstreamFailure(w)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Debug("Thumbnail relay interrupted", "error", err)
	}
}

func (s *Server) allowedThumbnailHost(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range s.config.ThumbnailHosts() {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (s *Server) renderUpstreamFailure(w http.ResponseWriter) {
	s.renderJSON(w, http.StatusBadGateway, errorResponse{
		Success:   false,
		Error:     "Failed to fetch thumbnail from upstream.",
		ErrorCode: "DOWNLOAD_ERROR",
		Timestamp: timestamp(),
	})
}
