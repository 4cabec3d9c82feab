package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Timestamp string `json:"timestamp"`
}

type successResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *Server) renderJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) renderData(w http.ResponseWriter, message string, data any) {
	s.renderJSON(w, http.StatusOK, successResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: timestamp(),
	})
}

// renderError is the single funnel between the typed failure taxonomy and
// the wire. Untyped errors never leak their text to the client.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.FromError(err)
	if !ok && errors.Is(err, context.DeadlineExceeded) {
		appErr, ok = apperrors.Timeout(), true
	}
	if !ok {
		s.logger.Error("Unhandled error", "path", r.URL.Path, "error", err)
		appErr = &apperrors.Error{
			Kind:    apperrors.KindInternal,
			Message: "An internal error occurred. Please try again later.",
			Status:  http.StatusInternalServerError,
		}
	} else {
		s.logger.Warn("Request failed",
			"path", r.URL.Path, "code", appErr.Code(), "error", err)
	}

	s.renderJSON(w, appErr.Status, errorResponse{
		Success:   false,
		Error:     appErr.Message,
		ErrorCode: appErr.Code(),
		Timestamp: timestamp(),
	})
}
