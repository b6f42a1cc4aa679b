package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
)

type checkRequest struct {
	VideoURL  string   `json:"video_url"`
	Languages []string `json:"languages,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status           string `json:"status"`
	GeminiConfigured bool   `json:"gemini_configured"`
	TempWritable     bool   `json:"temp_writable"`
	CaptionBackend   string `json:"caption_backend"`
	YtDlpAvailable   bool   `json:"ytdlp_available"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, lookErr := s.lookPath(s.config.Captions.YtDlpPath)

	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "healthy",
		GeminiConfigured: s.checker != nil && s.checker.Ready() == nil,
		TempWritable:     tempWritable(s.config.Captions.TempDir),
		CaptionBackend:   s.config.Captions.Backend,
		YtDlpAvailable:   lookErr == nil,
	})
}

func (s *Server) handleCheckClaims(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithField("request_id", middleware.GetReqID(r.Context()))

	var req checkRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if strings.TrimSpace(req.VideoURL) == "" {
		writeError(w, http.StatusBadRequest, "Video URL is required")
		return
	}

	if s.checker == nil {
		writeError(w, http.StatusInternalServerError, "Gemini API key not configured")
		return
	}

	ctx := r.Context()
	if timeout := s.config.Server.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := s.checker.Check(ctx, req.VideoURL, req.Languages)
	if err != nil {
		f := model.AsFailure(err)
		entry := log.WithFields(logrus.Fields{
			"kind":      f.Kind,
			"video_url": req.VideoURL,
		}).WithError(err)
		if f.Kind.Severity() == model.SeverityServer {
			entry.Error("check failed")
		} else {
			entry.Info("check rejected")
		}
		writeError(w, f.Kind.HTTPStatus(), f.PublicMessage())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
