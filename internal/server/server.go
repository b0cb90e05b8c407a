// Package server is the thin HTTP surface over the pipeline. Identity
// arrives as the X-User-Id header set by the upstream gateway; handlers do
// no business logic beyond decoding requests and mapping errors to status
// codes.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"oned/internal/app"
	"oned/internal/ratelimit"
	"oned/internal/util"
)

const userIDHeader = "X-User-Id"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	MaxUploadBytes int64
	DevMode        bool
}

// Server exposes the slide-generation endpoints.
type Server struct {
	app            *app.App
	limiter        *ratelimit.FixedWindowLimiter
	mux            *http.ServeMux
	maxUploadBytes int64
	devMode        bool
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		devMode:        cfg.DevMode,
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/transcribe/health", s.handleTranscriberHealth)
	s.mux.HandleFunc("/api/slides/themes", s.handleThemes)

	s.mux.Handle("/api/audio-to-slides", s.withUser(s.withRateLimit(s.handleAudioToSlides)))
	s.mux.Handle("/api/slides/generate", s.withUser(s.withRateLimit(s.handleGenerate)))
	s.mux.Handle("/api/slides", s.withUser(s.handleSlides))
	s.mux.Handle("/api/slides/", s.withUser(s.handleSlidesByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranscriberHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	health := s.app.TranscriberHealth(r.Context())
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	themes := s.app.AvailableThemes()
	writeJSON(w, http.StatusOK, map[string]any{
		"themes": themes,
		"count":  len(themes),
	})
}

type userHandler func(http.ResponseWriter, *http.Request, string)

// withUser requires the gateway-set identity header.
func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(userIDHeader))
		if userID == "" {
			s.writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "unauthorized")
			return
		}
		next(w, r, userID)
	})
}

// withRateLimit applies the per-owner fixed window on generation endpoints.
// A nil limiter disables limiting.
func (s *Server) withRateLimit(next userHandler) userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID string) {
		if s.limiter != nil && !s.limiter.Allow(userID) {
			s.writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many generation requests")
			return
		}
		next(w, r, userID)
	}
}

// handleAudioToSlides accepts either a multipart audio upload (field
// "audio") or a videoUrl form value, plus an optional title.
func (s *Server) handleAudioToSlides(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, app.CodePayloadTooLarge, "uploaded file is too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, app.CodeInvalidRequest, "invalid form data")
		return
	}
	title := r.FormValue("title")

	in := app.AudioInput{VideoURL: strings.TrimSpace(r.FormValue("videoUrl"))}
	if in.VideoURL == "" {
		file, header, err := r.FormFile("audio")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, app.CodeInvalidRequest, "audio file or videoUrl is required")
			return
		}
		defer file.Close()
		in.Body = file
		in.Filename = header.Filename
		in.ContentType = header.Header.Get("Content-Type")
		in.DeclaredSize = header.Size
	}

	created, err := s.app.GenerateFromAudio(r.Context(), in, userID, title)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type generateRequest struct {
	Transcription string `json:"transcription"`
	Title         string `json:"title"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, app.CodeInvalidRequest, "invalid JSON body")
		return
	}
	created, err := s.app.GenerateFromTranscript(r.Context(), req.Transcription, userID, req.Title)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.List(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// /api/slides/{id} or /api/slides/{id}/export
func (s *Server) handleSlidesByID(w http.ResponseWriter, r *http.Request, userID string) {
	path := strings.TrimPrefix(r.URL.Path, "/api/slides/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		s.writeError(w, http.StatusNotFound, app.CodeNotFoundOrForbidden, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] == "export" {
			s.handleExport(w, r, userID, id)
			return
		}
		s.writeError(w, http.StatusNotFound, app.CodeNotFoundOrForbidden, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.app.Get(r.Context(), id, userID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.app.Remove(r.Context(), id, userID); err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

type exportRequest struct {
	Theme  string `json:"theme"`
	Author string `json:"author"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, userID, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req exportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, app.CodeInvalidRequest, "invalid JSON body")
			return
		}
	}
	doc, err := s.app.Export(r.Context(), id, userID, req.Theme, req.Author)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error: "method not allowed",
		Code:  "METHOD_NOT_ALLOWED",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

// writeAppError maps a pipeline error to its stable code and HTTP status.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	code := app.ErrorCode(err)
	s.writeError(w, statusForCode(code), code, app.PublicMessage(err, s.devMode))
}

func statusForCode(code string) int {
	switch code {
	case app.CodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case app.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case app.CodeSourceUnavailable, app.CodeTranscriptionUnavailable, app.CodeTranscriptionFailed:
		return http.StatusBadGateway
	case app.CodeTranscriptionTimeout:
		return http.StatusGatewayTimeout
	case app.CodeTranscriptionTooShort, app.CodeExportValidationFailed:
		return http.StatusUnprocessableEntity
	case app.CodeNotFoundOrForbidden:
		return http.StatusNotFound
	case app.CodeUnknownTheme, app.CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
