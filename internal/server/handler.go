package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/design"
	"github.com/revibe/designgen/internal/pipeline"
	"github.com/revibe/designgen/internal/session"
)

const maxUploadBytes = 20 << 20

// Generator is the pipeline surface the handlers depend on.
type Generator interface {
	Analyze(ctx context.Context, req pipeline.Request) (*design.AnalysisResult, error)
	GenerateStandard(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	GenerateRealProducts(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// SessionIndex is the session store surface the handlers depend on.
type SessionIndex interface {
	ListSessions(limit int) ([]session.Record, error)
	GetSession(id string) (*session.Record, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	Generator Generator
	Sessions  SessionIndex // optional
	OutputDir string
}

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "API server is running",
		Data: map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// AnalyzeImage handles POST /analyze-image.
func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := h.uploadRequest(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.Generator.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Image analysis failed", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Image analysis completed successfully",
		Data:    result,
	})
}

// GenerateStandard handles POST /generate-standard.
func (h *Handler) GenerateStandard(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := h.uploadRequest(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.Generator.GenerateStandard(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Standard pathway generation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Standard pathway generation completed successfully",
		Data:    result,
	})
}

// GenerateRealProducts handles POST /generate-real-products.
func (h *Handler) GenerateRealProducts(w http.ResponseWriter, r *http.Request) {
	req, cleanup, ok := h.uploadRequest(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.Generator.GenerateRealProducts(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Real products pathway generation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Real products pathway generation completed successfully",
		Data:    result,
	})
}

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "Session index unavailable", nil)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := h.Sessions.ListSessions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Found " + strconv.Itoa(len(records)) + " sessions",
		Data:    map[string]any{"sessions": records},
	})
}

// GetSession handles GET /sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "Session index unavailable", nil)
		return
	}
	id := chi.URLParam(r, "id")
	record, err := h.Sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load session", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Session found",
		Data:    record,
	})
}

// uploadRequest parses the multipart upload shared by the generation
// endpoints (file, design_style, custom_instructions, design_type) and
// writes the uploaded image to a temp file. The returned cleanup removes it.
func (h *Handler) uploadRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, func(), bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Could not parse form", err)
		return pipeline.Request{}, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required", err)
		return pipeline.Request{}, nil, false
	}
	defer file.Close()

	style := r.FormValue("design_style")
	if style == "" {
		writeError(w, http.StatusBadRequest, "design_style is required", nil)
		return pipeline.Request{}, nil, false
	}
	designType := r.FormValue("design_type")
	if designType == "" {
		designType = "interior redesign"
	}

	// Keep the upload's extension so the analysis stage infers the right
	// MIME type for the vision data URL.
	tmp, err := os.CreateTemp("", "designgen-upload-*"+uploadExt(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not store upload", err)
		return pipeline.Request{}, nil, false
	}
	if _, err := io.Copy(tmp, io.LimitReader(file, maxUploadBytes)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "Could not store upload", err)
		return pipeline.Request{}, nil, false
	}
	tmp.Close()

	req := pipeline.Request{
		ImagePath:          tmp.Name(),
		DesignStyle:        style,
		CustomInstructions: r.FormValue("custom_instructions"),
		DesignType:         designType,
	}
	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil {
			log.Warn().Err(err).Str("path", tmp.Name()).Msg("failed to remove upload temp file")
		}
	}
	return req, cleanup, true
}

// uploadExt picks the temp-file extension from the uploaded filename,
// defaulting to .png for missing or unrecognized extensions.
func uploadExt(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".png"
	}
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := Response{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
		log.Error().Err(err).Msg(message)
	}
	writeJSON(w, status, resp)
}
