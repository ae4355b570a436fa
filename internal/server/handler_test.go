package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revibe/designgen/internal/design"
	"github.com/revibe/designgen/internal/pipeline"
	"github.com/revibe/designgen/internal/session"
)

type stubGenerator struct {
	lastReq  pipeline.Request
	analysis *design.AnalysisResult
	result   *pipeline.Result
	err      error
}

func (s *stubGenerator) Analyze(_ context.Context, req pipeline.Request) (*design.AnalysisResult, error) {
	s.lastReq = req
	return s.analysis, s.err
}

func (s *stubGenerator) GenerateStandard(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	s.lastReq = req
	return s.result, s.err
}

func (s *stubGenerator) GenerateRealProducts(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	s.lastReq = req
	return s.result, s.err
}

type stubIndex struct {
	records []session.Record
	err     error
}

func (s *stubIndex) ListSessions(int) ([]session.Record, error) {
	return s.records, s.err
}

func (s *stubIndex) GetSession(id string) (*session.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, rec := range s.records {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, nil
}

func uploadRequest(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()
	return uploadRequestNamed(t, path, "room.png", fields)
}

func uploadRequestNamed(t *testing.T, path, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake png bytes"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestAnalyzeImage(t *testing.T) {
	gen := &stubGenerator{analysis: &design.AnalysisResult{
		DesignConcept: design.DesignConcept{Style: "modern"},
	}}
	h := &Handler{Generator: gen}

	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, uploadRequest(t, "/analyze-image", map[string]string{
		"design_style":        "modern",
		"custom_instructions": "keep the plants",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Image analysis completed successfully", resp.Message)

	assert.Equal(t, "modern", gen.lastReq.DesignStyle)
	assert.Equal(t, "keep the plants", gen.lastReq.CustomInstructions)
	assert.Equal(t, "interior redesign", gen.lastReq.DesignType)

	// The upload temp file is removed after handling.
	_, err := os.Stat(gen.lastReq.ImagePath)
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyzeImageKeepsUploadExtension(t *testing.T) {
	gen := &stubGenerator{analysis: &design.AnalysisResult{}}
	h := &Handler{Generator: gen}

	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, uploadRequestNamed(t, "/analyze-image", "Room Photo.JPG", map[string]string{
		"design_style": "modern",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasSuffix(gen.lastReq.ImagePath, ".jpg"),
		"temp file should carry the upload's extension, got %s", gen.lastReq.ImagePath)
}

func TestUploadExt(t *testing.T) {
	assert.Equal(t, ".jpg", uploadExt("room.jpg"))
	assert.Equal(t, ".jpeg", uploadExt("ROOM.JPEG"))
	assert.Equal(t, ".png", uploadExt("room"))
	assert.Equal(t, ".png", uploadExt("room.bmp"))
}

func TestAnalyzeImageMissingStyle(t *testing.T) {
	h := &Handler{Generator: &stubGenerator{}}
	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, uploadRequest(t, "/analyze-image", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "design_style")
}

func TestAnalyzeImageMissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("design_style", "modern"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/analyze-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	h := &Handler{Generator: &stubGenerator{}}
	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "file")
}

func TestGenerateRealProductsEndpoint(t *testing.T) {
	gen := &stubGenerator{result: &pipeline.Result{
		SessionID:   "s1",
		Pathway:     pipeline.PathwayRealProducts,
		FinalDesign: "/tmp/final_design.png",
	}}
	h := &Handler{Generator: gen}

	rec := httptest.NewRecorder()
	h.GenerateRealProducts(rec, uploadRequest(t, "/generate-real-products", map[string]string{
		"design_style": "industrial",
		"design_type":  "full renovation",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "industrial", gen.lastReq.DesignStyle)
	assert.Equal(t, "full renovation", gen.lastReq.DesignType)
}

func TestGenerateStandardEndpointError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("edit API unavailable")}
	h := &Handler{Generator: gen}

	rec := httptest.NewRecorder()
	h.GenerateStandard(rec, uploadRequest(t, "/generate-standard", map[string]string{
		"design_style": "modern",
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "edit API unavailable", resp.Error)
}

func TestListSessions(t *testing.T) {
	h := &Handler{Sessions: &stubIndex{records: []session.Record{
		{ID: "s2", Status: "completed"},
		{ID: "s1", Status: "failed"},
	}}}

	rec := httptest.NewRecorder()
	h.ListSessions(rec, httptest.NewRequest(http.MethodGet, "/sessions?limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "2 sessions")
}

func TestListSessionsUnavailable(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.ListSessions(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetSession(t *testing.T) {
	h := &Handler{Sessions: &stubIndex{records: []session.Record{
		{ID: "s1", Pathway: "real_products", Status: "completed"},
	}}}
	srv := New(":0", h)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sessions/s1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
}

func TestGetSessionNotFound(t *testing.T) {
	h := &Handler{Sessions: &stubIndex{}}
	srv := New(":0", h)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sessions/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var envelope Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
}

func TestRoutes(t *testing.T) {
	gen := &stubGenerator{analysis: &design.AnalysisResult{}}
	srv := New(":0", &Handler{Generator: gen, OutputDir: t.TempDir()})

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
