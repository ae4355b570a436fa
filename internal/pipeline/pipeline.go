// Package pipeline orchestrates the design generation pathways: vision
// analysis, product search, composite assembly and image editing.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/composite"
	"github.com/revibe/designgen/internal/design"
	"github.com/revibe/designgen/internal/imageedit"
	"github.com/revibe/designgen/internal/session"
	"github.com/revibe/designgen/internal/shopping"
	"github.com/revibe/designgen/internal/vision"
)

const (
	maxTypesFast     = 3
	maxTypesStandard = 12

	// Pathway names recorded in the session index.
	PathwayStandard     = "standard"
	PathwayRealProducts = "real_products"
)

// EditClient is the image-edit stage dependency.
type EditClient interface {
	Overlay(ctx context.Context, compositePath, outDir string, opts imageedit.EditOpts) (string, error)
}

// Generator runs the design generation pathways. All stages are sequential
// within one run except the product search fan-out.
type Generator struct {
	analyzer vision.Analyzer
	searcher *shopping.Searcher
	editor   EditClient
	store    *session.Store // optional
	baseDir  string
	fastMode bool
}

// New creates a Generator. store may be nil when no session index is kept.
func New(analyzer vision.Analyzer, searcher *shopping.Searcher, editor EditClient, store *session.Store, baseDir string, fastMode bool) *Generator {
	return &Generator{
		analyzer: analyzer,
		searcher: searcher,
		editor:   editor,
		store:    store,
		baseDir:  baseDir,
		fastMode: fastMode,
	}
}

// Request is one design generation request.
type Request struct {
	ImagePath          string
	DesignStyle        string
	CustomInstructions string
	DesignType         string
	SessionID          string // empty means timestamp-derived
}

// Result is the populated outcome of a successful pipeline run. The caller
// receives either a Result or an error, never an empty success.
type Result struct {
	SessionID     string                 `json:"session_id"`
	SessionPath   string                 `json:"session_path"`
	OriginalImage string                 `json:"original_image"`
	FinalDesign   string                 `json:"final_design"`
	Pathway       string                 `json:"pathway"`
	DesignStyle   string                 `json:"design_style"`
	Products      []design.Product       `json:"products_info,omitempty"`
	ProductsUsed  int                    `json:"products_used,omitempty"`
	Analysis      *design.AnalysisResult `json:"analysis_results"`
	DurationsMS   map[string]int64       `json:"step_durations_ms"`
}

// Analyze runs the vision analysis stage alone.
func (g *Generator) Analyze(ctx context.Context, req Request) (*design.AnalysisResult, error) {
	data, mimeType, err := encodeForAnalysis(req.ImagePath, g.fastMode)
	if err != nil {
		return nil, err
	}
	return g.analyzer.Analyze(ctx, vision.Request{
		ImageData:          data,
		MimeType:           mimeType,
		DesignStyle:        req.DesignStyle,
		CustomInstructions: req.CustomInstructions,
		DesignType:         req.DesignType,
	})
}

// GenerateRealProducts runs the real products pathway: analyze, search for
// real products in parallel, build the composite, and have the image-edit
// model overlay the products onto the room. Analysis parse failures are
// terminal here.
func (g *Generator) GenerateRealProducts(ctx context.Context, req Request) (*Result, error) {
	sess, err := session.New(g.baseDir, req.SessionID)
	if err != nil {
		return nil, err
	}
	tracker := NewTracker()

	var analysis *design.AnalysisResult
	err = tracker.Track("vision_analysis", func() error {
		var err error
		analysis, err = g.Analyze(ctx, req)
		return err
	})
	if err != nil {
		return nil, g.fail(sess, PathwayRealProducts, req.DesignStyle, tracker, fmt.Errorf("image analysis failed: %w", err))
	}
	if len(analysis.Recommendations) == 0 {
		return nil, g.fail(sess, PathwayRealProducts, req.DesignStyle, tracker, errors.New("analysis produced no recommendations"))
	}
	g.saveAnalysis(sess, analysis)

	recs := truncateRecommendations(analysis.Recommendations, g.fastMode)

	var products []design.Product
	err = tracker.Track("product_search", func() error {
		var err error
		products, err = g.searcher.FindProducts(ctx, shopping.FindRequest{
			Recommendations: recs,
			Style:           analysis.Style(req.DesignStyle),
			Colors:          analysis.PrimaryColors(),
			Room:            analysis.RoomAnalysis,
			ImageDir:        sess.Dir(session.FileTypeProducts),
		})
		return err
	})
	if err != nil {
		return nil, g.fail(sess, PathwayRealProducts, req.DesignStyle, tracker, err)
	}

	var layout *composite.Layout
	err = tracker.Track("composite_creation", func() error {
		var err error
		layout, err = composite.Build(req.ImagePath, products, sess.Dir(session.FileTypeComposites), composite.Options{FastMode: g.fastMode})
		return err
	})
	if err != nil {
		return nil, g.fail(sess, PathwayRealProducts, req.DesignStyle, tracker, err)
	}

	var finalPath string
	err = tracker.Track("image_generation", func() error {
		var err error
		finalPath, err = g.editor.Overlay(ctx, layout.Path, sess.Dir(session.FileTypeFinalDesigns), imageedit.EditOpts{FastMode: g.fastMode})
		return err
	})
	if err != nil {
		return nil, g.fail(sess, PathwayRealProducts, req.DesignStyle, tracker, err)
	}

	g.finish(sess, PathwayRealProducts, req.DesignStyle, tracker, len(products))

	if manifest, err := json.MarshalIndent(products, "", "  "); err == nil {
		sess.SaveBytes(session.FileTypeAnalysis, "products_info.json", manifest)
	}

	return &Result{
		SessionID:     sess.ID,
		SessionPath:   sess.Path,
		OriginalImage: req.ImagePath,
		FinalDesign:   finalPath,
		Pathway:       PathwayRealProducts,
		DesignStyle:   analysis.Style(req.DesignStyle),
		Products:      products,
		ProductsUsed:  len(products),
		Analysis:      analysis,
		DurationsMS:   stepDurations(tracker),
	}, nil
}

// GenerateStandard runs the standard pathway: analyze, then ask the
// image-edit model for an AI-imagined transformation of the room. On an
// analysis parse failure this pathway degrades to a placeholder plan
// instead of failing.
func (g *Generator) GenerateStandard(ctx context.Context, req Request) (*Result, error) {
	sess, err := session.New(g.baseDir, req.SessionID)
	if err != nil {
		return nil, err
	}
	tracker := NewTracker()

	var analysis *design.AnalysisResult
	err = tracker.Track("vision_analysis", func() error {
		var err error
		analysis, err = g.Analyze(ctx, req)
		return err
	})
	if err != nil {
		var parseErr *vision.ParseError
		if !errors.As(err, &parseErr) {
			return nil, g.fail(sess, PathwayStandard, req.DesignStyle, tracker, fmt.Errorf("image analysis failed: %w", err))
		}
		log.Warn().Err(err).Msg("analysis response unparseable, using placeholder plan")
		analysis = vision.Placeholder(req.DesignStyle)
	}
	g.saveAnalysis(sess, analysis)

	// The standard pathway letterboxes the original photo, not a composite.
	var finalPath string
	err = tracker.Track("image_generation", func() error {
		img, err := composite.Load(req.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}
		preparedPath := filepath.Join(sess.Dir(session.FileTypeComposites), "prepared.png")
		if err := composite.WritePNG(preparedPath, composite.Letterbox(img, 1024)); err != nil {
			return err
		}
		finalPath, err = g.editor.Overlay(ctx, preparedPath, sess.Dir(session.FileTypeFinalDesigns), imageedit.EditOpts{
			FastMode: g.fastMode,
			Prompt:   transformPrompt(analysis, req.DesignStyle),
		})
		return err
	})
	if err != nil {
		return nil, g.fail(sess, PathwayStandard, req.DesignStyle, tracker, err)
	}

	g.finish(sess, PathwayStandard, req.DesignStyle, tracker, 0)

	return &Result{
		SessionID:     sess.ID,
		SessionPath:   sess.Path,
		OriginalImage: req.ImagePath,
		FinalDesign:   finalPath,
		Pathway:       PathwayStandard,
		DesignStyle:   analysis.Style(req.DesignStyle),
		Analysis:      analysis,
		DurationsMS:   stepDurations(tracker),
	}, nil
}

// transformPrompt builds the edit instruction for the standard pathway from
// the top recommendations, highest priority first.
func transformPrompt(analysis *design.AnalysisResult, fallbackStyle string) string {
	style := analysis.Style(fallbackStyle)

	var ordered []design.Recommendation
	for _, p := range []design.Priority{design.PriorityHigh, design.PriorityMedium, design.PriorityLow} {
		for _, rec := range analysis.Recommendations {
			if rec.Priority == p {
				ordered = append(ordered, rec)
			}
		}
	}

	var changes []string
	for _, rec := range ordered {
		desc := rec.Description
		if len(desc) > 60 {
			desc = desc[:60]
		}
		changes = append(changes, desc)
		if len(changes) == 3 {
			break
		}
	}

	prompt := fmt.Sprintf("Transform this room to %s style", style)
	if len(changes) > 0 {
		prompt += ": " + strings.Join(changes, "; ")
	} else {
		prompt += " with furniture changes, new decor, and styling updates"
	}
	prompt += ". Maintain room layout and camera angle."

	// Image edit endpoint rejects overlong prompts.
	if len(prompt) > 1000 {
		prompt = prompt[:950] + "..."
	}
	return prompt
}

// truncateRecommendations caps the number of product types searched: top 3
// in fast mode, top 12 otherwise (analysis order, which is priority order).
func truncateRecommendations(recs []design.Recommendation, fastMode bool) []design.Recommendation {
	limit := maxTypesStandard
	if fastMode {
		limit = maxTypesFast
	}
	if len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

func (g *Generator) saveAnalysis(sess *session.Session, analysis *design.AnalysisResult) {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return
	}
	if _, err := sess.SaveBytes(session.FileTypeAnalysis, "analysis_results.json", data); err != nil {
		log.Warn().Err(err).Msg("failed to save analysis results")
	}
}

// finish records a successful run: performance report, latest symlink and
// index row.
func (g *Generator) finish(sess *session.Session, pathway, style string, tracker *Tracker, productCount int) {
	if _, err := sess.SaveBytes(session.FileTypeDebug, "performance_report.json", tracker.Report()); err != nil {
		log.Warn().Err(err).Msg("failed to save performance report")
	}
	if err := sess.CreateLatestSymlink(); err != nil {
		log.Warn().Err(err).Msg("failed to update latest symlink")
	}
	g.index(sess, pathway, style, tracker, "completed", productCount, "")
}

// fail records a failed run in the index and returns the causing error.
func (g *Generator) fail(sess *session.Session, pathway, style string, tracker *Tracker, cause error) error {
	sess.SaveBytes(session.FileTypeDebug, "performance_report.json", tracker.Report())
	g.index(sess, pathway, style, tracker, "failed", 0, cause.Error())
	return cause
}

func (g *Generator) index(sess *session.Session, pathway, style string, tracker *Tracker, status string, productCount int, errMsg string) {
	if g.store == nil {
		return
	}
	rec := session.Record{
		ID:           sess.ID,
		Pathway:      pathway,
		DesignStyle:  style,
		Status:       status,
		ProductCount: productCount,
		DurationMS:   tracker.TotalDuration().Milliseconds(),
		ErrorMessage: errMsg,
	}
	if err := g.store.SaveSession(rec); err != nil {
		log.Warn().Err(err).Msg("failed to index session")
		return
	}
	for _, step := range tracker.Steps() {
		g.store.AddStep(session.StepRecord{
			SessionID:  sess.ID,
			Step:       step.Step,
			DurationMS: step.DurationMS,
			Success:    step.Success,
			Error:      step.Error,
		})
	}
}

func stepDurations(tracker *Tracker) map[string]int64 {
	out := make(map[string]int64, len(tracker.Steps()))
	for _, step := range tracker.Steps() {
		out[step.Step] = step.DurationMS
	}
	return out
}
