// Package vision analyzes room photos with hosted vision models and parses
// the structured design plan out of their free-form responses.
package vision

import (
	"context"
	"fmt"

	"github.com/revibe/designgen/internal/design"
)

// Request carries one image and the design brief for analysis.
type Request struct {
	ImageData          []byte
	MimeType           string
	DesignStyle        string
	CustomInstructions string
	DesignType         string
}

// Analyzer analyzes a room photo and returns a design transformation plan.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*design.AnalysisResult, error)
}

// ParseError indicates the model responded but no valid JSON could be
// extracted from the response text. Callers decide whether to fail hard or
// substitute a placeholder result.
type ParseError struct {
	Response string
	Err      error
}

func (e *ParseError) Error() string {
	resp := e.Response
	if len(resp) > 200 {
		resp = resp[:200] + "..."
	}
	return fmt.Sprintf("failed to parse analysis response: %v (response: %s)", e.Err, resp)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Placeholder returns a synthetic analysis used by the standard pathway when
// the model response could not be parsed. The real products pathway never
// uses this.
func Placeholder(style string) *design.AnalysisResult {
	if style == "" {
		style = "modern"
	}
	return &design.AnalysisResult{
		DesignConcept: design.DesignConcept{
			Style:                 style,
			ColorPalette:          []string{"neutral tones"},
			Materials:             []string{"wood", "textile"},
			OverallAssessment:     "Analysis unavailable, using generic transformation plan",
			TransformationConcept: fmt.Sprintf("General %s refresh with updated decor and styling", style),
		},
		Recommendations: []design.Recommendation{
			{
				Area:          "General",
				Type:          "decor accents",
				Description:   fmt.Sprintf("Cohesive %s decorative accents and styling updates", style),
				Priority:      design.PriorityHigh,
				EstimatedCost: "varies",
			},
		},
		ColorPalette: design.ColorPalette{Primary: []string{"neutral tones"}},
		Materials:    []string{"wood", "textile"},
	}
}
