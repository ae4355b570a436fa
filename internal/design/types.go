// Package design defines the records shared by the analysis, shopping and
// image generation stages.
package design

// Priority ranks a recommendation. Used for ordering and truncation only.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Recommendation is a single product suggestion from the vision analysis.
type Recommendation struct {
	Area          string   `json:"area"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Priority      Priority `json:"priority"`
	EstimatedCost string   `json:"estimatedCost"`
	Placement     string   `json:"placement,omitempty"`
}

// ColorPalette groups the palette colors suggested by the analysis.
type ColorPalette struct {
	Primary []string `json:"primary"`
	Accent  []string `json:"accent"`
	Neutral []string `json:"neutral"`
}

// DesignConcept describes the overall transformation plan.
type DesignConcept struct {
	Style                 string   `json:"style"`
	ColorPalette          []string `json:"colorPalette"`
	Materials             []string `json:"materials"`
	OverallAssessment     string   `json:"overallAssessment"`
	TransformationConcept string   `json:"transformationConcept"`
}

// RoomAnalysis carries room metadata extracted from the image, used to
// enrich shopping queries.
type RoomAnalysis struct {
	RoomType     string   `json:"roomType"`
	Mood         string   `json:"mood"`
	StyleDetails []string `json:"styleDetails"`
}

// AnalysisResult is the structured output of one vision analysis call.
// Immutable after creation.
type AnalysisResult struct {
	DesignConcept   DesignConcept    `json:"designConcept"`
	Recommendations []Recommendation `json:"recommendations"`
	ColorPalette    ColorPalette     `json:"colorPalette"`
	Materials       []string         `json:"materials"`
	Lighting        string           `json:"lighting,omitempty"`
	Styling         string           `json:"styling,omitempty"`
	RoomAnalysis    RoomAnalysis     `json:"roomAnalysis,omitempty"`
}

// Style returns the analysis style, falling back to the given default.
func (a *AnalysisResult) Style(fallback string) string {
	if a.DesignConcept.Style != "" {
		return a.DesignConcept.Style
	}
	return fallback
}

// PrimaryColors returns the primary palette colors.
func (a *AnalysisResult) PrimaryColors() []string {
	return a.ColorPalette.Primary
}

// Product is one shopping search hit. Price, Rating and Reviews are nil
// when the retailer does not report them.
type Product struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Price        *float64 `json:"price"`
	Rating       *float64 `json:"rating,omitempty"`
	Reviews      *int     `json:"reviews,omitempty"`
	ThumbnailURL string   `json:"image,omitempty"`
	Retailer     string   `json:"retailer"`
	// ImagePath is the locally downloaded thumbnail. Products without a
	// resolved ImagePath never reach the composite builder.
	ImagePath   string `json:"image_path,omitempty"`
	ProductType string `json:"product_type,omitempty"`
	Area        string `json:"area,omitempty"`
}
