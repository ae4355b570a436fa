package shopping

import (
	"strings"

	"github.com/revibe/designgen/internal/design"
)

// productEnhancements maps common product types to extra search terms that
// consistently improve Google Shopping relevance.
var productEnhancements = map[string]string{
	"throw pillows": "decorative cushions",
	"floor lamp":    "lighting fixture",
	"wall art":      "wall hanging decor",
	"ceramic vases": "pottery decorative",
	"area rug":      "decorative carpet",
	"curtains":      "window treatments",
	"candles":       "decorative candles",
	"plants":        "indoor plants",
	"throw blanket": "textile decorative",
}

// descriptorKeywords are material/texture words worth carrying from a
// recommendation description into a search query.
var descriptorKeywords = []string{
	"rattan", "jute", "linen", "velvet", "macrame", "ceramic", "terracotta",
	"brass", "matte", "woven", "wool", "bamboo", "marble", "walnut", "oak",
}

// queryVariations derives up to three search queries for one product type by
// mixing in style, palette colors, room mood and keywords extracted from the
// recommendation text. The first variation is the primary query.
func queryVariations(rec design.Recommendation, style string, colors []string, room design.RoomAnalysis) []string {
	productType := strings.TrimSpace(rec.Type)
	if productType == "" {
		return nil
	}

	base := strings.TrimSpace(style + " " + productType)
	if enh, ok := productEnhancements[strings.ToLower(productType)]; ok {
		base += " " + enh
	}

	variations := []string{base}

	if len(colors) > 0 {
		colorTerms := strings.Join(colors[:min(2, len(colors))], " ")
		variations = append(variations, strings.TrimSpace(base+" "+colorTerms))
	}

	extra := extractKeywords(rec.Description)
	if extra == "" && room.Mood != "" {
		extra = room.Mood
	}
	if extra != "" {
		variations = append(variations, strings.TrimSpace(style+" "+productType+" "+extra))
	}

	if len(variations) > 3 {
		variations = variations[:3]
	}
	return dedupe(variations)
}

// extractKeywords picks up to two descriptor words from free-form
// recommendation text.
func extractKeywords(description string) string {
	lower := strings.ToLower(description)
	var found []string
	for _, kw := range descriptorKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
			if len(found) == 2 {
				break
			}
		}
	}
	return strings.Join(found, " ")
}

func dedupe(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
