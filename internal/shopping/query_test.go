package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revibe/designgen/internal/design"
)

func TestQueryVariations(t *testing.T) {
	rec := design.Recommendation{
		Type:        "throw pillows",
		Description: "Velvet and linen pillows in warm tones",
	}
	room := design.RoomAnalysis{Mood: "cozy"}

	queries := queryVariations(rec, "modern", []string{"terracotta", "cream", "sage"}, room)
	require.Len(t, queries, 3)

	assert.Equal(t, "modern throw pillows decorative cushions", queries[0])
	// Only the first two palette colors are used.
	assert.Equal(t, "modern throw pillows decorative cushions terracotta cream", queries[1])
	// Descriptor keywords from the text win over the room mood.
	assert.Equal(t, "modern throw pillows linen velvet", queries[2])
}

func TestQueryVariationsMoodFallback(t *testing.T) {
	rec := design.Recommendation{Type: "wall art", Description: "Large statement piece"}
	room := design.RoomAnalysis{Mood: "serene"}

	queries := queryVariations(rec, "minimalist", nil, room)
	require.Len(t, queries, 2)
	assert.Equal(t, "minimalist wall art wall hanging decor", queries[0])
	assert.Equal(t, "minimalist wall art serene", queries[1])
}

func TestQueryVariationsUnknownType(t *testing.T) {
	rec := design.Recommendation{Type: "accent chair"}
	queries := queryVariations(rec, "industrial", nil, design.RoomAnalysis{})
	require.Len(t, queries, 1)
	assert.Equal(t, "industrial accent chair", queries[0])
}

func TestQueryVariationsEmptyType(t *testing.T) {
	assert.Nil(t, queryVariations(design.Recommendation{}, "modern", nil, design.RoomAnalysis{}))
}

func TestQueryVariationsDeduped(t *testing.T) {
	// No colors, no keywords, no mood: every variation collapses to the base.
	rec := design.Recommendation{Type: "bookshelf"}
	queries := queryVariations(rec, "scandinavian", nil, design.RoomAnalysis{})
	require.Len(t, queries, 1)
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, "rattan jute", extractKeywords("A rattan basket with jute rope and brass handles"))
	assert.Equal(t, "", extractKeywords("Something plain"))
}
