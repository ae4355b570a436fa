package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revibe/designgen/internal/design"
)

func TestEarlyExitThreshold(t *testing.T) {
	assert.Equal(t, 3, EarlyExitThreshold(1))
	assert.Equal(t, 4, EarlyExitThreshold(2))
	assert.Equal(t, 6, EarlyExitThreshold(3))
	assert.Equal(t, 8, EarlyExitThreshold(4))
	assert.Equal(t, 25, EarlyExitThreshold(12))
}

// fakeShoppingServer serves both SerpAPI search responses and product
// thumbnails from the same listener.
func fakeShoppingServer(t *testing.T, resultsPerQuery int) *httptest.Server {
	t.Helper()
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/thumb.jpg" {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg"))
			return
		}
		items := make([]map[string]any, resultsPerQuery)
		for i := range items {
			items[i] = map[string]any{
				"title":        fmt.Sprintf("%s result %d", r.URL.Query().Get("q"), i+1),
				"product_link": fmt.Sprintf("https://example.com/p/%d", i+1),
				"price":        "$25.00",
				"thumbnail":    ts.URL + "/thumb.jpg",
				"source":       "TestMart",
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"shopping_results": items})
	}))
	return ts
}

func recommendations(types ...string) []design.Recommendation {
	recs := make([]design.Recommendation, len(types))
	for i, typ := range types {
		recs[i] = design.Recommendation{Area: "living room", Type: typ, Description: typ, Priority: design.PriorityHigh}
	}
	return recs
}

func TestFindProducts(t *testing.T) {
	ts := fakeShoppingServer(t, 5)
	defer ts.Close()

	searcher := NewSearcher(
		NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "k"}),
		NewImageDownloader(),
		4,
	)
	products, err := searcher.FindProducts(context.Background(), FindRequest{
		Recommendations: recommendations("sofa", "area rug"),
		Style:           "modern",
		ImageDir:        t.TempDir(),
	})
	require.NoError(t, err)

	// 2 types, threshold max(3, round(0.7*2*3)) = 4: both types land in full.
	assert.GreaterOrEqual(t, len(products), 4)
	for _, p := range products {
		assert.NotEmpty(t, p.ImagePath, "every accumulated product must have a local image")
		assert.NotEmpty(t, p.ProductType)
		assert.Equal(t, "living room", p.Area)
		assert.FileExists(t, p.ImagePath)
	}
}

func TestFindProductsEarlyExit(t *testing.T) {
	ts := fakeShoppingServer(t, 5)
	defer ts.Close()

	searcher := NewSearcher(
		NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "k"}),
		NewImageDownloader(),
		2,
	)
	products, err := searcher.FindProducts(context.Background(), FindRequest{
		Recommendations: recommendations("sofa", "area rug", "floor lamp", "wall art"),
		Style:           "modern",
		ImageDir:        t.TempDir(),
	})
	require.NoError(t, err)

	// 4 types at 3 kept each would give 12; the threshold of 8 trips after
	// the third batch, so the fourth is discarded even when it completes.
	threshold := EarlyExitThreshold(4)
	assert.Equal(t, 8, threshold)
	assert.GreaterOrEqual(t, len(products), threshold)
	assert.Less(t, len(products), 12)
}

func TestFindProductsThresholdStopsAccumulation(t *testing.T) {
	ts := fakeShoppingServer(t, 2)
	defer ts.Close()

	searcher := NewSearcher(
		NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "k"}),
		NewImageDownloader(),
		2,
	)
	products, err := searcher.FindProducts(context.Background(), FindRequest{
		Recommendations: recommendations("sofa", "area rug", "floor lamp", "wall art"),
		Style:           "modern",
		ImageDir:        t.TempDir(),
		PerTypeLimit:    2,
	})
	require.NoError(t, err)

	// Four types at two kept each: accumulation stops exactly when the
	// running total reaches the threshold of 8.
	assert.Equal(t, EarlyExitThreshold(4), len(products))
}

func TestFindProductsSkipsFailedTypes(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/thumb.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg"))
		case r.URL.Query().Get("q") == "modern sofa":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"shopping_results": []map[string]any{
				{"title": "Jute Rug", "product_link": "https://example.com/p/1", "thumbnail": ts.URL + "/thumb.jpg"},
			}})
		}
	}))
	defer ts.Close()

	searcher := NewSearcher(NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "k"}), NewImageDownloader(), 2)
	products, err := searcher.FindProducts(context.Background(), FindRequest{
		Recommendations: recommendations("sofa", "area rug"),
		Style:           "modern",
		ImageDir:        t.TempDir(),
	})
	require.NoError(t, err)

	// The failing type contributes nothing but never aborts the batch.
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.Equal(t, "area rug", p.ProductType)
	}
}

func TestFindProductsNoResults(t *testing.T) {
	ts := fakeShoppingServer(t, 0)
	defer ts.Close()

	searcher := NewSearcher(NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "k"}), NewImageDownloader(), 2)
	_, err := searcher.FindProducts(context.Background(), FindRequest{
		Recommendations: recommendations("sofa"),
		Style:           "modern",
		ImageDir:        t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestFindProductsNoTypes(t *testing.T) {
	searcher := NewSearcher(NewClient(ClientOpts{APIKey: "k"}), NewImageDownloader(), 2)
	_, err := searcher.FindProducts(context.Background(), FindRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoProducts)
}
