package shopping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/design"
)

const (
	maxWorkers          = 8
	alternativesPerType = 3
)

// ErrNoProducts is returned when the fan-out finishes without a single
// image-bearing product across all types.
var ErrNoProducts = errors.New("no products with images found")

// EarlyExitThreshold computes the product count at which the fan-out stops
// accumulating: 70% of (types x 3 alternatives), never below 3.
func EarlyExitThreshold(numTypes int) int {
	target := int(math.Round(0.7 * float64(numTypes) * alternativesPerType))
	if target < 3 {
		return 3
	}
	return target
}

// Searcher fans product-type searches out across a bounded worker pool.
type Searcher struct {
	client     *Client
	downloader *ImageDownloader
	workers    int
}

// NewSearcher creates a Searcher. workers is capped at 8; zero means the cap.
func NewSearcher(client *Client, downloader *ImageDownloader, workers int) *Searcher {
	if workers <= 0 || workers > maxWorkers {
		workers = maxWorkers
	}
	return &Searcher{client: client, downloader: downloader, workers: workers}
}

// FindRequest carries the inputs of one fan-out invocation.
type FindRequest struct {
	Recommendations []design.Recommendation
	Style           string
	Colors          []string
	Room            design.RoomAnalysis
	ImageDir        string // where downloaded thumbnails are written
	PerTypeLimit    int    // image-bearing results kept per type, default 3
	MaxResults      int    // per-query result limit, default 10
}

// FindProducts searches all recommended product types in parallel and
// returns the accumulated image-bearing products. Accumulation stops once
// the early-exit threshold is reached; already-dispatched searches finish in
// the background and their results are discarded. A failed type yields zero
// products and never aborts the batch. Returns ErrNoProducts only when every
// type came back empty.
func (s *Searcher) FindProducts(ctx context.Context, req FindRequest) ([]design.Product, error) {
	if len(req.Recommendations) == 0 {
		return nil, fmt.Errorf("no product types to search")
	}
	if req.PerTypeLimit <= 0 {
		req.PerTypeLimit = alternativesPerType
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}

	threshold := EarlyExitThreshold(len(req.Recommendations))
	workers := s.workers
	if len(req.Recommendations) < workers {
		workers = len(req.Recommendations)
	}

	log.Info().
		Int("types", len(req.Recommendations)).
		Int("workers", workers).
		Int("threshold", threshold).
		Msg("starting parallel product search")

	jobs := make(chan design.Recommendation, len(req.Recommendations))
	// Buffered so late-finishing workers never block after the coordinator
	// stops consuming.
	results := make(chan []design.Product, len(req.Recommendations))
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				// Cooperative cancellation: skip work not yet started once
				// the threshold has tripped.
				select {
				case <-stop:
					return
				case <-ctx.Done():
					return
				default:
				}
				results <- s.searchOneType(ctx, rec, req)
			}
		}()
	}

	for _, rec := range req.Recommendations {
		jobs <- rec
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var accumulated []design.Product
	stopped := false
	for batch := range results {
		if stopped {
			continue // drain abandoned results
		}
		accumulated = append(accumulated, batch...)
		if len(accumulated) >= threshold {
			log.Info().Int("products", len(accumulated)).Int("threshold", threshold).
				Msg("early exit threshold reached, abandoning in-flight searches")
			close(stop)
			stopped = true
		}
	}
	if !stopped {
		close(stop)
	}

	if len(accumulated) == 0 {
		return nil, ErrNoProducts
	}

	log.Info().Int("products", len(accumulated)).Msg("product search completed")
	return accumulated, nil
}

// searchOneType runs up to three query variations for one product type and
// keeps up to PerTypeLimit results that have a downloadable image. Errors
// are logged and reduce the yield, never propagate.
func (s *Searcher) searchOneType(ctx context.Context, rec design.Recommendation, req FindRequest) []design.Product {
	var kept []design.Product
	for _, query := range queryVariations(rec, req.Style, req.Colors, req.Room) {
		found, err := s.client.Search(ctx, query, SearchOpts{MaxResults: req.MaxResults, SortBy: "popularity"})
		if err != nil {
			log.Warn().Err(err).Str("type", rec.Type).Str("query", query).Msg("product search failed")
			continue
		}

		for _, product := range found {
			if len(kept) >= req.PerTypeLimit {
				break
			}
			if product.ThumbnailURL == "" {
				continue
			}
			name := fmt.Sprintf("%s_%d_%s", rec.Type, len(kept)+1, product.Name)
			path, err := s.downloader.DownloadToFile(ctx, product.ThumbnailURL, name, req.ImageDir)
			if err != nil {
				log.Warn().Err(err).Str("product", product.Name).Msg("failed to download product image")
				continue
			}
			product.ImagePath = path
			product.ProductType = rec.Type
			product.Area = rec.Area
			kept = append(kept, product)
		}
		if len(kept) >= req.PerTypeLimit {
			break
		}
	}

	if len(kept) == 0 {
		log.Warn().Str("type", rec.Type).Msg("no image-bearing products for type")
	}
	return kept
}
