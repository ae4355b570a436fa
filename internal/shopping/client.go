// Package shopping searches Google Shopping through SerpAPI and downloads
// product thumbnails for composite assembly.
package shopping

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/design"
)

const serpAPIBaseURL = "https://serpapi.com"

// ClientOpts configures a SerpAPI client.
type ClientOpts struct {
	BaseURL string
	APIKey  string
}

// Client is a SerpAPI Google Shopping client.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient creates a SerpAPI client.
func NewClient(opts ClientOpts) *Client {
	baseURL := serpAPIBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &Client{
		apiKey: opts.APIKey,
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second),
	}
}

// SearchOpts tunes a single shopping query.
type SearchOpts struct {
	MaxResults int
	PriceMin   float64
	PriceMax   float64
	SortBy     string
}

type shoppingResponse struct {
	ShoppingResults []shoppingItem `json:"shopping_results"`
}

type shoppingItem struct {
	Title       string   `json:"title"`
	ProductLink string   `json:"product_link"`
	Price       string   `json:"price"`
	Rating      *float64 `json:"rating"`
	Reviews     *int     `json:"reviews"`
	Thumbnail   string   `json:"thumbnail"`
	Source      string   `json:"source"`
}

// Search runs one Google Shopping query and parses the results. Items
// missing a title or product link are dropped.
func (c *Client) Search(ctx context.Context, query string, opts SearchOpts) ([]design.Product, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 15
	}

	result := &shoppingResponse{}
	req := c.httpClient.NewRequest().
		SetContext(ctx).
		SetResult(result).
		SetQueryParams(map[string]string{
			"api_key": c.apiKey,
			"engine":  "google_shopping",
			"q":       query,
			"num":     strconv.Itoa(maxResults),
			"gl":      "us",
			"hl":      "en",
		})
	if opts.PriceMin > 0 {
		req.SetQueryParam("ppr_min", strconv.FormatFloat(opts.PriceMin, 'f', -1, 64))
	}
	if opts.PriceMax > 0 {
		req.SetQueryParam("ppr_max", strconv.FormatFloat(opts.PriceMax, 'f', -1, 64))
	}
	if opts.SortBy != "" {
		req.SetQueryParam("sort_by", opts.SortBy)
	}

	_, err := handleError(req.Get("/search"))
	if err != nil {
		return nil, err
	}

	products := make([]design.Product, 0, len(result.ShoppingResults))
	for i, item := range result.ShoppingResults {
		if i >= maxResults {
			break
		}
		if item.Title == "" || item.ProductLink == "" {
			continue
		}
		products = append(products, design.Product{
			Name:         item.Title,
			URL:          item.ProductLink,
			Price:        parsePrice(item.Price),
			Rating:       item.Rating,
			Reviews:      item.Reviews,
			ThumbnailURL: item.Thumbnail,
			Retailer:     retailerOrDefault(item.Source),
		})
	}

	log.Debug().Str("query", query).Int("results", len(products)).Msg("shopping search completed")
	return products, nil
}

func retailerOrDefault(source string) string {
	if source == "" {
		return "Unknown"
	}
	return source
}

// parsePrice converts a retailer price string like "$1,299.00" to a float.
// Returns nil when the string carries no parseable number.
func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	clean := strings.TrimSpace(strings.NewReplacer("$", "", ",", "", "from", "").Replace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return &v
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
