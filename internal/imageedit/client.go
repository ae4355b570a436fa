// Package imageedit submits composites to the hosted image-edit endpoint and
// normalizes the response into a local PNG.
package imageedit

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/composite"
)

const (
	defaultBaseURL = "https://api.openai.com"
	editModel      = "gpt-image-1"
	editSize       = 1024
)

// overlayPrompt instructs the model to move products from the grid half of
// the composite into the room half without touching room geometry.
var overlayPrompt = strings.TrimSpace(dedent.Dedent(`
	Overlay the product images from the right side into the room on the left side.

	Rules:
	- Keep the original room (left part of image) EXACTLY as is.
	- Don't change dimensions, furniture, or camera position.
	- Place products exactly as they appear in the product images.
	- Do NOT alter products: do not change colors, shapes, or textures of products and original room.
	- Choose a few products, as many as look good together.
	- Place them in logical locations within the room.
`))

// ClientOpts configures the image-edit client.
type ClientOpts struct {
	BaseURL string
	APIKey  string
}

// Client calls the hosted images/edits endpoint.
type Client struct {
	httpClient *resty.Client
	// downloadClient fetches result URLs, which point at a storage host
	// outside the API base URL and need no auth token.
	downloadClient *resty.Client
}

// NewClient creates an image-edit client.
func NewClient(opts ClientOpts) *Client {
	baseURL := defaultBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(opts.APIKey).
			SetTimeout(120 * time.Second),
		downloadClient: resty.New().
			SetTimeout(60 * time.Second),
	}
}

// EditOpts tune one edit request. Fast mode requests low input fidelity.
type EditOpts struct {
	FastMode bool
	// Prompt overrides the default product-overlay instruction.
	Prompt string
}

type editResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Overlay letterboxes the composite to the exact square size the endpoint
// requires, submits it with the overlay instruction, and writes the returned
// image (URL or inline base64) as a PNG under outDir. Any non-2xx response
// or missing data field is a terminal error; there are no retries.
func (c *Client) Overlay(ctx context.Context, compositePath, outDir string, opts EditOpts) (string, error) {
	img, err := composite.Load(compositePath)
	if err != nil {
		return "", fmt.Errorf("failed to load composite: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, composite.Letterbox(img, editSize)); err != nil {
		return "", fmt.Errorf("failed to encode prepared image: %w", err)
	}

	fidelity := "high"
	if opts.FastMode {
		fidelity = "low"
	}
	prompt := opts.Prompt
	if prompt == "" {
		prompt = overlayPrompt
	}

	result := &editResponse{}
	resp, err := c.httpClient.NewRequest().
		SetContext(ctx).
		SetResult(result).
		SetFileReader("image", "composite.png", bytes.NewReader(buf.Bytes())).
		SetFormData(map[string]string{
			"prompt":         prompt,
			"n":              "1",
			"size":           fmt.Sprintf("%dx%d", editSize, editSize),
			"model":          editModel,
			"input_fidelity": fidelity,
		}).
		Post("/v1/images/edits")
	if err != nil {
		return "", fmt.Errorf("image edit request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("image edit API error: status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(result.Data) == 0 {
		return "", fmt.Errorf("no image data in edit response")
	}

	outPath := filepath.Join(outDir, "final_design.png")
	item := result.Data[0]
	switch {
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 image: %w", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write final image: %w", err)
		}
	case item.URL != "":
		if err := c.downloadTo(ctx, item.URL, outPath); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("edit response carries neither url nor b64_json")
	}

	log.Info().Str("path", outPath).Str("fidelity", fidelity).Msg("image edit completed")
	return outPath, nil
}

func (c *Client) downloadTo(ctx context.Context, url, outPath string) error {
	resp, err := c.downloadClient.NewRequest().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to download edited image: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to download edited image: status %d", resp.StatusCode())
	}
	if err := os.WriteFile(outPath, resp.Body(), 0644); err != nil {
		return fmt.Errorf("failed to write final image: %w", err)
	}
	return nil
}
