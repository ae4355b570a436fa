// Package composite assembles the base room photo and product thumbnails
// into a single canvas for the image-edit model.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"github.com/revibe/designgen/internal/design"
)

const productsPerRow = 3

// Options control composite sizing. Fast mode trades resolution for speed.
type Options struct {
	FastMode bool
}

func (o Options) maxBaseEdge() int {
	if o.FastMode {
		return 768
	}
	return 1024
}

func (o Options) cellSize() int {
	if o.FastMode {
		return 150
	}
	return 200
}

// Placement records where one product thumbnail landed on the canvas.
type Placement struct {
	Product design.Product
	Rect    image.Rectangle
}

// Layout is the built composite: the output file plus the placement table.
type Layout struct {
	Path       string
	Width      int
	Height     int
	Placements []Placement
}

// Build composes the base image (left) with a grid of product thumbnails
// (right) and writes a PNG into outDir. Products are grouped by type in
// first-seen order; each thumbnail is aspect-fit and centered in its cell.
// Pure function of its inputs: identical inputs and ordering produce
// byte-identical output.
func Build(basePath string, products []design.Product, outDir string, opts Options) (*Layout, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("no products to compose")
	}

	base, err := loadImage(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load base image: %w", err)
	}
	base = ScaleToFit(base, opts.maxBaseEdge())
	baseW := base.Bounds().Dx()
	baseH := base.Bounds().Dy()

	ordered := groupByType(products)
	cell := opts.cellSize()
	rows := (len(ordered) + productsPerRow - 1) / productsPerRow

	gridW := cell * productsPerRow
	gridH := cell * rows
	canvasW := baseW + gridW
	canvasH := baseH
	if gridH > canvasH {
		canvasH = gridH
	}

	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// Base image is vertically centered when the grid is taller.
	baseY := (canvasH - baseH) / 2
	if baseY < 0 {
		baseY = 0
	}
	draw.Draw(canvas, image.Rect(0, baseY, baseW, baseY+baseH), base, base.Bounds().Min, draw.Src)

	layout := &Layout{Width: canvasW, Height: canvasH}
	for i, product := range ordered {
		thumb, err := loadImage(product.ImagePath)
		if err != nil {
			log.Warn().Err(err).Str("product", product.Name).Msg("skipping unreadable product image")
			continue
		}

		row := i / productsPerRow
		col := i % productsPerRow
		cellX := baseW + col*cell
		cellY := row * cell

		fitted := ScaleToFit(thumb, cell)
		w := fitted.Bounds().Dx()
		h := fitted.Bounds().Dy()
		x := cellX + (cell-w)/2
		y := cellY + (cell-h)/2

		rect := image.Rect(x, y, x+w, y+h)
		draw.Draw(canvas, rect, fitted, fitted.Bounds().Min, draw.Src)
		layout.Placements = append(layout.Placements, Placement{Product: product, Rect: rect})
	}

	if len(layout.Placements) == 0 {
		return nil, fmt.Errorf("no product images could be placed")
	}

	final := image.Image(canvas)
	if opts.FastMode {
		final = ScaleToFit(canvas, 1024)
		layout.Width = final.Bounds().Dx()
		layout.Height = final.Bounds().Dy()
	}

	path := filepath.Join(outDir, "composite_layout.png")
	if err := WritePNG(path, final); err != nil {
		return nil, err
	}
	layout.Path = path

	log.Info().
		Int("width", layout.Width).
		Int("height", layout.Height).
		Int("products", len(layout.Placements)).
		Str("path", path).
		Msg("composite layout created")
	return layout, nil
}

// groupByType orders products so that products of the same type sit next to
// each other, preserving first-seen type order and per-type input order.
func groupByType(products []design.Product) []design.Product {
	byType := make(map[string][]design.Product)
	var typeOrder []string
	for _, p := range products {
		if _, seen := byType[p.ProductType]; !seen {
			typeOrder = append(typeOrder, p.ProductType)
		}
		byType[p.ProductType] = append(byType[p.ProductType], p)
	}

	out := make([]design.Product, 0, len(products))
	for _, t := range typeOrder {
		out = append(out, byType[t]...)
	}
	return out
}

// ScaleToFit scales img down so its long edge is at most maxEdge, preserving
// aspect ratio. Images already within the bound are returned unchanged.
func ScaleToFit(img image.Image, maxEdge int) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	newW, newH := fitWithin(w, h, maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// fitWithin computes the largest dimensions with the same aspect ratio whose
// long edge equals maxEdge.
func fitWithin(w, h, maxEdge int) (int, int) {
	if w >= h {
		newH := h * maxEdge / w
		if newH < 1 {
			newH = 1
		}
		return maxEdge, newH
	}
	newW := w * maxEdge / h
	if newW < 1 {
		newW = 1
	}
	return newW, maxEdge
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
