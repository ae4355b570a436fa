package composite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	// Register decoders for the formats the shopping thumbnails and user
	// uploads arrive in.
	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
)

// Load decodes an image file. JPEG, PNG and GIF are supported.
func Load(path string) (image.Image, error) {
	return loadImage(path)
}

// Letterbox fits img into a size x size white canvas, preserving aspect
// ratio and centering. The image-edit API requires exact square input.
func Letterbox(img image.Image, size int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	newW, newH := fitWithin(w, h, size)

	x := (size - newW) / 2
	y := (size - newH) / 2
	dst := image.Rect(x, y, x+newW, y+newH)
	xdraw.CatmullRom.Scale(canvas, dst, img, img.Bounds(), xdraw.Over, nil)
	return canvas
}

// WritePNG saves img as a PNG file.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
