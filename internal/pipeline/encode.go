package pipeline

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/revibe/designgen/internal/composite"
)

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// mimeTypeFor guesses a MIME type from the file extension, defaulting to
// JPEG like the vision endpoint expects.
func mimeTypeFor(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "image/jpeg"
}

// encodeForAnalysis loads the image bytes submitted to the vision model. In
// fast mode the image is downscaled to at most 1024px on its long edge and
// recompressed as JPEG to cut upload and token cost; otherwise the original
// bytes are sent untouched.
func encodeForAnalysis(path string, fastMode bool) ([]byte, string, error) {
	if !fastMode {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image: %w", err)
		}
		return data, mimeTypeFor(path), nil
	}

	img, err := composite.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, composite.ScaleToFit(img, 1024), &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("failed to recompress image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
