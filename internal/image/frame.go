// Package image provides frame loading, saving and full-resolution compositing.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scroll-stitch/pkg/bitmap"

	_ "golang.org/x/image/tiff"
)

// Load decodes an image file into a top-down bitmap.
func Load(path string) (*bitmap.Bitmap, error) {
	return LoadWithOrigin(path, bitmap.TopDown)
}

// LoadWithOrigin decodes an image file whose rows are stored in the given order.
func LoadWithOrigin(path string, origin bitmap.Origin) (*bitmap.Bitmap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	b, err := bitmap.FromImage(img, origin)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filepath.Base(path), err)
	}
	return b, nil
}

// ListFrames returns the supported image files in dir, sorted by name.
// Capture tools name frames with zero-padded indices, so name order is
// presentation order.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every frame in dir in presentation order. A file that fails
// to decode is returned as a nil entry so frame indices stay aligned with
// file names; the stitcher skips nil frames.
func LoadDir(dir string, origin bitmap.Origin) ([]*bitmap.Bitmap, []error, error) {
	paths, err := ListFrames(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no frames found in %s", dir)
	}

	frames := make([]*bitmap.Bitmap, len(paths))
	var loadErrs []error
	for i, p := range paths {
		b, err := LoadWithOrigin(p, origin)
		if err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		frames[i] = b
	}
	return frames, loadErrs, nil
}

// SavePNG encodes b as a PNG file, creating parent directories as needed.
func SavePNG(path string, b *bitmap.Bitmap) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := png.Encode(file, b.RGBA()); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return file.Close()
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".tiff", ".tif", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
