package thumbs

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"dlna-server/internal/logging"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Decoded cover art is bounded on both axes and in total pixels; 20M pixels
// is about 80MB as RGBA.
const (
	MaxImageDimension = 4096
	MaxImagePixels    = 20_000_000
)

// decodeHeadroom is how far past maxPixels a header may claim before the
// image is refused without decoding.
const decodeHeadroom = 8

var ErrImageTooLarge = errors.New("image too large to decode")

// Dimensions reads an image header without decoding pixels.
func Dimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// fitWithin scales w x h down, keeping the aspect ratio, until neither side
// exceeds maxDim and the area does not exceed maxPixels.
func fitWithin(w, h, maxDim, maxPixels int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	scale := 1.0
	if long := max(w, h); long > maxDim {
		scale = float64(maxDim) / float64(long)
	}
	if area := float64(w) * float64(h) * scale * scale; area > float64(maxPixels) {
		scale *= math.Sqrt(float64(maxPixels) / area)
	}
	if scale >= 1 {
		return w, h
	}
	return max(int(float64(w)*scale), 1), max(int(float64(h)*scale), 1)
}

// LoadConstrained decodes an image with EXIF orientation applied and
// downscales it to fit maxDimension and maxPixels.
func LoadConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	if w, h, err := Dimensions(path); err == nil && int64(w)*int64(h) > int64(maxPixels)*decodeHeadroom {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrImageTooLarge, path, w, h)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}

	logging.Debug("Downscaling %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), w, h)
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}
