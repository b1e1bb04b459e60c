// Package media handles user-supplied images.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	MaxImageBytes = 5 << 20
	// MaxImagePixels bounds the decoded size; a small compressed file can
	// claim huge dimensions.
	MaxImagePixels = 40_000_000
	MaxImageWidth  = 1080
	jpegQuality    = 80
)

var (
	ErrImageTooLarge  = errors.New("image exceeds 5 MiB")
	ErrImageTooManyPx = errors.New("image exceeds 40 megapixels")
	ErrInvalidImage   = errors.New("image could not be decoded")
)

// NormalizeImage accepts a data URL or bare base64 image, scales it down to
// MaxImageWidth and returns it re-encoded as a JPEG data URL.
func NormalizeImage(encoded string) (string, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return "", ErrInvalidImage
		}
		payload = payload[comma+1:]
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return "", ErrImageTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(raw) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	if err := checkDimensions(raw); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// checkDimensions reads only the image header.
func checkDimensions(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return ErrImageTooManyPx
	}
	return nil
}
