package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned for data URIs that are not a supported base64 image.
var ErrInvalidImage = errors.New("invalid image")

// ErrImageTooLarge is returned when the declared dimensions exceed the pixel budget.
var ErrImageTooLarge = errors.New("image too large")

// Image is a decoded upload ready for storage.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// IsDataURI reports whether s looks like an inline image payload.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(s string) (*Image, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, ErrInvalidImage
	}
	contentType, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return nil, ErrInvalidImage
	}
	contentType = strings.ToLower(contentType)
	ext, ok := extByType[contentType]
	if !ok {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// Fit downscales img to fit a maxSide x maxSide box, keeping the aspect ratio.
// Images declaring more than maxPixels pixels are rejected before any pixel data is decoded.
// Images already inside the box, and formats imaging cannot re-encode, are returned unchanged.
func Fit(img *Image, maxSide, maxPixels int) (*Image, error) {
	if img.Ext == ".webp" {
		return img, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, ErrImageTooLarge
	}
	if maxSide <= 0 || img.Ext == ".gif" || (cfg.Width <= maxSide && cfg.Height <= maxSide) {
		return img, nil
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}
	format, err := imaging.FormatFromExtension(img.Ext)
	if err != nil {
		return nil, ErrInvalidImage
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(src, maxSide, maxSide, imaging.Lanczos), format); err != nil {
		return nil, err
	}
	return &Image{Data: buf.Bytes(), ContentType: img.ContentType, Ext: img.Ext}, nil
}
