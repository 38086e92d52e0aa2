// Package media stores uploaded recipe images on the local disk or in an
// S3 compatible bucket.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"

	"foodgram/config"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrInvalidImage is returned for payloads that are not a base64 data URI
// of a supported image.
var ErrInvalidImage = errors.New("invalid image")

// Images wider or taller than this are scaled down on upload.
const maxImageSide = 1920

// Upload limits, checked before the pixels are decoded.
const (
	MaxImageBytes  = 10 << 20
	maxImagePixels = 50_000_000
)

const imageDir = "recipes/images"

// Store keeps media objects addressed by a slash separated key.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public location of key.
	URL(key string) string
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.Root, cfg.URLPrefix), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
	}
}

// Image is a decoded upload ready to be stored.
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>", checks that the
// payload really is an image and downsizes large ones.
func DecodeDataURI(uri string) (*Image, error) {
	meta, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}
	ext := strings.TrimSuffix(strings.TrimPrefix(meta, "data:image/"), ";base64")
	if ext == "jpg" {
		ext = "jpeg"
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, ext)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	header, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if header.Width <= 0 || header.Height <= 0 || header.Width*header.Height > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrInvalidImage, header.Width, header.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageSide || bounds.Dy() > maxImageSide {
		var buf bytes.Buffer
		resized := imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return nil, fmt.Errorf("re-encode image: %w", err)
		}
		raw = buf.Bytes()
	}

	return &Image{Data: raw, Ext: ext, ContentType: "image/" + ext}, nil
}

// SaveImage decodes a data URI and stores it under a fresh key.
func SaveImage(ctx context.Context, store Store, dataURI string) (string, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := path.Join(imageDir, uuid.NewString()+"."+img.Ext)
	if err := store.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}
