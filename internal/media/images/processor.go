package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/larderapp/larder-server/internal/id"
)

var (
	// ErrUnsupportedType is returned for uploads that are not a known image format.
	ErrUnsupportedType = errors.New("upload a valid image")
	// ErrInvalidImage is returned when an upload claims an image type but does not decode.
	ErrInvalidImage = errors.New("the uploaded file is not a valid image")
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds the maximum upload size")
	// ErrTooManyPixels is returned when the declared dimensions exceed maxPixels.
	ErrTooManyPixels = errors.New("image dimensions are too large")
)

// jpegQuality is the quality stored images are re-encoded with.
const jpegQuality = 85

// maxPixels bounds width*height before a full decode allocates the bitmap.
const maxPixels = 40_000_000

// allowedTypes are the sniffed MIME types accepted for upload.
var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Result describes a stored image.
type Result struct {
	Name       string // file name inside the Storage
	BlurHash   string
	SourceType string // sniffed MIME type of the upload
	Width      int
	Height     int
	Size       int // bytes written
}

// Processor validates uploaded images, re-encodes them as JPEG and stores them.
type Processor struct {
	storage  *Storage
	maxBytes int64
	logger   *slog.Logger
}

// NewProcessor creates a Processor writing to storage. Uploads larger than
// maxBytes are rejected.
func NewProcessor(storage *Storage, maxBytes int64, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		storage:  storage,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Storage returns the storage images are written to.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// Process reads an upload, checks it is an image, and stores a JPEG copy
// under a fresh name starting with prefix. Stripping the original container
// also drops any embedded metadata.
func (p *Processor) Process(ctx context.Context, r io.Reader, prefix string) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrUnsupportedType
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		p.logger.Debug("rejected upload", "detected", mtype.String())
		return nil, ErrUnsupportedType
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		p.logger.Debug("rejected upload", "width", cfg.Width, "height", cfg.Height)
		return nil, ErrTooManyPixels
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	hash, err := BlurHash(img)
	if err != nil {
		// The placeholder is cosmetic; store the image without it.
		p.logger.Warn("blurhash failed", "error", err)
	}

	key, err := id.FileKey(prefix)
	if err != nil {
		return nil, fmt.Errorf("generate image name: %w", err)
	}
	name := key + ".jpg"

	if err := p.storage.Save(name, buf.Bytes()); err != nil {
		return nil, err
	}

	b := img.Bounds()
	res := &Result{
		Name:       name,
		BlurHash:   hash,
		SourceType: mtype.String(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		Size:       buf.Len(),
	}

	p.logger.Debug("stored image",
		"name", res.Name,
		"source_type", res.SourceType,
		"width", res.Width,
		"height", res.Height,
		"size", res.Size,
	)
	return res, nil
}

// flatten composites img over white so transparent regions do not turn
// black in the JPEG.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
