package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize bounds the thumbnail the hash is computed from; a placeholder
// needs no more detail than this.
const blurHashSize = 64

// BlurHash encodes img as a 4x3 component BlurHash string.
func BlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnail(img, blurHashSize))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img to fit in a size x size box, keeping the aspect ratio.
// Images that already fit are returned unchanged.
func thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return img
	}

	dw, dh := size, size
	if w > h {
		dh = max(1, h*size/w)
	} else {
		dw = max(1, w*size/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
