package segmentation

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/processing"
)

// KeyConfig tunes backdrop keying
type KeyConfig struct {
	// Tolerance is the RGB distance under which a pixel counts as backdrop
	Tolerance float64
	// Feather is the Gaussian sigma applied to the hard mask, 0 disables it
	Feather float64
	// Band is the width in pixels of the border strip sampled for the backdrop
	Band int
}

// DefaultKeyConfig works for studio shots against a plain wall
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		Tolerance: 60,
		Feather:   2.0,
		Band:      4,
	}
}

// KeySegmenter removes a roughly uniform backdrop without a matting model.
// The backdrop color is the per-channel median of a strip along the image
// border; pixels close to it become transparent.
type KeySegmenter struct {
	config KeyConfig
}

// NewKeySegmenter creates a KeySegmenter with the given configuration
func NewKeySegmenter(config KeyConfig) *KeySegmenter {
	if config.Band <= 0 {
		config.Band = DefaultKeyConfig().Band
	}
	return &KeySegmenter{config: config}
}

// Segment returns a PNG whose alpha masks out the backdrop
func (k *KeySegmenter) Segment(ctx context.Context, encoded []byte) ([]byte, error) {
	img, _, err := processing.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cutout := k.Cutout(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cutout, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode cutout: %w", err)
	}
	return buf.Bytes(), nil
}

// Cutout applies the backdrop mask to img
func (k *KeySegmenter) Cutout(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return src
	}

	bg := raster.Backdrop(src, k.config.Band)
	tol2 := k.config.Tolerance * k.config.Tolerance

	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			dr := float64(p[0]) - float64(bg.R)
			dg := float64(p[1]) - float64(bg.G)
			db := float64(p[2]) - float64(bg.B)
			if dr*dr+dg*dg+db*db > tol2 {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}

	alpha := mask.Pix
	stride := mask.Stride
	step := 1
	if k.config.Feather > 0 {
		soft := imaging.Blur(mask, k.config.Feather)
		alpha = soft.Pix
		stride = soft.Stride
		step = 4
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := uint32(alpha[y*stride+x*step])
			i := y*src.Stride + x*4 + 3
			src.Pix[i] = uint8((uint32(src.Pix[i])*m + 127) / 255)
		}
	}
	return src
}
