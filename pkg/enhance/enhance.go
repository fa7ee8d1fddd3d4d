// Package enhance applies the fixed post-framing touch-ups: one sharpening
// pass and an optional brightness lift.
package enhance

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/pkg/types"
)

// Brightness bounds accepted by the enhancer
const (
	MinBrightness = 1.0
	MaxBrightness = 1.5
)

// SharpenKernel is the 3x3 high-pass kernel applied to every framed photo
var SharpenKernel = [9]float64{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// ValidateBrightness rejects factors outside [MinBrightness, MaxBrightness]
func ValidateBrightness(factor float64) error {
	if math.IsNaN(factor) || factor < MinBrightness || factor > MaxBrightness {
		return fmt.Errorf("%w: brightness %v outside [%.1f, %.1f]", types.ErrInvalidParameter, factor, MinBrightness, MaxBrightness)
	}
	return nil
}

// Enhancer runs sharpen then brighten
type Enhancer struct {
	brightness float64
}

// New creates an Enhancer with the given brightness factor
func New(brightness float64) (*Enhancer, error) {
	if err := ValidateBrightness(brightness); err != nil {
		return nil, err
	}
	return &Enhancer{brightness: brightness}, nil
}

// Apply sharpens img once and then applies the brightness factor
func (e *Enhancer) Apply(img image.Image) *image.NRGBA {
	return Brighten(Sharpen(img), e.brightness)
}

// Sharpen convolves img with SharpenKernel. Edges reuse the nearest pixel and
// alpha is carried over unchanged.
func Sharpen(img image.Image) *image.NRGBA {
	return imaging.Convolve3x3(img, SharpenKernel, nil)
}

// Brighten multiplies every color channel by factor and clamps to 255.
// The scale is applied to the stored sRGB values, the same as blending the
// image away from black. A factor of exactly 1 returns img untouched.
func Brighten(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor == 1 {
		return img
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(math.Min(255, math.Round(float64(i)*factor)))
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}
