// Package units converts physical print lengths to raster pixels.
package units

import (
	"fmt"
	"math"

	"github.com/menta2k/idphoto/pkg/types"
)

// MMPerInch is the number of millimetres in one inch
const MMPerInch = 25.4

// DefaultDPI is the print resolution used when none is configured
const DefaultDPI = 300

// Raster limits. MaxLengthPx is the largest side a JPEG can carry and
// MaxPixels bounds the area of any buffer sized from a physical length.
const (
	MaxLengthPx = 65535
	MaxPixels   = 1 << 26
)

// MMToPx converts a length in millimetres to pixels at the given DPI,
// rounding to the nearest pixel.
func MMToPx(lengthMM, dpi float64) (int, error) {
	if lengthMM <= 0 || math.IsNaN(lengthMM) || math.IsInf(lengthMM, 0) {
		return 0, fmt.Errorf("%w: length %vmm must be positive", types.ErrInvalidDimension, lengthMM)
	}
	if dpi <= 0 || math.IsNaN(dpi) || math.IsInf(dpi, 0) {
		return 0, fmt.Errorf("%w: dpi %v must be positive", types.ErrInvalidDimension, dpi)
	}
	px := math.Round(lengthMM / MMPerInch * dpi)
	if px > MaxLengthPx {
		return 0, fmt.Errorf("%w: %vmm at %v dpi exceeds %d pixels", types.ErrInvalidDimension, lengthMM, dpi, MaxLengthPx)
	}
	return int(px), nil
}

// PxToMM converts a pixel length back to millimetres at the given DPI
func PxToMM(px int, dpi float64) (float64, error) {
	if px <= 0 {
		return 0, fmt.Errorf("%w: pixel length %d must be positive", types.ErrInvalidDimension, px)
	}
	if dpi <= 0 {
		return 0, fmt.Errorf("%w: dpi %v must be positive", types.ErrInvalidDimension, dpi)
	}
	return float64(px) / dpi * MMPerInch, nil
}

// ToPixels converts a physical size to pixels. Each side is at least one
// pixel even when the rounded length would be zero, and the area is capped
// at MaxPixels.
func ToPixels(size types.PhysicalSize, dpi float64) (types.PixelSize, error) {
	w, err := MMToPx(size.WidthMM, dpi)
	if err != nil {
		return types.PixelSize{}, fmt.Errorf("width: %w", err)
	}
	h, err := MMToPx(size.HeightMM, dpi)
	if err != nil {
		return types.PixelSize{}, fmt.Errorf("height: %w", err)
	}
	px := types.PixelSize{Width: max(w, 1), Height: max(h, 1)}
	if err := CheckArea(px.Width, px.Height); err != nil {
		return types.PixelSize{}, err
	}
	return px, nil
}

// CheckArea rejects rasters larger than MaxPixels
func CheckArea(width, height int) error {
	if width > 0 && height > MaxPixels/width {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", types.ErrInvalidDimension, width, height, MaxPixels)
	}
	return nil
}
