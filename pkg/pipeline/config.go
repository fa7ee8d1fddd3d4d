package pipeline

import (
	"fmt"
	"math"

	"github.com/menta2k/idphoto/pkg/cropper"
	"github.com/menta2k/idphoto/pkg/enhance"
	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

// DefaultJPEGQuality is the quality of every encoded artifact
const DefaultJPEGQuality = 95

// Config describes one photo job
type Config struct {
	Size        types.PhysicalSize
	Background  types.Color
	DPI         float64
	Brightness  float64
	SubjectCrop bool

	// Sheet enables tiling the photo onto Paper
	Sheet  bool
	Paper  types.PhysicalSize
	Margin int
	Gap    int

	JPEGQuality int

	// Framing tunes the subject-aware crop. SubjectAware is taken from SubjectCrop.
	Framing cropper.CropConfig
}

// DefaultConfig returns a one-inch photo on blue with a 4x6 sheet
func DefaultConfig() Config {
	return Config{
		Size:        types.OneInch.Size,
		Background:  types.Blue,
		DPI:         units.DefaultDPI,
		Brightness:  1.0,
		SubjectCrop: true,
		Sheet:       true,
		Paper:       types.Paper4x6.Size,
		Margin:      layout.DefaultMargin,
		Gap:         layout.DefaultGap,
		JPEGQuality: DefaultJPEGQuality,
		Framing:     cropper.DefaultCropConfig(),
	}
}

// Validate rejects configurations before any image work starts
func (c Config) Validate() error {
	if err := c.Size.Validate(); err != nil {
		return err
	}
	if c.DPI <= 0 || math.IsNaN(c.DPI) || math.IsInf(c.DPI, 0) {
		return fmt.Errorf("%w: dpi %v must be positive", types.ErrInvalidDimension, c.DPI)
	}
	if err := enhance.ValidateBrightness(c.Brightness); err != nil {
		return err
	}
	if _, err := c.TargetPixels(); err != nil {
		return err
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d must be within [1, 100]", types.ErrInvalidParameter, c.JPEGQuality)
	}
	if c.Sheet {
		if err := c.Paper.Validate(); err != nil {
			return err
		}
		if _, err := c.PaperPixels(); err != nil {
			return err
		}
		if c.Margin < 0 || c.Gap < 0 {
			return fmt.Errorf("%w: margin %d and gap %d must not be negative", types.ErrInvalidParameter, c.Margin, c.Gap)
		}
	}
	return nil
}

// TargetPixels returns the photo size in pixels at the configured DPI
func (c Config) TargetPixels() (types.PixelSize, error) {
	return units.ToPixels(c.Size, c.DPI)
}

// PaperPixels returns the sheet size in pixels at the configured DPI
func (c Config) PaperPixels() (types.PixelSize, error) {
	return units.ToPixels(c.Paper, c.DPI)
}
