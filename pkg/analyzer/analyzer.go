package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

// EXIF orientation values
const (
	OrientationNormal     = 1
	OrientationFlipH      = 2
	OrientationRotate180  = 3
	OrientationFlipV      = 4
	OrientationTranspose  = 5
	OrientationRotate270  = 6
	OrientationTransverse = 7
	OrientationRotate90   = 8
)

// ImageAnalyzer inspects source photos before they enter the pipeline
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	// MaxPixels rejects sources whose header declares a larger area, 0 disables the check
	MaxPixels  int
	AutoOrient bool
}

// DefaultConfig accepts every format the processing package can decode
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
		MinImageSize:     64,
		MaxPixels:        units.MaxPixels,
		AutoOrient:       true,
	}
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{config: DefaultConfig()}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// Source is a decoded photo together with what was learned while loading it
type Source struct {
	Image       image.Image
	Format      string
	Orientation int
}

// Reoriented reports whether the pixels differ from the encoded layout
func (s Source) Reoriented() bool {
	return s.Orientation > OrientationNormal && s.Orientation <= OrientationRotate90
}

// Load decodes data, checks the format and applies the EXIF orientation
func (a *ImageAnalyzer) Load(data []byte) (Source, error) {
	if err := a.checkHeader(data); err != nil {
		return Source{}, err
	}

	img, format, err := processing.Decode(data)
	if err != nil {
		return Source{}, fmt.Errorf("%w: failed to decode image: %v", types.ErrInvalidParameter, err)
	}

	if !a.isFormatSupported(format) {
		return Source{}, fmt.Errorf("%w: unsupported image format: %s", types.ErrInvalidParameter, format)
	}

	src := Source{Image: img, Format: format, Orientation: OrientationNormal}
	if a.config.AutoOrient {
		src.Orientation = Orientation(data)
		src.Image = Orient(img, src.Orientation)
	}
	return src, nil
}

// checkHeader reads the declared dimensions so oversized sources are
// rejected before any pixel buffer is allocated
func (a *ImageAnalyzer) checkHeader(data []byte) error {
	if a.config.MaxPixels <= 0 {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// left to Decode, which also tries the cgo WebP decoder
		return nil
	}
	if cfg.Width > 0 && cfg.Height > a.config.MaxPixels/cfg.Width {
		return fmt.Errorf("%w: source %dx%d exceeds %d pixels",
			types.ErrInvalidDimension, cfg.Width, cfg.Height, a.config.MaxPixels)
	}
	return nil
}

// Orientation reads the EXIF orientation tag. Missing or unreadable
// metadata reports OrientationNormal.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return OrientationNormal
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}

	o, err := tag.Int(0)
	if err != nil || o < OrientationNormal || o > OrientationRotate90 {
		return OrientationNormal
	}
	return o
}

// Orient transforms img so it displays upright for the given EXIF orientation
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate270:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("%w: source image has no pixels", types.ErrDimensionMismatch)
	}
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("%w: image too small: %dx%d (minimum: %d)",
			types.ErrDimensionMismatch, bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}
