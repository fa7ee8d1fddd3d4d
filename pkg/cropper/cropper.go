package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/pkg/types"
)

// Strategy names the framing method that produced a crop
type Strategy string

const (
	// StrategyCenter scales the source to cover the target and keeps the middle
	StrategyCenter Strategy = "center"
	// StrategySubject positions the crop around a detected face
	StrategySubject Strategy = "subject"
)

// CropConfig holds configuration for framing
type CropConfig struct {
	// SubjectAware enables face-driven framing when a face box is supplied
	SubjectAware bool
	// FaceHeightRatio is the share of the crop height the detected face box
	// should occupy. Zero or less selects the largest crop that fits.
	FaceHeightRatio float64
	// FaceCenterY is where the face center lands, measured from the top of the crop
	FaceCenterY float64
}

// DefaultCropConfig returns the ID-photo framing defaults
func DefaultCropConfig() CropConfig {
	return CropConfig{
		SubjectAware:    true,
		FaceHeightRatio: 0.5,
		FaceCenterY:     0.4,
	}
}

// FrameSelector chooses the crop rectangle for a photo and resizes it to print pixels
type FrameSelector struct {
	config CropConfig
}

// New creates a new FrameSelector with default configuration
func New() *FrameSelector {
	return &FrameSelector{config: DefaultCropConfig()}
}

// NewWithConfig creates a new FrameSelector with custom configuration
func NewWithConfig(config CropConfig) *FrameSelector {
	if config.FaceCenterY <= 0 || config.FaceCenterY >= 1 {
		config.FaceCenterY = 0.4
	}
	return &FrameSelector{config: config}
}

// Config returns the active configuration
func (f *FrameSelector) Config() CropConfig {
	return f.config
}

// CropResult contains the framed image and the source rectangle it came from
type CropResult struct {
	Image    *image.NRGBA
	Rect     types.CropRect
	Strategy Strategy
}

// SelectAndResize frames img to exactly target pixels. A nil face, or a
// selector with subject framing disabled, falls back to a center crop.
func (f *FrameSelector) SelectAndResize(img image.Image, target types.PixelSize, face *types.Box) (CropResult, error) {
	if f.config.SubjectAware && face != nil && !face.Clamp().Empty() {
		return f.SubjectCrop(img, target, *face)
	}
	return f.CenterCrop(img, target)
}

// CenterCrop upscales or downscales the source uniformly until it covers the
// target, then cuts the centered target-sized window out of the resized image.
func (f *FrameSelector) CenterCrop(img image.Image, target types.PixelSize) (CropResult, error) {
	if err := checkSizes(img, target); err != nil {
		return CropResult{}, err
	}
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()

	ratio := math.Max(float64(target.Width)/float64(sw), float64(target.Height)/float64(sh))
	rw := max(target.Width, int(math.Round(float64(sw)*ratio)))
	rh := max(target.Height, int(math.Round(float64(sh)*ratio)))

	resized := imaging.Resize(img, rw, rh, imaging.Lanczos)
	left := (rw - target.Width) / 2
	top := (rh - target.Height) / 2
	out := imaging.Crop(resized, image.Rect(left, top, left+target.Width, top+target.Height))

	return CropResult{
		Image:    out,
		Rect:     centerRect(sw, sh, target),
		Strategy: StrategyCenter,
	}, nil
}

// SubjectCrop frames the source around face, keeping the target aspect ratio
func (f *FrameSelector) SubjectCrop(img image.Image, target types.PixelSize, face types.Box) (CropResult, error) {
	if err := checkSizes(img, target); err != nil {
		return CropResult{}, err
	}
	b := img.Bounds()

	rect := f.SubjectRect(b.Dx(), b.Dy(), target, face)
	cropped := imaging.Crop(img, rect.Rect().Add(b.Min))
	out := imaging.Resize(cropped, target.Width, target.Height, imaging.Lanczos)

	return CropResult{
		Image:    out,
		Rect:     rect,
		Strategy: StrategySubject,
	}, nil
}

// SubjectRect computes the face-anchored crop for a srcW x srcH source. The
// result always lies inside the source; edges that would cross the border
// slide the rectangle back instead of shrinking it.
func (f *FrameSelector) SubjectRect(srcW, srcH int, target types.PixelSize, face types.Box) types.CropRect {
	sw, sh := float64(srcW), float64(srcH)
	box := face.Clamp()
	cx, cy := box.Center()
	cx *= sw
	cy *= sh

	aspect := target.Aspect()
	ch := sh
	if f.config.FaceHeightRatio > 0 && box.H > 0 {
		ch = box.H * sh / f.config.FaceHeightRatio
	}
	cw := ch * aspect
	if cw > sw || ch > sh {
		s := math.Min(sw/cw, sh/ch)
		cw *= s
		ch *= s
	}

	w := clampInt(int(math.Round(cw)), 1, srcW)
	h := clampInt(int(math.Round(ch)), 1, srcH)

	left := slide(int(math.Round(cx-float64(w)/2)), w, srcW)
	top := slide(int(math.Round(cy-f.config.FaceCenterY*float64(h))), h, srcH)

	return types.CropRect{Left: left, Top: top, Right: left + w, Bottom: top + h}
}

// centerRect is the source-space window a center crop keeps
func centerRect(srcW, srcH int, target types.PixelSize) types.CropRect {
	aspect := target.Aspect()
	w, h := float64(srcW), float64(srcH)
	if w/h > aspect {
		w = h * aspect
	} else {
		h = w / aspect
	}
	cw := clampInt(int(math.Round(w)), 1, srcW)
	ch := clampInt(int(math.Round(h)), 1, srcH)
	left := (srcW - cw) / 2
	top := (srcH - ch) / 2
	return types.CropRect{Left: left, Top: top, Right: left + cw, Bottom: top + ch}
}

func checkSizes(img image.Image, target types.PixelSize) error {
	if target.Width < 1 || target.Height < 1 {
		return fmt.Errorf("%w: target %s must be at least 1x1", types.ErrInvalidDimension, target)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: source image has zero area", types.ErrDimensionMismatch)
	}
	return nil
}

// slide moves a span of length n starting at pos so that it fits in [0,limit)
func slide(pos, n, limit int) int {
	if pos+n > limit {
		pos = limit - n
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
