// Package vision estimates where the head is in a composited portrait.
//
// After background replacement every backdrop pixel carries exactly the same
// color, so the subject's silhouette can be recovered by comparing pixels to
// that color. The head is taken to be the top band of the silhouette.
package vision

import (
	"context"
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// SilhouetteLocator finds the head of a subject on a solid background
type SilhouetteLocator struct {
	config LocatorConfig
}

// LocatorConfig holds configuration for silhouette analysis
type LocatorConfig struct {
	Tolerance   int     // max per-channel difference still counted as backdrop
	HeadRatio   float64 // share of the silhouette height treated as the head
	MinCoverage float64 // silhouettes covering less of the frame are ignored
}

// DefaultLocatorConfig returns the configuration New uses
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		Tolerance:   24,
		HeadRatio:   0.35,
		MinCoverage: 0.02,
	}
}

// New creates a new SilhouetteLocator with default configuration
func New() *SilhouetteLocator {
	return &SilhouetteLocator{config: DefaultLocatorConfig()}
}

// NewWithConfig creates a new SilhouetteLocator with custom configuration
func NewWithConfig(config LocatorConfig) *SilhouetteLocator {
	return &SilhouetteLocator{config: config}
}

// Region represents a rectangular region of interest
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	Score  float64
}

// Silhouette returns the bounding region of everything that is not backdrop.
// Score is the share of the frame the subject covers.
func (l *SilhouetteLocator) Silhouette(img image.Image) (Region, bool) {
	src := toNRGBA(img)
	mask, count := l.foreground(src)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 || count == 0 {
		return Region{}, false
	}

	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask[y*w+x] {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}

	coverage := float64(count) / float64(w*h)
	if coverage < l.config.MinCoverage {
		return Region{}, false
	}
	return Region{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1, Score: coverage}, true
}

// Head estimates the head region as the top band of the silhouette. The
// width is the median row width of the band so shoulders entering the band
// do not widen the result.
func (l *SilhouetteLocator) Head(img image.Image) (Region, bool) {
	src := toNRGBA(img)
	sil, ok := l.Silhouette(src)
	if !ok {
		return Region{}, false
	}
	mask, _ := l.foreground(src)
	w := src.Bounds().Dx()

	band := max(1, int(float64(sil.Height)*l.config.HeadRatio))
	var widths []int
	var sumX, n int
	for y := sil.Y; y < sil.Y+band; y++ {
		first, last := -1, -1
		for x := sil.X; x < sil.X+sil.Width; x++ {
			if mask[y*w+x] {
				if first < 0 {
					first = x
				}
				last = x
				sumX += x
				n++
			}
		}
		if first >= 0 {
			widths = append(widths, last-first+1)
		}
	}
	if n == 0 {
		return Region{}, false
	}

	sort.Ints(widths)
	headW := widths[len(widths)/2]
	cx := float64(sumX) / float64(n)

	return Region{
		X:      int(cx - float64(headW)/2 + 0.5),
		Y:      sil.Y,
		Width:  headW,
		Height: band,
		Score:  sil.Score,
	}, true
}

// DetectFace reports the head region as a relative box
func (l *SilhouetteLocator) DetectFace(ctx context.Context, img image.Image) (types.Box, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Box{}, false, err
	}

	head, ok := l.Head(img)
	if !ok {
		return types.Box{}, false, nil
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	box := types.Box{
		X: float64(head.X) / w,
		Y: float64(head.Y) / h,
		W: float64(head.Width) / w,
		H: float64(head.Height) / h,
	}
	return box.Clamp(), true, nil
}

func (l *SilhouetteLocator) foreground(src *image.NRGBA) ([]bool, int) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]bool, w*h)
	if w == 0 || h == 0 {
		return mask, 0
	}

	bg := raster.Backdrop(src, 1)
	count := 0
	for y := 0; y < h; y++ {
		i := (y+b.Min.Y-src.Rect.Min.Y)*src.Stride + (b.Min.X-src.Rect.Min.X)*4
		for x := 0; x < w; x++ {
			d := max(absDiff(src.Pix[i], bg.R), absDiff(src.Pix[i+1], bg.G), absDiff(src.Pix[i+2], bg.B))
			if d > l.config.Tolerance {
				mask[y*w+x] = true
				count++
			}
			i += 4
		}
	}
	return mask, count
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
