package detection

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/idphoto/pkg/types"
)

// PigoParams tunes the cascade search
type PigoParams struct {
	MinSize      int     // smallest face side in pixels of the scan image
	MaxSizeRatio float64 // largest face side as a fraction of the shorter image side
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinQuality   float32 // detections scoring below are discarded
	MaxDimension int     // the image is downscaled to this before scanning
}

// DefaultPigoParams mirrors the values commonly used with the facefinder cascade
func DefaultPigoParams() PigoParams {
	return PigoParams{
		MinSize:      40,
		MaxSizeRatio: 0.8,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5.0,
		MaxDimension: 1200,
	}
}

// PigoDetector finds faces with a pixel-intensity-comparison cascade
type PigoDetector struct {
	classifier *pigo.Pigo
	params     PigoParams
}

// LoadPigoDetector reads a cascade file such as pigo's "facefinder"
func LoadPigoDetector(cascadePath string, params PigoParams) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("error reading cascade file: %w", err)
	}
	return NewPigoDetector(data, params)
}

// NewPigoDetector unpacks a cascade held in memory
func NewPigoDetector(cascade []byte, params PigoParams) (d *PigoDetector, err error) {
	// The header alone holds the version, tree depth and tree count
	if len(cascade) < 16 {
		return nil, fmt.Errorf("error unpacking cascade file: %d bytes is too short", len(cascade))
	}

	// Unpack indexes into the packet without bounds checks
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("error unpacking cascade file: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking cascade file: %w", err)
	}
	return &PigoDetector{classifier: classifier, params: params}, nil
}

// DetectFace scans a grayscale copy of img and reports the best detection
func (d *PigoDetector) DetectFace(ctx context.Context, img image.Image) (types.Box, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Box{}, false, err
	}

	b := img.Bounds()
	if b.Empty() {
		return types.Box{}, false, fmt.Errorf("%w: empty image", types.ErrDimensionMismatch)
	}

	scan := img
	if m := d.params.MaxDimension; m > 0 && (b.Dx() > m || b.Dy() > m) {
		if b.Dx() >= b.Dy() {
			scan = imaging.Resize(img, m, 0, imaging.Lanczos)
		} else {
			scan = imaging.Resize(img, 0, m, imaging.Lanczos)
		}
	}

	gray := imaging.Grayscale(scan)
	cols, rows := gray.Bounds().Dx(), gray.Bounds().Dy()
	pixels := make([]uint8, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pixels[y*cols+x] = gray.Pix[y*gray.Stride+x*4]
		}
	}

	maxSize := int(float64(min(cols, rows)) * d.params.MaxSizeRatio)
	cParams := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.params.IoUThreshold)

	best, ok := bestDetection(dets, d.params.MinQuality)
	if !ok {
		return types.Box{}, false, nil
	}
	return detectionBox(best, cols, rows), true, nil
}

// bestDetection picks the highest scoring detection above minQ
func bestDetection(dets []pigo.Detection, minQ float32) (pigo.Detection, bool) {
	var best pigo.Detection
	found := false
	for _, det := range dets {
		if det.Q < minQ {
			continue
		}
		if !found || det.Q > best.Q || (det.Q == best.Q && det.Scale > best.Scale) {
			best = det
			found = true
		}
	}
	return best, found
}

// detectionBox converts a pigo detection (center and side in pixels) to a relative box
func detectionBox(det pigo.Detection, cols, rows int) types.Box {
	half := float64(det.Scale) / 2
	box := types.Box{
		X: (float64(det.Col) - half) / float64(cols),
		Y: (float64(det.Row) - half) / float64(rows),
		W: float64(det.Scale) / float64(cols),
		H: float64(det.Scale) / float64(rows),
	}
	return box.Clamp()
}
