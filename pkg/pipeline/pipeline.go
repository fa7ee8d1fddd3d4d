// Package pipeline turns an uploaded photo into a print-ready ID photo.
//
// A run is strictly sequential:
//
//	decode -> segment -> composite -> detect -> frame -> enhance -> encode -> layout
//
// Each stage only sees the output of the previous one. Any failure aborts
// the run with a *StageError and no partial result. A missing face is not a
// failure; framing falls back to a center crop.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/menta2k/idphoto/pkg/analyzer"
	"github.com/menta2k/idphoto/pkg/compositor"
	"github.com/menta2k/idphoto/pkg/cropper"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/enhance"
	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/segmentation"
	"github.com/menta2k/idphoto/pkg/types"
)

// Pipeline holds the collaborators shared by every run. It keeps no
// per-run state, so one Pipeline may serve concurrent callers.
type Pipeline struct {
	segmenter segmentation.Segmenter
	detector  detection.FaceDetector
	analyzer  *analyzer.ImageAnalyzer
	logger    *log.Logger
}

// New creates a pipeline. A nil segmenter treats the whole photo as
// foreground, a nil detector always frames with a center crop and a nil
// logger discards output.
func New(segmenter segmentation.Segmenter, detector detection.FaceDetector, logger *log.Logger) *Pipeline {
	if segmenter == nil {
		segmenter = segmentation.Passthrough{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		segmenter: segmenter,
		detector:  detector,
		analyzer:  analyzer.New(),
		logger:    logger,
	}
}

// WithAnalyzer replaces the source inspector, e.g. to relax the minimum size
func (p *Pipeline) WithAnalyzer(a *analyzer.ImageAnalyzer) *Pipeline {
	cp := *p
	cp.analyzer = a
	return &cp
}

// Result is everything a run produces
type Result struct {
	// Composite is the full source with its background replaced
	Composite *image.NRGBA
	Photo     *image.NRGBA
	PhotoJPEG []byte
	Sheet     *types.LayoutResult
	SheetJPEG []byte
	Face      *types.Box
	Crop      types.CropRect
	Strategy  cropper.Strategy
	TargetPx  types.PixelSize
}

// Run processes one encoded photo
func (p *Pipeline) Run(ctx context.Context, imageBytes []byte, cfg Config) (*Result, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, stageErr(StageConfig, err)
	}
	target, err := cfg.TargetPixels()
	if err != nil {
		return nil, stageErr(StageConfig, err)
	}

	src, err := p.analyzer.Load(imageBytes)
	if err != nil {
		return nil, stageErr(StageDecode, err)
	}
	if err := p.analyzer.ValidateImage(src.Image); err != nil {
		return nil, stageErr(StageDecode, err)
	}
	info := p.analyzer.GetImageInfo(src.Image)
	p.logger.Debug("decoded source", "format", src.Format, "size", fmt.Sprintf("%dx%d", info.Width, info.Height), "orientation", src.Orientation)

	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageSegment, err)
	}
	cutout, err := p.segment(ctx, imageBytes, src)
	if err != nil {
		return nil, stageErr(StageSegment, err)
	}

	composed, err := compositor.Composite(cutout, cfg.Background)
	if err != nil {
		return nil, stageErr(StageComposite, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageFrame, err)
	}
	face, err := p.detect(ctx, composed, cfg)
	if err != nil {
		p.logger.Warn("falling back to center crop", "err", err)
	}

	framing := cfg.Framing
	framing.SubjectAware = cfg.SubjectCrop
	framed, err := cropper.NewWithConfig(framing).SelectAndResize(composed, target, face)
	if err != nil {
		return nil, stageErr(StageFrame, err)
	}
	p.logger.Debug("framed photo", "strategy", framed.Strategy, "crop", framed.Rect, "target", target)

	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageEnhance, err)
	}
	enhancer, err := enhance.New(cfg.Brightness)
	if err != nil {
		return nil, stageErr(StageEnhance, err)
	}
	photo := enhancer.Apply(framed.Image)

	photoJPEG, err := processing.EncodeJPEG(photo, cfg.JPEGQuality, cfg.DPI)
	if err != nil {
		return nil, stageErr(StageEncode, err)
	}

	result := &Result{
		Composite: composed,
		Photo:     photo,
		PhotoJPEG: photoJPEG,
		Face:      face,
		Crop:      framed.Rect,
		Strategy:  framed.Strategy,
		TargetPx:  target,
	}

	if cfg.Sheet {
		if err := ctx.Err(); err != nil {
			return nil, stageErr(StageLayout, err)
		}
		sheet, sheetJPEG, err := p.tile(photo, cfg)
		if err != nil {
			return nil, stageErr(StageLayout, err)
		}
		result.Sheet = sheet
		result.SheetJPEG = sheetJPEG
	}

	p.logger.Debug("pipeline finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// segment hands the source to the segmenter and decodes the cutout. A
// reoriented source is re-encoded so the mask matches the upright pixels.
func (p *Pipeline) segment(ctx context.Context, original []byte, src analyzer.Source) (image.Image, error) {
	encoded := original
	if src.Reoriented() {
		var err error
		encoded, err = processing.Encode(src.Image, "png", 0, false, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: re-encoding oriented source: %v", types.ErrSegmentationFailure, err)
		}
	}

	began := time.Now()
	cutoutBytes, err := p.segmenter.Segment(ctx, encoded)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", types.ErrSegmentationFailure, err)
	}

	cutout, _, err := processing.Decode(cutoutBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable cutout: %v", types.ErrSegmentationFailure, err)
	}

	sb, cb := src.Image.Bounds(), cutout.Bounds()
	if sb.Dx() != cb.Dx() || sb.Dy() != cb.Dy() {
		return nil, fmt.Errorf("%w: cutout is %dx%d, source is %dx%d", types.ErrDimensionMismatch, cb.Dx(), cb.Dy(), sb.Dx(), sb.Dy())
	}

	p.logger.Debug("segmented source", "elapsed", time.Since(began).Round(time.Millisecond))
	return cutout, nil
}

// detect returns the face box, or nil when framing should use a center
// crop. Detector failures and missing faces come back as
// ErrDetectionUnavailable so Run can log them without aborting.
func (p *Pipeline) detect(ctx context.Context, img image.Image, cfg Config) (*types.Box, error) {
	if !cfg.SubjectCrop {
		p.logger.Debug("subject crop disabled, using center crop")
		return nil, nil
	}
	if p.detector == nil {
		p.logger.Debug("no face detector configured, using center crop")
		return nil, nil
	}

	began := time.Now()
	box, ok, err := p.detector.DetectFace(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDetectionUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no face found", types.ErrDetectionUnavailable)
	}

	p.logger.Debug("face detected", "x", box.X, "y", box.Y, "w", box.W, "h", box.H, "elapsed", time.Since(began).Round(time.Millisecond))
	return &box, nil
}

func (p *Pipeline) tile(photo *image.NRGBA, cfg Config) (*types.LayoutResult, []byte, error) {
	paper, err := cfg.PaperPixels()
	if err != nil {
		return nil, nil, err
	}

	sheet, err := layout.Tile(photo, paper, cfg.Margin, cfg.Gap)
	if err != nil {
		return nil, nil, err
	}
	if sheet.Count == 0 {
		p.logger.Warn("photo does not fit on the sheet", "photo", fmt.Sprintf("%dx%d", photo.Bounds().Dx(), photo.Bounds().Dy()), "paper", paper)
	} else {
		p.logger.Debug("tiled sheet", "count", sheet.Count, "paper", paper)
	}

	sheetJPEG, err := processing.EncodeJPEG(sheet.Canvas, cfg.JPEGQuality, cfg.DPI)
	if err != nil {
		return nil, nil, err
	}
	return &sheet, sheetJPEG, nil
}
