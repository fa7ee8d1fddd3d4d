// Package idphoto produces print-ready ID and passport photos.
//
// A photo goes through background removal, recoloring onto a solid
// backdrop, face-aware framing for a physical size, light sharpening and
// optional tiling onto photo paper. The stages live in pkg/ and are wired
// together by pkg/pipeline; this package is a small facade over them.
//
// Basic usage:
//
//	maker := idphoto.New()
//	data, _ := os.ReadFile("me.jpg")
//	result, err := maker.Make(ctx, data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	os.WriteFile("me_id.jpg", result.PhotoJPEG, 0o644)
//	os.WriteFile("me_sheet.jpg", result.SheetJPEG, 0o644)
//
// Segmentation and face detection are pluggable. New uses offline backdrop
// keying and silhouette analysis; NewWithConfig accepts any
// segmentation.Segmenter (for example a rembg server) and any
// detection.FaceDetector (pigo cascades or a vision model).
package idphoto

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/menta2k/idphoto/internal/utils"
	"github.com/menta2k/idphoto/pkg/analyzer"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/pipeline"
	"github.com/menta2k/idphoto/pkg/segmentation"
	"github.com/menta2k/idphoto/pkg/vision"
)

// Version of the idphoto library
const Version = "0.3.0"

// Maker produces ID photos with a fixed job configuration
type Maker struct {
	pipeline *pipeline.Pipeline
	analyzer *analyzer.ImageAnalyzer
	config   pipeline.Config
}

// New creates a Maker with the default job, backdrop keying and silhouette
// face location
func New() *Maker {
	seg := segmentation.NewKeySegmenter(segmentation.DefaultKeyConfig())
	return NewWithConfig(pipeline.DefaultConfig(), seg, vision.New(), nil)
}

// NewWithConfig creates a Maker with custom collaborators. A nil detector
// frames every photo with a center crop.
func NewWithConfig(config pipeline.Config, seg segmentation.Segmenter, det detection.FaceDetector, logger *log.Logger) *Maker {
	return &Maker{
		pipeline: pipeline.New(seg, det, logger),
		analyzer: analyzer.New(),
		config:   config,
	}
}

// Config returns the job configuration used by Make
func (m *Maker) Config() pipeline.Config {
	return m.config
}

// Make processes one encoded photo
func (m *Maker) Make(ctx context.Context, data []byte) (*pipeline.Result, error) {
	return m.pipeline.Run(ctx, data, m.config)
}

// Inspect decodes a photo and reports whether it is usable as a source
func (m *Maker) Inspect(data []byte) (analyzer.ImageInfo, error) {
	src, err := m.analyzer.Load(data)
	if err != nil {
		return analyzer.ImageInfo{}, err
	}
	info := m.analyzer.GetImageInfo(src.Image)
	if err := m.analyzer.ValidateImage(src.Image); err != nil {
		return info, err
	}
	return info, nil
}

// MakeFile processes inputPath and writes <name>_id.jpg, plus
// <name>_id_sheet.jpg when the job tiles a sheet, into outputDir.
// It returns the written paths.
func (m *Maker) MakeFile(ctx context.Context, inputPath, outputDir string) ([]string, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	result, err := m.Make(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	files := utils.OutputFiles(inputPath, outputDir, "", "_id", "jpg")

	if err := os.WriteFile(files.Photo, result.PhotoJPEG, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	written := []string{files.Photo}

	if result.Sheet != nil {
		if err := os.WriteFile(files.Sheet, result.SheetJPEG, 0o644); err != nil {
			return written, fmt.Errorf("failed to save sheet: %w", err)
		}
		written = append(written, files.Sheet)
	}
	return written, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
