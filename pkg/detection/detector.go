// Package detection locates the subject's face in a photo.
//
// A FaceDetector reports at most one face as a box relative to the image
// size. A missing face is a normal outcome reported with ok == false; the
// caller frames the photo with a center crop instead.
package detection

import (
	"context"
	"image"

	"github.com/menta2k/idphoto/pkg/client"
	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// FacePrompt asks a vision model for the face bounding box
const FacePrompt = `You are a face locator for ID photos.

Return JSON only:
{
  "found": true,
  "confidence": 0.0,
  "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- The box spans from the top of the forehead to the bottom of the chin and from ear to ear.
- If several people are visible, report the largest face.
- If there is no face, return {"found": false, "confidence": 0.0, "box": {"x": 0, "y": 0, "w": 0, "h": 0}}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// FaceDetector finds the most prominent face in an image
type FaceDetector interface {
	DetectFace(ctx context.Context, img image.Image) (types.Box, bool, error)
}

// Func adapts an ordinary function to the FaceDetector interface
type Func func(ctx context.Context, img image.Image) (types.Box, bool, error)

// DetectFace calls f(ctx, img)
func (f Func) DetectFace(ctx context.Context, img image.Image) (types.Box, bool, error) {
	return f(ctx, img)
}

// VisionOptions controls how images are sent to the model
type VisionOptions struct {
	Model         string
	Prompt        string
	MaxDimension  int
	Quality       int
	MinConfidence float64
}

// DefaultVisionOptions returns options tuned for small local vision models
func DefaultVisionOptions(model string) VisionOptions {
	return VisionOptions{
		Model:        model,
		Prompt:       FacePrompt,
		MaxDimension: 768,
		Quality:      85,
	}
}

// VisionDetector asks a vision-language model where the face is
type VisionDetector struct {
	client  client.VisionClient
	options VisionOptions
}

// NewVisionDetector creates a detector backed by a vision client
func NewVisionDetector(client client.VisionClient, options VisionOptions) *VisionDetector {
	if options.Prompt == "" {
		options.Prompt = FacePrompt
	}
	if options.Quality <= 0 {
		options.Quality = 85
	}
	return &VisionDetector{client: client, options: options}
}

// DetectFace sends a downscaled copy of img to the model
func (d *VisionDetector) DetectFace(ctx context.Context, img image.Image) (types.Box, bool, error) {
	imgB64, err := processing.PrepareImageForModel(img, "jpg", d.options.MaxDimension, d.options.Quality)
	if err != nil {
		return types.Box{}, false, err
	}

	result, err := d.client.LocateFace(ctx, d.options.Model, d.options.Prompt, imgB64)
	if err != nil {
		return types.Box{}, false, err
	}

	if !result.Found || result.Box.Empty() {
		return types.Box{}, false, nil
	}
	if result.Confidence < d.options.MinConfidence {
		return types.Box{}, false, nil
	}

	return result.Box.Clamp(), true, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *VisionDetector) TestVision(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := processing.PrepareImageForModel(img, "jpg", d.options.MaxDimension, d.options.Quality)
	if err != nil {
		return "", err
	}
	return d.client.SimpleQuery(ctx, d.options.Model, SimpleTestPrompt, imgB64)
}
