package config

import (
	"fmt"
	"time"

	"github.com/menta2k/idphoto/pkg/client"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/llamacpp"
	"github.com/menta2k/idphoto/pkg/ollama"
	"github.com/menta2k/idphoto/pkg/segmentation"
	"github.com/menta2k/idphoto/pkg/vision"
)

// NewSegmenter builds the configured background removal backend
func (c *Config) NewSegmenter() (segmentation.Segmenter, error) {
	s := c.Segmentation
	switch s.Backend {
	case BackendRembg:
		return segmentation.NewRembgClient(s.URL, time.Duration(s.Timeout)*time.Second), nil
	case BackendKey:
		kc := segmentation.DefaultKeyConfig()
		kc.Tolerance = s.Tolerance
		kc.Feather = s.Feather
		return segmentation.NewKeySegmenter(kc), nil
	case BackendNone, "":
		return segmentation.Passthrough{}, nil
	}
	return nil, fmt.Errorf("unknown segmentation backend %q", s.Backend)
}

// NewDetector builds the configured face detector. The none backend
// returns a nil detector, which makes the pipeline use center crops.
func (c *Config) NewDetector() (detection.FaceDetector, error) {
	d := c.Detection
	switch d.Backend {
	case BackendPigo:
		pd, err := detection.LoadPigoDetector(d.CascadePath, detection.DefaultPigoParams())
		if err != nil {
			return nil, err
		}
		return pd, nil
	case BackendSilhouette:
		return vision.New(), nil
	case BackendOllama, BackendLlamaCpp:
		vc, err := c.newVisionClient()
		if err != nil {
			return nil, err
		}
		opts := detection.DefaultVisionOptions(d.Model)
		opts.MinConfidence = d.MinConfidence
		return detection.NewVisionDetector(vc, opts), nil
	case BackendNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown detection backend %q", d.Backend)
}

func (c *Config) newVisionClient() (client.VisionClient, error) {
	if c.Detection.Backend == BackendOllama {
		vc, err := ollama.NewClient(c.Detection.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return vc, nil
	}
	vc, err := llamacpp.NewClient(c.Detection.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
	}
	return vc, nil
}
