package cli

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/pkg/analyzer"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/processing"
)

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [image]",
		Short: "Validate the configuration and try the face detector",
		Long: `Validate the configuration, build both backends and run the face detector
once. Vision model backends are asked to describe the image, which shows
whether the model actually receives it. Without an image argument a
synthetic portrait is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			w := cmd.OutOrStdout()

			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := cfg.NewSegmenter(); err != nil {
				return err
			}
			det, err := cfg.NewDetector()
			if err != nil {
				return err
			}

			img := checkPortrait()
			if len(args) == 1 {
				data, err := processing.NewProcessor().ReadSource(ctx, args[0])
				if err != nil {
					return err
				}
				src, err := analyzer.New().Load(data)
				if err != nil {
					return err
				}
				img = src.Image
			}

			fmt.Fprintf(w, "%s configuration is valid\n", styleSuccess.Render(iconSuccess))
			row(w, "segment", cfg.Segmentation.Backend)
			row(w, "detect", cfg.Detection.Backend)

			switch d := det.(type) {
			case nil:
				row(w, "face", styleDim.Render("detection disabled, photos use center crops"))
			case *detection.VisionDetector:
				reply, err := d.TestVision(ctx, img)
				if err != nil {
					return fmt.Errorf("vision model check failed: %w", err)
				}
				row(w, "model", cfg.Detection.Model)
				row(w, "reply", reply)
			default:
				box, ok, err := d.DetectFace(ctx, img)
				if err != nil {
					return fmt.Errorf("face detection failed: %w", err)
				}
				if !ok {
					row(w, "face", styleWarning.Render(iconWarning+" no face found"))
					return nil
				}
				row(w, "face", fmt.Sprintf("x=%.2f y=%.2f w=%.2f h=%.2f", box.X, box.Y, box.W, box.H))
			}
			return nil
		},
	}
}

// checkPortrait draws a head and shoulders on a light backdrop
func checkPortrait() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 260))
	for y := 0; y < 260; y++ {
		for x := 0; x < 200; x++ {
			c := color.NRGBA{235, 235, 235, 255}
			if (x-100)*(x-100)+(y-90)*(y-90) < 40*40 || (y > 150 && x > 40 && x < 160) {
				c = color.NRGBA{90, 60, 50, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
