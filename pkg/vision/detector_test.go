package vision

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"
)

// createPortrait draws a head and shoulders silhouette on a solid backdrop.
// The head spans x 70..129, y 50..129 and the shoulders x 30..169 below it.
func createPortrait(bg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 200; x++ {
			c := bg
			switch {
			case y >= 50 && y < 130 && x >= 70 && x < 130:
				c = color.NRGBA{210, 170, 140, 255}
			case y >= 130 && x >= 30 && x < 170:
				c = color.NRGBA{40, 40, 60, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNew(t *testing.T) {
	locator := New()
	if locator == nil {
		t.Fatal("New() returned nil")
	}
	if locator.config.HeadRatio != 0.35 {
		t.Errorf("Expected head ratio 0.35, got %f", locator.config.HeadRatio)
	}
}

func TestNewWithConfig(t *testing.T) {
	locator := NewWithConfig(LocatorConfig{Tolerance: 10, HeadRatio: 0.5, MinCoverage: 0.1})
	if locator.config.Tolerance != 10 {
		t.Errorf("Expected tolerance 10, got %d", locator.config.Tolerance)
	}
}

func TestSilhouette(t *testing.T) {
	region, ok := New().Silhouette(createPortrait(color.NRGBA{255, 255, 255, 255}))
	if !ok {
		t.Fatal("Expected a silhouette")
	}
	want := Region{X: 30, Y: 50, Width: 140, Height: 250}
	if region.X != want.X || region.Y != want.Y || region.Width != want.Width || region.Height != want.Height {
		t.Errorf("Expected %+v, got %+v", want, region)
	}
	if region.Score <= 0 || region.Score > 1 {
		t.Errorf("Expected coverage in (0,1], got %f", region.Score)
	}
}

func TestHeadIgnoresShoulders(t *testing.T) {
	head, ok := New().Head(createPortrait(color.NRGBA{255, 0, 0, 255}))
	if !ok {
		t.Fatal("Expected a head")
	}
	if head.Width != 60 {
		t.Errorf("Expected head width 60, got %d", head.Width)
	}
	if head.Y != 50 || head.Height != 87 {
		t.Errorf("Expected band y=50 h=87, got y=%d h=%d", head.Y, head.Height)
	}
	if cx := head.X + head.Width/2; cx < 98 || cx > 101 {
		t.Errorf("Expected head centered near x=100, got %d", cx)
	}
}

func TestDetectFace(t *testing.T) {
	box, ok, err := New().DetectFace(context.Background(), createPortrait(color.NRGBA{255, 255, 255, 255}))
	if err != nil {
		t.Fatalf("DetectFace failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a face box")
	}

	cx, _ := box.Center()
	if math.Abs(cx-0.5) > 0.01 {
		t.Errorf("Expected horizontal center 0.5, got %f", cx)
	}
	if math.Abs(box.W-0.3) > 0.01 {
		t.Errorf("Expected width 0.3, got %f", box.W)
	}
	if math.Abs(box.Y-50.0/300) > 1e-9 {
		t.Errorf("Expected top at 1/6, got %f", box.Y)
	}
}

func TestDetectFaceEmptyBackdrop(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 255, 255, 255, 255
	}

	_, ok, err := New().DetectFace(context.Background(), img)
	if err != nil {
		t.Fatalf("DetectFace failed: %v", err)
	}
	if ok {
		t.Error("Expected no face on an empty backdrop")
	}
}

func TestDetectFaceTinySubject(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 255, 255, 255, 255
	}
	img.SetNRGBA(50, 50, color.NRGBA{0, 0, 0, 255})

	if _, ok, _ := New().DetectFace(context.Background(), img); ok {
		t.Error("Expected a single stray pixel to be ignored")
	}
}

func TestDetectFaceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := New().DetectFace(ctx, createPortrait(color.NRGBA{255, 255, 255, 255})); err == nil {
		t.Error("Expected context error")
	}
}
