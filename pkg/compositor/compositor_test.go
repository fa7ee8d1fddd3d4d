package compositor

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

// createCutout builds a gradient foreground with a constant alpha
func createCutout(width, height int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / width), uint8(y * 255 / height), 77, alpha})
		}
	}
	return img
}

func TestCompositeOpaqueForeground(t *testing.T) {
	fg := createCutout(40, 30, 255)
	out, err := Composite(fg, types.Blue)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 30 {
		t.Fatalf("Expected 40x30, got %v", out.Bounds())
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			want := fg.NRGBAAt(x, y)
			if got := out.NRGBAAt(x, y); got != want {
				t.Fatalf("Pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCompositeTransparentForeground(t *testing.T) {
	fg := createCutout(25, 25, 0)
	out, err := Composite(fg, types.Red)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	want := types.Red.NRGBA()
	for y := 0; y < 25; y++ {
		for x := 0; x < 25; x++ {
			if got := out.NRGBAAt(x, y); got != want {
				t.Fatalf("Pixel (%d,%d) = %v, want solid %v", x, y, got, want)
			}
		}
	}
}

func TestCompositeHalfAlpha(t *testing.T) {
	fg := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	fg.SetNRGBA(0, 0, color.NRGBA{200, 100, 0, 128})

	out, err := Composite(fg, types.White)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	// 200*128/255 + 255*127/255 = 100.39 + 127 = 227.39
	got := out.NRGBAAt(0, 0)
	want := color.NRGBA{227, 177, 127, 255}
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCompositeOutputIsOpaque(t *testing.T) {
	out, err := Composite(createCutout(16, 16, 90), types.Blue)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if !IsOpaque(out) {
		t.Error("Composite output must be fully opaque")
	}
}

func TestCompositePremultipliedInput(t *testing.T) {
	// image.RGBA is premultiplied: (100,0,0,128) is a straight red of ~199
	fg := image.NewRGBA(image.Rect(0, 0, 1, 1))
	fg.SetRGBA(0, 0, color.RGBA{100, 0, 0, 128})

	out, err := Composite(fg, types.Color{})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if r := out.NRGBAAt(0, 0).R; r < 99 || r > 101 {
		t.Errorf("Expected red ~100 over black, got %d", r)
	}
}

func TestCompositeZeroArea(t *testing.T) {
	_, err := Composite(image.NewNRGBA(image.Rect(0, 0, 0, 10)), types.White)
	if !errors.Is(err, types.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFill(t *testing.T) {
	canvas, err := Fill(types.PixelSize{Width: 3, Height: 2}, types.Blue)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if canvas.NRGBAAt(2, 1) != types.Blue.NRGBA() {
		t.Errorf("Expected blue canvas, got %v", canvas.NRGBAAt(2, 1))
	}

	if _, err := Fill(types.PixelSize{Width: 0, Height: 2}, types.Blue); !errors.Is(err, types.ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
}

func BenchmarkComposite(b *testing.B) {
	fg := createCutout(1200, 1600, 128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Composite(fg, types.Blue)
	}
}
