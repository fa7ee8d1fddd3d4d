package analyzer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(128)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

// createMarkedImage paints the left band red and the rest blue
func createMarkedImage(width, height, band int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{0, 0, 255, 255}
			if x < band {
				c = color.NRGBA{255, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// withOrientation inserts a minimal EXIF APP1 segment after SOI
func withOrientation(t *testing.T, jpg []byte, orientation uint16) []byte {
	t.Helper()

	tiff := []byte{'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08}
	tiff = binary.BigEndian.AppendUint16(tiff, 1)      // one IFD entry
	tiff = binary.BigEndian.AppendUint16(tiff, 0x0112) // Orientation
	tiff = binary.BigEndian.AppendUint16(tiff, 3)      // SHORT
	tiff = binary.BigEndian.AppendUint32(tiff, 1)
	tiff = binary.BigEndian.AppendUint16(tiff, orientation)
	tiff = append(tiff, 0x00, 0x00)
	tiff = binary.BigEndian.AppendUint32(tiff, 0) // no next IFD

	payload := append([]byte("Exif\x00\x00"), tiff...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := append([]byte{}, jpg[:2]...)
	out = append(out, seg...)
	return append(out, jpg[2:]...)
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return buf.Bytes()
}

// createPNGHeader returns a PNG that declares width x height but carries no
// pixel data, enough for image.DecodeConfig
func createPNGHeader(width, height int) []byte {
	ihdr := []byte("IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(width))
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(height))
	ihdr = append(ihdr, 8, 6, 0, 0, 0) // 8-bit RGBA, no interlace

	data := []byte("\x89PNG\r\n\x1a\n")
	data = binary.BigEndian.AppendUint32(data, uint32(len(ihdr)-4))
	data = append(data, ihdr...)
	return binary.BigEndian.AppendUint32(data, crc32.ChecksumIEEE(ihdr))
}

func TestNew(t *testing.T) {
	analyzer := New()
	if analyzer == nil {
		t.Fatal("New() returned nil")
	}

	if analyzer.config.MinImageSize != 64 {
		t.Errorf("Expected min size 64, got %d", analyzer.config.MinImageSize)
	}
	if !analyzer.config.AutoOrient {
		t.Error("Expected auto orientation to be enabled by default")
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := Config{
		SupportedFormats: []string{"png"},
		MinImageSize:     200,
	}

	analyzer := NewWithConfig(cfg)
	if analyzer == nil {
		t.Fatal("NewWithConfig() returned nil")
	}

	if analyzer.config.MinImageSize != 200 {
		t.Errorf("Expected min size 200, got %d", analyzer.config.MinImageSize)
	}
}

func TestGetImageInfo(t *testing.T) {
	analyzer := New()
	img := createTestImage(400, 300)

	info := analyzer.GetImageInfo(img)

	if info.Width != 400 {
		t.Errorf("Expected width 400, got %d", info.Width)
	}

	if info.Height != 300 {
		t.Errorf("Expected height 300, got %d", info.Height)
	}

	expectedRatio := float64(400) / float64(300)
	if info.AspectRatio != expectedRatio {
		t.Errorf("Expected aspect ratio %f, got %f", expectedRatio, info.AspectRatio)
	}

	if info.Area != 120000 {
		t.Errorf("Expected area 120000, got %d", info.Area)
	}
}

func TestValidateImage(t *testing.T) {
	analyzer := New()

	// Valid image
	validImg := createTestImage(200, 200)
	if err := analyzer.ValidateImage(validImg); err != nil {
		t.Errorf("Valid image should pass validation: %v", err)
	}

	// Invalid image (too small)
	invalidImg := createTestImage(50, 50)
	if err := analyzer.ValidateImage(invalidImg); !errors.Is(err, types.ErrDimensionMismatch) {
		t.Errorf("Small image should fail with ErrDimensionMismatch, got %v", err)
	}

	// MinImageSize 0 accepts any non-empty source
	if err := NewWithConfig(Config{}).ValidateImage(createTestImage(1, 1)); err != nil {
		t.Errorf("Expected 1x1 to pass without a minimum, got %v", err)
	}

	// Zero area
	if err := analyzer.ValidateImage(image.NewNRGBA(image.Rect(0, 0, 0, 10))); !errors.Is(err, types.ErrDimensionMismatch) {
		t.Errorf("Empty image should fail with ErrDimensionMismatch, got %v", err)
	}
}

func TestIsFormatSupported(t *testing.T) {
	analyzer := New()

	supportedFormats := []string{"jpeg", "png", "webp", "gif", "bmp", "tiff", "JPEG", "PNG"}
	for _, format := range supportedFormats {
		if !analyzer.isFormatSupported(format) {
			t.Errorf("Format %s should be supported", format)
		}
	}

	pngOnly := NewWithConfig(Config{SupportedFormats: []string{"png"}})
	if pngOnly.isFormatSupported("jpeg") {
		t.Error("Format jpeg should not be supported")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := New().Load([]byte("not an image"))
	if !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestLoadRejectsOversizedSource(t *testing.T) {
	_, err := New().Load(createPNGHeader(20000, 20000))
	if !errors.Is(err, types.ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}

	// with the check disabled the header passes and decoding fails on the missing pixels
	cfg := DefaultConfig()
	cfg.MaxPixels = 0
	if _, err := NewWithConfig(cfg).Load(createPNGHeader(20000, 20000)); !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter without a size check, got %v", err)
	}
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	data := encodeJPEG(t, createTestImage(80, 80))
	_, err := NewWithConfig(Config{SupportedFormats: []string{"png"}}).Load(data)
	if !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestLoadWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(120, 80)); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}

	src, err := New().Load(buf.Bytes())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if src.Format != "png" {
		t.Errorf("Expected png, got %s", src.Format)
	}
	if src.Reoriented() {
		t.Error("PNG without metadata should not be reoriented")
	}
	if b := src.Image.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("Expected 120x80, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestLoadAppliesOrientation(t *testing.T) {
	// Orientation 6: the camera was turned clockwise, so the stored left edge
	// is the displayed top edge.
	data := withOrientation(t, encodeJPEG(t, createMarkedImage(80, 40, 16)), OrientationRotate270)

	if o := Orientation(data); o != OrientationRotate270 {
		t.Fatalf("Expected orientation 6, got %d", o)
	}

	src, err := New().Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !src.Reoriented() {
		t.Error("Expected source to be reoriented")
	}

	b := src.Image.Bounds()
	if b.Dx() != 40 || b.Dy() != 80 {
		t.Fatalf("Expected 40x80 after rotation, got %dx%d", b.Dx(), b.Dy())
	}

	r, _, bl, _ := src.Image.At(20, 4).RGBA()
	if r>>8 < 200 || bl>>8 > 60 {
		t.Errorf("Expected red band at the top, got r=%d b=%d", r>>8, bl>>8)
	}
	r, _, bl, _ = src.Image.At(20, 70).RGBA()
	if bl>>8 < 200 || r>>8 > 60 {
		t.Errorf("Expected blue below the band, got r=%d b=%d", r>>8, bl>>8)
	}
}

func TestLoadWithoutAutoOrient(t *testing.T) {
	data := withOrientation(t, encodeJPEG(t, createMarkedImage(80, 40, 16)), OrientationRotate90)

	cfg := DefaultConfig()
	cfg.AutoOrient = false
	src, err := NewWithConfig(cfg).Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := src.Image.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("Expected untouched 80x40, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestOrient(t *testing.T) {
	img := createTestImage(30, 10)
	tests := []struct {
		orientation int
		w, h        int
	}{
		{OrientationNormal, 30, 10},
		{OrientationFlipH, 30, 10},
		{OrientationRotate180, 30, 10},
		{OrientationFlipV, 30, 10},
		{OrientationTranspose, 10, 30},
		{OrientationRotate270, 10, 30},
		{OrientationTransverse, 10, 30},
		{OrientationRotate90, 10, 30},
		{42, 30, 10},
	}

	for _, tt := range tests {
		b := Orient(img, tt.orientation).Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("Orient(%d): expected %dx%d, got %dx%d", tt.orientation, tt.w, tt.h, b.Dx(), b.Dy())
		}
	}
}

func BenchmarkGetImageInfo(b *testing.B) {
	analyzer := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.GetImageInfo(img)
	}
}

func BenchmarkValidateImage(b *testing.B) {
	analyzer := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.ValidateImage(img)
	}
}
