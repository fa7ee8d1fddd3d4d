package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// MaxDownloadSize caps the size of images fetched over HTTP
const MaxDownloadSize = 32 << 20

// Processor handles image loading and encoding
type Processor struct {
	httpClient *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ReadURL downloads the raw bytes of an image
func (p *Processor) ReadURL(ctx context.Context, imageURL string) ([]byte, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "idphoto/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxDownloadSize)
	}
	return data, nil
}

// ReadSource reads image bytes from either a file path or an http(s) URL
func (p *Processor) ReadSource(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.ReadURL(ctx, source)
	}
	return os.ReadFile(source)
}

// Decode decodes an image from bytes with WebP support. It returns the
// decoder name reported by image.Decode ("jpeg", "png", "webp", ...).
func Decode(data []byte) (image.Image, string, error) {
	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, format, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, "webp", nil
	}

	return nil, "", fmt.Errorf("image: unknown or unsupported format")
}

// EncodeJPEG encodes img as a baseline JPEG carrying a JFIF density of dpi
func EncodeJPEG(img image.Image, quality int, dpi float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return SetJPEGDensity(buf.Bytes(), dpi)
}

// Encode serializes img as jpg, png or webp
func Encode(img image.Image, format string, quality int, lossless bool, dpi float64) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "webp":
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, err
		}
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	case "jpg", "jpeg", "":
		return EncodeJPEG(img, quality, dpi)
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q", types.ErrInvalidParameter, format)
	}
	return buf.Bytes(), nil
}

// SaveImage saves an image to a file with the specified format and quality
func SaveImage(img image.Image, path, format string, quality int, lossless bool, dpi float64) error {
	data, err := Encode(img, format, quality, lossless, dpi)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CreateDebugOverlay draws the detected face box, the chosen crop and both
// centers on a copy of the source image.
func CreateDebugOverlay(img image.Image, face *types.Box, crop types.CropRect) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	green := color.NRGBA{0, 255, 0, 255}  // face box
	gold := color.NRGBA{255, 204, 0, 255} // crop box
	red := color.NRGBA{255, 0, 0, 255}    // face center
	blue := color.NRGBA{0, 170, 255, 255} // image center
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))
	cross := int(math.Max(4, 0.01*float64(min(w, h))))

	if face != nil {
		fb := face.Clamp()
		raster.StrokeRect(nrgba, boxToRect(fb, w, h), stroke, green)
		cx, cy := fb.Center()
		raster.Cross(nrgba, image.Pt(int(cx*float64(w)+0.5), int(cy*float64(h)+0.5)), cross, red)
	}

	if crop.Within(w, h) {
		raster.StrokeRect(nrgba, crop.Rect(), stroke, gold)
	}

	raster.Cross(nrgba, image.Pt(w/2, h/2), 6, blue)

	return nrgba
}

func boxToRect(box types.Box, w, h int) image.Rectangle {
	x0 := int(box.X*float64(w) + 0.5)
	y0 := int(box.Y*float64(h) + 0.5)
	x1 := int((box.X+box.W)*float64(w) + 0.5)
	y1 := int((box.Y+box.H)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}
