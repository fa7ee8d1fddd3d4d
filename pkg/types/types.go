package types

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the box center in relative coordinates
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Clamp returns a copy of the box with every edge inside [0,1]
func (b Box) Clamp() Box {
	x0, y0 := clamp01(b.X), clamp01(b.Y)
	x1, y1 := clamp01(b.X+b.W), clamp01(b.Y+b.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Empty reports whether the box covers no area
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// FaceResult is what a vision model reports when asked to locate a face
type FaceResult struct {
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Color is an opaque 8-bit RGB triple
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NRGBA returns the color as a fully opaque color.NRGBA
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Hex returns the #rrggbb form of the color
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	for _, nc := range NamedColors() {
		if nc.Color == c {
			return nc.Name
		}
	}
	return c.Hex()
}

// ParseColor accepts a named color, "#rrggbb" or "r,g,b"
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty color", ErrInvalidParameter)
	}
	if c, ok := LookupColor(s); ok {
		return c, nil
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 {
			return Color{}, fmt.Errorf("%w: malformed color %q", ErrInvalidParameter, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: malformed color %q", ErrInvalidParameter, s)
		}
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: unknown color %q", ErrInvalidParameter, s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("%w: channel %q of color %q must be 0-255", ErrInvalidParameter, p, s)
		}
		ch[i] = uint8(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// PhysicalSize is a print size in millimetres
type PhysicalSize struct {
	WidthMM  float64 `json:"width_mm" toml:"width_mm" yaml:"width_mm"`
	HeightMM float64 `json:"height_mm" toml:"height_mm" yaml:"height_mm"`
}

// Validate checks that both sides are positive
func (s PhysicalSize) Validate() error {
	if s.WidthMM <= 0 || s.HeightMM <= 0 {
		return fmt.Errorf("%w: physical size %.1fx%.1fmm must be positive", ErrInvalidDimension, s.WidthMM, s.HeightMM)
	}
	return nil
}

func (s PhysicalSize) String() string {
	return fmt.Sprintf("%gx%gmm", s.WidthMM, s.HeightMM)
}

// PixelSize is a raster size in pixels
type PixelSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the size as a rectangle anchored at the origin
func (s PixelSize) Rect() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Aspect returns width divided by height
func (s PixelSize) Aspect() float64 {
	return float64(s.Width) / float64(s.Height)
}

func (s PixelSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// CropRect is a crop in absolute source pixel coordinates
type CropRect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Rect converts the crop to an image.Rectangle
func (r CropRect) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Width returns the crop width
func (r CropRect) Width() int { return r.Right - r.Left }

// Height returns the crop height
func (r CropRect) Height() int { return r.Bottom - r.Top }

// Within reports whether the crop is non-empty and fits a w x h source
func (r CropRect) Within(w, h int) bool {
	return r.Left >= 0 && r.Left < r.Right && r.Right <= w &&
		r.Top >= 0 && r.Top < r.Bottom && r.Bottom <= h
}

// LayoutResult is a print sheet with the number of copies placed on it
type LayoutResult struct {
	Canvas    *image.NRGBA
	Count     int
	Positions []image.Point
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
