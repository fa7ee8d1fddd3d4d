// Package raster strokes lines and rectangles directly into NRGBA pixel buffers.
package raster

import (
	"image"
	"image/color"
)

// StrokeRect draws a rectangle outline of the given width inside r.
// The stroke grows inward so the outline never leaves r.
func StrokeRect(img *image.NRGBA, r image.Rectangle, width int, c color.NRGBA) {
	r = r.Canon()
	for s := 0; s < width; s++ {
		if r.Dx() <= 2*s || r.Dy() <= 2*s {
			return
		}
		HLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		HLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		VLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		VLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

// HLine draws the half-open horizontal span [x0,x1) on row y, clipped to the image
func HLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, b.Min.X), min(x1, b.Max.X)
	if x0 >= x1 {
		return
	}
	i := img.PixOffset(x0, y)
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

// VLine draws the half-open vertical span [y0,y1) on column x, clipped to the image
func VLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, b.Min.Y), min(y1, b.Max.Y)
	if y0 >= y1 {
		return
	}
	i := img.PixOffset(x, y0)
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

// Cross draws a plus-shaped marker of the given arm length centered on p
func Cross(img *image.NRGBA, p image.Point, arm int, c color.NRGBA) {
	HLine(img, p.Y, p.X-arm, p.X+arm+1, c)
	VLine(img, p.X, p.Y-arm, p.Y+arm+1, c)
}
