package raster

import (
	"image"
	"image/color"
	"math"
)

// Backdrop estimates the backdrop color as the per-channel median of a strip
// of band pixels along every edge of img. The result is opaque.
func Backdrop(img *image.NRGBA, band int) color.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{A: 255}
	}
	band = max(1, min(band, w/2, h/2))

	var hist [3][256]int
	n := 0
	for y := 0; y < h; y++ {
		row := (y+b.Min.Y-img.Rect.Min.Y)*img.Stride + (b.Min.X-img.Rect.Min.X)*4
		for x := 0; x < w; x++ {
			if x >= band && x < w-band && y >= band && y < h-band {
				continue
			}
			i := row + x*4
			hist[0][img.Pix[i]]++
			hist[1][img.Pix[i+1]]++
			hist[2][img.Pix[i+2]]++
			n++
		}
	}

	return color.NRGBA{
		R: median(hist[0], n),
		G: median(hist[1], n),
		B: median(hist[2], n),
		A: 255,
	}
}

func median(hist [256]int, n int) uint8 {
	half := int(math.Ceil(float64(n) / 2))
	seen := 0
	for v, c := range hist {
		seen += c
		if seen >= half {
			return uint8(v)
		}
	}
	return 255
}
