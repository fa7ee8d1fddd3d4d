// Package compositor flattens a background-free cutout onto a solid color.
//
// Compositing uses straight (non-premultiplied) alpha "over":
//
//	out = fg.rgb * a + bg.rgb * (1 - a)
//
// Foregrounds are converted to NRGBA first, so premultiplied inputs such as
// *image.RGBA are un-premultiplied before blending.
package compositor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/pkg/types"
)

// Composite places fg over a solid bg and returns an opaque image of the same size
func Composite(fg image.Image, bg types.Color) (*image.NRGBA, error) {
	b := fg.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: foreground has zero area (%dx%d)", types.ErrDimensionMismatch, b.Dx(), b.Dy())
	}

	src := imaging.Clone(fg)
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	bgc := [3]uint32{uint32(bg.R), uint32(bg.G), uint32(bg.B)}

	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(0, y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			s := src.Pix[si : si+4 : si+4]
			d := dst.Pix[di : di+4 : di+4]
			a := uint32(s[3])
			switch a {
			case 255:
				d[0], d[1], d[2] = s[0], s[1], s[2]
			case 0:
				d[0], d[1], d[2] = bg.R, bg.G, bg.B
			default:
				for c := 0; c < 3; c++ {
					d[c] = uint8((uint32(s[c])*a + bgc[c]*(255-a) + 127) / 255)
				}
			}
			d[3] = 255
			si += 4
			di += 4
		}
	}

	return dst, nil
}

// Fill returns an opaque canvas of the given size painted with c
func Fill(size types.PixelSize, c types.Color) (*image.NRGBA, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas %s must be positive", types.ErrInvalidDimension, size)
	}
	return imaging.New(size.Width, size.Height, c.NRGBA()), nil
}

// IsOpaque reports whether every pixel of img has full alpha
func IsOpaque(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[i+3] != 255 {
				return false
			}
			i += 4
		}
	}
	return true
}
