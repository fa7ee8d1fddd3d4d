// Package layout tiles copies of a framed photo onto a print sheet.
//
// Tiles are placed by a greedy row-major sweep: left to right starting at
// (margin, margin), wrapping to a new row when the next tile would cross the
// right margin and stopping once a row would cross the bottom margin. There
// is no rotation and no search for a denser packing, so the same inputs
// always give the same positions.
package layout

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/compositor"
	"github.com/menta2k/idphoto/pkg/types"
)

// Defaults for the printed sheet
const (
	DefaultMargin      = 40
	DefaultGap         = 20
	DefaultBorderWidth = 1
)

// DefaultBorderColor is the cut guide drawn around every tile
var DefaultBorderColor = color.NRGBA{R: 160, G: 160, B: 160, A: 255}

// Sheet describes the paper background and cut guides
type Sheet struct {
	Background  types.Color
	BorderWidth int
	BorderColor color.NRGBA
}

// DefaultSheet is a white sheet with thin gray cut guides
func DefaultSheet() Sheet {
	return Sheet{
		Background:  types.White,
		BorderWidth: DefaultBorderWidth,
		BorderColor: DefaultBorderColor,
	}
}

// Tile lays out copies of img on a default sheet
func Tile(img image.Image, canvas types.PixelSize, margin, gap int) (types.LayoutResult, error) {
	return DefaultSheet().Tile(img, canvas, margin, gap)
}

// Positions returns the top-left corner of every tile the sweep places
func Positions(tile, canvas types.PixelSize, margin, gap int) []image.Point {
	var pts []image.Point
	if tile.Width <= 0 || tile.Height <= 0 {
		return pts
	}
	for y := margin; y+tile.Height <= canvas.Height-margin; y += tile.Height + gap {
		for x := margin; x+tile.Width <= canvas.Width-margin; x += tile.Width + gap {
			pts = append(pts, image.Pt(x, y))
		}
	}
	return pts
}

// Tile lays out as many copies of img as fit on a canvas of the given size.
// Translucent tiles are flattened onto the sheet background first. The cut
// guide is drawn over each tile's outermost pixels so it never changes the
// spacing between tiles.
func (s Sheet) Tile(img image.Image, canvas types.PixelSize, margin, gap int) (types.LayoutResult, error) {
	if margin < 0 || gap < 0 {
		return types.LayoutResult{}, fmt.Errorf("%w: margin %d and gap %d must not be negative", types.ErrInvalidParameter, margin, gap)
	}

	out, err := compositor.Fill(canvas, s.Background)
	if err != nil {
		return types.LayoutResult{}, err
	}

	b := img.Bounds()
	tile := types.PixelSize{Width: b.Dx(), Height: b.Dy()}
	pts := Positions(tile, canvas, margin, gap)
	if len(pts) == 0 {
		return types.LayoutResult{Canvas: out}, nil
	}

	flat, err := compositor.Composite(img, s.Background)
	if err != nil {
		return types.LayoutResult{}, err
	}
	for _, p := range pts {
		r := image.Rectangle{Min: p, Max: p.Add(image.Pt(tile.Width, tile.Height))}
		draw.Draw(out, r, flat, flat.Bounds().Min, draw.Src)
		if s.BorderWidth > 0 {
			raster.StrokeRect(out, r, s.BorderWidth, s.BorderColor)
		}
	}

	return types.LayoutResult{Canvas: out, Count: len(pts), Positions: pts}, nil
}
