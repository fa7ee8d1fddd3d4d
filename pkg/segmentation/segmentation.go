// Package segmentation separates the subject of a photo from its backdrop.
//
// A Segmenter takes an encoded image and returns an encoded RGBA image of the
// same dimensions whose alpha channel is the foreground mask. Implementations
// are safe for concurrent use.
package segmentation

import (
	"context"
)

// Segmenter produces a foreground cutout from an encoded image
type Segmenter interface {
	Segment(ctx context.Context, encoded []byte) ([]byte, error)
}

// Func adapts an ordinary function to the Segmenter interface
type Func func(ctx context.Context, encoded []byte) ([]byte, error)

// Segment calls f(ctx, encoded)
func (f Func) Segment(ctx context.Context, encoded []byte) ([]byte, error) {
	return f(ctx, encoded)
}

// Passthrough treats the whole image as foreground
type Passthrough struct{}

// Segment returns a copy of the input. Opaque sources composite to themselves.
func (Passthrough) Segment(ctx context.Context, encoded []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), encoded...), nil
}
