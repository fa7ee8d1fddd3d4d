package types

import "errors"

// Sentinel errors shared by every pipeline stage. Stages wrap them with
// fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	// ErrInvalidDimension is returned for non-positive physical sizes, pixel sizes or DPI,
	// and for sizes past the raster limits in pkg/units.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrInvalidParameter is returned for out-of-range settings such as brightness or a malformed color.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch is returned for zero-area, undersized or incompatible image buffers.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrSegmentationFailure is returned when background removal fails or yields an undecodable image.
	ErrSegmentationFailure = errors.New("segmentation failure")

	// ErrDetectionUnavailable signals that no face was found. It triggers the
	// center-crop fallback and is never surfaced by the pipeline.
	ErrDetectionUnavailable = errors.New("detection unavailable")
)
