package masking

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// BuildSignal derives a dimensionless signal-to-noise array from an image
// and its noise map as (image - background) / rms. A nil background is
// treated as zero everywhere. When a precomputed signal array is supplied it
// is returned directly and the other inputs are ignored.
//
// The arithmetic is staged (subtract, then divide) over a single fresh
// buffer so peak memory stays at one extra image-sized allocation.
func BuildSignal(image, rms, background, signal []float64) ([]float64, error) {
	if image == nil && rms == nil && background == nil && signal == nil {
		return nil, fmt.Errorf("%w: need an image with rms, or a signal array", ErrNoInput)
	}

	if signal != nil || image == nil || rms == nil {
		return signal, nil
	}

	if len(rms) != len(image) {
		return nil, fmt.Errorf("%w: image has %d pixels, rms has %d",
			ErrShapeMismatch, len(image), len(rms))
	}
	if background != nil && len(background) != len(image) {
		return nil, fmt.Errorf("%w: image has %d pixels, background has %d",
			ErrShapeMismatch, len(image), len(background))
	}

	out := make([]float64, len(image))
	copy(out, image)
	if background != nil {
		floats.Sub(out, background)
	}
	floats.Div(out, rms)

	return out, nil
}

// NeedSignal reports whether mask synthesis with the given options requires
// a signal map at all. The minimum absolute clip path works directly on the
// image, so callers may skip loading the rms and background maps for it.
func NeedSignal(opts Options) bool {
	return !opts.FloodFillUseMBC
}
