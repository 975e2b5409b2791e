// Package masking implements the adaptive clean-mask synthesis engine: from
// a per-pixel signal-to-noise map of a radio image it derives a boolean mask
// of real emission that a downstream deconvolution run can clean within.
//
// The pipeline seeds islands at high significance and floods them down to a
// lower threshold, optionally suppresses negative artefacts around bright
// sources, recovers large diffuse low-significance islands, and erodes the
// result with the shape of the restoring beam.
package masking

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy of the engine. Structural and
// configuration problems are returned immediately; data-dependent edge cases
// fall back to a safe default and log a warning instead.
var (
	// ErrNoInput indicates that no usable image or signal array was supplied.
	ErrNoInput = errors.New("no input maps have been provided")

	// ErrBadConfig indicates a parameter outside its valid domain.
	ErrBadConfig = errors.New("masking option outside valid range")

	// ErrShapeMismatch indicates incompatible array shapes or pixel scales.
	ErrShapeMismatch = errors.New("incompatible shapes")
)

// Options controls the creation of clean masks from a subject image.
// Clipping levels are in units of RMS (sigma), never absolute flux.
// The zero value is not useful; start from DefaultOptions and adjust
// individual fields, or use With for copy-with-overrides semantics.
type Options struct {
	// BaseSNRClip is the clipping level used when flood filling is disabled
	BaseSNRClip float64 `yaml:"baseSnrClip"`

	// FloodFill enables the seeded flood-fill mask construction. It must be
	// true for artefact suppression and low SNR island growth to have effect.
	FloodFill bool `yaml:"floodFill"`

	// FloodFillPositiveSeedClip is the level that seeds islands which are
	// then grown down to a lower significance
	FloodFillPositiveSeedClip float64 `yaml:"floodFillPositiveSeedClip"`

	// FloodFillPositiveFloodClip is the level seeded islands grow down to
	FloodFillPositiveFloodClip float64 `yaml:"floodFillPositiveFloodClip"`

	// FloodFillUseMBC switches the seed and flood masks over to the minimum
	// absolute clip operator, with the clip levels reused as increase factors
	FloodFillUseMBC bool `yaml:"floodFillUseMbc"`

	// FloodFillUseMBCBoxSize is the rolling box size for the minimum
	// absolute clip
	FloodFillUseMBCBoxSize int `yaml:"floodFillUseMbcBoxSize"`

	// SuppressArtefacts enables removal of spurious islands near significant
	// negative emission
	SuppressArtefacts bool `yaml:"suppressArtefacts"`

	// SuppressArtefactsNegativeSeedClip is the significance a negative island
	// needs before sidelobe suppression activates. Positive number; the
	// signal map is inverted internally.
	SuppressArtefactsNegativeSeedClip float64 `yaml:"suppressArtefactsNegativeSeedClip"`

	// SuppressArtefactsGuardNegativeDilation guards pixels whose positive
	// significance is above this level from the artefact suppression growth
	SuppressArtefactsGuardNegativeDilation float64 `yaml:"suppressArtefactsGuardNegativeDilation"`

	// SuppressArtefactsLargeIslandThreshold is the size, in beams, above
	// which a negative island is no longer used as an artefact seed
	SuppressArtefactsLargeIslandThreshold float64 `yaml:"suppressArtefactsLargeIslandThreshold"`

	// GrowLowSNRIsland enables recovery of large islands of low significance
	// pixels, e.g. diffuse emission
	GrowLowSNRIsland bool `yaml:"growLowSnrIsland"`

	// GrowLowSNRIslandClip is the minimum significance of pixels seeding low
	// SNR islands
	GrowLowSNRIslandClip float64 `yaml:"growLowSnrIslandClip"`

	// GrowLowSNRIslandSize is the number of pixels an island needs to be kept
	GrowLowSNRIslandSize int `yaml:"growLowSnrIslandSize"`

	// MinimumBoxcar is accepted for compatibility only. The boxcar island
	// filter is deprecated and has no effect.
	MinimumBoxcar bool `yaml:"minimumBoxcar"`

	// MinimumBoxcarSize is the size of the deprecated boxcar filter
	MinimumBoxcarSize int `yaml:"minimumBoxcarSize"`

	// MinimumBoxcarIncreaseFactor scales the deprecated boxcar threshold
	MinimumBoxcarIncreaseFactor float64 `yaml:"minimumBoxcarIncreaseFactor"`

	// BeamShapeErode erodes the final mask with the restoring beam shape
	BeamShapeErode bool `yaml:"beamShapeErode"`

	// BeamShapeErodeMinimumResponse is the beam response level the erosion
	// structure is cut at. Must be strictly between 0 and 1; smaller values
	// make a larger structure and remove islands more aggressively.
	BeamShapeErodeMinimumResponse float64 `yaml:"beamShapeErodeMinimumResponse"`
}

// DefaultOptions returns the masking options used when nothing is
// overridden.
func DefaultOptions() Options {
	return Options{
		BaseSNRClip:                            4.0,
		FloodFill:                              true,
		FloodFillPositiveSeedClip:              4.5,
		FloodFillPositiveFloodClip:             1.5,
		FloodFillUseMBC:                        false,
		FloodFillUseMBCBoxSize:                 75,
		SuppressArtefacts:                      false,
		SuppressArtefactsNegativeSeedClip:      5.0,
		SuppressArtefactsGuardNegativeDilation: 40.0,
		SuppressArtefactsLargeIslandThreshold:  1.0,
		GrowLowSNRIsland:                       false,
		GrowLowSNRIslandClip:                   1.75,
		GrowLowSNRIslandSize:                   768,
		MinimumBoxcar:                          false,
		MinimumBoxcarSize:                      100,
		MinimumBoxcarIncreaseFactor:            1.2,
		BeamShapeErode:                         false,
		BeamShapeErodeMinimumResponse:          0.6,
	}
}

// With returns a copy of the options with the supplied overrides applied.
// The receiver is not modified.
func (o Options) With(override func(*Options)) Options {
	override(&o)
	return o
}

// Validate checks that every enabled stage has parameters inside its valid
// domain.
func (o Options) Validate() error {
	if o.BeamShapeErode {
		if !(o.BeamShapeErodeMinimumResponse > 0.0 && o.BeamShapeErodeMinimumResponse < 1.0) {
			return fmt.Errorf("%w: beamShapeErodeMinimumResponse=%v, must be in (0, 1)",
				ErrBadConfig, o.BeamShapeErodeMinimumResponse)
		}
	}
	if o.FloodFillUseMBC && o.FloodFillUseMBCBoxSize < 1 {
		return fmt.Errorf("%w: floodFillUseMbcBoxSize=%d, must be positive",
			ErrBadConfig, o.FloodFillUseMBCBoxSize)
	}
	if o.GrowLowSNRIsland && o.GrowLowSNRIslandSize < 1 {
		return fmt.Errorf("%w: growLowSnrIslandSize=%d, must be positive",
			ErrBadConfig, o.GrowLowSNRIslandSize)
	}
	return nil
}
