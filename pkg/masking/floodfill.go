package masking

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"cleanmask/pkg/morph"
)

// growthIterationCap bounds the seeded dilation. Growth normally converges
// well before this; the cap only matters for pathologically large islands.
const growthIterationCap = 1000

// verifySeedClip sanity checks the positive seed clip against the signal
// actually present. If the brightest pixel sits below the requested clip the
// clip is lowered to 90 percent of the maximum so at least one seed exists,
// and the fallback is reported as a warning rather than failing the plane.
func verifySeedClip(seedClip float64, signal []float64) float64 {
	maxSignal := floats.Max(signal)
	if maxSignal < seedClip {
		fmt.Printf("Warning: maximum signal %.4f is below the seed clip %.4f, setting clip to 90 percent of maximum\n",
			maxSignal, seedClip)
		seedClip = maxSignal * 0.9
	}
	return seedClip
}

// MinimumAbsoluteClip masks pixels that stand above the locally varying
// noise floor: a rolling box minimum is taken over the image and pixels
// exceeding increaseFactor times its absolute value are selected. This is a
// purely pixel-wise decision with no connectivity involved.
func MinimumAbsoluteClip(image []float64, width, height int, increaseFactor float64, boxSize int) []bool {
	fmt.Printf("Minimum absolute clip with increaseFactor=%v boxSize=%d\n", increaseFactor, boxSize)
	rollingMin := morph.MinimumFilter(image, width, height, boxSize)

	mask := make([]bool, len(image))
	for i, v := range image {
		threshold := rollingMin[i]
		if threshold < 0 {
			threshold = -threshold
		}
		mask[i] = v > increaseFactor*threshold
	}
	return mask
}

// ReverseNegativeFloodFill constructs the positive emission mask for one
// plane: seed islands at high significance and grow them down to the flood
// level, then optionally subtract artefact regions and restore large diffuse
// islands.
//
// The seed and floor masks come either from fixed clips on the signal map or
// from the minimum absolute clip operator applied to the image itself.
// Growth is a guarded dilation that can only enter pixels above the floor,
// and runs until it converges.
//
// pixelsPerBeam may be zero when the beam geometry is unknown; the large
// negative island filter is skipped in that case.
func ReverseNegativeFloodFill(base []float64, width, height int, opts Options, pixelsPerBeam float64) []bool {
	fmt.Println("Reverse flood filling the signal plane")

	var seedMask, floorMask []bool
	if opts.FloodFillUseMBC {
		seedMask = MinimumAbsoluteClip(base, width, height,
			opts.FloodFillPositiveSeedClip, opts.FloodFillUseMBCBoxSize)
		floorMask = MinimumAbsoluteClip(base, width, height,
			opts.FloodFillPositiveFloodClip, opts.FloodFillUseMBCBoxSize)
	} else {
		seedClip := verifySeedClip(opts.FloodFillPositiveSeedClip, base)

		seedMask = make([]bool, len(base))
		floorMask = make([]bool, len(base))
		for i, v := range base {
			seedMask[i] = v >= seedClip
			floorMask[i] = v > opts.FloodFillPositiveFloodClip
		}
	}

	positiveMask := morph.BinaryDilate(seedMask, floorMask, width, height, growthIterationCap)

	if opts.MinimumBoxcar {
		positiveMask = MinimumBoxcarArtefactMask(base, positiveMask, width, height,
			opts.MinimumBoxcarSize, opts.MinimumBoxcarIncreaseFactor)
	}

	var negativeMask []bool
	if opts.SuppressArtefacts {
		negativeMask = SuppressArtefacts(base, width, height,
			opts.SuppressArtefactsNegativeSeedClip,
			opts.SuppressArtefactsGuardNegativeDilation,
			pixelsPerBeam,
			opts.SuppressArtefactsLargeIslandThreshold)

		for i, bad := range negativeMask {
			if bad {
				positiveMask[i] = false
			}
		}
	}

	if opts.GrowLowSNRIsland {
		lowSNRMask := GrowLowSNR(base, width, height,
			opts.GrowLowSNRIslandClip, opts.GrowLowSNRIslandSize, negativeMask)

		for i, low := range lowSNRMask {
			if low {
				positiveMask[i] = true
			}
		}
	}

	return positiveMask
}
