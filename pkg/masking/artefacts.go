package masking

import (
	"fmt"

	"cleanmask/pkg/morph"
)

// artefactDilationIterations is the fixed growth distance of the negative
// seed islands. Unlike the positive flood fill this is not run to
// convergence: the artefact regions only need to cover the immediate
// surroundings of the negative seeds.
const artefactDilationIterations = 10

// SuppressArtefacts builds a mask of presumed calibration and deconvolution
// artefacts around bright sources. The working assumptions are that there is
// no genuine source of negative sky emission, that significant negative
// islands sit near bright sources with deconvolution or calibration errors,
// and that bright negative islands come with bright positive artefact
// islands nearby.
//
// Islands of inverted signal above negativeSeedClip are grown outwards,
// guarded so growth never enters pixels whose signed signal exceeds
// guardNegativeDilation. The guard must be high enough to protect the true
// source but low enough to let the false positive islands be taken out. If
// pixelsPerBeam is non-zero, negative islands larger than
// largeIslandThreshold beams are treated as a different phenomenon and
// removed from the seeds.
//
// The caller subtracts the returned mask from the positive emission mask.
func SuppressArtefacts(signal []float64, width, height int, negativeSeedClip, guardNegativeDilation, pixelsPerBeam, largeIslandThreshold float64) []bool {
	negativeMask := make([]bool, len(signal))
	for i, v := range signal {
		negativeMask[i] = -v > negativeSeedClip
	}

	if pixelsPerBeam > 0 {
		labels, counts := morph.Label(negativeMask, width, height)

		clipPixels := largeIslandThreshold * pixelsPerBeam
		fmt.Printf("Removing negative islands larger than %.1f pixels (largeIslandThreshold=%v, pixelsPerBeam=%v)\n",
			clipPixels, largeIslandThreshold, pixelsPerBeam)

		large := make([]bool, len(counts))
		for label := 1; label < len(counts); label++ {
			if float64(counts[label]) > clipPixels {
				large[label] = true
			}
		}
		for i, label := range labels {
			if label > 0 && large[label] {
				negativeMask[i] = false
			}
		}
	}

	guard := make([]bool, len(signal))
	for i, v := range signal {
		guard[i] = v < guardNegativeDilation
	}

	return morph.BinaryDilate(negativeMask, guard, width, height, artefactDilationIterations)
}

// MinimumBoxcarArtefactMask is the retired boxcar island filter. It used to
// eliminate islands whose peak signal was below a scaled local minimum, but
// the heuristic misfired on extended sources and the operation is now a
// pass-through kept for configuration compatibility: the input island mask
// is returned unchanged, as the same slice.
//
// Deprecated: scheduled for removal; use SuppressArtefacts or the minimum
// absolute clip seeding instead.
func MinimumBoxcarArtefactMask(signal []float64, islandMask []bool, width, height, boxcarSize int, increaseFactor float64) []bool {
	fmt.Println("Warning: the minimum boxcar artefact filter is deprecated and has no effect")
	return islandMask
}
