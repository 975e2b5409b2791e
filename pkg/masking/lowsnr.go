package masking

import (
	"fmt"

	"cleanmask/pkg/morph"
)

// GrowLowSNR recovers islands of faint contiguous emission that plain
// pixel-wise clipping misses, such as diffuse low surface brightness
// structure that would otherwise never be cleaned.
//
// Pixels above the low clip are consolidated with a morphological close (two
// dilation passes followed by two erosion passes), any pixels covered by
// regionMask are forced off, and only islands of at least islandSize pixels
// survive. The caller ORs the result into the positive mask, so recovery can
// only ever add pixels.
func GrowLowSNR(signal []float64, width, height int, clip float64, islandSize int, regionMask []bool) []bool {
	fmt.Printf("Growing low SNR islands with clip=%v islandSize=%d\n", clip, islandSize)

	lowSNRMask := make([]bool, len(signal))
	for i, v := range signal {
		lowSNRMask[i] = v > clip
	}

	lowSNRMask = morph.BinaryDilate(lowSNRMask, nil, width, height, 2)
	lowSNRMask = morph.BinaryErode3x3(lowSNRMask, width, height, 2)

	if regionMask != nil {
		for i, excluded := range regionMask {
			if excluded {
				lowSNRMask[i] = false
			}
		}
	}

	labels, counts := morph.Label(lowSNRMask, width, height)
	small := make([]bool, len(counts))
	for label := 1; label < len(counts); label++ {
		if counts[label] < islandSize {
			small[label] = true
		}
	}
	for i, label := range labels {
		if label > 0 && small[label] {
			lowSNRMask[i] = false
		}
	}

	return lowSNRMask
}
