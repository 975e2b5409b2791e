package masking

import (
	"testing"
)

// TestSuppressArtefactsGrowsAroundNegative verifies that negative islands
// seed suppression regions which grow outwards but never cross bright
// positive pixels.
func TestSuppressArtefactsGrowsAroundNegative(t *testing.T) {
	width, height := 30, 30
	signal := constSlice(width*height, 0.0)

	// A 3x3 negative island well above the seed clip.
	for y := 10; y < 13; y++ {
		for x := 10; x < 13; x++ {
			signal[y*width+x] = -6.0
		}
	}
	// One bright source pixel near the island that the guard must protect.
	signal[5*width+11] = 50.0

	mask := SuppressArtefacts(signal, width, height, 5.0, 40.0, 0, 1.0)

	for y := 10; y < 13; y++ {
		for x := 10; x < 13; x++ {
			if !mask[y*width+x] {
				t.Fatalf("Negative seed pixel (%d,%d) missing from the suppression mask", x, y)
			}
		}
	}
	if got := countTrue(mask); got <= 9 {
		t.Errorf("Expected the suppression region to grow beyond its 9 seeds, got %d pixels", got)
	}
	if mask[5*width+11] {
		t.Errorf("The guard must keep the 50 sigma pixel out of the suppression region")
	}
	if mask[29*width+29] {
		t.Errorf("The suppression region must not reach the far corner")
	}
}

// TestSuppressArtefactsLargeIslandRemoved verifies that negative islands
// larger than the beam threshold are treated as real structure and dropped
// from the artefact seeds.
func TestSuppressArtefactsLargeIslandRemoved(t *testing.T) {
	width, height := 60, 60
	signal := constSlice(width*height, 0.0)

	// A 20 pixel negative island and a single negative pixel far away.
	for y := 5; y < 9; y++ {
		for x := 5; x < 10; x++ {
			signal[y*width+x] = -6.0
		}
	}
	signal[50*width+50] = -6.0

	// With 10 pixels per beam and a threshold of 1 beam, the 20 pixel
	// island is removed and only the single pixel seeds suppression.
	mask := SuppressArtefacts(signal, width, height, 5.0, 40.0, 10.0, 1.0)

	if mask[6*width+6] {
		t.Errorf("The large negative island must be removed from the seeds")
	}
	if !mask[50*width+50] {
		t.Errorf("The small negative island must survive as a seed")
	}

	// Ten growth iterations turn the single seed into a 21x21 square, but
	// the image edge clips rows and columns 40..59 to 20 of each.
	if got := countTrue(mask); got != 20*20 {
		t.Errorf("Expected %d pixels around the surviving seed, got %d", 20*20, got)
	}
}

// TestSuppressArtefactsNoBeamKeepsLargeIslands verifies that the island size
// filter is skipped entirely when the beam geometry is unknown.
func TestSuppressArtefactsNoBeamKeepsLargeIslands(t *testing.T) {
	width, height := 40, 40
	signal := constSlice(width*height, 0.0)
	for y := 5; y < 9; y++ {
		for x := 5; x < 10; x++ {
			signal[y*width+x] = -6.0
		}
	}

	mask := SuppressArtefacts(signal, width, height, 5.0, 40.0, 0, 1.0)

	if !mask[6*width+6] {
		t.Errorf("Without pixelsPerBeam the large island must stay seeded")
	}
}

// TestReverseNegativeFloodFillSuppressesArtefacts checks that the artefact
// region is subtracted from the positive emission mask.
func TestReverseNegativeFloodFillSuppressesArtefacts(t *testing.T) {
	width, height := 40, 40

	// Two positive islands: a genuine source and a sidelobe sitting right
	// next to a strong negative island.
	plane := planeWithRect(width, height, 0.0, 5, 5, 9, 9, 10.0)
	for y := 20; y < 24; y++ {
		for x := 20; x < 24; x++ {
			plane[y*width+x] = 10.0
		}
		for x := 25; x < 29; x++ {
			plane[y*width+x] = -8.0
		}
	}

	opts := DefaultOptions().With(func(o *Options) {
		o.SuppressArtefacts = true
		// Keep the guard above the sidelobe brightness so it can be removed.
		o.SuppressArtefactsGuardNegativeDilation = 40.0
	})

	mask := ReverseNegativeFloodFill(plane, width, height, opts, 0)

	if !mask[6*width+6] {
		t.Errorf("The genuine source away from the negative island must stay masked")
	}
	if mask[21*width+21] {
		t.Errorf("The sidelobe island next to the negative emission must be suppressed")
	}
}
