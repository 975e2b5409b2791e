package masking

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"cleanmask/internal/models"
	"cleanmask/pkg/fits"
	"cleanmask/pkg/morph"
)

// defaultBeamKernelSize is the side length in pixels of the grid the beam
// shape is sampled on.
const defaultBeamKernelSize = 100

// fwhmToSigma converts a Gaussian full width at half maximum to a standard
// deviation.
const fwhmToSigma = 2.3548200450309493 // 2*sqrt(2*ln 2)

// pixelScaleRelTol is the relative tolerance used when requiring the two
// spatial pixel scales to be equal.
const pixelScaleRelTol = 1e-9

// BeamMaskKernel samples the Gaussian main lobe of the restoring beam on a
// square pixel grid and cuts it at minimumResponse times its peak, returning
// the boolean footprint of the lobe. The two pixel scales must agree in
// absolute value, and minimumResponse must be strictly between 0 and 1.
//
// The beam position angle follows the radio convention of degrees east of
// north, which on the pixel grid is a rotation of the major axis by PA plus
// 90 degrees.
func BeamMaskKernel(cdelt1, cdelt2 float64, beam models.Beam, kernelSize int, minimumResponse float64) ([]bool, error) {
	if !(minimumResponse > 0.0 && minimumResponse < 1.0) {
		return nil, fmt.Errorf("%w: minimumResponse=%v, should be between 0 and 1 (exclusive)",
			ErrBadConfig, minimumResponse)
	}

	cdelt1, cdelt2 = math.Abs(cdelt1), math.Abs(cdelt2)
	if math.Abs(cdelt1-cdelt2) > pixelScaleRelTol*math.Max(cdelt1, cdelt2) {
		return nil, fmt.Errorf("%w: pixel scales %v and %v must be equal",
			ErrShapeMismatch, cdelt1, cdelt2)
	}

	sigmaMajor := beam.Major / cdelt1 / fwhmToSigma
	sigmaMinor := beam.Minor / cdelt1 / fwhmToSigma
	theta := (beam.PositionAngle + 90.0) * math.Pi / 180.0
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	// Sample the elliptical Gaussian at pixel centres around the kernel
	// midpoint. For an even kernel size the midpoint falls between pixels,
	// so the peak sample sits slightly below 1 and the cut is taken
	// relative to the sampled maximum.
	centre := float64(kernelSize-1) / 2.0
	kernel := make([]float64, kernelSize*kernelSize)
	for y := 0; y < kernelSize; y++ {
		dy := float64(y) - centre
		for x := 0; x < kernelSize; x++ {
			dx := float64(x) - centre
			major := dx*cosT + dy*sinT
			minor := -dx*sinT + dy*cosT
			r2 := (major/sigmaMajor)*(major/sigmaMajor) + (minor/sigmaMinor)*(minor/sigmaMinor)
			kernel[y*kernelSize+x] = math.Exp(-0.5 * r2)
		}
	}

	cut := floats.Max(kernel) * minimumResponse
	footprint := make([]bool, len(kernel))
	for i, v := range kernel {
		footprint[i] = v > cut
	}
	return footprint, nil
}

// BeamShapeErode erodes the mask using the restoring beam footprint as the
// structuring element, removing islands too small to be a believable
// response to a real source. The beam and pixel scale are taken from the
// supplied header. If the header carries no beam the stage is skipped with a
// warning and the input mask is returned unchanged, as the same slice.
func BeamShapeErode(mask []bool, width, height int, header *fits.Header, minimumResponse float64) ([]bool, error) {
	beam, ok := header.Beam()
	if !ok {
		fmt.Println("Warning: beam parameters missing, not performing the beam shape erosion")
		return mask, nil
	}

	cdelt1, cdelt2, ok := header.PixelScales()
	if !ok {
		return nil, fmt.Errorf("%w: header is missing the CDELT1/CDELT2 pixel scale cards", ErrBadConfig)
	}

	fmt.Printf("Eroding the mask using the beam shape with minimumResponse=%v\n", minimumResponse)
	footprint, err := BeamMaskKernel(cdelt1, cdelt2, beam, defaultBeamKernelSize, minimumResponse)
	if err != nil {
		return nil, err
	}

	se := morph.NewStructuringElement(footprint, defaultBeamKernelSize, defaultBeamKernelSize)
	return morph.BinaryErode(mask, width, height, se, 1), nil
}
