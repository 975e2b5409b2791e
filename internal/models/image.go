package models

import (
	"fmt"
	"math"
)

// Image represents a pixel grid read from (or destined for) a FITS file.
// The spatial axes are always the trailing two entries of Shape; any
// leading axes (frequency, polarisation) are treated as a stack of
// independent 2D planes.
type Image struct {
	// Data is the pixel values in row-major order, innermost axis last
	Data []float64

	// Shape is the axis lengths, spatial axes last (e.g. [1 1 4096 4096])
	Shape []int
}

// NewImage allocates an image of the given shape.
func NewImage(shape ...int) *Image {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Image{
		Data:  make([]float64, n),
		Shape: append([]int(nil), shape...),
	}
}

// Width returns the length of the innermost (fastest varying) spatial axis.
func (img *Image) Width() int {
	return img.Shape[len(img.Shape)-1]
}

// Height returns the length of the second spatial axis.
func (img *Image) Height() int {
	if len(img.Shape) < 2 {
		return 1
	}
	return img.Shape[len(img.Shape)-2]
}

// NumPlanes returns the number of 2D planes stacked along the leading axes.
func (img *Image) NumPlanes() int {
	n := 1
	for _, s := range img.Shape[:max(len(img.Shape)-2, 0)] {
		n *= s
	}
	return n
}

// Plane returns the pixel data of plane i as a sub-slice of Data.
// The returned slice aliases the image buffer.
func (img *Image) Plane(i int) []float64 {
	size := img.Width() * img.Height()
	return img.Data[i*size : (i+1)*size]
}

// SameShape reports whether two images have identical axis lengths.
func (img *Image) SameShape(other *Image) bool {
	if len(img.Shape) != len(other.Shape) {
		return false
	}
	for i, s := range img.Shape {
		if s != other.Shape[i] {
			return false
		}
	}
	return true
}

// Beam describes a restoring beam: the FWHM of the major and minor axes
// and the position angle, all in degrees.
type Beam struct {
	// Major is the FWHM of the beam major axis in degrees
	Major float64

	// Minor is the FWHM of the beam minor axis in degrees
	Minor float64

	// PositionAngle is the beam position angle in degrees
	PositionAngle float64
}

// String formats the beam for log output.
func (b Beam) String() string {
	return fmt.Sprintf("Beam{Major=%.6g deg, Minor=%.6g deg, PA=%.4g deg}", b.Major, b.Minor, b.PositionAngle)
}

// SolidAngle returns the solid angle of the Gaussian beam in square degrees.
func (b Beam) SolidAngle() float64 {
	return math.Pi * b.Major * b.Minor / (4.0 * math.Ln2)
}

// PixelsPerBeam returns the number of pixels covered by one beam given the
// pixel scale in degrees per pixel. This is the beam solid angle divided by
// the pixel solid angle.
func PixelsPerBeam(beam Beam, pixelScale float64) float64 {
	pixelArea := pixelScale * pixelScale
	if pixelArea == 0 {
		return 0
	}
	return beam.SolidAngle() / pixelArea
}
