package masking

import (
	"fmt"
	"strings"

	"cleanmask/internal/models"
	"cleanmask/pkg/fits"
)

// Mask is the integer clean mask produced for an image stack. Pixels with a
// non-zero value are inside the clean region; the shape matches the source
// image, including any leading non-spatial axes.
type Mask struct {
	Data  []int32
	Shape []int
}

// NumSet returns the number of pixels inside the clean region.
func (m *Mask) NumSet() int {
	n := 0
	for _, v := range m.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// SynthesizeMask builds the clean mask for an image stack. The base image is
// the signal-to-noise map, or the raw image when the minimum absolute clip
// seeding is enabled. Any leading non-spatial axes are handled by masking
// each 2D plane independently and reassembling the original shape.
//
// pixelsPerBeam may be zero when unknown. The header supplies the beam
// geometry for the optional erosion stage; a nil header or one without beam
// cards skips that stage with a warning rather than failing.
func SynthesizeMask(base *models.Image, opts Options, pixelsPerBeam float64, header *fits.Header) (*Mask, error) {
	if base == nil || len(base.Data) == 0 {
		return nil, fmt.Errorf("%w: no base image to mask", ErrNoInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	width, height := base.Width(), base.Height()
	mask := &Mask{
		Data:  make([]int32, len(base.Data)),
		Shape: append([]int(nil), base.Shape...),
	}

	for p := 0; p < base.NumPlanes(); p++ {
		plane := base.Plane(p)

		var planeMask []bool
		if opts.FloodFill {
			planeMask = ReverseNegativeFloodFill(plane, width, height, opts, pixelsPerBeam)
		} else {
			fmt.Printf("Clipping the signal plane at baseSnrClip=%v\n", opts.BaseSNRClip)
			planeMask = make([]bool, len(plane))
			for i, v := range plane {
				planeMask[i] = v > opts.BaseSNRClip
			}
		}

		if opts.BeamShapeErode {
			if header == nil {
				fmt.Println("Warning: no header available, not performing the beam shape erosion")
			} else {
				eroded, err := BeamShapeErode(planeMask, width, height, header, opts.BeamShapeErodeMinimumResponse)
				if err != nil {
					return nil, err
				}
				planeMask = eroded
			}
		}

		out := mask.Data[p*width*height : (p+1)*width*height]
		for i, on := range planeMask {
			if on {
				out[i] = 1
			}
		}
	}

	return mask, nil
}

// MaskNames records where the products of a masking run were written.
// SignalFITS is empty unless the signal map was requested.
type MaskNames struct {
	MaskFITS   string
	SignalFITS string
}

func productName(imagePath, suffix string) string {
	base := strings.TrimSuffix(imagePath, ".fits")
	return base + "." + suffix + ".fits"
}

// CreateSNRMaskFromFITS creates a clean mask for a FITS image given the
// corresponding rms and background FITS images, writing the mask (and
// optionally the intermediate signal map) next to the input with mask and
// signal suffixes.
//
// The signal map is computed as (image - background) / rms in a staged
// manner to bound the number of image sized buffers in memory. When the
// options select the minimum absolute clip path the signal map is not needed
// and the rms and background images are never loaded. All input images must
// share the same shape.
func CreateSNRMaskFromFITS(imagePath, rmsPath, bkgPath string, opts Options, createSignalFITS bool) (MaskNames, error) {
	names := MaskNames{MaskFITS: productName(imagePath, "mask")}

	fmt.Printf("Reading %s\n", imagePath)
	image, err := fits.Read(imagePath)
	if err != nil {
		return names, fmt.Errorf("failed to load image: %w", err)
	}

	base := image.Pixels
	if NeedSignal(opts) {
		if rmsPath == "" || bkgPath == "" {
			return names, fmt.Errorf("%w: rms and background images are required to build a signal map", ErrNoInput)
		}

		fmt.Printf("Reading %s\n", rmsPath)
		rms, err := fits.Read(rmsPath)
		if err != nil {
			return names, fmt.Errorf("failed to load rms: %w", err)
		}
		fmt.Printf("Reading %s\n", bkgPath)
		bkg, err := fits.Read(bkgPath)
		if err != nil {
			return names, fmt.Errorf("failed to load background: %w", err)
		}
		if !image.Pixels.SameShape(rms.Pixels) || !image.Pixels.SameShape(bkg.Pixels) {
			return names, fmt.Errorf("%w: image, rms and background must share one shape", ErrShapeMismatch)
		}

		fmt.Println("Creating signal image")
		signalData, err := BuildSignal(image.Pixels.Data, rms.Pixels.Data, bkg.Pixels.Data, nil)
		if err != nil {
			return names, err
		}
		base = &models.Image{Data: signalData, Shape: image.Pixels.Shape}

		if createSignalFITS {
			names.SignalFITS = productName(imagePath, "signal")
			fmt.Printf("Writing %s\n", names.SignalFITS)
			if err := fits.WriteFloat(names.SignalFITS, base, image.Header); err != nil {
				return names, err
			}
		}
	}

	pixelsPerBeam := 0.0
	if beam, ok := image.Header.Beam(); ok {
		if cdelt1, _, ok := image.Header.PixelScales(); ok {
			pixelsPerBeam = models.PixelsPerBeam(beam, cdelt1)
			fmt.Printf("Image has %.1f pixels per beam\n", pixelsPerBeam)
		}
	}

	mask, err := SynthesizeMask(base, opts, pixelsPerBeam, image.Header)
	if err != nil {
		return names, err
	}

	fmt.Printf("Writing %s\n", names.MaskFITS)
	if err := fits.WriteMask(names.MaskFITS, mask.Data, mask.Shape, image.Header); err != nil {
		return names, err
	}

	return names, nil
}
