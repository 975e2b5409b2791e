// Package visualization renders quick-look PNG previews of signal maps and
// clean masks so a masking run can be eyeballed without FITS tooling.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gonum.org/v1/gonum/floats"
)

// captionMargin is the height in pixels reserved under the image for the
// annotation line.
const captionMargin = 16

// RenderPlane renders a float64 plane as a grayscale image with a linear
// stretch between its minimum and maximum, with the caption drawn in the
// margin below.
func RenderPlane(data []float64, width, height int, caption string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height+captionMargin))

	lo := floats.Min(data)
	hi := floats.Max(data)
	scale := 0.0
	if hi > lo {
		scale = 255.0 / (hi - lo)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((data[y*width+x] - lo) * scale)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	drawCaption(img, caption, height)
	return img
}

// RenderMask renders an integer clean mask: included pixels are white on a
// black background, with the caption drawn in the margin below.
func RenderMask(mask []int32, width, height int, caption string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height+captionMargin))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y*width+x] != 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}

	drawCaption(img, caption, height)
	return img
}

// drawCaption writes an annotation line in the reserved margin.
func drawCaption(img *image.RGBA, caption string, imageHeight int) {
	if caption == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 0, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, imageHeight+captionMargin-4),
	}
	d.DrawString(caption)
}

// SavePNG writes a rendered preview image to a file.
func SavePNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}
