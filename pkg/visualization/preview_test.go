package visualization

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// TestRenderPlane checks the output geometry and the linear stretch between
// the plane minimum and maximum.
func TestRenderPlane(t *testing.T) {
	width, height := 8, 6
	data := make([]float64, width*height)
	for i := range data {
		data[i] = 1.0
	}
	data[0] = 0.0
	data[1] = 2.0

	img := RenderPlane(data, width, height, "test")

	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height+captionMargin {
		t.Fatalf("Expected a %dx%d preview, got %dx%d", width, height+captionMargin, bounds.Dx(), bounds.Dy())
	}

	if c := img.RGBAAt(0, 0); c.R != 0 {
		t.Errorf("The minimum pixel must render black, got %d", c.R)
	}
	if c := img.RGBAAt(1, 0); c.R != 255 {
		t.Errorf("The maximum pixel must render white, got %d", c.R)
	}
	if c := img.RGBAAt(2, 0); c.R != 127 {
		t.Errorf("The midpoint pixel must render mid gray, got %d", c.R)
	}
}

// TestRenderPlaneFlat does not divide by zero on a constant plane.
func TestRenderPlaneFlat(t *testing.T) {
	data := []float64{3, 3, 3, 3}
	img := RenderPlane(data, 2, 2, "")

	if c := img.RGBAAt(0, 0); c.R != 0 {
		t.Errorf("A flat plane must render black, got %d", c.R)
	}
}

// TestRenderMask renders included pixels white on black.
func TestRenderMask(t *testing.T) {
	width, height := 4, 4
	mask := make([]int32, width*height)
	mask[1*width+2] = 1

	img := RenderMask(mask, width, height, "")

	if c := img.RGBAAt(2, 1); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("An included pixel must render white, got %v", c)
	}
	if c := img.RGBAAt(0, 0); c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("An excluded pixel must render black, got %v", c)
	}
}

// TestSavePNG writes a decodable PNG file.
func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	img := RenderMask(make([]int32, 16), 4, 4, "caption")

	if err := SavePNG(img, path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open the preview: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("The preview is not a valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("Decoded preview has the wrong width: %d", decoded.Bounds().Dx())
	}
}
