package masking

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cleanmask/internal/models"
	"cleanmask/pkg/fits"
)

// TestSynthesizeMaskClip exercises the plain clipping path on a stack with
// leading non-spatial axes.
func TestSynthesizeMaskClip(t *testing.T) {
	base := models.NewImage(1, 1, 10, 10)
	for i := range base.Data {
		base.Data[i] = 5.0
	}

	opts := DefaultOptions().With(func(o *Options) {
		o.FloodFill = false
		o.BaseSNRClip = 4.0
	})

	mask, err := SynthesizeMask(base, opts, 0, nil)
	if err != nil {
		t.Fatalf("SynthesizeMask failed: %v", err)
	}
	if got := mask.NumSet(); got != 100 {
		t.Errorf("Expected every pixel above a clip of 4, got %d", got)
	}
	if len(mask.Shape) != 4 || mask.Shape[2] != 10 || mask.Shape[3] != 10 {
		t.Errorf("The mask must keep the full input shape, got %v", mask.Shape)
	}

	opts.BaseSNRClip = 6.0
	mask, err = SynthesizeMask(base, opts, 0, nil)
	if err != nil {
		t.Fatalf("SynthesizeMask failed: %v", err)
	}
	if got := mask.NumSet(); got != 0 {
		t.Errorf("Expected no pixel above a clip of 6, got %d", got)
	}
}

// TestSynthesizeMaskFloodFill runs the seeded flood fill over one plane.
func TestSynthesizeMaskFloodFill(t *testing.T) {
	base := models.NewImage(20, 20)
	copy(base.Data, planeWithRect(20, 20, 0.0, 5, 5, 15, 15, 2.0))
	base.Data[10*20+10] = 10.0

	mask, err := SynthesizeMask(base, DefaultOptions(), 0, nil)
	if err != nil {
		t.Fatalf("SynthesizeMask failed: %v", err)
	}
	if got := mask.NumSet(); got != 100 {
		t.Errorf("Expected the seeded 10x10 island, got %d pixels", got)
	}
}

// TestSynthesizeMaskNoInput rejects a nil or empty base image.
func TestSynthesizeMaskNoInput(t *testing.T) {
	if _, err := SynthesizeMask(nil, DefaultOptions(), 0, nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput for a nil base, got %v", err)
	}
}

// TestSynthesizeMaskBadOptions surfaces option validation failures.
func TestSynthesizeMaskBadOptions(t *testing.T) {
	base := models.NewImage(10, 10)
	opts := DefaultOptions().With(func(o *Options) {
		o.BeamShapeErode = true
		o.BeamShapeErodeMinimumResponse = 1.5
	})

	if _, err := SynthesizeMask(base, opts, 0, nil); !errors.Is(err, ErrBadConfig) {
		t.Errorf("Expected ErrBadConfig for an out of range response, got %v", err)
	}
}

// TestSynthesizeMaskErodeWithoutHeader skips the erosion stage when no
// header is available instead of failing.
func TestSynthesizeMaskErodeWithoutHeader(t *testing.T) {
	base := models.NewImage(10, 10)
	for i := range base.Data {
		base.Data[i] = 5.0
	}

	opts := DefaultOptions().With(func(o *Options) {
		o.FloodFill = false
		o.BeamShapeErode = true
	})

	mask, err := SynthesizeMask(base, opts, 0, nil)
	if err != nil {
		t.Fatalf("SynthesizeMask failed: %v", err)
	}
	if got := mask.NumSet(); got != 100 {
		t.Errorf("Expected the erosion stage to be skipped, got %d pixels", got)
	}
}

// TestSynthesizeMaskIsDeterministic runs the engine twice over the same
// plane and expects identical masks.
func TestSynthesizeMaskIsDeterministic(t *testing.T) {
	base := models.NewImage(20, 20)
	copy(base.Data, planeWithRect(20, 20, 0.0, 5, 5, 15, 15, 2.0))
	base.Data[10*20+10] = 10.0

	first, err := SynthesizeMask(base, DefaultOptions(), 0, nil)
	if err != nil {
		t.Fatalf("SynthesizeMask failed: %v", err)
	}
	second, err := SynthesizeMask(base, DefaultOptions(), 0, nil)
	if err != nil {
		t.Fatalf("SynthesizeMask failed: %v", err)
	}
	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("Masks diverge at pixel %d", i)
		}
	}
}

// writeConstantFITS writes a [1 1 h w] FITS image filled with value.
func writeConstantFITS(t *testing.T, path string, height, width int, value float64) {
	t.Helper()
	img := models.NewImage(1, 1, height, width)
	for i := range img.Data {
		img.Data[i] = value
	}
	if err := fits.WriteFloat(path, img, nil); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// TestCreateSNRMaskFromFITS runs the full pipeline over small synthetic FITS
// files: image 1.0, background 0.5, rms 0.25 gives a uniform signal of 2.
func TestCreateSNRMaskFromFITS(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "field.fits")
	rmsPath := filepath.Join(dir, "field_rms.fits")
	bkgPath := filepath.Join(dir, "field_bkg.fits")

	writeConstantFITS(t, imagePath, 20, 20, 1.0)
	writeConstantFITS(t, rmsPath, 20, 20, 0.25)
	writeConstantFITS(t, bkgPath, 20, 20, 0.5)

	opts := DefaultOptions().With(func(o *Options) {
		o.FloodFill = false
		o.BaseSNRClip = 1.5
	})

	names, err := CreateSNRMaskFromFITS(imagePath, rmsPath, bkgPath, opts, true)
	if err != nil {
		t.Fatalf("CreateSNRMaskFromFITS failed: %v", err)
	}
	if names.MaskFITS != filepath.Join(dir, "field.mask.fits") {
		t.Errorf("Unexpected mask product name: %s", names.MaskFITS)
	}
	if names.SignalFITS != filepath.Join(dir, "field.signal.fits") {
		t.Errorf("Unexpected signal product name: %s", names.SignalFITS)
	}

	mask, err := fits.Read(names.MaskFITS)
	if err != nil {
		t.Fatalf("Failed to read the mask product: %v", err)
	}
	set := 0
	for _, v := range mask.Pixels.Data {
		if v != 0 {
			set++
		}
	}
	if set != 400 {
		t.Errorf("Expected all 400 pixels above a clip of 1.5, got %d", set)
	}

	signal, err := fits.Read(names.SignalFITS)
	if err != nil {
		t.Fatalf("Failed to read the signal product: %v", err)
	}
	for i, v := range signal.Pixels.Data {
		if v != 2.0 {
			t.Fatalf("Signal pixel %d: expected (1-0.5)/0.25 = 2, got %v", i, v)
		}
	}
}

// TestCreateSNRMaskFromFITSAboveClip verifies nothing is masked when the
// clip exceeds the uniform signal level.
func TestCreateSNRMaskFromFITSAboveClip(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "field.fits")
	rmsPath := filepath.Join(dir, "field_rms.fits")
	bkgPath := filepath.Join(dir, "field_bkg.fits")

	writeConstantFITS(t, imagePath, 20, 20, 1.0)
	writeConstantFITS(t, rmsPath, 20, 20, 0.25)
	writeConstantFITS(t, bkgPath, 20, 20, 0.5)

	opts := DefaultOptions().With(func(o *Options) {
		o.FloodFill = false
		o.BaseSNRClip = 2.5
	})

	names, err := CreateSNRMaskFromFITS(imagePath, rmsPath, bkgPath, opts, false)
	if err != nil {
		t.Fatalf("CreateSNRMaskFromFITS failed: %v", err)
	}
	if names.SignalFITS != "" {
		t.Errorf("No signal product was requested, got %s", names.SignalFITS)
	}
	if _, err := os.Stat(filepath.Join(dir, "field.signal.fits")); !os.IsNotExist(err) {
		t.Errorf("The signal FITS file must not be written when not requested")
	}

	mask, err := fits.Read(names.MaskFITS)
	if err != nil {
		t.Fatalf("Failed to read the mask product: %v", err)
	}
	for i, v := range mask.Pixels.Data {
		if v != 0 {
			t.Fatalf("Pixel %d: expected an empty mask, got %v", i, v)
		}
	}
}

// TestCreateSNRMaskFromFITSMissingNoise fails when the signal map is needed
// but the noise maps are not supplied.
func TestCreateSNRMaskFromFITSMissingNoise(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "field.fits")
	writeConstantFITS(t, imagePath, 10, 10, 1.0)

	_, err := CreateSNRMaskFromFITS(imagePath, "", "", DefaultOptions(), false)
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput without noise maps, got %v", err)
	}
}

// TestCreateSNRMaskFromFITSShapeMismatch rejects noise maps whose shape
// differs from the image.
func TestCreateSNRMaskFromFITSShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "field.fits")
	rmsPath := filepath.Join(dir, "field_rms.fits")
	bkgPath := filepath.Join(dir, "field_bkg.fits")

	writeConstantFITS(t, imagePath, 20, 20, 1.0)
	writeConstantFITS(t, rmsPath, 10, 10, 0.25)
	writeConstantFITS(t, bkgPath, 20, 20, 0.5)

	_, err := CreateSNRMaskFromFITS(imagePath, rmsPath, bkgPath, DefaultOptions(), false)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}
