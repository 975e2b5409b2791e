package masking

import (
	"errors"
	"testing"
)

func constSlice(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// TestBuildSignal verifies the (image - background) / rms arithmetic.
func TestBuildSignal(t *testing.T) {
	image := constSlice(25, 10.0)
	background := constSlice(25, 1.0)
	rms := constSlice(25, 3.0)

	signal, err := BuildSignal(image, rms, background, nil)
	if err != nil {
		t.Fatalf("BuildSignal failed: %v", err)
	}
	for i, v := range signal {
		if v != 3.0 {
			t.Fatalf("Pixel %d: expected (10-1)/3 = 3, got %v", i, v)
		}
	}

	// The inputs must be left untouched.
	if image[0] != 10.0 || background[0] != 1.0 || rms[0] != 3.0 {
		t.Errorf("BuildSignal mutated one of its inputs")
	}
}

// TestBuildSignalNilBackground treats a missing background as zero.
func TestBuildSignalNilBackground(t *testing.T) {
	image := constSlice(9, 10.0)
	rms := constSlice(9, 2.0)

	signal, err := BuildSignal(image, rms, nil, nil)
	if err != nil {
		t.Fatalf("BuildSignal failed: %v", err)
	}
	for i, v := range signal {
		if v != 5.0 {
			t.Fatalf("Pixel %d: expected 10/2 = 5, got %v", i, v)
		}
	}
}

// TestBuildSignalPassthrough returns a precomputed signal array untouched.
func TestBuildSignalPassthrough(t *testing.T) {
	precomputed := constSlice(4, 7.0)

	signal, err := BuildSignal(nil, nil, nil, precomputed)
	if err != nil {
		t.Fatalf("BuildSignal failed: %v", err)
	}
	if &signal[0] != &precomputed[0] {
		t.Errorf("Expected the precomputed signal to be returned as the same slice")
	}
}

// TestBuildSignalNoInput reports the sentinel error when nothing is supplied.
func TestBuildSignalNoInput(t *testing.T) {
	_, err := BuildSignal(nil, nil, nil, nil)
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput, got %v", err)
	}
}

// TestBuildSignalShapeMismatch rejects maps of different sizes.
func TestBuildSignalShapeMismatch(t *testing.T) {
	image := constSlice(25, 10.0)

	_, err := BuildSignal(image, constSlice(16, 1.0), nil, nil)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for a short rms map, got %v", err)
	}

	_, err = BuildSignal(image, constSlice(25, 1.0), constSlice(16, 0.0), nil)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for a short background map, got %v", err)
	}
}

// TestNeedSignal confirms the minimum absolute clip path skips the signal map.
func TestNeedSignal(t *testing.T) {
	opts := DefaultOptions()
	if !NeedSignal(opts) {
		t.Errorf("The default options need a signal map")
	}

	opts = opts.With(func(o *Options) { o.FloodFillUseMBC = true })
	if NeedSignal(opts) {
		t.Errorf("The minimum absolute clip path must not need a signal map")
	}
}
