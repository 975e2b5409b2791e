// Package morph provides the binary morphology primitives used to build
// clean masks: guarded dilation, erosion with an arbitrary structuring
// element, connected component labeling and a rolling minimum filter.
//
// All operations treat a mask as a []bool in row-major order with an
// explicit width and height, and every operation returns a freshly
// allocated result without mutating its input.
package morph

// Full3x3 offsets cover the eight neighbours of a pixel (8-connectivity).
var full3x3 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// BinaryDilate grows the true regions of mask using a full 3x3 structuring
// element. When guard is non-nil, only pixels with a true guard value may be
// switched on; pixels outside the guard keep their input value, matching the
// masked dilation behaviour of common numeric libraries. The dilation runs
// for at most maxIterations passes but stops as soon as no pixel changes.
func BinaryDilate(mask, guard []bool, width, height, maxIterations int) []bool {
	result := make([]bool, len(mask))
	copy(result, mask)

	// Seed the frontier with every pixel that is already on. Growth then
	// proceeds breadth-first, one structuring element pass per iteration.
	frontier := make([]int, 0, 1024)
	for i, on := range mask {
		if on {
			frontier = append(frontier, i)
		}
	}

	for iter := 0; iter < maxIterations && len(frontier) > 0; iter++ {
		next := frontier[:0:0]
		for _, idx := range frontier {
			x := idx % width
			y := idx / width
			for _, off := range full3x3 {
				nx := x + off[0]
				ny := y + off[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if result[nidx] {
					continue
				}
				if guard != nil && !guard[nidx] {
					continue
				}
				result[nidx] = true
				next = append(next, nidx)
			}
		}
		frontier = next
	}

	return result
}

// BinaryErode3x3 erodes the mask with a full 3x3 structuring element for the
// requested number of iterations. Pixels outside the image count as false,
// so true regions touching the border are eaten into.
func BinaryErode3x3(mask []bool, width, height, iterations int) []bool {
	current := make([]bool, len(mask))
	copy(current, mask)

	for iter := 0; iter < iterations; iter++ {
		next := make([]bool, len(current))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				if !current[idx] {
					continue
				}
				keep := true
				for _, off := range full3x3 {
					nx := x + off[0]
					ny := y + off[1]
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						keep = false
						break
					}
					if !current[ny*width+nx] {
						keep = false
						break
					}
				}
				next[idx] = keep
			}
		}
		current = next
	}

	return current
}

// StructuringElement is an arbitrary boolean footprint used for erosion.
// Offsets are stored relative to the element centre.
type StructuringElement struct {
	offsets [][2]int
}

// NewStructuringElement builds a structuring element from a boolean grid.
// The centre of the element is taken at (width/2, height/2), matching the
// convention of centred filter footprints.
func NewStructuringElement(footprint []bool, width, height int) StructuringElement {
	cx := width / 2
	cy := height / 2
	var offsets [][2]int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if footprint[y*width+x] {
				offsets = append(offsets, [2]int{x - cx, y - cy})
			}
		}
	}
	return StructuringElement{offsets: offsets}
}

// Size returns the number of active cells in the footprint.
func (se StructuringElement) Size() int {
	return len(se.offsets)
}

// BinaryErode erodes the mask with an arbitrary structuring element. A pixel
// survives only if every active cell of the footprint, translated to that
// pixel, lands on a true mask pixel inside the image.
func BinaryErode(mask []bool, width, height int, se StructuringElement, iterations int) []bool {
	current := make([]bool, len(mask))
	copy(current, mask)

	for iter := 0; iter < iterations; iter++ {
		next := make([]bool, len(current))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				if !current[idx] {
					continue
				}
				keep := true
				for _, off := range se.offsets {
					nx := x + off[0]
					ny := y + off[1]
					if nx < 0 || nx >= width || ny < 0 || ny >= height || !current[ny*width+nx] {
						keep = false
						break
					}
				}
				next[idx] = keep
			}
		}
		current = next
	}

	return current
}

// reflectIndex maps an out-of-range index back into [0, size) by mirroring
// about the array edges, with the edge sample included in the reflection
// (... c b a | a b c ...).
func reflectIndex(idx, size int) int {
	for idx < 0 || idx >= size {
		if idx < 0 {
			idx = -idx - 1
		}
		if idx >= size {
			idx = 2*size - 1 - idx
		}
	}
	return idx
}

// slidingMin1D computes the rolling minimum of src over a centred window of
// the given size, writing into dst. Boundaries are handled by reflection.
// A monotonic wedge keeps the pass linear in the input length.
func slidingMin1D(src, dst []float64, size int) {
	n := len(src)
	left := size / 2
	right := size - left - 1

	// Extend the sequence by reflection so the window never leaves it.
	extended := make([]float64, n+left+right)
	for i := 0; i < left; i++ {
		extended[i] = src[reflectIndex(i-left, n)]
	}
	copy(extended[left:], src)
	for i := 0; i < right; i++ {
		extended[left+n+i] = src[reflectIndex(n+i, n)]
	}

	// Indices of a non-decreasing run of candidate minima.
	wedge := make([]int, 0, size)
	for i := range extended {
		for len(wedge) > 0 && extended[wedge[len(wedge)-1]] >= extended[i] {
			wedge = wedge[:len(wedge)-1]
		}
		wedge = append(wedge, i)
		start := i - size + 1
		if wedge[0] < start {
			wedge = wedge[1:]
		}
		if start >= 0 {
			dst[start] = extended[wedge[0]]
		}
	}
}

// MinimumFilter computes a rolling-box minimum over the 2D image: each output
// pixel is the minimum value within a size x size window centred on it, with
// reflected boundaries. The box minimum is separable, so the filter runs as a
// row pass followed by a column pass.
func MinimumFilter(data []float64, width, height, size int) []float64 {
	if size <= 1 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	rowPass := make([]float64, len(data))
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		slidingMin1D(row, rowPass[y*width:(y+1)*width], size)
	}

	out := make([]float64, len(data))
	colIn := make([]float64, height)
	colOut := make([]float64, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			colIn[y] = rowPass[y*width+x]
		}
		slidingMin1D(colIn, colOut, size)
		for y := 0; y < height; y++ {
			out[y*width+x] = colOut[y]
		}
	}

	return out
}
