package morph

// Label assigns a positive integer label to every connected component of
// true pixels in the mask, using 8-connectivity. Label 0 is reserved for the
// background. The returned counts slice holds the pixel count per label,
// indexed by label value, so counts[0] is the number of background pixels.
func Label(mask []bool, width, height int) (labels []int32, counts []int) {
	labels = make([]int32, len(mask))
	counts = []int{0}

	stack := make([]int, 0, 1024)
	next := int32(1)

	for start, on := range mask {
		if !on || labels[start] != 0 {
			continue
		}

		// Flood the component with a fresh label.
		labels[start] = next
		size := 1
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x := idx % width
			y := idx / width
			for _, off := range full3x3 {
				nx := x + off[0]
				ny := y + off[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if !mask[nidx] || labels[nidx] != 0 {
					continue
				}
				labels[nidx] = next
				size++
				stack = append(stack, nidx)
			}
		}

		counts = append(counts, size)
		next++
	}

	for _, on := range mask {
		if !on {
			counts[0]++
		}
	}

	return labels, counts
}
