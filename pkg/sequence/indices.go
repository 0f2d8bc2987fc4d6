package sequence

// Span builds the index list [start, stop) with the given positive step,
// the common contiguous-slice case of Frames. A step of 0 is treated
// as 1.
func Span(start, stop, step int) []int {
	if step <= 0 {
		step = 1
	}

	if stop < start {
		return nil
	}

	indices := make([]int, 0, (stop-start+step-1)/step)
	for i := start; i < stop; i += step {
		indices = append(indices, i)
	}

	return indices
}

// All builds the full index list for a sequence.
func All(s Sequence) []int {
	return Span(0, s.Len(), 1)
}
