package checkpoint

// SampleIndices selects which of n batches to re-verify. When n is below
// minCount every index is selected; otherwise every index that is a multiple
// of n/minCount. The selection is deterministic and strictly increasing, and
// holds at least min(n, minCount) indices. A minCount below 1 is treated as 1.
func SampleIndices(n, minCount int) []int {
	if minCount < 1 {
		minCount = 1
	}
	stride := 1
	if n >= minCount {
		stride = n / minCount
	}
	indices := make([]int, 0, min(n, minCount+1))
	for i := 0; i < n; i += stride {
		indices = append(indices, i)
	}
	return indices
}

// Sample returns the batches chosen by SampleIndices, in order.
func Sample(batches []Batch, minCount int) []Batch {
	indices := SampleIndices(len(batches), minCount)
	out := make([]Batch, 0, len(indices))
	for _, i := range indices {
		out = append(out, batches[i])
	}
	return out
}

// Selected returns SampleIndices as a membership set.
func Selected(n, minCount int) map[int]bool {
	set := make(map[int]bool)
	for _, i := range SampleIndices(n, minCount) {
		set[i] = true
	}
	return set
}
