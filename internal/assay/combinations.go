package assay

// nChooseKCombinations enumerates every k-element subset of indices. Each
// subset preserves the input order of indices; the order of subsets follows
// lexicographic selection. k == 0 yields a single empty subset, k > n yields
// no subsets.
func nChooseKCombinations(indices []int, k int) [][]int {
	n := len(indices)
	if k == 0 {
		return [][]int{{}}
	}
	if k > n {
		return nil
	}

	var combinations [][]int
	selector := make([]int, k)
	for i := range selector {
		selector[i] = i
	}
	for {
		subset := make([]int, k)
		for i, s := range selector {
			subset[i] = indices[s]
		}
		combinations = append(combinations, subset)

		// Advance to the next selection, rightmost position first.
		i := k - 1
		for i >= 0 && selector[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		selector[i]++
		for j := i + 1; j < k; j++ {
			selector[j] = selector[j-1] + 1
		}
	}
	return combinations
}
