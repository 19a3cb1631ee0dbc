package assay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}

func TestNChooseKCombinations_Counts(t *testing.T) {
	for n := 0; n <= 7; n++ {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		for k := 0; k <= n; k++ {
			combinations := nChooseKCombinations(indices, k)
			require.Len(t, combinations, binomial(n, k), "n=%d k=%d", n, k)

			seen := make(map[string]struct{})
			for _, c := range combinations {
				require.Len(t, c, k)
				key := ""
				for i, v := range c {
					assert.GreaterOrEqual(t, v, 0)
					assert.Less(t, v, n)
					if i > 0 {
						assert.Greater(t, v, c[i-1], "subset must be ascending")
					}
					key += string(rune('a' + v))
				}
				_, dup := seen[key]
				require.False(t, dup, "duplicate subset %v", c)
				seen[key] = struct{}{}
			}
		}
	}
}

func TestNChooseKCombinations_Degenerate(t *testing.T) {
	// k = 0 yields exactly one empty subset.
	combinations := nChooseKCombinations([]int{1, 2, 3}, 0)
	require.Len(t, combinations, 1)
	assert.Empty(t, combinations[0])

	// k > n yields no subsets, not an error.
	assert.Empty(t, nChooseKCombinations([]int{1, 2}, 3))
	assert.Empty(t, nChooseKCombinations(nil, 1))
}

func TestNChooseKCombinations_PreservesIndexValues(t *testing.T) {
	combinations := nChooseKCombinations([]int{4, 7, 9}, 2)
	require.Len(t, combinations, 3)
	assert.Equal(t, [][]int{{4, 7}, {4, 9}, {7, 9}}, combinations)
}
