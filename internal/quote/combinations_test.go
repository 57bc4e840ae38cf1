package quote

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinations(t *testing.T) {
	combos := Combinations(5, 2)
	require.Len(t, combos, 10)

	seen := make(map[string]bool, len(combos))
	for _, c := range combos {
		require.Len(t, c, 2)

		// Indices strictly increasing: each combination is an unordered set
		assert.Less(t, c[0], c[1])
		assert.GreaterOrEqual(t, c[0], 0)
		assert.Less(t, c[1], 5)

		key := fmt.Sprintf("%v", c)
		assert.False(t, seen[key], "duplicate combination %s", key)
		seen[key] = true
	}
}

func TestCombinations_FullSize(t *testing.T) {
	combos := Combinations(3, 3)
	require.Len(t, combos, 1)
	assert.Equal(t, []int{0, 1, 2}, combos[0])
}

func TestCombinations_SingleSize(t *testing.T) {
	combos := Combinations(4, 1)
	require.Len(t, combos, 4)
	for i, c := range combos {
		assert.Equal(t, []int{i}, c)
	}
}

func TestCombinations_KGreaterThanN(t *testing.T) {
	assert.Empty(t, Combinations(2, 3))
}

func TestCombinations_Deterministic(t *testing.T) {
	first := Combinations(6, 3)
	second := Combinations(6, 3)
	assert.Equal(t, first, second)

	// Output is already in lexicographic order
	sorted := make([][]int, len(first))
	copy(sorted, first)
	sort.Slice(sorted, func(i, j int) bool {
		for k := range sorted[i] {
			if sorted[i][k] != sorted[j][k] {
				return sorted[i][k] < sorted[j][k]
			}
		}
		return false
	})
	assert.Equal(t, sorted, first)
}

func TestCountCombinations(t *testing.T) {
	assert.Equal(t, 10, CountCombinations(5, 2))
	assert.Equal(t, 1, CountCombinations(4, 4))
	assert.Equal(t, 4, CountCombinations(4, 1))
	assert.Equal(t, 0, CountCombinations(2, 3))
	assert.Equal(t, 4845, CountCombinations(20, 4))
}
