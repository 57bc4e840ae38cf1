package quote

// Combinations returns all k-subsets of {0..n-1} as strictly increasing
// index tuples. Enumeration order depends only on n and k, never on the
// source collection's iteration order.
func Combinations(n, k int) [][]int {
	if k < 0 || k > n {
		return nil
	}
	if k == 0 {
		return [][]int{{}}
	}

	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		combo := make([]int, k)
		copy(combo, idx)
		out = append(out, combo)

		// Advance the rightmost index that can still move
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	return out
}

// CountCombinations returns C(n, k) without enumerating
func CountCombinations(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return c
}
