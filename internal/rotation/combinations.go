package rotation

// combinations enumerates the k-element subsets of [0, n) as index slices in
// lexicographic order. It is decoupled from scoring so that the selection
// strategy can change without touching enumeration.
type combinations struct {
	n, k int
	idx  []int
	done bool
}

// newCombinations creates an iterator over C(n, k) subsets. If k > n the
// iterator is immediately exhausted.
func newCombinations(n, k int) *combinations {
	c := &combinations{n: n, k: k}
	if k > n || k <= 0 {
		c.done = true
		return c
	}
	c.idx = make([]int, k)
	for i := range c.idx {
		c.idx[i] = i
	}
	return c
}

// next returns the current subset and advances the iterator. The second
// return value is false once all subsets have been produced.
func (c *combinations) next() ([]int, bool) {
	if c.done {
		return nil, false
	}
	// Snapshot before advancing: c.idx is mutated in place below, so handing
	// out the live slice would show callers the following subset.
	cur := append([]int(nil), c.idx...)

	// Advance: find the rightmost index that can still move.
	i := c.k - 1
	for i >= 0 && c.idx[i] == c.n-c.k+i {
		i--
	}
	if i < 0 {
		c.done = true
		return cur, true
	}
	c.idx[i]++
	for j := i + 1; j < c.k; j++ {
		c.idx[j] = c.idx[j-1] + 1
	}
	return cur, true
}

// splits returns the three distinct 2/2 team splits of a 4-player subset,
// pairing the first player with each of the other three in turn.
func splits(four [4]string) [3]Candidate {
	return [3]Candidate{
		{TeamA: [2]string{four[0], four[1]}, TeamB: [2]string{four[2], four[3]}},
		{TeamA: [2]string{four[0], four[2]}, TeamB: [2]string{four[1], four[3]}},
		{TeamA: [2]string{four[0], four[3]}, TeamB: [2]string{four[1], four[2]}},
	}
}
