package tt

// NPN canonization by exhaustive search over input permutations,
// input negations and output negation. Only intended for small
// variable counts; test drivers use it to sample one function per
// equivalence class.

// NPNCanonical returns the lexicographically smallest table (by word
// value) NPN-equivalent to t. Supported for nrVars <= 4.
func NPNCanonical(t TT) TT {
	if t.nrVars > 4 {
		panic("tt: NPN canonization supported up to 4 variables")
	}
	n := t.nrVars
	best := t.Word()
	forEachPermutation(n, func(perm []int) {
		for negMask := 0; negMask < 1<<uint(n); negMask++ {
			w := transformWord(t, perm, negMask)
			inv := ^w & wordMask(t.NrBits())
			if w < best {
				best = w
			}
			if inv < best {
				best = inv
			}
		}
	})
	return FromWords(n, best)
}

// NPNRepresentatives enumerates every nrVars-input function and
// returns the distinct canonical representatives in increasing word
// order. Supported for nrVars <= 3.
func NPNRepresentatives(nrVars int) []TT {
	if nrVars > 3 {
		panic("tt: NPN enumeration supported up to 3 variables")
	}
	nrFuncs := uint64(1) << uint(1<<uint(nrVars))
	seen := make(map[uint64]bool)
	var reps []TT
	for w := uint64(0); w < nrFuncs; w++ {
		c := NPNCanonical(FromWords(nrVars, w))
		if !seen[c.Word()] {
			seen[c.Word()] = true
			reps = append(reps, c)
		}
	}
	return reps
}

// transformWord applies an input permutation and input negation mask
// to t and returns the resulting table word.
func transformWord(t TT, perm []int, negMask int) uint64 {
	var w uint64
	for m := 0; m < t.NrBits(); m++ {
		src := 0
		for i := 0; i < t.nrVars; i++ {
			bit := (m >> uint(i)) & 1
			if (negMask>>uint(i))&1 == 1 {
				bit ^= 1
			}
			src |= bit << uint(perm[i])
		}
		if t.GetBit(src) {
			w |= 1 << uint(m)
		}
	}
	return w
}

func forEachPermutation(n int, fn func([]int)) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			fn(perm)
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			rec(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	rec(0)
}

func wordMask(nrBits int) uint64 {
	if nrBits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(nrBits)) - 1
}
