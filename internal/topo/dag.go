package topo

// DAG is a concrete fanin assignment compatible with a fence: one
// descending fanin tuple per internal step, indices into the shared
// source-then-step space.
type DAG struct {
	Fanins [][]int
}

// ForEachDAG enumerates, in a fixed deterministic order, every
// concrete fanin assignment compatible with the fence: slot 0 draws
// from the immediately preceding level, slot k requires an index
// below i-k, and fanins are strictly descending. The callback returns
// true to stop early; ForEachDAG reports whether it was stopped.
func ForEachDAG(f Fence, nrSrc, arity int, fn func(DAG) bool) bool {
	dist := f.LevelDist(nrSrc)
	nrNodes := f.NrNodes()
	levels := make([]int, nrSrc+nrNodes)
	for i := nrSrc; i < nrSrc+nrNodes; i++ {
		levels[i] = levelOf(dist, i)
	}

	fanins := make([][]int, nrNodes)
	for i := range fanins {
		fanins[i] = make([]int, arity)
	}

	var rec func(step int) bool
	rec = func(step int) bool {
		if step == nrNodes {
			d := DAG{Fanins: make([][]int, nrNodes)}
			for i := range fanins {
				d.Fanins[i] = append([]int(nil), fanins[i]...)
			}
			return fn(d)
		}
		i := nrSrc + step
		level := levels[i]
		lo, hi := 0, dist[level-1]
		if level >= 2 {
			lo = dist[level-2]
		}
		var slots func(k, bound int) bool
		slots = func(k, bound int) bool {
			if k == arity {
				return rec(step + 1)
			}
			from, to := 0, bound
			if k == 0 {
				from, to = lo, hi
			}
			if to > i-k {
				to = i - k
			}
			for j := to - 1; j >= from; j-- {
				fanins[step][k] = j
				if slots(k+1, j) {
					return true
				}
			}
			return false
		}
		return slots(0, 0)
	}
	return rec(0)
}

// CountDAGs returns the number of concrete DAGs for a fence.
func CountDAGs(f Fence, nrSrc, arity int) int {
	n := 0
	ForEachDAG(f, nrSrc, arity, func(DAG) bool {
		n++
		return false
	})
	return n
}

func levelOf(dist []int, idx int) int {
	for l := 1; l < len(dist); l++ {
		if idx < dist[l] {
			return l
		}
	}
	return len(dist) - 1
}
