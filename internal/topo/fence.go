// Package topo enumerates chain topologies: fences (level profiles)
// and the concrete DAGs compatible with a fence.
package topo

import "sort"

// Fence is a level profile (l_1, ..., l_L): l_i steps sit on level i.
// A step on level i draws its highest fanin from level i-1 and the
// rest from any lower index.
type Fence []int

func (f Fence) NrNodes() int {
	n := 0
	for _, l := range f {
		n += l
	}
	return n
}

func (f Fence) NrLevels() int { return len(f) }

func (f Fence) At(level int) int { return f[level] }

// LevelDist returns the cumulative step-index bounds: entry i is the
// exclusive upper index of level i, with entry 0 holding the source
// count.
func (f Fence) LevelDist(nrSrc int) []int {
	dist := make([]int, len(f)+1)
	dist[0] = nrSrc
	for i, l := range f {
		dist[i+1] = dist[i] + l
	}
	return dist
}

// Generator produces a duplicate-free stream of fences.
type Generator interface {
	NextFence() Fence
}

// UnboundedGenerator yields every fence, in non-decreasing order of
// node count and in colexicographic order of the level sequence
// within a fixed count.
type UnboundedGenerator struct {
	nrNodes int
	queue   []Fence
}

func NewUnbounded(initial int) *UnboundedGenerator {
	if initial < 1 {
		initial = 1
	}
	return &UnboundedGenerator{nrNodes: initial - 1}
}

func (g *UnboundedGenerator) NextFence() Fence {
	for len(g.queue) == 0 {
		g.nrNodes++
		g.queue = compositions(g.nrNodes)
	}
	f := g.queue[0]
	g.queue = g.queue[1:]
	return f
}

// compositions returns all ordered sequences of positive integers
// summing to s, sorted colexicographically.
func compositions(s int) []Fence {
	var out []Fence
	var cur Fence
	var rec func(rem int)
	rec = func(rem int) {
		if rem == 0 {
			f := make(Fence, len(cur))
			copy(f, cur)
			out = append(out, f)
			return
		}
		for first := 1; first <= rem; first++ {
			cur = append(cur, first)
			rec(rem - first)
			cur = cur[:len(cur)-1]
		}
	}
	rec(s)
	sort.Slice(out, func(i, j int) bool { return colexLess(out[i], out[j]) })
	return out
}

func colexLess(a, b Fence) bool {
	for i := 1; i <= len(a) && i <= len(b); i++ {
		x, y := a[len(a)-i], b[len(b)-i]
		if x != y {
			return x < y
		}
	}
	return len(a) < len(b)
}

// POFilter passes only fences whose last level holds between minLast
// and maxLast nodes; synthesis uses the root's fanin arity as maxLast.
type POFilter struct {
	gen     Generator
	minLast int
	maxLast int
}

func NewPOFilter(gen Generator, minLast, maxLast int) *POFilter {
	return &POFilter{gen: gen, minLast: minLast, maxLast: maxLast}
}

func (p *POFilter) NextFence() Fence {
	for {
		f := p.gen.NextFence()
		last := f[f.NrLevels()-1]
		if last >= p.minLast && last <= p.maxLast {
			return f
		}
	}
}
