package topo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FenceBasics(t *testing.T) {
	f := Fence{2, 1, 3}
	assert.Equal(t, 6, f.NrNodes())
	assert.Equal(t, 3, f.NrLevels())
	assert.Equal(t, []int{4, 6, 7, 10}, f.LevelDist(4))
}

func Test_Compositions(t *testing.T) {
	// 2^(s-1) ordered level profiles per node count
	for s := 1; s <= 6; s++ {
		assert.Len(t, compositions(s), 1<<uint(s-1), "nodes %d", s)
	}
	for _, f := range compositions(5) {
		assert.Equal(t, 5, f.NrNodes())
		for _, l := range f {
			assert.Greater(t, l, 0)
		}
	}
}

func Test_UnboundedOrderAndUniqueness(t *testing.T) {
	gen := NewUnbounded(1)
	seen := map[string]bool{}
	prevNodes := 0
	for i := 0; i < 63; i++ {
		f := gen.NextFence()
		require.GreaterOrEqual(t, f.NrNodes(), prevNodes)
		prevNodes = f.NrNodes()
		key := fmt.Sprint(f)
		require.False(t, seen[key], "duplicate fence %v", f)
		seen[key] = true
	}
	// 1 + 2 + 4 + 8 + 16 + 32 fences cover node counts 1..6
	assert.Equal(t, 6, prevNodes)
}

func Test_UnboundedInitial(t *testing.T) {
	gen := NewUnbounded(3)
	f := gen.NextFence()
	assert.Equal(t, 3, f.NrNodes())
}

func Test_ColexOrder(t *testing.T) {
	fences := compositions(4)
	for i := 1; i < len(fences); i++ {
		assert.True(t, colexLess(fences[i-1], fences[i]),
			"%v before %v", fences[i-1], fences[i])
	}
}

func Test_POFilter(t *testing.T) {
	gen := NewPOFilter(NewUnbounded(1), 1, 3)
	for i := 0; i < 40; i++ {
		f := gen.NextFence()
		last := f[f.NrLevels()-1]
		assert.GreaterOrEqual(t, last, 1)
		assert.LessOrEqual(t, last, 3)
	}
}
