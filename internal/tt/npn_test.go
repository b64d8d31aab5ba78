package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NPNClassCounts(t *testing.T) {
	// http://oeis.org/A000370
	assert.Len(t, NPNRepresentatives(0), 1)
	assert.Len(t, NPNRepresentatives(1), 2)
	assert.Len(t, NPNRepresentatives(2), 4)
	assert.Len(t, NPNRepresentatives(3), 14)
}

func Test_NPNCanonicalInvariant(t *testing.T) {
	for w := uint64(0); w < 256; w++ {
		f := FromWords(3, w)
		c := NPNCanonical(f)
		assert.Equal(t, c.Word(), NPNCanonical(c).Word(), "function %#x", w)
		assert.Equal(t, c.Word(), NPNCanonical(f.Not()).Word(), "function %#x", w)
	}
}

func Test_NPNCanonicalMapsEquivalents(t *testing.T) {
	a := NthVar(2, 0)
	b := NthVar(2, 1)
	assert.Equal(t, NPNCanonical(a.And(b)).Word(), NPNCanonical(a.Or(b)).Word())
	assert.Equal(t, NPNCanonical(a.And(b.Not())).Word(), NPNCanonical(a.Not().And(b)).Word())
	assert.NotEqual(t, NPNCanonical(a.And(b)).Word(), NPNCanonical(a.Xor(b)).Word())
}
