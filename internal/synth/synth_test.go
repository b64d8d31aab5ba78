package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsynth/internal/tt"
)

func aigSpec(nrIn int, target tt.TT) *Spec {
	return &Spec{NrIn: nrIn, Primitive: AIG, Targets: []tt.TT{target}}
}

func synthSteps2(t *testing.T, spec *Spec) (*Chain, int) {
	t.Helper()
	c, err := Synthesize(spec)
	require.NoError(t, err)
	return c, c.NrSteps()
}

func Test_AigConstants(t *testing.T) {
	zero := tt.New(2)

	c, steps := synthSteps2(t, aigSpec(2, zero))
	assert.Equal(t, 0, steps)
	assert.True(t, c.Simulate()[0].Equal(zero))
	assert.True(t, c.IsAIG())

	c, steps = synthSteps2(t, aigSpec(2, zero.Not()))
	assert.Equal(t, 0, steps)
	assert.True(t, c.Simulate()[0].Equal(zero.Not()))
	assert.True(t, c.IsAIG())
}

func Test_AigProjections(t *testing.T) {
	for i := 0; i < 2; i++ {
		v := tt.NthVar(2, i)
		for _, target := range []tt.TT{v, v.Not()} {
			c, steps := synthSteps2(t, aigSpec(2, target))
			assert.Equal(t, 0, steps)
			assert.True(t, c.Simulate()[0].Equal(target))
		}
	}
}

func Test_TinyInputCounts(t *testing.T) {
	// zero inputs: one-bit tables, constants only
	for _, target := range []tt.TT{tt.New(0), tt.New(0).Not()} {
		c, steps := synthSteps2(t, aigSpec(0, target))
		assert.Equal(t, 0, steps)
		assert.True(t, c.Simulate()[0].Equal(target))
	}
	// one input: constants and both projections
	v := tt.NthVar(1, 0)
	for _, target := range []tt.TT{tt.New(1), tt.New(1).Not(), v, v.Not()} {
		c, steps := synthSteps2(t, aigSpec(1, target))
		assert.Equal(t, 0, steps)
		assert.True(t, c.Simulate()[0].Equal(target))
	}
}

func Test_AigTwoInputFunctions(t *testing.T) {
	a := tt.NthVar(2, 0)
	b := tt.NthVar(2, 1)

	oneStep := []tt.TT{
		a.And(b), a.Not().And(b), a.And(b.Not()), a.Not().And(b.Not()), a.And(b).Not(),
		a.Or(b), a.Not().Or(b), a.Or(b.Not()), a.Not().Or(b.Not()), a.Or(b).Not(),
	}
	for _, target := range oneStep {
		c, steps := synthSteps2(t, aigSpec(2, target))
		assert.Equal(t, 1, steps, "target %s", target)
		assert.True(t, c.Simulate()[0].Equal(target), "target %s", target)
		assert.True(t, c.IsAIG())
	}

	threeSteps := []tt.TT{
		a.Xor(b), a.Not().Xor(b), a.Xor(b.Not()), a.Not().Xor(b.Not()), a.Xor(b).Not(),
	}
	for _, target := range threeSteps {
		c, steps := synthSteps2(t, aigSpec(2, target))
		assert.Equal(t, 3, steps, "target %s", target)
		assert.True(t, c.Simulate()[0].Equal(target), "target %s", target)
		assert.True(t, c.IsAIG())
	}
}

func Test_AigThreeInputXor(t *testing.T) {
	a := tt.NthVar(3, 0)
	b := tt.NthVar(3, 1)
	c3 := tt.NthVar(3, 2)
	target := a.Xor(b).Xor(c3)

	c, steps := synthSteps2(t, aigSpec(3, target))
	assert.Equal(t, 6, steps)
	assert.True(t, c.Simulate()[0].Equal(target))
	assert.True(t, c.IsAIG())
}

func Test_AigAllThreeInputFunctions(t *testing.T) {
	targets := []tt.TT{}
	if testing.Short() {
		targets = tt.NPNRepresentatives(3)
	} else {
		for w := uint64(0); w < 256; w++ {
			targets = append(targets, tt.FromWords(3, w))
		}
	}
	for _, target := range targets {
		c, err := Synthesize(aigSpec(3, target))
		require.NoError(t, err, "target %s", target)
		assert.True(t, c.Simulate()[0].Equal(target), "target %s", target)
		assert.True(t, c.IsAIG(), "target %s", target)
	}
}

func Test_AigXorWithAuxFunctions(t *testing.T) {
	x := tt.NthVar(3, 0)
	y := tt.NthVar(3, 1)

	spec := aigSpec(3, x.Xor(y))
	spec.Aux = []tt.TT{x.Not().And(y), x.And(y.Not())}

	c, steps := synthSteps2(t, spec)
	assert.Equal(t, 1, steps)
	assert.True(t, c.Simulate()[0].Equal(x.Xor(y)))
}

func Test_AuxFunctionTargetIsTrivial(t *testing.T) {
	x := tt.NthVar(3, 0)
	y := tt.NthVar(3, 1)
	aux := x.Not().And(y)

	spec := aigSpec(3, aux)
	spec.Aux = []tt.TT{aux}
	c, steps := synthSteps2(t, spec)
	assert.Equal(t, 0, steps)
	assert.True(t, c.Simulate()[0].Equal(aux))
}

func Test_MajOfThree(t *testing.T) {
	spec := majSpec(3, tt.Majority(3))
	c, steps := synthSteps2(t, spec)
	assert.Equal(t, 1, steps)
	assert.True(t, c.Simulate()[0].Equal(tt.Majority(3)))
	assert.True(t, c.IsMAJ())
}

func Test_MajOfFive(t *testing.T) {
	if testing.Short() {
		t.Skip("majority-5 search is slow")
	}
	spec := majSpec(5, tt.Majority(5))
	c, steps := synthSteps2(t, spec)
	assert.Equal(t, 4, steps)
	assert.True(t, c.Simulate()[0].Equal(tt.Majority(5)))
	assert.True(t, c.IsMAJ())
}

func Test_MajConstFalse(t *testing.T) {
	spec := majSpec(3, tt.New(3))
	c, steps := synthSteps2(t, spec)
	assert.Equal(t, 0, steps)
	assert.True(t, c.Simulate()[0].IsConst0())
}

func Test_RoundTrip(t *testing.T) {
	a := tt.NthVar(3, 0)
	b := tt.NthVar(3, 1)
	c3 := tt.NthVar(3, 2)
	target := a.And(b).Or(c3)

	c1, steps1 := synthSteps2(t, aigSpec(3, target))
	resim := c1.Simulate()[0]
	require.True(t, resim.Equal(target))

	_, steps2 := synthSteps2(t, aigSpec(3, resim))
	assert.Equal(t, steps1, steps2)
}

func Test_InvalidSpecs(t *testing.T) {
	_, err := Synthesize(&Spec{NrIn: 2, Primitive: AIG})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	// arity mismatch between target and input count
	_, err = Synthesize(&Spec{NrIn: 3, Primitive: AIG, Targets: []tt.TT{tt.NthVar(2, 0)}})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	// majority chains compute normal functions only
	_, err = Synthesize(&Spec{NrIn: 3, Primitive: MAJ, Targets: []tt.TT{tt.New(3).Not()}})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	// too few sources for a majority gate
	_, err = Synthesize(&Spec{NrIn: 2, Primitive: MAJ, Targets: []tt.TT{tt.NthVar(2, 0).And(tt.NthVar(2, 1))}})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	// auxiliary functions must be normal
	spec := aigSpec(2, tt.NthVar(2, 0).And(tt.NthVar(2, 1)))
	spec.Aux = []tt.TT{tt.New(2).Not()}
	_, err = Synthesize(spec)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func Test_ExhaustedSearch(t *testing.T) {
	a := tt.NthVar(3, 0)
	b := tt.NthVar(3, 1)
	c3 := tt.NthVar(3, 2)
	spec := aigSpec(3, a.Xor(b).Xor(c3))
	spec.MaxSteps = 2
	_, err := Synthesize(spec)
	assert.ErrorIs(t, err, ErrExhausted)
}
