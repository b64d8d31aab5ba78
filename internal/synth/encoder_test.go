package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsynth/internal/sat"
	"gsynth/internal/topo"
	"gsynth/internal/tt"
)

func majSpec(nrIn int, target tt.TT) *Spec {
	return &Spec{NrIn: nrIn, Primitive: MAJ, Targets: []tt.TT{target}}
}

func Test_MajEncoderSingleNodeFence(t *testing.T) {
	spec := majSpec(3, tt.Majority(3))
	require.NoError(t, spec.prepare())
	spec.nrSteps = 1

	solver := sat.New()
	enc := newMajEncoder(spec, solver)
	require.True(t, enc.encode(topo.Fence{1}))
	require.True(t, enc.addCNF(0))
	require.Equal(t, sat.Sat, solver.Solve(0))

	enc.decode()
	assert.Equal(t, [3]int{2, 1, 0}, enc.fanins[0])
	assert.Equal(t, -1, enc.simulate())

	chain := enc.extractChain()
	assert.Equal(t, 1, chain.NrSteps())
	assert.True(t, chain.Simulate()[0].Equal(tt.Majority(3)))
}

func Test_MajEncoderExactlyOneSelector(t *testing.T) {
	spec := majSpec(3, tt.Majority(3))
	require.NoError(t, spec.prepare())
	spec.nrSteps = 2

	solver := sat.New()
	enc := newMajEncoder(spec, solver)
	require.True(t, enc.encode(topo.Fence{1, 1}))
	require.True(t, enc.addCNF(0))
	require.Equal(t, sat.Sat, solver.Solve(0))

	for i := enc.nrSrc(); i < enc.nrObjs(); i++ {
		for k := 0; k < 3; k++ {
			count := 0
			for j := 0; j < enc.nrObjs(); j++ {
				if v := enc.mark(i, k, j); v != 0 && solver.Value(v) {
					count++
				}
			}
			assert.Equal(t, 1, count, "step %d slot %d", i, k)
		}
	}
}

// simulateMajDAG evaluates a concrete majority DAG; the last step is
// the root.
func simulateMajDAG(nrIn int, d topo.DAG) tt.TT {
	sims := make([]tt.TT, 0, nrIn+len(d.Fanins))
	for i := 0; i < nrIn; i++ {
		sims = append(sims, tt.NthVar(nrIn, i))
	}
	for _, fs := range d.Fanins {
		sims = append(sims, tt.Maj3(sims[fs[0]], sims[fs[1]], sims[fs[2]]))
	}
	return sims[len(sims)-1]
}

func Test_InfeasibleFenceHasNoDAG(t *testing.T) {
	target := tt.Majority(5)
	for _, f := range []topo.Fence{{1}, {2}, {1, 1}} {
		spec := majSpec(5, target)
		require.NoError(t, spec.prepare())
		spec.nrSteps = f.NrNodes()

		solver := sat.New()
		enc := newMajEncoder(spec, solver)
		outcome := attemptInfeasible
		if enc.encode(f) {
			outcome = runCegar(enc, solver, spec, nil)
		}
		assert.Equal(t, attemptInfeasible, outcome, "fence %v", f)

		found := topo.ForEachDAG(f, 5, 3, func(d topo.DAG) bool {
			return simulateMajDAG(5, d).Equal(target)
		})
		assert.False(t, found, "fence %v has a realizing DAG", f)
	}
}

func Test_FeasibleFenceHasDAG(t *testing.T) {
	// the fence accepted by CEGAR for majority-3 also has a concrete
	// realizing DAG
	target := tt.Majority(3)
	found := topo.ForEachDAG(topo.Fence{1}, 3, 3, func(d topo.DAG) bool {
		return simulateMajDAG(3, d).Equal(target)
	})
	assert.True(t, found)
}

func Test_MajEncoderNoFence(t *testing.T) {
	spec := majSpec(3, tt.Majority(3))
	require.NoError(t, spec.prepare())
	spec.nrSteps = 2

	solver := sat.New()
	enc := newMajEncoder(spec, solver)
	require.True(t, enc.encode(nil))
	require.Equal(t, attemptFound, runCegar(enc, solver, spec, nil))

	chain := enc.extractChain()
	require.Equal(t, 2, chain.NrSteps())
	assert.True(t, chain.Simulate()[0].Equal(tt.Majority(3)))
	assert.True(t, chain.IsMAJ())
}

func Test_AigEncoderNoFence(t *testing.T) {
	a := tt.NthVar(2, 0)
	b := tt.NthVar(2, 1)
	spec := &Spec{NrIn: 2, Primitive: AIG, Targets: []tt.TT{a.And(b)}}
	require.NoError(t, spec.prepare())
	spec.nrSteps = 1

	solver := sat.New()
	enc := newAigEncoder(spec, solver)
	require.True(t, enc.encode(nil))
	require.Equal(t, attemptFound, runCegar(enc, solver, spec, nil))

	chain := enc.extractChain()
	require.Equal(t, 1, chain.NrSteps())
	assert.True(t, chain.Simulate()[0].Equal(a.And(b)))
	assert.True(t, chain.IsAIG())
}

func Test_AigEncoderRejectsTooFewSteps(t *testing.T) {
	a := tt.NthVar(2, 0)
	b := tt.NthVar(2, 1)
	spec := &Spec{NrIn: 2, Primitive: AIG, Targets: []tt.TT{a.Xor(b)}}
	require.NoError(t, spec.prepare())

	for _, s := range []int{1, 2} {
		spec.nrSteps = s
		solver := sat.New()
		enc := newAigEncoder(spec, solver)
		require.True(t, enc.encode(nil))
		assert.Equal(t, attemptInfeasible, runCegar(enc, solver, spec, nil), "%d steps", s)
	}
}
