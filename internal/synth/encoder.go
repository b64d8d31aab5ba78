package synth

import (
	"fmt"
	"math/bits"

	"gsynth/internal/sat"
	"gsynth/internal/topo"
	"gsynth/internal/tt"
)

// maxNodes bounds the combined source-and-step space; the structural
// store is a single contiguous block indexed by (step, slot, source).
const maxNodes = 32

// encoderAPI is what the CEGAR driver needs from an encoder. encode
// takes a nil fence for the unrestricted layout.
type encoderAPI interface {
	encode(f topo.Fence) bool
	addCNF(m int) bool
	decode()
	simulate() int
	extractChain() *Chain
	nrVars() int
}

// majEncoder lays out structural selector variables S[i][k][j] for
// ternary majority steps and grows per-minterm simulation clauses on
// demand.
type majEncoder struct {
	spec   *Spec
	solver *sat.Solver

	marks     []int   // selector var ids, (i*3+k)*maxNodes+j, 0 = absent
	outLits   [][]int // per source index: selector literals that may use it
	levelDist []int
	nrLevels  int
	iVar      int

	srcVals []int
	simTTs  []tt.TT
	fanins  [][3]int
}

func newMajEncoder(spec *Spec, solver *sat.Solver) *majEncoder {
	return &majEncoder{
		spec:    spec,
		solver:  solver,
		marks:   make([]int, maxNodes*3*maxNodes),
		outLits: make([][]int, maxNodes),
		srcVals: make([]int, maxNodes),
	}
}

func (e *majEncoder) nrSrc() int  { return e.spec.nrSrc() }
func (e *majEncoder) nrObjs() int { return e.spec.nrSrc() + e.spec.nrSteps }
func (e *majEncoder) root() int   { return e.nrObjs() - 1 }
func (e *majEncoder) nrVars() int { return e.iVar }

func (e *majEncoder) mark(i, k, j int) int {
	return e.marks[(i*3+k)*maxNodes+j]
}

func (e *majEncoder) setMark(i, k, j, v int) {
	e.marks[(i*3+k)*maxNodes+j] = v
}

func (e *majEncoder) srcTT(j int) tt.TT {
	if j < e.spec.NrIn {
		return tt.NthVar(e.spec.NrIn, j)
	}
	return e.spec.Aux[j-e.spec.NrIn]
}

// encode builds the structural variables and base CNF for one trial;
// a nil fence selects the unrestricted layout.
func (e *majEncoder) encode(f topo.Fence) bool {
	for i := range e.marks {
		e.marks[i] = 0
	}
	for i := range e.outLits {
		e.outLits[i] = nil
	}
	e.simTTs = make([]tt.TT, e.nrObjs())
	for i := 0; i < e.nrSrc(); i++ {
		e.simTTs[i] = e.srcTT(i)
	}
	if f != nil {
		e.updateLevelMap(f)
		e.addBaseVariablesFence(f)
	} else {
		e.addBaseVariables()
	}
	return e.addBaseCNF()
}

func (e *majEncoder) updateLevelMap(f topo.Fence) {
	e.nrLevels = f.NrLevels()
	e.levelDist = f.LevelDist(e.nrSrc())
}

// getLevel places sources on level zero and the first step on level
// one.
func (e *majEncoder) getLevel(idx int) int {
	if idx < e.nrSrc() {
		return 0
	}
	if idx == e.nrSrc() {
		return 1
	}
	i := 0
	for ; i <= e.nrLevels; i++ {
		if e.levelDist[i] > idx {
			break
		}
	}
	return i
}

func (e *majEncoder) firstStepOnLevel(level int) int {
	if level == 0 {
		return 0
	}
	return e.levelDist[level-1]
}

func (e *majEncoder) pushOut(j, lit int) {
	e.outLits[j] = append(e.outLits[j], lit)
}

// addBaseVariables allocates selectors without a fence: slot k of
// step i ranges over sources below i-k. The first step is wired to
// the three lowest sources.
func (e *majEncoder) addBaseVariables() {
	e.iVar = 1
	base := e.nrSrc()
	for k := 0; k < 3; k++ {
		j := 2 - k
		e.pushOut(j, sat.Lit(e.iVar, 0))
		e.setMark(base, k, j, e.iVar)
		e.iVar++
	}
	for i := base + 1; i < e.nrObjs(); i++ {
		for k := 0; k < 3; k++ {
			for j := 0; j < i-k; j++ {
				e.pushOut(j, sat.Lit(e.iVar, 0))
				e.setMark(i, k, j, e.iVar)
				e.iVar++
			}
		}
	}
}

// addBaseVariablesFence allocates selectors under a fence: slot 0
// ranges over the immediately preceding level only.
func (e *majEncoder) addBaseVariablesFence(f topo.Fence) {
	e.iVar = 1
	base := e.nrSrc()
	for k := 0; k < 3; k++ {
		j := 2 - k
		e.pushOut(j, sat.Lit(e.iVar, 0))
		e.setMark(base, k, j, e.iVar)
		e.iVar++
	}
	for i := base + 1; i < e.nrObjs(); i++ {
		level := e.getLevel(i)
		for z := e.firstStepOnLevel(level - 1); z < e.firstStepOnLevel(level); z++ {
			e.pushOut(z, sat.Lit(e.iVar, 0))
			e.setMark(i, 0, z, e.iVar)
			e.iVar++
		}
		for k := 1; k < 3; k++ {
			for j := 0; j < i-k; j++ {
				e.pushOut(j, sat.Lit(e.iVar, 0))
				e.setMark(i, k, j, e.iVar)
				e.iVar++
			}
		}
	}
}

// addBaseCNF emits the selector constraints: at least and at most one
// source per slot, descending fanin order, and a covering clause per
// non-root source.
func (e *majEncoder) addBaseCNF() bool {
	base := e.nrSrc()
	var pLits []int
	for i := base; i < e.nrObjs(); i++ {
		for k := 0; k < 3; k++ {
			pLits = pLits[:0]
			for j := 0; j < e.nrObjs(); j++ {
				if v := e.mark(i, k, j); v != 0 {
					pLits = append(pLits, sat.Lit(v, 0))
				}
			}
			if !e.solver.AddClause(pLits...) {
				return false
			}
			for n := 0; n < len(pLits); n++ {
				for m := n + 1; m < len(pLits); m++ {
					if !e.solver.AddClause(sat.LitNot(pLits[n]), sat.LitNot(pLits[m])) {
						return false
					}
				}
			}
			if k == 2 {
				break
			}
			// descending fanin order
			for j := 0; j < e.nrObjs(); j++ {
				if e.mark(i, k, j) == 0 {
					continue
				}
				for n := j; n < e.nrObjs(); n++ {
					if e.mark(i, k+1, n) == 0 {
						continue
					}
					if !e.solver.AddClause(sat.Lit(e.mark(i, k, j), 1), sat.Lit(e.mark(i, k+1, n), 1)) {
						return false
					}
				}
			}
		}
	}
	for j := 0; j < e.nrObjs()-1; j++ {
		if j >= e.spec.NrIn && j < base {
			// auxiliary functions need not be used
			continue
		}
		if len(e.outLits[j]) == 0 {
			continue
		}
		if !e.solver.AddClause(e.outLits[j]...) {
			return false
		}
	}
	return true
}

// addCNF extends the encoding with the simulation constraints of one
// minterm: four fresh variables per step (three fanin shadows and an
// output shadow), connectivity clauses tying shadows to selected
// sources, and majority functionality clauses. The root's output
// polarity is fixed to the target bit by suppression.
func (e *majEncoder) addCNF(m int) bool {
	base := e.nrSrc()
	value := 0
	if e.spec.target.GetBit(m) {
		value = 1
	}
	for j := 0; j < base; j++ {
		e.srcVals[j] = 0
		if e.srcTT(j).GetBit(m) {
			e.srcVals[j] = 1
		}
	}
	e.solver.SetNrVars(e.iVar + 4*e.spec.nrSteps)
	var lits []int
	for i := base; i < e.nrObjs(); i++ {
		iBaseI := e.iVar + 4*(i-base)
		for k := 0; k < 3; k++ {
			for j := 0; j < e.nrObjs(); j++ {
				v := e.mark(i, k, j)
				if v == 0 {
					continue
				}
				for n := 0; n < 2; n++ {
					lits = lits[:0]
					lits = append(lits, sat.Lit(v, 1), sat.Lit(iBaseI+k, n))
					if j >= base {
						iBaseJ := e.iVar + 4*(j-base)
						lits = append(lits, sat.Lit(iBaseJ+3, 1-n))
					} else if e.srcVals[j] == n {
						continue
					}
					if !e.solver.AddClause(lits...) {
						return false
					}
				}
			}
		}
		for n := 0; n < 2; n++ {
			if i == e.root() && n == value {
				continue
			}
			for kStar := 0; kStar < 3; kStar++ {
				lits = lits[:0]
				for k := 0; k < 3; k++ {
					if k != kStar {
						lits = append(lits, sat.Lit(iBaseI+k, n))
					}
				}
				if i != e.root() {
					lits = append(lits, sat.Lit(iBaseI+3, 1-n))
				}
				if !e.solver.AddClause(lits...) {
					return false
				}
			}
		}
	}
	e.iVar += 4 * e.spec.nrSteps
	return true
}

// findFanin reads the selected source of one slot from the model.
func (e *majEncoder) findFanin(i, k int) int {
	count, found := 0, -1
	for j := 0; j < e.nrObjs(); j++ {
		if v := e.mark(i, k, j); v != 0 && e.solver.Value(v) {
			found = j
			count++
		}
	}
	if count != 1 {
		panic(fmt.Sprintf("synth: step %d slot %d has %d selected sources", i, k, count))
	}
	return found
}

// decode reads the model into fanin tuples and recomputes the step
// simulation tables.
func (e *majEncoder) decode() {
	base := e.nrSrc()
	e.fanins = make([][3]int, e.spec.nrSteps)
	for i := base; i < e.nrObjs(); i++ {
		var fs [3]int
		for k := 0; k < 3; k++ {
			fs[k] = e.findFanin(i, k)
		}
		e.fanins[i-base] = fs
		e.simTTs[i] = tt.Maj3(e.simTTs[fs[0]], e.simTTs[fs[1]], e.simTTs[fs[2]])
	}
}

// simulate returns the smallest minterm where the decoded candidate
// disagrees with the target, or -1. Majority targets only need the
// weight-balanced minterms.
func (e *majEncoder) simulate() int {
	rootTT := e.simTTs[e.root()]
	n := e.spec.NrIn
	for m := 1; m < 1<<uint(n); m++ {
		if e.spec.balanced {
			ones := bits.OnesCount32(uint32(m))
			if ones < n/2 || ones > n/2+1 {
				continue
			}
		}
		if rootTT.GetBit(m) != e.spec.target.GetBit(m) {
			return m
		}
	}
	return -1
}

func (e *majEncoder) extractChain() *Chain {
	c := NewChain(e.spec.NrIn, e.spec.Aux)
	op := tt.Majority(3)
	for _, fs := range e.fanins {
		c.AddStep(op, fs[0], fs[1], fs[2])
	}
	c.SetOutput(e.root(), false)
	return c
}
