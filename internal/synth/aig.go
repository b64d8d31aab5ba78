package synth

import (
	"fmt"

	"gsynth/internal/sat"
	"gsynth/internal/topo"
	"gsynth/internal/tt"
)

// aigEncoder synthesizes chains of two-input AND-inverter steps. Each
// step carries two fanin slots following the same selector layout as
// the majority encoder, plus three operator bits giving the step's
// normal function at fanin values (1,0), (0,1) and (1,1); xor and the
// constant are excluded so every step stays AIG-representable.
type aigEncoder struct {
	spec   *Spec
	solver *sat.Solver

	marks     []int
	opVars    [][3]int
	outLits   [][]int
	levelDist []int
	nrLevels  int
	iVar      int

	srcVals []int
	simTTs  []tt.TT
	fanins  [][2]int
	ops     []tt.TT
}

func newAigEncoder(spec *Spec, solver *sat.Solver) *aigEncoder {
	return &aigEncoder{
		spec:    spec,
		solver:  solver,
		marks:   make([]int, maxNodes*2*maxNodes),
		outLits: make([][]int, maxNodes),
		srcVals: make([]int, maxNodes),
	}
}

func (e *aigEncoder) nrSrc() int  { return e.spec.nrSrc() }
func (e *aigEncoder) nrObjs() int { return e.spec.nrSrc() + e.spec.nrSteps }
func (e *aigEncoder) root() int   { return e.nrObjs() - 1 }
func (e *aigEncoder) nrVars() int { return e.iVar }

func (e *aigEncoder) mark(i, k, j int) int {
	return e.marks[(i*2+k)*maxNodes+j]
}

func (e *aigEncoder) setMark(i, k, j, v int) {
	e.marks[(i*2+k)*maxNodes+j] = v
}

func (e *aigEncoder) srcTT(j int) tt.TT {
	if j < e.spec.NrIn {
		return tt.NthVar(e.spec.NrIn, j)
	}
	return e.spec.Aux[j-e.spec.NrIn]
}

func (e *aigEncoder) encode(f topo.Fence) bool {
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

	e.iVar = 1
	base := e.nrSrc()
	if f != nil {
		e.nrLevels = f.NrLevels()
		e.levelDist = f.LevelDist(base)
	}
	for i := base; i < e.nrObjs(); i++ {
		if f != nil {
			level := e.getLevel(i)
			for z := e.firstStepOnLevel(level - 1); z < e.firstStepOnLevel(level); z++ {
				e.outLits[z] = append(e.outLits[z], sat.Lit(e.iVar, 0))
				e.setMark(i, 0, z, e.iVar)
				e.iVar++
			}
		} else {
			for j := 0; j < i; j++ {
				e.outLits[j] = append(e.outLits[j], sat.Lit(e.iVar, 0))
				e.setMark(i, 0, j, e.iVar)
				e.iVar++
			}
		}
		for j := 0; j < i-1; j++ {
			e.outLits[j] = append(e.outLits[j], sat.Lit(e.iVar, 0))
			e.setMark(i, 1, j, e.iVar)
			e.iVar++
		}
	}
	e.opVars = make([][3]int, e.spec.nrSteps)
	for s := 0; s < e.spec.nrSteps; s++ {
		for b := 0; b < 3; b++ {
			e.opVars[s][b] = e.iVar
			e.iVar++
		}
	}
	return e.addBaseCNF()
}

func (e *aigEncoder) getLevel(idx int) int {
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

func (e *aigEncoder) firstStepOnLevel(level int) int {
	if level == 0 {
		return 0
	}
	return e.levelDist[level-1]
}

func (e *aigEncoder) addBaseCNF() bool {
	base := e.nrSrc()
	var pLits []int
	for i := base; i < e.nrObjs(); i++ {
		for k := 0; k < 2; k++ {
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
			if k == 1 {
				break
			}
			for j := 0; j < e.nrObjs(); j++ {
				if e.mark(i, 0, j) == 0 {
					continue
				}
				for n := j; n < e.nrObjs(); n++ {
					if e.mark(i, 1, n) == 0 {
						continue
					}
					if !e.solver.AddClause(sat.Lit(e.mark(i, 0, j), 1), sat.Lit(e.mark(i, 1, n), 1)) {
						return false
					}
				}
			}
		}
		ops := e.opVars[i-base]
		// no constant step, no xor
		if !e.solver.AddClause(sat.Lit(ops[0], 0), sat.Lit(ops[1], 0), sat.Lit(ops[2], 0)) {
			return false
		}
		if !e.solver.AddClause(sat.Lit(ops[0], 1), sat.Lit(ops[1], 1), sat.Lit(ops[2], 0)) {
			return false
		}
	}
	for j := base; j < e.nrObjs()-1; j++ {
		if len(e.outLits[j]) == 0 {
			continue
		}
		if !e.solver.AddClause(e.outLits[j]...) {
			return false
		}
	}
	return true
}

// addCNF mirrors the majority encoder's per-minterm schema with three
// shadow variables per step: two fanin values and the output.
func (e *aigEncoder) addCNF(m int) bool {
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
	e.solver.SetNrVars(e.iVar + 3*e.spec.nrSteps)
	var lits []int
	for i := base; i < e.nrObjs(); i++ {
		iBaseI := e.iVar + 3*(i-base)
		for k := 0; k < 2; k++ {
			for j := 0; j < e.nrObjs(); j++ {
				v := e.mark(i, k, j)
				if v == 0 {
					continue
				}
				for n := 0; n < 2; n++ {
					lits = lits[:0]
					lits = append(lits, sat.Lit(v, 1), sat.Lit(iBaseI+k, n))
					if j >= base {
						iBaseJ := e.iVar + 3*(j-base)
						lits = append(lits, sat.Lit(iBaseJ+2, 1-n))
					} else if e.srcVals[j] == n {
						continue
					}
					if !e.solver.AddClause(lits...) {
						return false
					}
				}
			}
		}
		ops := e.opVars[i-base]
		isRoot := i == e.root()
		// both fanins zero forces a zero output
		if !isRoot {
			if !e.solver.AddClause(sat.Lit(iBaseI+0, 0), sat.Lit(iBaseI+1, 0), sat.Lit(iBaseI+2, 1)) {
				return false
			}
		} else if value == 1 {
			if !e.solver.AddClause(sat.Lit(iBaseI+0, 0), sat.Lit(iBaseI+1, 0)) {
				return false
			}
		}
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				if a == 0 && b == 0 {
					continue
				}
				o := ops[a+2*b-1]
				if !isRoot {
					if !e.solver.AddClause(sat.Lit(iBaseI+0, a), sat.Lit(iBaseI+1, b), sat.Lit(iBaseI+2, 1), sat.Lit(o, 0)) {
						return false
					}
					if !e.solver.AddClause(sat.Lit(iBaseI+0, a), sat.Lit(iBaseI+1, b), sat.Lit(iBaseI+2, 0), sat.Lit(o, 1)) {
						return false
					}
				} else if value == 1 {
					if !e.solver.AddClause(sat.Lit(iBaseI+0, a), sat.Lit(iBaseI+1, b), sat.Lit(o, 0)) {
						return false
					}
				} else {
					if !e.solver.AddClause(sat.Lit(iBaseI+0, a), sat.Lit(iBaseI+1, b), sat.Lit(o, 1)) {
						return false
					}
				}
			}
		}
	}
	e.iVar += 3 * e.spec.nrSteps
	return true
}

func (e *aigEncoder) findFanin(i, k int) int {
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

func (e *aigEncoder) decode() {
	base := e.nrSrc()
	e.fanins = make([][2]int, e.spec.nrSteps)
	e.ops = make([]tt.TT, e.spec.nrSteps)
	for i := base; i < e.nrObjs(); i++ {
		f0 := e.findFanin(i, 0)
		f1 := e.findFanin(i, 1)
		var word uint64
		for b := 0; b < 3; b++ {
			if e.solver.Value(e.opVars[i-base][b]) {
				word |= 1 << uint(b+1)
			}
		}
		op := tt.FromWords(2, word)
		e.fanins[i-base] = [2]int{f0, f1}
		e.ops[i-base] = op
		e.simTTs[i] = evalOp(e.spec.NrIn, op, e.simTTs[f0], e.simTTs[f1])
	}
}

func (e *aigEncoder) simulate() int {
	rootTT := e.simTTs[e.root()]
	for m := 1; m < 1<<uint(e.spec.NrIn); m++ {
		if rootTT.GetBit(m) != e.spec.target.GetBit(m) {
			return m
		}
	}
	return -1
}

func (e *aigEncoder) extractChain() *Chain {
	c := NewChain(e.spec.NrIn, e.spec.Aux)
	for s := 0; s < e.spec.nrSteps; s++ {
		c.AddStep(e.ops[s], e.fanins[s][0], e.fanins[s][1])
	}
	c.SetOutput(e.root(), e.spec.outInv)
	return c
}
