package synth

import (
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"gsynth/internal/sat"
	"gsynth/internal/topo"
)

type attemptOutcome int

const (
	attemptFound attemptOutcome = iota
	attemptInfeasible
	attemptTimeout
	attemptCancelled
)

// cancelSlice bounds individual solver calls when a cancel token is
// in play, so workers observe cancellation between calls.
const cancelSlice = 250 * time.Millisecond

// runCegar drives one fence attempt: add the constraints of the
// current discriminating minterm, solve, decode, and simulate for the
// next disagreement. Minterm zero seeds the loop with one solve.
func runCegar(enc encoderAPI, solver *sat.Solver, spec *Spec, cancel *atomic.Bool) attemptOutcome {
	m := 0
	for iter := 0; ; iter++ {
		if cancel != nil && cancel.Load() {
			return attemptCancelled
		}
		if !enc.addCNF(m) {
			return attemptInfeasible
		}
		if spec.Verbosity > 1 {
			log.Infof("iter %3d: minterm %d vars=%d clauses=%d conflicts=%d",
				iter, m, enc.nrVars(), solver.NrClauses(), solver.NrConflicts())
		}
		switch solveWithCancel(solver, spec, cancel) {
		case sat.Unsat:
			return attemptInfeasible
		case sat.Timeout:
			return attemptTimeout
		case sat.Unknown:
			return attemptCancelled
		}
		enc.decode()
		m = enc.simulate()
		if m == -1 {
			return attemptFound
		}
	}
}

// solveWithCancel runs the solver under the spec budget. With a
// cancel token, solving proceeds in short budget slices and the token
// is re-checked between them; cancellation is advisory and never
// interrupts a call in flight.
func solveWithCancel(solver *sat.Solver, spec *Spec, cancel *atomic.Bool) sat.Status {
	if cancel == nil {
		return solver.Solve(spec.Budget)
	}
	var spent time.Duration
	for {
		slice := cancelSlice
		if spec.Budget > 0 {
			if remaining := spec.Budget - spent; remaining < slice {
				slice = remaining
			}
			if slice <= 0 {
				return sat.Timeout
			}
		}
		st := solver.Solve(slice)
		if st != sat.Timeout {
			return st
		}
		spent += slice
		if spec.Budget > 0 && spent >= spec.Budget {
			return sat.Timeout
		}
		if cancel.Load() {
			return sat.Unknown
		}
	}
}

// Synthesize finds a minimum-step chain for the spec. Majority
// problems search the fence stream; AIG problems iterate the step
// count directly over the unrestricted layout.
func Synthesize(spec *Spec) (*Chain, error) {
	if err := spec.prepare(); err != nil {
		return nil, err
	}
	if c, ok := spec.trivial(); ok {
		return c, nil
	}
	if err := spec.checkSynthesizable(); err != nil {
		return nil, err
	}
	if spec.Primitive == MAJ {
		return synthFences(spec)
	}
	return synthSteps(spec)
}

func synthFences(spec *Spec) (*Chain, error) {
	gen := topo.NewPOFilter(topo.NewUnbounded(1), 1, spec.arity())
	solver := sat.New()
	sawTimeout := false
	for {
		f := gen.NextFence()
		if f.NrNodes() > spec.MaxSteps {
			return nil, exhaustedErr(sawTimeout)
		}
		spec.nrSteps = f.NrNodes()
		if spec.Verbosity > 0 {
			log.Infof("trying fence %v (%d nodes)", f, f.NrNodes())
		}
		solver.Restart()
		enc := spec.newEncoder(solver)
		if !enc.encode(f) {
			continue
		}
		switch runCegar(enc, solver, spec, nil) {
		case attemptFound:
			return enc.extractChain(), nil
		case attemptTimeout:
			sawTimeout = true
		}
	}
}

func synthSteps(spec *Spec) (*Chain, error) {
	solver := sat.New()
	sawTimeout := false
	for s := 1; s <= spec.MaxSteps; s++ {
		spec.nrSteps = s
		if spec.Verbosity > 0 {
			log.Infof("trying %d steps", s)
		}
		solver.Restart()
		enc := spec.newEncoder(solver)
		if !enc.encode(nil) {
			continue
		}
		switch runCegar(enc, solver, spec, nil) {
		case attemptFound:
			return enc.extractChain(), nil
		case attemptTimeout:
			sawTimeout = true
		}
	}
	return nil, exhaustedErr(sawTimeout)
}

func exhaustedErr(sawTimeout bool) error {
	if sawTimeout {
		return ErrBudget
	}
	return ErrExhausted
}
