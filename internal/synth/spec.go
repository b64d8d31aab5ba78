// Package synth implements SAT-based exact synthesis of Boolean
// chains: given target truth tables and a gate primitive, it finds a
// straight-line program with a provably minimal number of steps.
package synth

import (
	"time"

	"github.com/pkg/errors"

	"gsynth/internal/sat"
	"gsynth/internal/tt"
)

// Primitive selects the gate family of the synthesized chain.
type Primitive int

const (
	// AIG steps are two-input AND gates with complemented edges.
	AIG Primitive = iota
	// MAJ steps are ternary majority gates.
	MAJ
)

func (p Primitive) String() string {
	if p == MAJ {
		return "maj"
	}
	return "aig"
}

var (
	ErrInvalidSpec = errors.New("invalid spec")
	ErrExhausted   = errors.New("enumeration exhausted")
	ErrBudget      = errors.New("solver budget exhausted")
)

const defaultMaxSteps = 12

// Spec describes one synthesis problem. Targets hold the output
// functions (one supported); Aux holds pre-registered normal
// functions the encoder may reuse as step sources.
type Spec struct {
	NrIn      int
	NrOut     int
	Primitive Primitive
	Targets   []tt.TT
	Aux       []tt.TT
	MaxSteps  int
	Budget    time.Duration
	Verbosity int

	nrSteps  int
	target   tt.TT
	outInv   bool
	balanced bool
}

// prepare validates the spec and normalizes the target. AIG targets
// with a set zero bit are inverted and the inversion is carried on
// the chain output; majority chains compute normal functions only.
func (s *Spec) prepare() error {
	if len(s.Targets) == 0 {
		return errors.Wrap(ErrInvalidSpec, "no target functions")
	}
	if s.NrOut == 0 {
		s.NrOut = len(s.Targets)
	}
	if s.NrOut != len(s.Targets) {
		return errors.Wrapf(ErrInvalidSpec, "nr_out %d does not match %d targets", s.NrOut, len(s.Targets))
	}
	if s.NrOut != 1 {
		return errors.Wrap(ErrInvalidSpec, "multiple outputs not supported")
	}
	if s.NrIn < 0 || s.NrIn > tt.MaxVars {
		return errors.Wrapf(ErrInvalidSpec, "unsupported input count %d", s.NrIn)
	}
	for i, t := range s.Targets {
		if t.NrVars() != s.NrIn {
			return errors.Wrapf(ErrInvalidSpec, "target %d has %d bits, want %d", i, t.NrBits(), 1<<uint(s.NrIn))
		}
	}
	for i, a := range s.Aux {
		if a.NrVars() != s.NrIn {
			return errors.Wrapf(ErrInvalidSpec, "auxiliary function %d has %d bits, want %d", i, a.NrBits(), 1<<uint(s.NrIn))
		}
		if a.GetBit(0) {
			return errors.Wrapf(ErrInvalidSpec, "auxiliary function %d is not normal", i)
		}
	}
	if s.MaxSteps <= 0 {
		s.MaxSteps = defaultMaxSteps
	}
	if s.nrSrc()+s.MaxSteps > maxNodes {
		s.MaxSteps = maxNodes - s.nrSrc()
	}

	target := s.Targets[0]
	s.outInv = false
	if target.GetBit(0) {
		if s.Primitive == MAJ {
			return errors.Wrap(ErrInvalidSpec, "majority chains compute normal functions only")
		}
		s.outInv = true
		target = target.Not()
	}
	s.target = target
	s.balanced = s.Primitive == MAJ && target.Equal(tt.Majority(s.NrIn))
	return nil
}

func (s *Spec) nrSrc() int { return s.NrIn + len(s.Aux) }

func (s *Spec) arity() int {
	if s.Primitive == MAJ {
		return 3
	}
	return 2
}

// trivial answers targets that need no steps: constants, projections
// and pre-registered auxiliary functions.
func (s *Spec) trivial() (*Chain, bool) {
	c := NewChain(s.NrIn, s.Aux)
	if s.target.IsConst0() {
		c.SetOutput(-1, s.outInv)
		return c, true
	}
	for i := 0; i < s.NrIn; i++ {
		if s.target.IsNthVar(i) {
			c.SetOutput(i, s.outInv)
			return c, true
		}
	}
	for k, a := range s.Aux {
		if s.target.Equal(a) {
			c.SetOutput(s.NrIn+k, s.outInv)
			return c, true
		}
	}
	return nil, false
}

// checkSynthesizable rejects non-trivial problems the encoders cannot
// express.
func (s *Spec) checkSynthesizable() error {
	if s.Primitive == MAJ && s.nrSrc() < 3 {
		return errors.Wrap(ErrInvalidSpec, "majority synthesis needs at least three sources")
	}
	if s.MaxSteps < 1 {
		return errors.Wrapf(ErrInvalidSpec, "no room for steps with %d sources", s.nrSrc())
	}
	return nil
}

func (s *Spec) newEncoder(solver *sat.Solver) encoderAPI {
	if s.Primitive == MAJ {
		return newMajEncoder(s, solver)
	}
	return newAigEncoder(s, solver)
}
