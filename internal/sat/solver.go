// Package sat wraps the gini SAT solver behind the clause-level
// interface the encoders consume. Literals at this boundary use the
// convention lit = var<<1 | negated; variable ids start at 1.
package sat

import (
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
	Timeout
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Lit builds a literal for variable v; c != 0 negates it.
func Lit(v, c int) int {
	return v<<1 | (c & 1)
}

// LitNot complements a literal.
func LitNot(lit int) int {
	return lit ^ 1
}

// Solver owns one gini instance. It is not safe for concurrent use;
// parallel search gives every worker its own Solver.
type Solver struct {
	g         *gini.Gini
	nrVars    int
	nrClauses int
	tries     int
}

func New() *Solver {
	return &Solver{g: gini.New()}
}

// Restart drops all clauses and variables.
func (s *Solver) Restart() {
	s.g = gini.New()
	s.nrVars = 0
	s.nrClauses = 0
	s.tries = 0
}

// SetNrVars declares the variable space. gini grows its variable
// range implicitly on Add; the count is kept for introspection.
func (s *Solver) SetNrVars(n int) {
	if n > s.nrVars {
		s.nrVars = n
	}
}

func (s *Solver) NrVars() int { return s.nrVars }

// AddClause adds a clause. The return value is false when the clause
// makes the formula immediately unsatisfiable (empty clause).
func (s *Solver) AddClause(lits ...int) bool {
	if len(lits) == 0 {
		return false
	}
	for _, l := range lits {
		m := z.Var(l >> 1).Pos()
		if l&1 == 1 {
			m = m.Not()
		}
		if v := l >> 1; v > s.nrVars {
			s.nrVars = v
		}
		s.g.Add(m)
	}
	s.g.Add(z.LitNull)
	s.nrClauses++
	return true
}

// Solve runs the solver under a wall-clock budget; zero means
// unlimited.
func (s *Solver) Solve(budget time.Duration) Status {
	if budget <= 0 {
		return statusOf(s.g.Solve())
	}
	s.tries++
	return statusOf(s.g.GoSolve().Try(budget))
}

// Value reads a variable's assignment after a Sat result.
func (s *Solver) Value(v int) bool {
	return s.g.Value(z.Var(v).Pos())
}

func (s *Solver) NrClauses() int { return s.nrClauses }

// NrConflicts reports solver effort. gini does not export conflict
// counts; the number of budgeted solve attempts stands in for logging.
func (s *Solver) NrConflicts() int { return s.tries }

func statusOf(r int) Status {
	switch {
	case r > 0:
		return Sat
	case r < 0:
		return Unsat
	}
	return Timeout
}
