package infer

import (
	"fmt"
	"log/slog"

	"github.com/delisp/delisp/frontend/types"
	"github.com/delisp/delisp/internal/log"
	"github.com/pkg/errors"
)

// ErrCircularConstraints is returned when no remaining constraint can be solved.
// It signals a bug in constraint generation rather than a type error in the program.
var ErrCircularConstraints = errors.New("circular constraints: no constraint can be solved")

// SolveError is a type error found while solving Constraint
type SolveError struct {
	Constraint Constraint
	// Err is one of the errors returned by types.Unify
	Err error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("solving %s: %v", e.Constraint, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

// Solve finds a substitution satisfying every constraint, starting from initial.
// Constraints are solved in the order given, skipping instance constraints that
// would generalize variables other constraints still depend on.
//
// On a type error the returned error is a *SolveError and the substitution is
// the one reached before the failing constraint.
func Solve(constraints []Constraint, initial types.Substitution, fresher *types.Fresher) (types.Substitution, error) {
	return newSolver(fresher, log.DefaultLogger).solve(constraints, initial)
}

func newSolver(fresher *types.Fresher, logger *slog.Logger) solver {
	return solver{fresher: fresher, logger: logger.With("section", "solver")}
}

type solver struct {
	fresher *types.Fresher
	logger  *slog.Logger
}

func (sv solver) solve(constraints []Constraint, s types.Substitution) (types.Substitution, error) {
	pending := constraints
	for len(pending) > 0 {
		i := nextSolvable(pending)
		if i < 0 {
			sv.logger.Warn("no solvable constraint", "pending", len(pending))
			return s, errors.WithStack(ErrCircularConstraints)
		}
		c := pending[i]
		sv.logger.Debug("solving", "constraint", c.String())

		switch c := c.(type) {
		case *Equal:
			next, err := types.Unify(c.T1, c.T2, s, sv.fresher)
			if err != nil {
				return s, &SolveError{Constraint: c, Err: err}
			}
			s = next
			pending = applyAll(without(pending, i), s)

		case *ExplicitInstance:
			instance := types.Instantiate(c.Schema, sv.fresher, false)
			pending = replaced(pending, i, &Equal{T1: c.T, T2: instance, Source: c.Source})

		case *ImplicitInstance:
			monovars := resolveMonovars(c.Monovars, s)
			schema := types.Generalize(types.Apply(c.Generalize, s), monovars)
			pending = replaced(pending, i, &ExplicitInstance{T: c.T, Schema: schema, Source: c.Source})

		default:
			panic(fmt.Sprintf("unreachable: unknown constraint %T", c))
		}
	}
	return s, nil
}

// nextSolvable returns the index of the first constraint that can be solved, or -1
func nextSolvable(constraints []Constraint) int {
	for i, c := range constraints {
		implicit, ok := c.(*ImplicitInstance)
		if !ok {
			return i
		}
		generalizable := implicit.generalizable()
		solvable := true
		for j, other := range constraints {
			if j == i {
				continue
			}
			if !generalizable.Intersect(other.activeVars()).Empty() {
				solvable = false
				break
			}
		}
		if solvable {
			return i
		}
	}
	return -1
}

func without(constraints []Constraint, i int) []Constraint {
	rest := make([]Constraint, 0, len(constraints)-1)
	rest = append(rest, constraints[:i]...)
	return append(rest, constraints[i+1:]...)
}

func replaced(constraints []Constraint, i int, c Constraint) []Constraint {
	next := make([]Constraint, len(constraints))
	copy(next, constraints)
	next[i] = c
	return next
}

func applyAll(constraints []Constraint, s types.Substitution) []Constraint {
	applied := make([]Constraint, len(constraints))
	for i, c := range constraints {
		applied[i] = c.apply(s)
	}
	return applied
}
