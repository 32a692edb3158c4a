package infer_test

import (
	"testing"

	"github.com/delisp/delisp/frontend/construct"
	"github.com/delisp/delisp/frontend/infer"
	"github.com/delisp/delisp/frontend/types"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveEqualities(t *testing.T) {
	a, b, c := construct.TVar("a"), construct.TVar("b"), construct.TVar("c")
	source := construct.Var("x")
	constraints := []infer.Constraint{
		&infer.Equal{T1: a, T2: construct.TVector(b), Source: source},
		&infer.Equal{T1: b, T2: c, Source: source},
		&infer.Equal{T1: c, T2: types.NumberType, Source: source},
	}

	s, err := infer.Solve(constraints, types.Substitution{}, types.NewFresher())
	require.NoError(t, err)
	assert.Equal(t, "[number]", types.String(types.Apply(a, s)))
	assert.Equal(t, "number", types.String(types.Apply(b, s)))
}

func TestSolveReportsFailingConstraint(t *testing.T) {
	a := construct.TVar("a")
	first, second := construct.Var("first"), construct.Var("second")
	constraints := []infer.Constraint{
		&infer.Equal{T1: a, T2: types.NumberType, Source: first},
		&infer.Equal{T1: a, T2: types.StringType, Source: second},
	}

	s, err := infer.Solve(constraints, types.Substitution{}, types.NewFresher())
	require.Error(t, err)
	var solveErr *infer.SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Same(t, second, solveErr.Constraint.Origin())
	var mismatch *types.MismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "number", types.String(types.Apply(a, s)), "substitution before the failure")
}

func TestSolveInstances(t *testing.T) {
	fresher := types.NewFresher()
	a := construct.TVar("a")
	id := construct.TArrow1(fresher, a, a)
	r1, r2 := fresher.Fresh(), fresher.Fresh()
	source := construct.Var("id")
	noMonovars := set.New[string](0)

	constraints := []infer.Constraint{
		&infer.ImplicitInstance{T: r1, Generalize: id, Monovars: noMonovars, Source: source},
		&infer.ImplicitInstance{T: r2, Generalize: id, Monovars: noMonovars, Source: source},
		&infer.ExplicitInstance{T: construct.TVar("n"), Schema: types.Generalize(construct.TVector(a), nil), Source: source},
		&infer.Equal{T1: r1, T2: construct.TArrow1(fresher, types.NumberType, fresher.Fresh()), Source: source},
		&infer.Equal{T1: r2, T2: construct.TArrow1(fresher, types.StringType, fresher.Fresh()), Source: source},
	}

	s, err := infer.Solve(constraints, types.Substitution{}, fresher)
	require.NoError(t, err)
	_, _, _, out1, _ := types.FunctionParts(types.Apply(r1, s))
	_, _, _, out2, _ := types.FunctionParts(types.Apply(r2, s))
	assert.Equal(t, "number", types.String(out1))
	assert.Equal(t, "string", types.String(out2))

	n := types.Apply(construct.TVar("n"), s)
	assert.Equal(t, types.VectorOp, types.OperatorOf(n))
	assert.False(t, types.OccursIn("a", n), "instances use fresh variables")
}

func TestSolveResolvesMonovars(t *testing.T) {
	fresher := types.NewFresher()
	a, b, c := construct.TVar("a"), construct.TVar("b"), construct.TVar("c")
	source := construct.Var("x")

	constraints := []infer.Constraint{
		&infer.Equal{T1: a, T2: construct.TVector(b), Source: source},
		&infer.ImplicitInstance{T: c, Generalize: a, Monovars: set.From([]string{"a"}), Source: source},
	}
	s, err := infer.Solve(constraints, types.Substitution{}, fresher)
	require.NoError(t, err)
	// b is monomorphic through a, so c is exactly [b]
	assert.Equal(t, "[b]", types.String(types.Apply(c, s)))
}

func TestSolveWithoutMonovars(t *testing.T) {
	fresher := types.NewFresher()
	a, r := construct.TVar("a"), fresher.Fresh()
	source := construct.Var("id")
	constraints := []infer.Constraint{
		&infer.ImplicitInstance{T: r, Generalize: construct.TArrow1(fresher, a, a), Source: source},
		&infer.Equal{T1: r, T2: construct.TArrow1(fresher, types.NumberType, fresher.Fresh()), Source: source},
	}

	s, err := infer.Solve(constraints, types.Substitution{}, fresher)
	require.NoError(t, err)
	_, _, _, out, _ := types.FunctionParts(types.Apply(r, s))
	assert.Equal(t, "number", types.String(out))
	assert.NotPanics(t, func() { _ = constraints[0].String() })
}

func TestSolveCircularConstraints(t *testing.T) {
	a, b := construct.TVar("a"), construct.TVar("b")
	source := construct.Var("x")
	noMonovars := set.New[string](0)
	constraints := []infer.Constraint{
		&infer.ImplicitInstance{T: a, Generalize: b, Monovars: noMonovars, Source: source},
		&infer.ImplicitInstance{T: b, Generalize: a, Monovars: noMonovars, Source: source},
	}

	_, err := infer.Solve(constraints, types.Substitution{}, types.NewFresher())
	assert.ErrorIs(t, err, infer.ErrCircularConstraints)
	var solveErr *infer.SolveError
	assert.False(t, errors.As(err, &solveErr), "not a type error")
}

func TestSolveKeepsInitialSubstitution(t *testing.T) {
	a, b := construct.TVar("a"), construct.TVar("b")
	initial := types.NewSubstitution(map[string]types.Type{"a": types.BooleanType})
	s, err := infer.Solve([]infer.Constraint{
		&infer.Equal{T1: b, T2: a, Source: construct.Var("x")},
	}, initial, types.NewFresher())
	require.NoError(t, err)
	assert.Equal(t, "boolean", types.String(types.Apply(b, s)))
}
