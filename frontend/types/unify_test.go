package types_test

import (
	"testing"

	"github.com/delisp/delisp/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, fresher *types.Fresher, src string) types.Type {
	t.Helper()
	parsed, err := types.ParseType(src, fresher)
	require.NoError(t, err, "parsing %s", src)
	return parsed
}

func TestUnifyOccursCheck(t *testing.T) {
	fresher := types.NewFresher()
	a := types.NewVar("t1")

	_, err := types.Unify(a, types.NewVector(a), types.Substitution{}, fresher)

	var occurs *types.OccursCheckError
	require.ErrorAs(t, err, &occurs)
	assert.Equal(t, "t1", occurs.Var.Name)
	assert.Equal(t, "[t1]", types.String(occurs.Type))
}

func TestUnifyConstants(t *testing.T) {
	fresher := types.NewFresher()

	s, err := types.Unify(types.NumberType, types.NumberType, types.Substitution{}, fresher)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	_, err = types.Unify(types.NumberType, types.StringType, types.Substitution{}, fresher)
	var mismatch *types.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, types.NumberType, mismatch.Left)
	assert.Equal(t, types.StringType, mismatch.Right)
	assert.ErrorContains(t, err, "number")
	assert.ErrorContains(t, err, "string")
}

func TestUnifyArityMismatch(t *testing.T) {
	fresher := types.NewFresher()
	f1 := mustParse(t, fresher, "(-> number (effect) number)")
	f2 := mustParse(t, fresher, "(-> number number (effect) number)")

	_, err := types.Unify(f1, f2, types.Substitution{}, fresher)
	var mismatch *types.MismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestUnifyBindsThroughSubstitution(t *testing.T) {
	fresher := types.NewFresher()
	a := types.NewVar("a")
	b := types.NewVar("b")
	s := types.NewSubstitution(map[string]types.Type{"a": b})

	s, err := types.Unify(a, types.NumberType, s, fresher)
	require.NoError(t, err)

	assert.Equal(t, types.NumberType, types.Apply(b, s))
	assert.Equal(t, types.NumberType, types.Apply(a, s))
}

func TestUnifyFunctions(t *testing.T) {
	fresher := types.NewFresher()
	f := types.NewFunction(fresher.Fresh(), []types.Type{types.NewVar("a")}, types.NewEffect(nil, types.NewVar("e")), types.NewVar("a"))
	g := types.NewFunction(fresher.Fresh(), []types.Type{types.NumberType}, types.NewEffect([]string{"console"}, nil), types.NewVar("r"))

	s, err := types.Unify(f, g, types.Substitution{}, fresher)
	require.NoError(t, err)

	assert.Equal(t, "(-> number (effect console) number)", types.String(types.Apply(f, s)))
	assert.Equal(t, types.String(types.Apply(f, s)), types.String(types.Apply(g, s)))
}

func TestUnifyRowsIgnoresLabelOrder(t *testing.T) {
	fresher := types.NewFresher()
	r1 := mustParse(t, fresher, "{:x number :y string}")
	r2 := mustParse(t, fresher, "{:y string :x number}")

	s, err := types.Unify(r1, r2, types.Substitution{}, fresher)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestUnifyOpenRows(t *testing.T) {
	fresher := types.NewFresher()
	r1 := mustParse(t, fresher, "{:x number | r}")
	r2 := mustParse(t, fresher, "{:y string | q}")

	s, err := types.Unify(r1, r2, types.Substitution{}, fresher)
	require.NoError(t, err)

	labelsOf := func(record types.Type) map[string]string {
		row, ok := types.RowOf(types.Apply(record, s))
		require.True(t, ok)
		fields, tail := types.RowFields(row)
		labels := map[string]string{"|": types.String(tail)}
		for _, f := range fields {
			labels[f.Label] = types.String(f.Type)
		}
		return labels
	}
	left := labelsOf(r1)
	assert.Equal(t, left, labelsOf(r2))
	assert.Equal(t, "number", left["x"])
	assert.Equal(t, "string", left["y"])
}

func TestUnifyRecursiveRow(t *testing.T) {
	fresher := types.NewFresher()
	r := types.NewVar("r")
	r1 := types.NewRecord([]types.Field{{Label: "x", Type: types.NumberType}}, r)
	r2 := types.NewRecord([]types.Field{{Label: "y", Type: types.StringType}}, r)

	_, err := types.Unify(r1, r2, types.Substitution{}, fresher)
	var occurs *types.OccursCheckError
	assert.ErrorAs(t, err, &occurs)
}

func TestUnifyMissingLabel(t *testing.T) {
	fresher := types.NewFresher()
	cases := []struct{ left, right, label, row string }{
		{"{:x number}", "{:y number}", "x", "{:y number}"},
		{"{:x number :y number}", "{:x number}", "y", "{}"},
		{"(effect console | e)", "(effect)", "console", "(effect)"},
		{"(-> string (effect console | e) none)", "(-> string (effect) none)", "console", "(effect)"},
		{"(cases :a :b)", "(cases :a)", "b", "(cases)"},
		{"{}", "{:z string}", "z", "{}"},
	}
	for _, c := range cases {
		t.Run(c.left+" ~ "+c.right, func(t *testing.T) {
			_, err := types.Unify(mustParse(t, fresher, c.left), mustParse(t, fresher, c.right), types.Substitution{}, fresher)
			var missing *types.MissingValueError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, c.label, missing.Label)
			assert.Equal(t, c.row, types.String(missing.Row))
		})
	}
}

func TestUnifyClosesOpenRow(t *testing.T) {
	fresher := types.NewFresher()
	open := mustParse(t, fresher, "{:x number | r}")
	closed := mustParse(t, fresher, "{:x number}")

	s, err := types.Unify(open, closed, types.Substitution{}, fresher)
	require.NoError(t, err)
	assert.Equal(t, "{:x number}", types.String(types.Apply(open, s)))
}

func TestUnifyLeavesSubstitutionOnFailure(t *testing.T) {
	fresher := types.NewFresher()
	initial := types.NewSubstitution(map[string]types.Type{"z": types.BooleanType})
	left := types.NewVector(types.NewVar("a"))
	right := types.NewValues(types.NumberType)

	s, err := types.Unify(left, right, initial, fresher)
	assert.Error(t, err)
	assert.Equal(t, initial.Names(), s.Names())
}
