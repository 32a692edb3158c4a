package types_test

import (
	"testing"

	"github.com/delisp/delisp/frontend/reader"
	"github.com/delisp/delisp/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(t *testing.T, src string) reader.Node {
	t.Helper()
	node, err := reader.ReadOne(src)
	require.NoError(t, err)
	return node
}

func TestPrintParseRoundTrip(t *testing.T) {
	cases := []string{
		"number",
		"a",
		"[string]",
		"(-> number string (effect) boolean)",
		"(-> a (effect console | e) a)",
		"(-> (-> a (effect | e) b) [a] (effect | e) [b])",
		"{:x number | r}",
		"{:x number :y {:z [string]}}",
		"{}",
		"{| r}",
		"(effect)",
		"(effect io async | e)",
		"(effect | e)",
		"(cases (:some number) :none | r)",
		"(cases :a :b)",
		"(values number string)",
		"(values)",
		"(Maybe number)",
		"Person",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			fresher := types.NewFresher()
			parsed := mustParse(t, fresher, src)
			printed := types.String(parsed)
			assert.Equal(t, src, printed)

			reparsed := mustParse(t, fresher, printed)
			assert.True(t, types.Equivalent(parsed, reparsed), "%s and %s differ", types.String(parsed), types.String(reparsed))
		})
	}
}

func TestFunctionShorthandHasOpenEffect(t *testing.T) {
	fresher := types.NewFresher()
	fn := mustParse(t, fresher, "(-> number string)")

	_, args, effect, out, ok := types.FunctionParts(fn)
	require.True(t, ok)
	assert.Equal(t, []types.Type{types.NumberType}, args)
	assert.Equal(t, types.StringType, out)
	row, ok := types.RowOf(effect)
	require.True(t, ok)
	assert.IsType(t, &types.Var{}, row)
	assert.Equal(t, "(-> number (effect | _) string)", types.String(fn))

	noArgs := mustParse(t, fresher, "(-> number)")
	_, args, _, _, _ = types.FunctionParts(noArgs)
	assert.Empty(t, args)

	wildcardArg := mustParse(t, fresher, "(-> _ number)")
	_, args, effect, _, _ = types.FunctionParts(wildcardArg)
	require.Len(t, args, 1, "a bare _ is an argument, not the effect")
	assert.True(t, types.IsWildcard(args[0].(*types.Var).Name))
	assert.Equal(t, types.EffectOp, types.OperatorOf(effect))
}

func TestParseOpenRecord(t *testing.T) {
	record := mustParse(t, types.NewFresher(), "{:x number :y number | a}")

	assert.Equal(t, types.RecordOp, types.OperatorOf(record))
	row, ok := types.RowOf(record)
	require.True(t, ok)
	fields, tail := types.RowFields(row)
	require.Len(t, fields, 2)
	assert.Equal(t, "x", fields[0].Label)
	assert.Equal(t, types.NumberType, fields[0].Type)
	assert.Equal(t, "y", fields[1].Label)
	assert.Equal(t, types.NumberType, fields[1].Type)
	assert.Equal(t, &types.Var{Name: "a", UserSpecified: true}, tail)
}

func TestWildcardsAreFreshPerOccurrence(t *testing.T) {
	values := mustParse(t, types.NewFresher(), "(values _ _)")

	args := values.(*types.Application).Args
	first, second := args[0].(*types.Var), args[1].(*types.Var)
	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, types.IsWildcard(first.Name))
	assert.Equal(t, "(values _ _)", types.String(values))
}

func TestConvertSchemaBindsUserVariables(t *testing.T) {
	fresher := types.NewFresher()
	schema, err := types.ParseClosedSchema("(-> a _ a)", fresher)
	require.NoError(t, err)
	assert.Len(t, schema.BoundVars, 4, "context, a, _ and the effect")

	t.Run("annotations leave wildcards free", func(t *testing.T) {
		node := mustRead(t, "(values a _ b a)")
		schema, err := types.ConvertSchema(node, fresher)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, schema.BoundVars)
		require.Len(t, schema.FreeVars(), 1)
		assert.True(t, types.IsWildcard(schema.FreeVars()[0]))
	})
}

func TestParseTypeErrors(t *testing.T) {
	cases := map[string]string{
		"(->)":                       "output type",
		"[number string]":            "exactly one element type",
		"{:x}":                       "a type for every label",
		"{x number}":                 "labels must be keywords",
		"{:x number :x string}":      "duplicate label x",
		"{:x number | a b}":          "exactly one row tail",
		"(effect | number)":          "row tails must be type variables",
		"(effect :io)":               "effect labels must be symbols",
		"(effect io io)":             "duplicate effect label io",
		"(cases (:a))":               "expected (:tag type)",
		"(cases 1)":                  "expected :tag or (:tag type)",
		"(foo number)":               "unknown type operator foo",
		"()":                         "empty type application",
		"_a":                         "cannot start with '_'",
		"\"text\"":                   "expected a type",
		"(-> number (effect | r) +)": "expected a type",
	}
	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := types.ParseType(src, types.NewFresher())
			require.Error(t, err)
			assert.ErrorContains(t, err, expected)
			var syntaxErr *types.TypeSyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestPrettyRenamesInPrintOrder(t *testing.T) {
	fresher := types.NewFresher()
	fn := mustParse(t, fresher, "(-> x (effect | e) (-> y (effect | f) x))")

	assert.Equal(t, "(-> a (effect | b) (-> c (effect | d) a))", types.Pretty(fn))
	assert.Equal(t, "(-> a (effect) [b])", types.Pretty(types.NewFunction(fresher.Fresh(), []types.Type{fresher.Fresh()}, types.NewEffect(nil, nil), types.NewVector(fresher.Fresh()))))
}

func TestToTypeScript(t *testing.T) {
	cases := []struct {
		name, src, expected string
	}{
		{"id", "(-> a (effect) a)", "export declare function id<T1>(p0: T1): T1;"},
		{"add", "(-> number number (effect) number)", "export declare function add(p0: number, p1: number): number;"},
		{"map", "(-> (-> a (effect | e) b) [a] (effect | e) [b])", "export declare function map<T1, T2>(p0: ((p0: T1) => T2), p1: Array<T1>): Array<T2>;"},
		{"point", "{:x number :y number}", `export declare const point: { "x": number; "y": number };`},
		{"empty", "[a]", "export declare const empty: Array<unknown>;"},
		{"opt", "(cases (:some string) :none)", `export declare const opt: { tag: "some"; value: string } | { tag: "none" };`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			schema, err := types.ParseClosedSchema(c.src, types.NewFresher())
			require.NoError(t, err)
			assert.Equal(t, c.expected, types.ToTypeScript(c.name, schema))
		})
	}
}
