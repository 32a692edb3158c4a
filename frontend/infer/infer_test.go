package infer_test

import (
	"bytes"
	"go/token"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/delisp/delisp/frontend"
	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/ilerr"
	"github.com/delisp/delisp/frontend/infer"
	"github.com/delisp/delisp/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnv = map[string]string{
	"+":             "(-> number number number)",
	"string-length": "(-> string number)",
	"print":         "(-> string (effect console) none)",
	"map":           "(-> (-> a (effect | e) b) [a] (effect | e) [b])",
}

func envOf(t *testing.T, entries map[string]string) *infer.TypeEnv {
	t.Helper()
	fresher := types.NewFresher()
	env := infer.NewTypeEnv()
	for name, src := range entries {
		schema, err := types.ParseClosedSchema(src, fresher)
		require.NoError(t, err, "type of %s", name)
		env = env.Declare(name, schema)
	}
	return env
}

func inferExpr(t *testing.T, settings infer.Settings, src string) (*infer.Result, *ilerr.Errors) {
	t.Helper()
	expr, errs := frontend.ParseExpr(src)
	require.False(t, errs.HasError(), errs.Error())
	result, typeErrs, err := infer.NewContext(settings).InferExpression(expr, envOf(t, testEnv))
	require.NoError(t, err)
	return result, typeErrs
}

func inferModule(t *testing.T, src string) (*infer.Result, *ilerr.Errors) {
	t.Helper()
	m, errs := frontend.ParseModule(token.NewFileSet(), "test.dl", src)
	require.False(t, errs.HasError(), errs.Error())
	result, typeErrs, err := infer.NewContext(infer.Settings{}).InferModule(m, envOf(t, testEnv))
	require.NoError(t, err)
	return result, typeErrs
}

func TestInferExpressions(t *testing.T) {
	cases := map[string]string{
		`(+ 1 2)`:                      "number",
		`"hello"`:                      "string",
		`none`:                         "none",
		`(lambda (x) (lambda (y) x))`:  "(-> a (effect) (-> b (effect) a))",
		`(lambda (x) x)`:               "(-> a (effect) a)",
		`(let {id (lambda (x) x)} id)`: "(-> a (effect) a)",
		`(let {id (lambda (x) x)} (id 1) (id "foo"))`:    "string",
		`(lambda (s) (print s))`:                         "(-> string (effect console) none)",
		`(lambda (f x) (f x))`:                           "(-> (-> a (effect | b) c) a (effect | b) c)",
		`(map (lambda (s) (string-length s)) ["a" "b"])`: "[number]",
		`[1 2 3]`:                    "[number]",
		`[]`:                         "[a]",
		`(if true 1 2)`:              "number",
		`(do "a" 1)`:                 "number",
		`{:x 1 :y "a"}`:              `{:x number :y string}`,
		`(:x {:x 1 :y "a"})`:         "number",
		`(lambda (r) (:x r))`:        "(-> {:x a | b} (effect) a)",
		`{:z true | {:x 1}}`:         "{:z boolean :x number}",
		`(lambda (r) {:z true | r})`: "(-> {| a} (effect) {:z boolean | a})",
		`(case :ok 1)`:               "(cases (:ok number) | a)",
		`(case :none)`:               "(cases :none | a)",
		`(match (case :ok 1) ((:ok x) x) (:none 0))`:         "number",
		`(match (case :other 1) ((:ok x) x) (:default 0))`:   "number",
		`(lambda (v) (match v ((:ok x) (+ x 1)) (:none 0)))`: "(-> (cases (:ok number) :none) (effect) number)",
		`(multiple-value-bind (a b) (values 1 "x") b)`:       "string",
		`(multiple-value-bind (a b) 1 b)`:                    "none",
		`(values 1 "x")`:                                     "number",
		`(the (-> a a) (lambda (x) x))`:                      "(-> a (effect) a)",
		`(the (-> _ number) (lambda (x) 1))`:                 "(-> a (effect) number)",
		`(the [_] [1])`:                                      "[number]",
	}

	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			result, errs := inferExpr(t, infer.Settings{}, src)
			require.False(t, errs.HasError(), errs.Error())
			assert.Equal(t, expected, types.Pretty(result.Type()))
		})
	}
}

func TestInferExpressionErrors(t *testing.T) {
	cases := map[string][]string{
		`(the number "foo")`:                       {"type mismatch", "number", "string"},
		`(+ 1 "a")`:                                {"type mismatch", "expected type 'number'", "found 'string'"},
		`(lambda (x) (x x))`:                       {"infinite type"},
		`(lambda (f) ((f "foo") (f 0)))`:           {"type mismatch"},
		`[1 "a"]`:                                  {"type mismatch"},
		`(if 1 2 3)`:                               {"type mismatch", "boolean"},
		`(:z {:x 1})`:                              {"label 'z' is missing"},
		`(match (case :other 1) ((:ok x) x))`:      {"label 'other' is missing"},
		`(the (-> a a) (lambda (x) 1))`:            {"too general"},
		`(the (-> a b a) (lambda (x y) y))`:        {"too general"},
		`(multiple-value-bind (a b) (values 1) a)`: {"type mismatch"},
	}

	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			_, errs := inferExpr(t, infer.Settings{}, src)
			require.True(t, errs.HasError(), "expected %s to fail", src)

			errsAsStrings := make([]string, len(errs.Errors()))
			for i, err := range errs.Errors() {
				errsAsStrings[i] = err.Error()
			}
			for _, expectedMessage := range expected {
				found := slices.ContainsFunc(errsAsStrings, func(s string) bool {
					return strings.Contains(s, expectedMessage)
				})
				assert.True(t, found, "expected to find message '%s' in \n- %v", expectedMessage, strings.Join(errsAsStrings, "\n- "))
			}
		})
	}
}

func TestTheMismatchCodes(t *testing.T) {
	_, errs := inferExpr(t, infer.Settings{}, `(the number "foo")`)
	require.Len(t, errs.Errors(), 1)
	err := errs.Errors()[0]
	assert.Equal(t, ilerr.TypeMismatch, err.Code())

	mismatch, ok := err.(ilerr.NewTypeMismatch)
	require.True(t, ok)
	assert.Equal(t, "number", types.String(mismatch.Expected))
	assert.Equal(t, "string", types.String(mismatch.Found))
	assert.Equal(t, "(E001) type mismatch: expected type 'number', but found 'string'", ilerr.FormatWithCode(err))
}

func TestOccursCheckCode(t *testing.T) {
	_, errs := inferExpr(t, infer.Settings{}, `(lambda (x) (x x))`)
	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, ilerr.OccursCheck, errs.Errors()[0].Code())
}

func TestUnknowns(t *testing.T) {
	result, errs := inferExpr(t, infer.Settings{}, `(foo (bar 1) (foo 2))`)
	require.False(t, errs.HasError(), errs.Error())
	assert.Equal(t, []string{"bar", "foo"}, result.UnknownNames())
	assert.Len(t, result.Unknowns, 3)

	_, errs = inferExpr(t, infer.Settings{Strict: true}, `(+ 1 foo)`)
	require.True(t, errs.HasError())
	assert.Equal(t, ilerr.UndefinedVariable, errs.Errors()[0].Code())
	assert.Contains(t, errs.Error(), "variable 'foo' is not defined")
}

func TestTreeIsAnnotated(t *testing.T) {
	result, errs := inferExpr(t, infer.Settings{}, `(lambda (x) (let {y (+ x 1)} [y x]))`)
	require.False(t, errs.HasError(), errs.Error())

	ast.Walk(result.Expr, func(e ast.Expr) bool {
		info := e.TypeInfo()
		require.NotNil(t, info.ExpressionType, "type of %s", ast.ExprString(e))
		if _, binder := e.(*ast.Identifier); !binder {
			require.NotNil(t, info.Effect, "effect of %s", ast.ExprString(e))
		}
		again := types.Apply(info.ExpressionType, result.Substitution)
		assert.Equal(t, types.String(info.ExpressionType), types.String(again), "substitution applied twice to %s", ast.ExprString(e))
		if id, ok := e.(*ast.Identifier); ok && (id.Name == "x" || id.Name == "y") {
			assert.Equal(t, "number", types.String(info.ExpressionType), "type of %s", id.Name)
		}
		return true
	})
}

func TestSettingsLoggerReachesSolver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, errs := inferExpr(t, infer.Settings{Logger: logger}, `(+ 1 2)`)
	require.False(t, errs.HasError(), errs.Error())

	assert.Contains(t, buf.String(), "section=infer")
	assert.Contains(t, buf.String(), "section=solver")
	assert.Contains(t, buf.String(), "msg=solving")
}

func TestSessionsDoNotShareVariables(t *testing.T) {
	ctx := infer.NewContext(infer.Settings{})
	first, _ := frontend.ParseExpr(`(lambda (x) x)`)
	second, _ := frontend.ParseExpr(`(lambda (x) x)`)

	r1, errs, err := ctx.InferExpression(first, infer.NewTypeEnv())
	require.NoError(t, err)
	require.False(t, errs.HasError())
	r2, errs, err := ctx.InferExpression(second, infer.NewTypeEnv())
	require.NoError(t, err)
	require.False(t, errs.HasError())

	vars1 := types.FreeVars(r1.Type())
	vars2 := types.FreeVars(r2.Type())
	assert.True(t, vars1.Intersect(vars2).Empty(), "%v and %v", vars1, vars2)
	assert.True(t, types.Equivalent(r1.Type(), r2.Type()))
}

func TestInferModule(t *testing.T) {
	result, errs := inferModule(t, `
(define id (lambda (x) x))
(define a (id 1))
(define b (id "x"))
(define loop (lambda (x) (loop x)))
(define early (lambda () (late 1)))
(define late (lambda (x) x))
(export id b)
`)
	require.False(t, errs.HasError(), errs.Error())

	expected := map[string]string{
		"id":    "(-> a (effect) a)",
		"a":     "number",
		"b":     "string",
		"loop":  "(-> a (effect) b)",
		"early": "(-> (effect) number)",
		"late":  "(-> number (effect) number)",
	}
	require.Len(t, result.Definitions, len(expected))
	for name, typ := range expected {
		assert.Equal(t, typ, types.PrettySchema(result.Definitions[name]), "type of %s", name)
	}

	exported := result.Exported()
	assert.Len(t, exported, 2)
	assert.Contains(t, exported, "id")
	assert.Contains(t, exported, "b")
}

func TestInferModuleErrors(t *testing.T) {
	cases := map[string][]string{
		`(define x (+ 1 "a"))`:                           {"type mismatch"},
		`(define f (lambda (x) (f f)))`:                  {"infinite type"},
		`(define n 1) (the string n)`:                    {"type mismatch", "string", "number"},
		`(define f (lambda (r) (:x r))) (f {:y 1})`:      {"label 'x' is missing"},
		`(define f (the (-> a a) (lambda (x) (+ x 1))))`: {"too general"},
	}
	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			_, errs := inferModule(t, src)
			require.True(t, errs.HasError(), "expected %s to fail", src)
			for _, expectedMessage := range expected {
				assert.Contains(t, errs.Error(), expectedMessage)
			}
		})
	}
}

func TestModuleWithoutExportsExportsAll(t *testing.T) {
	result, errs := inferModule(t, `(define a 1) (define b "b") (print b)`)
	require.False(t, errs.HasError(), errs.Error())
	assert.Len(t, result.Exported(), 2)
	assert.Empty(t, result.Unknowns)
}

func TestModuleUnknowns(t *testing.T) {
	result, errs := inferModule(t, `(define a (missing 1)) (export a other)`)
	require.False(t, errs.HasError(), errs.Error())
	assert.Equal(t, []string{"missing", "other"}, result.UnknownNames())
}
