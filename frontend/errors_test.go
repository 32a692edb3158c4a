package frontend_test

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/delisp/delisp/frontend"
	"github.com/delisp/delisp/frontend/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileExprErrors(t *testing.T) {
	exprCases := map[string][]string{
		`(+ 1 "a")`:                        {"type mismatch", "number", "string"},
		`(+ "a" 1)`:                        {"type mismatch", "number", "string"},
		`(let {a 1} (string-length a))`:    {"type mismatch", "number", "string"},
		`(let {true 1} true)`:              {"true", "cannot be used as a name"},
		`(if (= 1 2) "a")`:                 {"if takes a condition and two branches"},
		`(lambda x x)`:                     {"expected a list of names"},
		`(define y 1)`:                     {"only allowed at the top level"},
		`(the (-> a a) (lambda (x) 1))`:    {"too general"},
		`(print (number->string (+ 1 2)))`: {},
		`(the (-> (effect) number) (lambda () (print "a") 1))`: {"label 'console' is missing in '(effect)'"},
	}

	for expr, expected := range exprCases {
		t.Run(expr, func(t *testing.T) {
			progTemplate := fmt.Sprintf(`
(define exprTest %v)
		`, expr)
			_, errs, err := frontend.NewPackageFromBytes([]byte(progTemplate))
			assert.NoError(t, err)
			if len(expected) == 0 {
				assert.False(t, errs.HasError(), errs.Error())
				return
			}

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

func TestErrorPositions(t *testing.T) {
	pkg, errs, err := frontend.NewPackageFromBytes([]byte("(define a 1)\n(define b\n  (+ a \"x\"))\n"))
	require.NoError(t, err)
	require.Len(t, errs.Errors(), 1)

	formatted := ilerr.FormatWithCodeAndSource(errs.Errors()[0], pkg.FileSet())
	assert.True(t, strings.HasPrefix(formatted, "test.dl:3:"), formatted)
	assert.Contains(t, formatted, "(E001) type mismatch")
}

func TestReaderErrors(t *testing.T) {
	cases := map[string]string{
		`(define a (+ 1 2)`: "missing closing ')'",
		`(print "abc)`:      "unterminated string",
		`{:a 1 :b}`:         "records need a value for every label",
		`(define a [1 2))`:  "unexpected ')'",
	}
	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			_, errs, err := frontend.NewPackageFromBytes([]byte(src))
			require.NoError(t, err)
			require.True(t, errs.HasError())
			assert.Equal(t, ilerr.Parse, errs.Errors()[0].Code())
			assert.Contains(t, errs.Error(), expected)
		})
	}
}

func TestUnknownNamesAreNotErrors(t *testing.T) {
	pkg, errs, err := frontend.NewPackageFromBytes([]byte(`(define a (from-elsewhere 1))`))
	require.NoError(t, err)
	require.False(t, errs.HasError(), errs.Error())
	assert.Equal(t, []string{"from-elsewhere"}, pkg.Result.UnknownNames())
}
