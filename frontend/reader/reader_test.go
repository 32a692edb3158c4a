package reader

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllRoundTripsThroughString(t *testing.T) {
	cases := map[string]string{
		`(+ 1 2)`:                   `(+ 1 2)`,
		`(lambda (x) x)`:            `(lambda (x) x)`,
		`[1 2.5 -3]`:                `[1 2.5 -3]`,
		`{:x number :y number | a}`: `{:x number :y number | a}`,
		`(print "a \"b\"")`:         `(print "a \"b\"")`,
		"(do ; comment\n  a)":       `(do a)`,
		`(-> number _ number)`:      `(-> number _ number)`,
	}
	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			nodes, err := ReadAll(src, 1)
			require.NoError(t, err)
			require.Len(t, nodes, 1)
			assert.Equal(t, expected, nodes[0].String())
		})
	}
}

func TestReadAtoms(t *testing.T) {
	nodes, err := ReadAll(`:x -> -1 - +`, 1)
	require.NoError(t, err)
	require.Len(t, nodes, 5)

	assert.Equal(t, &Keyword{Name: "x", Range: Range{1, 3}}, nodes[0])
	assert.IsType(t, &Symbol{}, nodes[1])
	num, ok := nodes[2].(*Number)
	require.True(t, ok)
	assert.Equal(t, -1.0, num.Value)
	assert.IsType(t, &Symbol{}, nodes[3])
	assert.IsType(t, &Symbol{}, nodes[4])
}

func TestReadPositionsUseBase(t *testing.T) {
	nodes, err := ReadAll("  (f x)", 10)
	require.NoError(t, err)
	list := nodes[0].(*List)
	assert.Equal(t, token.Pos(12), list.Pos())
	assert.Equal(t, token.Pos(17), list.End())
	assert.Equal(t, token.Pos(15), list.Elems[1].Pos())
}

func TestReadErrors(t *testing.T) {
	cases := map[string]string{
		`(a b`:        "missing closing ')'",
		`)`:           "unexpected ')'",
		`"abc`:        "unterminated string",
		`"\q"`:        "unknown escape",
		`(a [b c)`:    "unexpected ')'",
		`:`:           "empty keyword",
		`{:a 1 :b 2]`: "unexpected ']'",
	}
	for src, expected := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := ReadAll(src, 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), expected)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestReadOne(t *testing.T) {
	_, err := ReadOne("a b")
	assert.ErrorContains(t, err, "exactly one expression")

	n, err := ReadOne(" number ")
	require.NoError(t, err)
	assert.True(t, IsSymbol(n, "number"))
}
