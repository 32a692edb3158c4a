// Package reader turns source text into s-expressions.
//
// The reader knows nothing about the language: lists, vectors, maps, symbols,
// keywords, strings and numbers are all it produces. Every node remembers the
// source range it was read from.
package reader

import (
	"go/token"
	"strconv"
	"strings"
)

// Node is a single s-expression
type Node interface {
	Pos() token.Pos
	End() token.Pos
	String() string
	sexpr()
}

var (
	_ Node = (*List)(nil)
	_ Node = (*Vector)(nil)
	_ Node = (*Map)(nil)
	_ Node = (*Symbol)(nil)
	_ Node = (*Keyword)(nil)
	_ Node = (*String)(nil)
	_ Node = (*Number)(nil)
)

// Range is the source location of a Node
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

func (r Range) Pos() token.Pos { return r.PosStart }
func (r Range) End() token.Pos { return r.PosEnd }

// List: `(a b c)`
type List struct {
	Elems []Node
	Range
}

// Vector: `[a b c]`
type Vector struct {
	Elems []Node
	Range
}

// Map: `{:a 1 :b 2}`. Elements are kept flat and in source order, so a map
// may hold an odd number of elements (`{:a number | r}` is read as four).
type Map struct {
	Elems []Node
	Range
}

type Symbol struct {
	Name string
	Range
}

// Keyword: `:name`. Name does not include the colon.
type Keyword struct {
	Name string
	Range
}

type String struct {
	Value string
	Range
}

type Number struct {
	Syntax string
	Value  float64
	Range
}

func (*List) sexpr()    {}
func (*Vector) sexpr()  {}
func (*Map) sexpr()     {}
func (*Symbol) sexpr()  {}
func (*Keyword) sexpr() {}
func (*String) sexpr()  {}
func (*Number) sexpr()  {}

func (n *List) String() string    { return showElems("(", n.Elems, ")") }
func (n *Vector) String() string  { return showElems("[", n.Elems, "]") }
func (n *Map) String() string     { return showElems("{", n.Elems, "}") }
func (n *Symbol) String() string  { return n.Name }
func (n *Keyword) String() string { return ":" + n.Name }
func (n *String) String() string  { return strconv.Quote(n.Value) }
func (n *Number) String() string  { return n.Syntax }

func showElems(open string, elems []Node, close string) string {
	sb := strings.Builder{}
	sb.WriteString(open)
	for i, elem := range elems {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(elem.String())
	}
	sb.WriteString(close)
	return sb.String()
}

// IsSymbol reports whether n is the symbol name
func IsSymbol(n Node, name string) bool {
	sym, ok := n.(*Symbol)
	return ok && sym.Name == name
}
