package types

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/delisp/delisp/frontend/reader"
)

// TypeSyntaxError is returned when an s-expression does not denote a type
type TypeSyntaxError struct {
	Message string
	Node    reader.Node
}

func (e *TypeSyntaxError) Error() string {
	return fmt.Sprintf("invalid type %s: %s", e.Node.String(), e.Message)
}

func (e *TypeSyntaxError) Pos() token.Pos { return e.Node.Pos() }
func (e *TypeSyntaxError) End() token.Pos { return e.Node.End() }

func syntaxErrorf(node reader.Node, format string, args ...any) error {
	return &TypeSyntaxError{Message: fmt.Sprintf(format, args...), Node: node}
}

// ParseType reads a type written in the canonical syntax
func ParseType(src string, fresher *Fresher) (Type, error) {
	node, err := reader.ReadOne(src)
	if err != nil {
		return nil, err
	}
	return ConvertType(node, fresher)
}

// ParseClosedSchema reads a type and quantifies it over all of its variables,
// the way signatures of module interfaces are read
func ParseClosedSchema(src string, fresher *Fresher) (TypeSchema, error) {
	t, err := ParseType(src, fresher)
	if err != nil {
		return TypeSchema{}, err
	}
	return Generalize(t, nil), nil
}

// ConvertSchema converts an annotation. The schema binds the variables written
// in it; wildcards and the variables of implicit effects stay free.
func ConvertSchema(node reader.Node, fresher *Fresher) (TypeSchema, error) {
	t, err := ConvertType(node, fresher)
	if err != nil {
		return TypeSchema{}, err
	}
	var userVars []string
	Walk(t, func(t Type) {
		if v, ok := t.(*Var); ok && v.UserSpecified && !IsWildcard(v.Name) {
			userVars = append(userVars, v.Name)
		}
	})
	return NewTypeSchema(userVars, t), nil
}

// ConvertType converts an s-expression to a type:
//
//	number string boolean none void   built-in constants
//	Name                              user constant
//	a                                 variable
//	_                                 wildcard, a fresh variable per occurrence
//	[T]                               vector
//	{:l T ... | tail}                 record
//	(-> A... (effect l... | tail) T)  function; (-> A... T) has an open effect
//	(effect l... | tail)              effect
//	(cases (:tag T) :bare ... | tail) variant
//	(values T...)                     multiple values
//	(Name T...)                       application
//
// Functions get a fresh context argument. Only an effect form fills the
// effect slot of a function: in (-> _ T), `_` is an argument.
func ConvertType(node reader.Node, fresher *Fresher) (Type, error) {
	c := converter{fresher: fresher}
	return c.convert(node)
}

type converter struct {
	fresher *Fresher
}

func (c *converter) convert(node reader.Node) (Type, error) {
	switch n := node.(type) {
	case *reader.Symbol:
		return c.symbol(n)
	case *reader.Vector:
		if len(n.Elems) != 1 {
			return nil, syntaxErrorf(n, "vector types take exactly one element type")
		}
		elem, err := c.convert(n.Elems[0])
		if err != nil {
			return nil, err
		}
		return NewVector(elem), nil
	case *reader.Map:
		row, err := c.recordRow(n)
		if err != nil {
			return nil, err
		}
		return NewApplication(RecordOp, row), nil
	case *reader.List:
		return c.list(n)
	default:
		return nil, syntaxErrorf(node, "expected a type")
	}
}

func (c *converter) symbol(n *reader.Symbol) (Type, error) {
	if n.Name == WildcardPrefix {
		return c.fresher.FreshWildcard(), nil
	}
	if constant, ok := BuiltinConstant(n.Name); ok {
		return constant, nil
	}
	if strings.HasPrefix(n.Name, WildcardPrefix) {
		return nil, syntaxErrorf(n, "type variables cannot start with '%s'", WildcardPrefix)
	}
	first := []rune(n.Name)[0]
	switch {
	case unicode.IsUpper(first):
		return &Constant{Name: n.Name}, nil
	case unicode.IsLetter(first):
		return &Var{Name: n.Name, UserSpecified: true}, nil
	}
	return nil, syntaxErrorf(n, "expected a type")
}

func (c *converter) list(n *reader.List) (Type, error) {
	if len(n.Elems) == 0 {
		return nil, syntaxErrorf(n, "empty type application")
	}
	head, ok := n.Elems[0].(*reader.Symbol)
	if !ok {
		return nil, syntaxErrorf(n.Elems[0], "type operators must be symbols")
	}
	rest := n.Elems[1:]
	switch head.Name {
	case FunctionOp:
		return c.function(n, rest)
	case EffectOp:
		return c.effect(n)
	case CasesOp:
		return c.cases(n)
	}
	switch {
	case head.Name == ValuesOp, head.Name == VectorOp, head.Name == RecordOp:
	case unicode.IsUpper([]rune(head.Name)[0]):
	default:
		return nil, syntaxErrorf(head, "unknown type operator %s", head.Name)
	}
	args, err := c.convertAll(rest)
	if err != nil {
		return nil, err
	}
	return NewApplication(head.Name, args...), nil
}

func (c *converter) convertAll(nodes []reader.Node) ([]Type, error) {
	types := make([]Type, len(nodes))
	for i, node := range nodes {
		t, err := c.convert(node)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func (c *converter) function(n *reader.List, rest []reader.Node) (Type, error) {
	if len(rest) == 0 {
		return nil, syntaxErrorf(n, "function types need an output type")
	}
	out, err := c.convert(rest[len(rest)-1])
	if err != nil {
		return nil, err
	}
	argNodes := rest[:len(rest)-1]
	var effect Type
	if len(argNodes) > 0 && isEffectSyntax(argNodes[len(argNodes)-1]) {
		effect, err = c.effect(argNodes[len(argNodes)-1].(*reader.List))
		if err != nil {
			return nil, err
		}
		argNodes = argNodes[:len(argNodes)-1]
	} else {
		effect = NewEffect(nil, c.fresher.FreshWildcard())
	}
	args, err := c.convertAll(argNodes)
	if err != nil {
		return nil, err
	}
	return NewFunction(c.fresher.FreshWildcard(), args, effect, out), nil
}

// isEffectSyntax reports whether node is an `(effect ...)` form. A bare `_`
// is always a type, so `(-> _ number)` takes one argument.
func isEffectSyntax(node reader.Node) bool {
	list, ok := node.(*reader.List)
	return ok && len(list.Elems) > 0 && reader.IsSymbol(list.Elems[0], EffectOp)
}

// splitTail separates `| tail` from the end of a row's elements
func splitTail(elems []reader.Node) ([]reader.Node, reader.Node, error) {
	for i, elem := range elems {
		if !reader.IsSymbol(elem, "|") {
			continue
		}
		if i != len(elems)-2 {
			return nil, nil, syntaxErrorf(elem, "'|' must be followed by exactly one row tail")
		}
		return elems[:i], elems[i+1], nil
	}
	return elems, nil, nil
}

func (c *converter) tail(node reader.Node) (Type, error) {
	if node == nil {
		return EmptyRow{}, nil
	}
	t, err := c.convert(node)
	if err != nil {
		return nil, err
	}
	if _, ok := t.(*Var); !ok {
		return nil, syntaxErrorf(node, "row tails must be type variables")
	}
	return t, nil
}

func (c *converter) effect(n *reader.List) (Type, error) {
	elems, tailNode, err := splitTail(n.Elems[1:])
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for _, elem := range elems {
		sym, ok := elem.(*reader.Symbol)
		if !ok {
			return nil, syntaxErrorf(elem, "effect labels must be symbols")
		}
		if _, dup := seen[sym.Name]; dup {
			return nil, syntaxErrorf(elem, "duplicate effect label %s", sym.Name)
		}
		seen[sym.Name] = struct{}{}
		labels = append(labels, sym.Name)
	}
	tail, err := c.tail(tailNode)
	if err != nil {
		return nil, err
	}
	return NewEffect(labels, tail), nil
}

func (c *converter) cases(n *reader.List) (Type, error) {
	elems, tailNode, err := splitTail(n.Elems[1:])
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for _, elem := range elems {
		var field Field
		switch e := elem.(type) {
		case *reader.Keyword:
			field = Field{Label: e.Name, Type: VoidType}
		case *reader.List:
			if len(e.Elems) != 2 {
				return nil, syntaxErrorf(elem, "expected (:tag type)")
			}
			kw, ok := e.Elems[0].(*reader.Keyword)
			if !ok {
				return nil, syntaxErrorf(elem, "expected (:tag type)")
			}
			t, err := c.convert(e.Elems[1])
			if err != nil {
				return nil, err
			}
			field = Field{Label: kw.Name, Type: t}
		default:
			return nil, syntaxErrorf(elem, "expected :tag or (:tag type)")
		}
		if _, dup := seen[field.Label]; dup {
			return nil, syntaxErrorf(elem, "duplicate tag %s", field.Label)
		}
		seen[field.Label] = struct{}{}
		fields = append(fields, field)
	}
	tail, err := c.tail(tailNode)
	if err != nil {
		return nil, err
	}
	return NewCases(fields, tail), nil
}

func (c *converter) recordRow(n *reader.Map) (Type, error) {
	elems, tailNode, err := splitTail(n.Elems)
	if err != nil {
		return nil, err
	}
	if len(elems)%2 != 0 {
		return nil, syntaxErrorf(n, "record types need a type for every label")
	}
	fields := make([]Field, 0, len(elems)/2)
	seen := make(map[string]struct{}, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		kw, ok := elems[i].(*reader.Keyword)
		if !ok {
			return nil, syntaxErrorf(elems[i], "record labels must be keywords")
		}
		if _, dup := seen[kw.Name]; dup {
			return nil, syntaxErrorf(kw, "duplicate label %s", kw.Name)
		}
		seen[kw.Name] = struct{}{}
		t, err := c.convert(elems[i+1])
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Label: kw.Name, Type: t})
	}
	tail, err := c.tail(tailNode)
	if err != nil {
		return nil, err
	}
	return NewRow(fields, tail), nil
}
