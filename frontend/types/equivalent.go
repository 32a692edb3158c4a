package types

import (
	"fmt"
	"strings"
)

// WildcardPrefix starts the names of the variables `_` is converted to
const WildcardPrefix = "_"

// IsWildcard reports whether name was written as `_` in a type annotation
func IsWildcard(name string) bool {
	return strings.HasPrefix(name, WildcardPrefix)
}

// renaming pairs variable names of two types one-to-one
type renaming struct {
	forward  map[string]string
	backward map[string]string
	// skip marks variables of the left type that match any type
	skip func(name string) bool
}

func newRenaming(skip func(string) bool) *renaming {
	return &renaming{
		forward:  make(map[string]string),
		backward: make(map[string]string),
		skip:     skip,
	}
}

// Equivalent reports whether a and b are the same type up to a one-to-one
// renaming of their variables. The context arguments of functions are not
// compared: they are not printed, and reading a type makes them fresh.
func Equivalent(a, b Type) bool {
	return newRenaming(func(string) bool { return false }).match(a, b)
}

// EquivalentSchemas compares the bodies of two schemas with Equivalent, and
// how many of their bound variables occur outside of function contexts
func EquivalentSchemas(a, b TypeSchema) bool {
	return len(printedBoundVars(a)) == len(printedBoundVars(b)) && Equivalent(a.Body, b.Body)
}

func printedBoundVars(schema TypeSchema) []string {
	printed := FreeVars(eraseContexts(schema.Body))
	var bound []string
	for _, name := range schema.BoundVars {
		if printed.Contains(name) {
			bound = append(bound, name)
		}
	}
	return bound
}

// eraseContexts replaces the context argument of every function in t with void
func eraseContexts(t Type) Type {
	return TransformRecur(t, func(t Type) Type {
		_, args, effect, out, ok := FunctionParts(t)
		if !ok {
			return t
		}
		return NewFunction(VoidType, args, effect, out)
	})
}

// MatchesAnnotation reports whether inferred is the annotation with its
// variables renamed one-to-one. Wildcard variables of the annotation match
// any type. It fails when an annotation variable was bound to a concrete
// type, or when two annotation variables ended up as the same variable:
// in both cases the annotation is more general than the expression.
func MatchesAnnotation(annotation, inferred Type) bool {
	return newRenaming(IsWildcard).match(annotation, inferred)
}

func (r *renaming) match(a, b Type) bool {
	switch a := a.(type) {
	case *Var:
		if r.skip(a.Name) {
			return true
		}
		bv, ok := b.(*Var)
		if !ok {
			return false
		}
		to, seen := r.forward[a.Name]
		from, seenBack := r.backward[bv.Name]
		if !seen && !seenBack {
			r.forward[a.Name] = bv.Name
			r.backward[bv.Name] = a.Name
			return true
		}
		return to == bv.Name && from == a.Name
	case *Constant:
		bc, ok := b.(*Constant)
		return ok && a.Name == bc.Name
	case EmptyRow:
		_, ok := b.(EmptyRow)
		return ok
	case *RowExtension:
		labelType, rest, ok := removeLabel(b, a.Label)
		return ok && r.match(a.LabelType, labelType) && r.match(a.Tail, rest)
	case *Application:
		ba, ok := b.(*Application)
		if !ok || len(a.Args) != len(ba.Args) || !r.match(a.Op, ba.Op) {
			return false
		}
		for i := range a.Args {
			if i == 0 && IsFunction(a) {
				continue
			}
			if !r.match(a.Args[i], ba.Args[i]) {
				return false
			}
		}
		return true
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", a))
	}
}

// removeLabel finds the first field called label in row, returning its type and
// the row without it. Fields with different labels may come in any order.
func removeLabel(row Type, label string) (Type, Type, bool) {
	fields, tail := RowFields(row)
	for i, f := range fields {
		if f.Label == label {
			rest := make([]Field, 0, len(fields)-1)
			rest = append(rest, fields[:i]...)
			rest = append(rest, fields[i+1:]...)
			return f.Type, NewRow(rest, tail), true
		}
	}
	return nil, nil, false
}
