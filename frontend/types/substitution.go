package types

import (
	"iter"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
)

var emptyBindings = immutable.NewMap[string, Type](nil)

// Substitution maps type-variable names to types.
//
// A Substitution is an immutable value: Bind and Compose return new
// substitutions and leave the receiver untouched, so the solver can keep each
// step's substitution around cheaply. Bindings may form chains (a -> b,
// b -> number); Apply resolves them fully.
//
// The zero value is the empty substitution.
type Substitution struct {
	m *immutable.Map[string, Type]
}

func NewSubstitution(bindings map[string]Type) Substitution {
	b := immutable.NewMapBuilder[string, Type](nil)
	for name, t := range bindings {
		b.Set(name, t)
	}
	return Substitution{m: b.Map()}
}

func (s Substitution) bindings() *immutable.Map[string, Type] {
	if s.m == nil {
		return emptyBindings
	}
	return s.m
}

// Len is the number of bound variables
func (s Substitution) Len() int { return s.bindings().Len() }

// Lookup returns the type directly bound to name, without resolving chains
func (s Substitution) Lookup(name string) (Type, bool) {
	return s.bindings().Get(name)
}

// Bind returns a new substitution with name bound to t
func (s Substitution) Bind(name string, t Type) Substitution {
	return Substitution{m: s.bindings().Set(name, t)}
}

// All iterates over the direct bindings in unspecified order
func (s Substitution) All() iter.Seq2[string, Type] {
	return func(yield func(string, Type) bool) {
		it := s.bindings().Iterator()
		for !it.Done() {
			name, t, _ := it.Next()
			if !yield(name, t) {
				return
			}
		}
	}
}

// Names returns the bound variable names, sorted
func (s Substitution) Names() []string {
	names := make([]string, 0, s.Len())
	for name := range s.All() {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Compose returns a substitution equivalent to applying other and then s.
// Bindings of s win over bindings of other for the same name.
func (s Substitution) Compose(other Substitution) Substitution {
	b := immutable.NewMapBuilder[string, Type](nil)
	for name, t := range other.All() {
		b.Set(name, Apply(t, s))
	}
	for name, t := range s.All() {
		b.Set(name, t)
	}
	return Substitution{m: b.Map()}
}

// Resolve collapses every chain so each name maps directly to its final type.
// Applying the result gives the same types as applying s.
func (s Substitution) Resolve() Substitution {
	b := immutable.NewMapBuilder[string, Type](nil)
	for name, t := range s.All() {
		b.Set(name, Apply(t, s))
	}
	return Substitution{m: b.Map()}
}

func (s Substitution) String() string {
	sb := strings.Builder{}
	sb.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		t, _ := s.Lookup(name)
		sb.WriteString(name)
		sb.WriteString(" -> ")
		sb.WriteString(String(t))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Apply rewrites every variable of t bound in s, re-applying s to the
// replacement until no bound variable is left. Subtrees without bound
// variables are returned as-is.
//
// s must not contain cycles; unification guarantees this through the occurs-check.
func Apply(t Type, s Substitution) Type {
	if s.Len() == 0 {
		return t
	}
	return TransformRecur(t, func(t Type) Type {
		v, ok := t.(*Var)
		if !ok {
			return t
		}
		replacement, ok := s.Lookup(v.Name)
		if !ok {
			return t
		}
		return Apply(replacement, s)
	})
}

// ApplySchema applies s to the free variables of schema
func ApplySchema(schema TypeSchema, s Substitution) TypeSchema {
	if len(schema.BoundVars) == 0 {
		return TypeSchema{Body: Apply(schema.Body, s)}
	}
	b := s.bindings()
	for _, name := range schema.BoundVars {
		b = b.Delete(name)
	}
	return TypeSchema{BoundVars: schema.BoundVars, Body: Apply(schema.Body, Substitution{m: b})}
}
