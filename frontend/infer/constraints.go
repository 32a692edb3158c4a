package infer

import (
	"fmt"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// Constraint is a requirement on types collected while walking the tree.
// Each constraint remembers the expression that produced it, where a failure is reported.
type Constraint interface {
	fmt.Stringer
	// Origin is the expression a failure to satisfy the constraint is reported at
	Origin() ast.Expr

	activeVars() *set.Set[string]
	apply(s types.Substitution) Constraint
}

// Equal requires T1 and T2 to unify.
// When they don't, T1 is the type found and T2 the one expected.
type Equal struct {
	T1, T2 types.Type
	Source ast.Expr
}

// ImplicitInstance requires T to be an instance of Generalize, once Generalize
// is generalized over every variable but Monovars. A nil Monovars is empty.
type ImplicitInstance struct {
	T          types.Type
	Generalize types.Type
	Monovars   *set.Set[string]
	Source     ast.Expr
}

// ExplicitInstance requires T to be an instance of Schema
type ExplicitInstance struct {
	T      types.Type
	Schema types.TypeSchema
	Source ast.Expr
}

func (c *Equal) Origin() ast.Expr            { return c.Source }
func (c *ImplicitInstance) Origin() ast.Expr { return c.Source }
func (c *ExplicitInstance) Origin() ast.Expr { return c.Source }

func (c *Equal) String() string {
	return fmt.Sprintf("%s == %s", types.String(c.T1), types.String(c.T2))
}

func (c *ImplicitInstance) String() string {
	return fmt.Sprintf("%s <=%v %s", types.String(c.T), c.monovars().Slice(), types.String(c.Generalize))
}

func (c *ExplicitInstance) String() string {
	return fmt.Sprintf("%s < forall %v. %s", types.String(c.T), c.Schema.BoundVars, types.String(c.Schema.Body))
}

func (c *Equal) activeVars() *set.Set[string] {
	return types.FreeVars(c.T1).Union(types.FreeVars(c.T2)).(*set.Set[string])
}

func (c *ImplicitInstance) activeVars() *set.Set[string] {
	active := types.FreeVars(c.T)
	active.InsertSet(c.monovars().Intersect(types.FreeVars(c.Generalize)))
	return active
}

func (c *ExplicitInstance) activeVars() *set.Set[string] {
	active := types.FreeVars(c.T)
	active.InsertSlice(c.Schema.FreeVars())
	return active
}

func (c *Equal) apply(s types.Substitution) Constraint {
	return &Equal{T1: types.Apply(c.T1, s), T2: types.Apply(c.T2, s), Source: c.Source}
}

func (c *ImplicitInstance) apply(s types.Substitution) Constraint {
	return &ImplicitInstance{
		T:          types.Apply(c.T, s),
		Generalize: types.Apply(c.Generalize, s),
		Monovars:   resolveMonovars(c.Monovars, s),
		Source:     c.Source,
	}
}

func (c *ExplicitInstance) apply(s types.Substitution) Constraint {
	return &ExplicitInstance{T: types.Apply(c.T, s), Schema: types.ApplySchema(c.Schema, s), Source: c.Source}
}

// resolveMonovars replaces every monomorphic variable bound by s with the
// variables of the type it is bound to, so `a` with `a -> [b]` becomes `b`
func resolveMonovars(monovars *set.Set[string], s types.Substitution) *set.Set[string] {
	if monovars == nil {
		return set.New[string](0)
	}
	resolved := set.New[string](monovars.Size())
	for name := range monovars.Items() {
		resolved.InsertSet(types.FreeVars(types.Apply(types.NewVar(name), s)))
	}
	return resolved
}

// generalizable lists the variables c would quantify over, which must not be
// active in any other constraint before c can be solved
func (c *ImplicitInstance) generalizable() *set.Set[string] {
	return types.FreeVars(c.Generalize).Difference(c.monovars()).(*set.Set[string])
}

func (c *ImplicitInstance) monovars() *set.Set[string] {
	if c.Monovars == nil {
		return set.New[string](0)
	}
	return c.Monovars
}
