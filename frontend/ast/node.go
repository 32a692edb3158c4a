package ast

import (
	"go/token"

	"github.com/delisp/delisp/frontend/types"
)

// Info holds the types inference assigns to an expression.
// Before solving the fields hold fresh type variables; once solving finishes
// the final substitution is applied to them in place.
type Info struct {
	// ExpressionType is the type of the value of the expression
	ExpressionType types.Type
	// ResultingType is set when the expression returns multiple values, and
	// is then an application of `values`. ExpressionType is the primary value.
	ResultingType types.Type
	// Effect is an `effect` application listing what evaluating the expression may do
	Effect types.Type
}

func (i *Info) TypeInfo() *Info { return i }

// Result is the type the expression returns to its context: ResultingType when set,
// otherwise ExpressionType
func (i *Info) Result() types.Type {
	if i.ResultingType != nil {
		return i.ResultingType
	}
	return i.ExpressionType
}

// Apply rewrites the types of i through s
func (i *Info) Apply(s types.Substitution) {
	if i.ExpressionType != nil {
		i.ExpressionType = types.Apply(i.ExpressionType, s)
	}
	if i.ResultingType != nil {
		i.ResultingType = types.Apply(i.ResultingType, s)
	}
	if i.Effect != nil {
		i.Effect = types.Apply(i.Effect, s)
	}
}

// Expr is the interface for all expression nodes of the tree
type Expr interface {
	Positioner
	// ExprName is the kind of expression, for logs and error messages
	ExprName() string
	TypeInfo() *Info
	exprNode() // Marker method to distinguish expressions
}

// Form is a top-level element of a Module
type Form interface {
	Positioner
	formNode()
}

// Module is a whole source file
type Module struct {
	Range
	Forms []Form
}

// Definition: `(define name value)`
type Definition struct {
	Range
	Name  *Identifier
	Value Expr
}

// Export: `(export name...)`
type Export struct {
	Range
	Names []*Identifier
}

// ExprStatement is an expression evaluated at the top level of a module
type ExprStatement struct {
	X Expr
}

func (s *ExprStatement) Pos() token.Pos { return s.X.Pos() }
func (s *ExprStatement) End() token.Pos { return s.X.End() }

func (*Definition) formNode()    {}
func (*Export) formNode()        {}
func (*ExprStatement) formNode() {}

// Definitions returns the definitions of m in source order
func (m *Module) Definitions() []*Definition {
	var defs []*Definition
	for _, form := range m.Forms {
		if def, ok := form.(*Definition); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// Exports returns the exported names of m in source order, and whether m has any export form
func (m *Module) Exports() ([]*Identifier, bool) {
	var names []*Identifier
	found := false
	for _, form := range m.Forms {
		if exp, ok := form.(*Export); ok {
			found = true
			names = append(names, exp.Names...)
		}
	}
	return names, found
}
