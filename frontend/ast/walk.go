package ast

import (
	"fmt"
)

// Children returns the direct sub-expressions of expr, in source order
func Children(expr Expr) []Expr {
	switch e := expr.(type) {
	case *NumberLiteral, *StringLiteral, *BooleanLiteral, *NoneLiteral, *Identifier:
		return nil
	case *Lambda:
		children := make([]Expr, 0, len(e.Params)+len(e.Body))
		for _, p := range e.Params {
			children = append(children, p)
		}
		return append(children, e.Body...)
	case *Call:
		return append([]Expr{e.Fn}, e.Args...)
	case *Let:
		var children []Expr
		for _, b := range e.Bindings {
			children = append(children, b.Name, b.Value)
		}
		return append(children, e.Body...)
	case *The:
		return []Expr{e.Value}
	case *If:
		return []Expr{e.Cond, e.Then, e.Else}
	case *Do:
		return e.Body
	case *VectorLiteral:
		return e.Elems
	case *RecordLiteral:
		var children []Expr
		for _, f := range e.Fields {
			children = append(children, f.Value)
		}
		if e.Extends != nil {
			children = append(children, e.Extends)
		}
		return children
	case *FieldAccess:
		return []Expr{e.Record}
	case *Values:
		return e.Values
	case *MultipleValueBind:
		var children []Expr
		for _, v := range e.Vars {
			children = append(children, v)
		}
		children = append(children, e.Form)
		return append(children, e.Body...)
	case *Case:
		if e.Value == nil {
			return nil
		}
		return []Expr{e.Value}
	case *Match:
		children := []Expr{e.Value}
		for _, c := range e.Cases {
			if c.Var != nil {
				children = append(children, c.Var)
			}
			children = append(children, c.Body...)
		}
		return append(children, e.Default...)
	default:
		panic(fmt.Sprintf("unreachable: unknown expression %T", expr))
	}
}

// Walk calls f on expr and its sub-expressions, parents first. When f returns
// false the children of that expression are skipped.
func Walk(expr Expr, f func(Expr) bool) {
	if !f(expr) {
		return
	}
	for _, child := range Children(expr) {
		Walk(child, f)
	}
}

// WalkModule calls Walk on every expression of m, including the names of definitions
func WalkModule(m *Module, f func(Expr) bool) {
	for _, form := range m.Forms {
		switch form := form.(type) {
		case *Definition:
			Walk(form.Name, f)
			Walk(form.Value, f)
		case *Export:
			for _, name := range form.Names {
				Walk(name, f)
			}
		case *ExprStatement:
			Walk(form.X, f)
		}
	}
}
