package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/delisp/delisp/frontend/types"
)

// ExprString prints expr back in source syntax, on a single line
func ExprString(expr Expr) string {
	ctx := newShowContext()
	ctx.showExprWalker(expr)
	return ctx.String()
}

// FormString prints a top-level form back in source syntax
func FormString(form Form) string {
	ctx := newShowContext()
	switch form := form.(type) {
	case *Definition:
		ctx.WriteString("(define ")
		ctx.WriteString(form.Name.Name)
		ctx.WriteByte(' ')
		ctx.showExprWalker(form.Value)
		ctx.WriteByte(')')
	case *Export:
		ctx.WriteString("(export")
		for _, name := range form.Names {
			ctx.WriteByte(' ')
			ctx.WriteString(name.Name)
		}
		ctx.WriteByte(')')
	case *ExprStatement:
		ctx.showExprWalker(form.X)
	}
	return ctx.String()
}

type showContext struct {
	*strings.Builder
}

func newShowContext() *showContext {
	return &showContext{Builder: &strings.Builder{}}
}

func (ctx *showContext) list(head string, exprs []Expr) {
	ctx.WriteByte('(')
	ctx.WriteString(head)
	ctx.rest(exprs)
	ctx.WriteByte(')')
}

// rest writes each of exprs preceded by a space
func (ctx *showContext) rest(exprs []Expr) {
	for _, e := range exprs {
		ctx.WriteByte(' ')
		ctx.showExprWalker(e)
	}
}

func (ctx *showContext) showExprWalker(expr Expr) {
	if expr == nil {
		ctx.WriteString("nil")
		return
	}
	switch e := expr.(type) {
	case *NumberLiteral:
		ctx.WriteString(e.Syntax)
	case *StringLiteral:
		ctx.WriteString(strconv.Quote(e.Value))
	case *BooleanLiteral:
		ctx.WriteString(strconv.FormatBool(e.Value))
	case *NoneLiteral:
		ctx.WriteString("none")
	case *Identifier:
		ctx.WriteString(e.Name)
	case *Lambda:
		ctx.WriteString("(lambda (")
		for i, p := range e.Params {
			if i > 0 {
				ctx.WriteByte(' ')
			}
			ctx.WriteString(p.Name)
		}
		ctx.WriteByte(')')
		ctx.rest(e.Body)
		ctx.WriteByte(')')
	case *Call:
		ctx.WriteByte('(')
		ctx.showExprWalker(e.Fn)
		ctx.rest(e.Args)
		ctx.WriteByte(')')
	case *Let:
		ctx.WriteString("(let {")
		for i, b := range e.Bindings {
			if i > 0 {
				ctx.WriteByte(' ')
			}
			ctx.WriteString(b.Name.Name)
			ctx.WriteByte(' ')
			ctx.showExprWalker(b.Value)
		}
		ctx.WriteByte('}')
		ctx.rest(e.Body)
		ctx.WriteByte(')')
	case *The:
		ctx.WriteString("(the ")
		ctx.WriteString(types.String(e.Annotation.Body))
		ctx.WriteByte(' ')
		ctx.showExprWalker(e.Value)
		ctx.WriteByte(')')
	case *If:
		ctx.list("if", []Expr{e.Cond, e.Then, e.Else})
	case *Do:
		ctx.list("do", e.Body)
	case *VectorLiteral:
		ctx.WriteByte('[')
		for i, elem := range e.Elems {
			if i > 0 {
				ctx.WriteByte(' ')
			}
			ctx.showExprWalker(elem)
		}
		ctx.WriteByte(']')
	case *RecordLiteral:
		ctx.WriteByte('{')
		for i, f := range e.Fields {
			if i > 0 {
				ctx.WriteByte(' ')
			}
			ctx.WriteString(":" + f.Label + " ")
			ctx.showExprWalker(f.Value)
		}
		if e.Extends != nil {
			if len(e.Fields) > 0 {
				ctx.WriteByte(' ')
			}
			ctx.WriteString("| ")
			ctx.showExprWalker(e.Extends)
		}
		ctx.WriteByte('}')
	case *FieldAccess:
		ctx.WriteString("(:" + e.Label + " ")
		ctx.showExprWalker(e.Record)
		ctx.WriteByte(')')
	case *Values:
		ctx.list("values", e.Values)
	case *MultipleValueBind:
		ctx.WriteString("(multiple-value-bind (")
		for i, v := range e.Vars {
			if i > 0 {
				ctx.WriteByte(' ')
			}
			ctx.WriteString(v.Name)
		}
		ctx.WriteString(") ")
		ctx.showExprWalker(e.Form)
		ctx.rest(e.Body)
		ctx.WriteByte(')')
	case *Case:
		ctx.WriteString("(case :" + e.Tag)
		if e.Value != nil {
			ctx.WriteByte(' ')
			ctx.showExprWalker(e.Value)
		}
		ctx.WriteByte(')')
	case *Match:
		ctx.WriteString("(match ")
		ctx.showExprWalker(e.Value)
		for _, c := range e.Cases {
			ctx.WriteString(" (")
			if c.Var != nil {
				ctx.WriteString("(:" + c.Tag + " " + c.Var.Name + ")")
			} else {
				ctx.WriteString(":" + c.Tag)
			}
			ctx.rest(c.Body)
			ctx.WriteByte(')')
		}
		if e.Default != nil {
			ctx.WriteString(" (:default")
			ctx.rest(e.Default)
			ctx.WriteByte(')')
		}
		ctx.WriteByte(')')
	default:
		panic(fmt.Sprintf("unreachable: unknown expression %T", expr))
	}
}
