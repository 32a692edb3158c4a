package ast

import (
	"github.com/delisp/delisp/frontend/types"
)

// NumberLiteral: `1`, `-2.5`
type NumberLiteral struct {
	Range
	Info
	Syntax string
	Value  float64
}

// StringLiteral: `"text"`
type StringLiteral struct {
	Range
	Info
	Value string
}

// BooleanLiteral: `true`, `false`
type BooleanLiteral struct {
	Range
	Info
	Value bool
}

// NoneLiteral: `none`
type NoneLiteral struct {
	Range
	Info
}

// Identifier represents a variable name
type Identifier struct {
	Range
	Info
	Name string
}

// Lambda: `(lambda (x y) body...)`
type Lambda struct {
	Range
	Info
	Params []*Identifier
	Body   []Expr
}

// Call: `(f a b)`
type Call struct {
	Range
	Info
	Fn   Expr
	Args []Expr
}

// LetBinding is one `name value` pair of a Let
type LetBinding struct {
	Name  *Identifier
	Value Expr
}

// Let: `(let {x 1 y 2} body...)`. Bindings are not recursive and do not see each other.
type Let struct {
	Range
	Info
	Bindings []*LetBinding
	Body     []Expr
}

// The is a type annotation: `(the (-> number number) f)`.
// Annotation binds the variables written in the annotation; wildcards are free.
type The struct {
	Range
	Info
	Annotation types.TypeSchema
	Value      Expr
}

// If: `(if cond then else)`
type If struct {
	Range
	Info
	Cond Expr
	Then Expr
	Else Expr
}

// Do: `(do a b c)` evaluates to its last expression
type Do struct {
	Range
	Info
	Body []Expr
}

// VectorLiteral: `[a b c]`
type VectorLiteral struct {
	Range
	Info
	Elems []Expr
}

// RecordField is one `:label value` pair of a RecordLiteral
type RecordField struct {
	Label string
	Value Expr
}

// RecordLiteral: `{:x 1 :y 2}`, or `{:x 1 | base}` to extend base with x
type RecordLiteral struct {
	Range
	Info
	Fields  []*RecordField
	Extends Expr
}

// FieldAccess: `(:x record)`
type FieldAccess struct {
	Range
	Info
	Label  string
	Record Expr
}

// Values: `(values a b)` returns multiple values; a is the primary one
type Values struct {
	Range
	Info
	Values []Expr
}

// MultipleValueBind: `(multiple-value-bind (a b) form body...)`
type MultipleValueBind struct {
	Range
	Info
	Vars []*Identifier
	Form Expr
	Body []Expr
}

// Case builds a variant: `(case :tag value)`, or `(case :tag)` for a tag without value
type Case struct {
	Range
	Info
	Tag   string
	Value Expr
}

// MatchCase is one `((:tag x) body...)` branch of a Match. Var is nil for bare tags.
type MatchCase struct {
	Range
	Tag  string
	Var  *Identifier
	Body []Expr
}

// Match: `(match v ((:tag x) body...) (:default body...))`.
// Without a :default branch the matched value may only carry the listed tags.
type Match struct {
	Range
	Info
	Value   Expr
	Cases   []*MatchCase
	Default []Expr
}

func (e *NumberLiteral) exprNode()     {}
func (e *StringLiteral) exprNode()     {}
func (e *BooleanLiteral) exprNode()    {}
func (e *NoneLiteral) exprNode()       {}
func (e *Identifier) exprNode()        {}
func (e *Lambda) exprNode()            {}
func (e *Call) exprNode()              {}
func (e *Let) exprNode()               {}
func (e *The) exprNode()               {}
func (e *If) exprNode()                {}
func (e *Do) exprNode()                {}
func (e *VectorLiteral) exprNode()     {}
func (e *RecordLiteral) exprNode()     {}
func (e *FieldAccess) exprNode()       {}
func (e *Values) exprNode()            {}
func (e *MultipleValueBind) exprNode() {}
func (e *Case) exprNode()              {}
func (e *Match) exprNode()             {}

func (e *NumberLiteral) ExprName() string     { return "NumberLiteral" }
func (e *StringLiteral) ExprName() string     { return "StringLiteral" }
func (e *BooleanLiteral) ExprName() string    { return "BooleanLiteral" }
func (e *NoneLiteral) ExprName() string       { return "NoneLiteral" }
func (e *Identifier) ExprName() string        { return "Identifier" }
func (e *Lambda) ExprName() string            { return "Lambda" }
func (e *Call) ExprName() string              { return "Call" }
func (e *Let) ExprName() string               { return "Let" }
func (e *The) ExprName() string               { return "The" }
func (e *If) ExprName() string                { return "If" }
func (e *Do) ExprName() string                { return "Do" }
func (e *VectorLiteral) ExprName() string     { return "VectorLiteral" }
func (e *RecordLiteral) ExprName() string     { return "RecordLiteral" }
func (e *FieldAccess) ExprName() string       { return "FieldAccess" }
func (e *Values) ExprName() string            { return "Values" }
func (e *MultipleValueBind) ExprName() string { return "MultipleValueBind" }
func (e *Case) ExprName() string              { return "Case" }
func (e *Match) ExprName() string             { return "Match" }
