// The MIT License (MIT)
//
// Copyright (c) 2019 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package construct

import (
	"strconv"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/types"
)

// Types

// Type constant: `number`, `string`, `Person`
func TConst(name string) types.Type {
	if c, ok := types.BuiltinConstant(name); ok {
		return c
	}
	return &types.Constant{Name: name}
}

// Type variable: `a`
func TVar(name string) *types.Var {
	return types.NewVar(name)
}

// Type application: `(Pair a b)`
func TApp(op string, params ...types.Type) *types.Application {
	return types.NewApplication(op, params...)
}

// Function with an open effect: `(-> a b c)`.
// The context argument and the effect tail are fresh variables of fresher.
func TArrow(fresher *types.Fresher, args []types.Type, ret types.Type) *types.Application {
	return types.NewFunction(fresher.Fresh(), args, types.NewEffect(nil, fresher.Fresh()), ret)
}

// Function with an open effect: `(-> a b)`
func TArrow1(fresher *types.Fresher, arg types.Type, ret types.Type) *types.Application {
	return TArrow(fresher, []types.Type{arg}, ret)
}

// Function with an open effect: `(-> a b c)`
func TArrow2(fresher *types.Fresher, arg1, arg2 types.Type, ret types.Type) *types.Application {
	return TArrow(fresher, []types.Type{arg1, arg2}, ret)
}

// Function with a closed effect: `(-> a (effect l...) b)`
func TArrowEffect(fresher *types.Fresher, args []types.Type, labels []string, ret types.Type) *types.Application {
	return types.NewFunction(fresher.Fresh(), args, types.NewEffect(labels, nil), ret)
}

// Vector: `[a]`
func TVector(elem types.Type) *types.Application {
	return types.NewVector(elem)
}

// Closed record: `{:x number :y string}`
func TRecord(labels ...types.Field) *types.Application {
	return types.NewRecord(labels, nil)
}

// Open record: `{:x number | r}`
func TRecordOpen(tail types.Type, labels ...types.Field) *types.Application {
	return types.NewRecord(labels, tail)
}

// Label and its type, for rows
func TField(label string, t types.Type) types.Field {
	return types.Field{Label: label, Type: t}
}

// Variants: `(cases (:a number) :b | r)`. A nil tail closes the row.
func TCases(tail types.Type, labels ...types.Field) *types.Application {
	return types.NewCases(labels, tail)
}

// Expressions:

// Number literal
func Number(value float64) *ast.NumberLiteral {
	return &ast.NumberLiteral{Syntax: strconv.FormatFloat(value, 'g', -1, 64), Value: value}
}

// String literal
func String(value string) *ast.StringLiteral {
	return &ast.StringLiteral{Value: value}
}

// Boolean literal
func Bool(value bool) *ast.BooleanLiteral {
	return &ast.BooleanLiteral{Value: value}
}

// Variable
func Var(name string) *ast.Identifier {
	return &ast.Identifier{Name: name}
}

// Application: `(f x)`
func Call(f ast.Expr, args ...ast.Expr) *ast.Call {
	return &ast.Call{Fn: f, Args: args}
}

// Abstraction: `(lambda (x y) body...)`
func Func(args []string, body ...ast.Expr) *ast.Lambda {
	params := make([]*ast.Identifier, len(args))
	for i, arg := range args {
		params[i] = Var(arg)
	}
	return &ast.Lambda{Params: params, Body: body}
}

// Abstraction: `(lambda (x) body)`
func Func1(arg string, body ...ast.Expr) *ast.Lambda {
	return Func([]string{arg}, body...)
}

// Abstraction: `(lambda (x y) body)`
func Func2(arg1, arg2 string, body ...ast.Expr) *ast.Lambda {
	return Func([]string{arg1, arg2}, body...)
}

// Let-binding: `(let {a 1} body...)`
func Let(varName string, value ast.Expr, body ...ast.Expr) *ast.Let {
	return LetGroup([]*ast.LetBinding{LetBinding(varName, value)}, body...)
}

// Grouped let-bindings: `(let {a 1 b 2} body...)`
func LetGroup(bindings []*ast.LetBinding, body ...ast.Expr) *ast.Let {
	return &ast.Let{Bindings: bindings, Body: body}
}

// Paired identifier and value
func LetBinding(varName string, value ast.Expr) *ast.LetBinding {
	return &ast.LetBinding{Name: Var(varName), Value: value}
}

// Annotation: `(the type value)`
func The(annotation types.TypeSchema, value ast.Expr) *ast.The {
	return &ast.The{Annotation: annotation, Value: value}
}

// Conditional: `(if c a b)`
func If(cond, then, els ast.Expr) *ast.If {
	return &ast.If{Cond: cond, Then: then, Else: els}
}

// Vector: `[a b]`
func Vector(elems ...ast.Expr) *ast.VectorLiteral {
	return &ast.VectorLiteral{Elems: elems}
}

// Record: `{:a 1 :b 2}`
func Record(fields ...*ast.RecordField) *ast.RecordLiteral {
	return &ast.RecordLiteral{Fields: fields}
}

// Extending record: `{:a 1 | r}`
func RecordExtend(record ast.Expr, fields ...*ast.RecordField) *ast.RecordLiteral {
	return &ast.RecordLiteral{Fields: fields, Extends: record}
}

// Paired label and value
func LabelValue(label string, value ast.Expr) *ast.RecordField {
	return &ast.RecordField{Label: label, Value: value}
}

// Selecting value of label: `(:a r)`
func RecordSelect(record ast.Expr, label string) *ast.FieldAccess {
	return &ast.FieldAccess{Record: record, Label: label}
}

// Tagged variant: `(case :x a)`. A nil value builds a bare tag.
func Variant(label string, value ast.Expr) *ast.Case {
	return &ast.Case{Tag: label, Value: value}
}

// Pattern-matching over variants:
//
//	(match e
//	  ((:x a) expr1)
//	  (:y expr2)
//	  (:default default-expr))
//
// A nil defaultCase leaves the matched variants closed.
func Match(value ast.Expr, defaultCase []ast.Expr, cases ...*ast.MatchCase) *ast.Match {
	return &ast.Match{Value: value, Cases: cases, Default: defaultCase}
}

// A branch of Match. An empty varName matches a bare tag.
func MatchCase(label, varName string, body ...ast.Expr) *ast.MatchCase {
	c := &ast.MatchCase{Tag: label, Body: body}
	if varName != "" {
		c.Var = Var(varName)
	}
	return c
}

// Top level:

func Module(forms ...ast.Form) *ast.Module {
	return &ast.Module{Forms: forms}
}

// Definition: `(define name value)`
func Define(name string, value ast.Expr) *ast.Definition {
	return &ast.Definition{Name: Var(name), Value: value}
}
