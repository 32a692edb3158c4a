package ilerr

import (
	"fmt"
	"go/token"
	"runtime/debug"
	"strings"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/types"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	TypeMismatch
	UndefinedVariable
	OccursCheck
	MissingField
	AnnotationTooGeneral
	Parse
	InvalidTypeSyntax
)

type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// FormatWithCodeAndSource prefixes FormatWithCode with the position of e in fset
func FormatWithCodeAndSource(e IleError, fset *token.FileSet) string {
	if fset == nil || !e.Pos().IsValid() {
		return FormatWithCode(e)
	}
	return fmt.Sprintf("%s: %s", fset.Position(e.Pos()), FormatWithCode(e))
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

// FromUnification classifies an error returned by types.Unify, reporting it at the node at
func FromUnification(err error, at ast.Positioner) IleError {
	switch err := err.(type) {
	case *types.MismatchError:
		return New(NewTypeMismatch{Positioner: at, Expected: err.Right, Found: err.Left})
	case *types.OccursCheckError:
		return New(NewOccursCheck{Positioner: at, Var: err.Var, Type: err.Type})
	case *types.MissingValueError:
		return New(NewMissingField{Positioner: at, Label: err.Label, Row: err.Row})
	}
	return New(Unclassified{From: err, Positioner: at})
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Unwrap() error    { return e.From }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct {
	ast.Positioner
	Expected types.Type
	Found    types.Type
	stack    []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected type '%s', but found '%s'", types.String(e.Expected), types.String(e.Found))
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUndefinedVariable struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedVariable) Code() ErrCode { return UndefinedVariable }
func (e NewUndefinedVariable) Error() string {
	return fmt.Sprintf("variable '%s' is not defined", e.Name)
}
func (e NewUndefinedVariable) getStack() []byte { return e.stack }
func (e NewUndefinedVariable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewOccursCheck struct {
	ast.Positioner
	Var   *types.Var
	Type  types.Type
	stack []byte
}

func (e NewOccursCheck) Code() ErrCode { return OccursCheck }
func (e NewOccursCheck) Error() string {
	return fmt.Sprintf("infinite type: '%s' occurs in '%s'", e.Var.Name, types.String(e.Type))
}
func (e NewOccursCheck) getStack() []byte { return e.stack }
func (e NewOccursCheck) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMissingField struct {
	ast.Positioner
	Label string
	Row   types.Type
	stack []byte
}

func (e NewMissingField) Code() ErrCode { return MissingField }
func (e NewMissingField) Error() string {
	return fmt.Sprintf("label '%s' is missing in '%s'", e.Label, types.String(e.Row))
}
func (e NewMissingField) getStack() []byte { return e.stack }
func (e NewMissingField) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewAnnotationTooGeneral struct {
	ast.Positioner
	Annotation types.Type
	Inferred   types.Type
	stack      []byte
}

func (e NewAnnotationTooGeneral) Code() ErrCode { return AnnotationTooGeneral }
func (e NewAnnotationTooGeneral) Error() string {
	return fmt.Sprintf("type annotation '%s' is too general, the expression has type '%s'", types.String(e.Annotation), types.String(e.Inferred))
}
func (e NewAnnotationTooGeneral) getStack() []byte { return e.stack }
func (e NewAnnotationTooGeneral) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewParse struct {
	ast.Positioner
	ParserMessage string
	Hint          string
	stack         []byte
}

func (e NewParse) Error() string {
	if e.Hint != "" {
		return e.ParserMessage + " (" + e.Hint + ")"
	}
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewInvalidTypeSyntax struct {
	ast.Positioner
	Message string
	stack   []byte
}

func (e NewInvalidTypeSyntax) Code() ErrCode { return InvalidTypeSyntax }
func (e NewInvalidTypeSyntax) Error() string {
	return e.Message
}
func (e NewInvalidTypeSyntax) getStack() []byte { return e.stack }
func (e NewInvalidTypeSyntax) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
