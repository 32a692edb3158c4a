// Package types holds the monotypes and type schemes of the language, and the
// machinery that operates on them without looking at expressions: substitution,
// unification, generalization and instantiation.
//
// Function types are applications of the `->` constant:
//
//	(-> ctx arg1 ... argN effect out)
//
// where effect is an application of `effect` to a row and out is the primary
// result. Records, variants (`cases`) and effects are all applications over
// extensible rows terminated by EmptyRow (closed) or a type variable (open).
package types

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
)

const (
	NumberName  = "number"
	StringName  = "string"
	BooleanName = "boolean"
	NoneName    = "none"
	VoidName    = "void"

	FunctionOp = "->"
	VectorOp   = "vector"
	RecordOp   = "record"
	EffectOp   = "effect"
	CasesOp    = "cases"
	ValuesOp   = "values"
)

var (
	NumberType  = &Constant{Name: NumberName}
	StringType  = &Constant{Name: StringName}
	BooleanType = &Constant{Name: BooleanName}
	NoneType    = &Constant{Name: NoneName}
	VoidType    = &Constant{Name: VoidName}
)

// builtinConstants are the constant names which are not type variables when written in lowercase
var builtinConstants = map[string]*Constant{
	NumberName:  NumberType,
	StringName:  StringType,
	BooleanName: BooleanType,
	NoneName:    NoneType,
	VoidName:    VoidType,
}

// Type is a monotype. The set of implementations is closed.
type Type interface {
	fmt.Stringer
	// TypeName is the name of the variant, used in error messages and logs
	TypeName() string
	isType()
}

var (
	_ Type = (*Constant)(nil)
	_ Type = (*Application)(nil)
	_ Type = (*Var)(nil)
	_ Type = EmptyRow{}
	_ Type = (*RowExtension)(nil)
)

// Constant: `number`, `string`, `->`
type Constant struct {
	Name string
}

// Application of a type operator: `(vector number)`, `(-> ctx number _ number)`
type Application struct {
	Op   Type
	Args []Type
}

// Var is a type variable, unified by name
type Var struct {
	Name string
	// UserSpecified is set for variables written in the source, as opposed to generated ones
	UserSpecified bool
}

// EmptyRow terminates a closed row
type EmptyRow struct{}

// RowExtension is one labelled field of a row
type RowExtension struct {
	Label     string
	LabelType Type
	Tail      Type
}

func (*Constant) isType()     {}
func (*Application) isType()  {}
func (*Var) isType()          {}
func (EmptyRow) isType()      {}
func (*RowExtension) isType() {}

func (*Constant) TypeName() string     { return "Constant" }
func (*Application) TypeName() string  { return "Application" }
func (*Var) TypeName() string          { return "Var" }
func (EmptyRow) TypeName() string      { return "EmptyRow" }
func (*RowExtension) TypeName() string { return "RowExtension" }

func (t *Constant) String() string     { return String(t) }
func (t *Application) String() string  { return String(t) }
func (t *Var) String() string          { return String(t) }
func (t EmptyRow) String() string      { return String(t) }
func (t *RowExtension) String() string { return String(t) }

// TypeSchema is a monotype universally quantified over BoundVars
type TypeSchema struct {
	BoundVars []string
	Body      Type
}

// NewTypeSchema quantifies body over the names in bound which occur in body,
// in the order they occur
func NewTypeSchema(bound []string, body Type) TypeSchema {
	wanted := set.From(bound)
	var boundVars []string
	for _, name := range ListTypeVariables(body) {
		if wanted.Contains(name) {
			boundVars = append(boundVars, name)
		}
	}
	return TypeSchema{BoundVars: boundVars, Body: body}
}

// Mono wraps t in a schema without bound variables
func Mono(t Type) TypeSchema {
	return TypeSchema{Body: t}
}

func (s TypeSchema) String() string {
	return String(s.Body)
}

// FreeVars lists the variables of the body that are not bound
func (s TypeSchema) FreeVars() []string {
	var free []string
	for _, name := range ListTypeVariables(s.Body) {
		if !containsName(s.BoundVars, name) {
			free = append(free, name)
		}
	}
	return free
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ListTypeVariables returns the names of the variables in t, unique, in order of first occurrence
func ListTypeVariables(t Type) []string {
	var names []string
	seen := set.New[string](0)
	Walk(t, func(t Type) {
		if v, ok := t.(*Var); ok && seen.Insert(v.Name) {
			names = append(names, v.Name)
		}
	})
	return names
}

// OccursIn reports whether the variable name appears in t
func OccursIn(name string, t Type) bool {
	switch t := t.(type) {
	case *Var:
		return t.Name == name
	case *Constant, EmptyRow:
		return false
	case *Application:
		if OccursIn(name, t.Op) {
			return true
		}
		for _, arg := range t.Args {
			if OccursIn(name, arg) {
				return true
			}
		}
		return false
	case *RowExtension:
		return OccursIn(name, t.LabelType) || OccursIn(name, t.Tail)
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", t))
	}
}

// Walk calls f on every node of t, parents before children, in left-to-right order
func Walk(t Type, f func(Type)) {
	f(t)
	switch t := t.(type) {
	case *Var, *Constant, EmptyRow:
	case *Application:
		Walk(t.Op, f)
		for _, arg := range t.Args {
			Walk(arg, f)
		}
	case *RowExtension:
		Walk(t.LabelType, f)
		Walk(t.Tail, f)
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", t))
	}
}

// TransformRecur rebuilds t bottom-up, calling f on every node after its
// children have been transformed. Nodes whose children did not change are
// passed to f as-is, so f returning its argument keeps the original subtree.
func TransformRecur(t Type, f func(Type) Type) Type {
	switch t := t.(type) {
	case *Var, *Constant, EmptyRow:
		return f(t)
	case *Application:
		op := TransformRecur(t.Op, f)
		changed := op != t.Op
		args := make([]Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = TransformRecur(arg, f)
			changed = changed || args[i] != arg
		}
		if !changed {
			return f(t)
		}
		return f(&Application{Op: op, Args: args})
	case *RowExtension:
		labelType := TransformRecur(t.LabelType, f)
		tail := TransformRecur(t.Tail, f)
		if labelType == t.LabelType && tail == t.Tail {
			return f(t)
		}
		return f(&RowExtension{Label: t.Label, LabelType: labelType, Tail: tail})
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", t))
	}
}

// Constructors

func NewVar(name string) *Var { return &Var{Name: name} }

func NewApplication(op string, args ...Type) *Application {
	return &Application{Op: &Constant{Name: op}, Args: args}
}

// NewRow builds the row `label1: t1, label2: t2 ... | tail`. A nil tail closes the row.
func NewRow(fields []Field, tail Type) Type {
	if tail == nil {
		tail = EmptyRow{}
	}
	row := tail
	for i := len(fields) - 1; i >= 0; i-- {
		row = &RowExtension{Label: fields[i].Label, LabelType: fields[i].Type, Tail: row}
	}
	return row
}

// Field is a labelled member of a row
type Field struct {
	Label string
	Type  Type
}

func NewFunction(ctx Type, args []Type, effect Type, out Type) *Application {
	all := make([]Type, 0, len(args)+3)
	all = append(all, ctx)
	all = append(all, args...)
	all = append(all, effect, out)
	return NewApplication(FunctionOp, all...)
}

func NewVector(elem Type) *Application { return NewApplication(VectorOp, elem) }

func NewRecord(fields []Field, tail Type) *Application {
	return NewApplication(RecordOp, NewRow(fields, tail))
}

func NewCases(fields []Field, tail Type) *Application {
	return NewApplication(CasesOp, NewRow(fields, tail))
}

// NewEffect builds `(effect label1 ... | tail)`; effect labels carry void
func NewEffect(labels []string, tail Type) *Application {
	fields := make([]Field, len(labels))
	for i, label := range labels {
		fields[i] = Field{Label: label, Type: VoidType}
	}
	return NewApplication(EffectOp, NewRow(fields, tail))
}

func NewValues(values ...Type) *Application { return NewApplication(ValuesOp, values...) }

// Inspection

// OperatorOf returns the name of the constant operator of an application, or "" otherwise
func OperatorOf(t Type) string {
	app, ok := t.(*Application)
	if !ok {
		return ""
	}
	op, ok := app.Op.(*Constant)
	if !ok {
		return ""
	}
	return op.Name
}

// IsFunction reports whether t is an application of `->`
func IsFunction(t Type) bool {
	return OperatorOf(t) == FunctionOp && len(t.(*Application).Args) >= 3
}

// FunctionParts splits a function type into its components. ok is false if t is not a function.
func FunctionParts(t Type) (ctx Type, args []Type, effect Type, out Type, ok bool) {
	if !IsFunction(t) {
		return nil, nil, nil, nil, false
	}
	all := t.(*Application).Args
	n := len(all)
	return all[0], all[1 : n-2], all[n-2], all[n-1], true
}

// RowFields flattens a row into its fields, in order, and its tail
func RowFields(row Type) (fields []Field, tail Type) {
	for {
		ext, ok := row.(*RowExtension)
		if !ok {
			return fields, row
		}
		fields = append(fields, Field{Label: ext.Label, Type: ext.LabelType})
		row = ext.Tail
	}
}

// RowOf returns the row an application of record, cases or effect is built over
func RowOf(t Type) (Type, bool) {
	switch OperatorOf(t) {
	case RecordOp, CasesOp, EffectOp:
		args := t.(*Application).Args
		if len(args) == 1 {
			return args[0], true
		}
	}
	return nil, false
}

// BuiltinConstant returns the built-in constant called name, if there is one
func BuiltinConstant(name string) (*Constant, bool) {
	c, ok := builtinConstants[name]
	return c, ok
}
