package types

import (
	"strconv"

	"github.com/hashicorp/go-set/v3"
)

// Fresher keeps track of new variable names.
// Names are unique for the lifetime of a Fresher and never reused.
type Fresher struct {
	freshCount uint64
}

func NewFresher() *Fresher {
	return &Fresher{}
}

// FreshName returns a variable name not returned before: t1, t2...
func (f *Fresher) FreshName() string {
	f.freshCount++
	return "t" + strconv.FormatUint(f.freshCount, 10)
}

func (f *Fresher) Fresh() *Var {
	return &Var{Name: f.FreshName()}
}

// FreshWildcard returns a new variable standing for `_` in an annotation
func (f *Fresher) FreshWildcard() *Var {
	return &Var{Name: WildcardPrefix + f.FreshName(), UserSpecified: true}
}

// FreeVars returns the set of variable names in t
func FreeVars(t Type) *set.Set[string] {
	return set.From(ListTypeVariables(t))
}

// Generalize quantifies t over every variable not in monovars.
// A nil monovars generalizes every variable.
func Generalize(t Type, monovars *set.Set[string]) TypeSchema {
	var bound []string
	for _, name := range ListTypeVariables(t) {
		if monovars == nil || !monovars.Contains(name) {
			bound = append(bound, name)
		}
	}
	return NewTypeSchema(bound, t)
}

// Instantiate replaces the bound variables of schema with fresh ones
func Instantiate(schema TypeSchema, fresher *Fresher, userSpecified bool) Type {
	if len(schema.BoundVars) == 0 {
		return schema.Body
	}
	fresh := make(map[string]Type, len(schema.BoundVars))
	for _, name := range schema.BoundVars {
		fresh[name] = &Var{Name: fresher.FreshName(), UserSpecified: userSpecified}
	}
	return Apply(schema.Body, NewSubstitution(fresh))
}

// OpenFunctionEffect gives a function with a closed effect a new bound tail
// variable, so it can be called from code with more effects.
// Functions returned by the function are opened too.
func OpenFunctionEffect(schema TypeSchema, fresher *Fresher) TypeSchema {
	bound := schema.BoundVars
	body := openFunctionEffect(schema.Body, fresher, &bound)
	if len(bound) == len(schema.BoundVars) {
		return schema
	}
	return NewTypeSchema(bound, body)
}

func openFunctionEffect(t Type, fresher *Fresher, bound *[]string) Type {
	ctx, args, effect, out, ok := FunctionParts(t)
	if !ok {
		return t
	}
	openOut := openFunctionEffect(out, fresher, bound)
	openEffect := effect
	if row, ok := RowOf(effect); ok && OperatorOf(effect) == EffectOp {
		fields, tail := RowFields(row)
		if _, closed := tail.(EmptyRow); closed {
			v := fresher.Fresh()
			*bound = append(*bound, v.Name)
			openEffect = NewApplication(EffectOp, NewRow(fields, v))
		}
	}
	if openOut == out && openEffect == effect {
		return t
	}
	return NewFunction(ctx, args, openEffect, openOut)
}

// CloseFunctionEffect closes every effect row whose tail variable occurs
// nowhere else in t
func CloseFunctionEffect(t Type) Type {
	occurrences := make(map[string]int)
	Walk(t, func(t Type) {
		if v, ok := t.(*Var); ok {
			occurrences[v.Name]++
		}
	})
	return TransformRecur(t, func(t Type) Type {
		if OperatorOf(t) != EffectOp {
			return t
		}
		row, ok := RowOf(t)
		if !ok {
			return t
		}
		fields, tail := RowFields(row)
		if v, ok := tail.(*Var); ok && occurrences[v.Name] == 1 {
			return NewApplication(EffectOp, NewRow(fields, EmptyRow{}))
		}
		return t
	})
}

// CloseFunctionEffectSchema is CloseFunctionEffect on the body of schema,
// dropping the bound variables closing removed
func CloseFunctionEffectSchema(schema TypeSchema) TypeSchema {
	return NewTypeSchema(schema.BoundVars, CloseFunctionEffect(schema.Body))
}
