package infer

import (
	"fmt"
	"log/slog"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// generator walks a tree bottom-up, giving every expression fresh types and
// collecting the constraints between them in the order they are found.
//
// Free variables are not looked up while walking: every reference to a name
// is returned to the caller as an assumption, the *ast.Identifier holding the
// fresh type of that reference. The binder of the name turns its assumptions
// into constraints.
type generator struct {
	fresher     *types.Fresher
	constraints []Constraint
	logger      *slog.Logger
}

func (g *generator) freshEffect() types.Type {
	return types.NewEffect(nil, g.fresher.Fresh())
}

func (g *generator) equal(found, expected types.Type, source ast.Expr) {
	g.constraints = append(g.constraints, &Equal{T1: found, T2: expected, Source: source})
}

// sameEffect makes evaluating child part of effect, the effect of its parent
func (g *generator) sameEffect(child ast.Expr, effect types.Type) {
	g.equal(child.TypeInfo().Effect, effect, child)
}

// monovarsWith returns monovars plus the variables of ts
func monovarsWith(monovars *set.Set[string], ts ...types.Type) *set.Set[string] {
	extended := monovars.Copy()
	for _, t := range ts {
		extended.InsertSet(types.FreeVars(t))
	}
	return extended
}

// discharge removes the assumptions on the names of binders, requiring each
// reference to have the type of its binder
func (g *generator) discharge(assumptions []*ast.Identifier, binders []*ast.Identifier) []*ast.Identifier {
	if len(binders) == 0 {
		return assumptions
	}
	byName := make(map[string]*ast.Identifier, len(binders))
	for _, b := range binders {
		byName[b.Name] = b
	}
	var free []*ast.Identifier
	for _, ref := range assumptions {
		binder, ok := byName[ref.Name]
		if !ok {
			free = append(free, ref)
			continue
		}
		g.equal(ref.ExpressionType, binder.ExpressionType, ref)
	}
	return free
}

// body generates a sequence of expressions evaluated with effect.
// It returns the assumptions of all of them and the last expression.
func (g *generator) body(exprs []ast.Expr, monovars *set.Set[string], effect types.Type) ([]*ast.Identifier, ast.Expr) {
	var assumptions []*ast.Identifier
	for _, e := range exprs {
		assumptions = append(assumptions, g.expr(e, monovars)...)
		g.sameEffect(e, effect)
	}
	if len(exprs) == 0 {
		return assumptions, nil
	}
	return assumptions, exprs[len(exprs)-1]
}

// resultOf sets the type of e to the one of last, the final expression of a body.
// An empty body evaluates to none.
func resultOf(e ast.Expr, last ast.Expr) {
	info := e.TypeInfo()
	if last == nil {
		info.ExpressionType = types.NoneType
		return
	}
	info.ExpressionType = last.TypeInfo().ExpressionType
	info.ResultingType = last.TypeInfo().ResultingType
}

// expr assigns types to e and its children, returning the assumptions made on free variables
func (g *generator) expr(e ast.Expr, monovars *set.Set[string]) []*ast.Identifier {
	info := e.TypeInfo()
	info.Effect = g.freshEffect()
	info.ResultingType = nil

	switch e := e.(type) {
	case *ast.NumberLiteral:
		info.ExpressionType = types.NumberType
		return nil

	case *ast.StringLiteral:
		info.ExpressionType = types.StringType
		return nil

	case *ast.BooleanLiteral:
		info.ExpressionType = types.BooleanType
		return nil

	case *ast.NoneLiteral:
		info.ExpressionType = types.NoneType
		return nil

	case *ast.Identifier:
		info.ExpressionType = g.fresher.Fresh()
		return []*ast.Identifier{e}

	case *ast.Lambda:
		params := make([]types.Type, len(e.Params))
		for i, p := range e.Params {
			params[i] = g.fresher.Fresh()
			p.ExpressionType = params[i]
		}
		// the body runs when the function is called, not when it is built
		bodyEffect := g.freshEffect()
		assumptions, last := g.body(e.Body, monovarsWith(monovars, params...), bodyEffect)
		assumptions = g.discharge(assumptions, e.Params)
		out := types.Type(types.NoneType)
		if last != nil {
			out = last.TypeInfo().ExpressionType
		}
		info.ExpressionType = types.NewFunction(g.fresher.Fresh(), params, bodyEffect, out)
		return assumptions

	case *ast.Call:
		assumptions := g.expr(e.Fn, monovars)
		params := make([]types.Type, len(e.Args))
		for i, arg := range e.Args {
			assumptions = append(assumptions, g.expr(arg, monovars)...)
			params[i] = g.fresher.Fresh()
		}
		info.ExpressionType = g.fresher.Fresh()
		g.equal(e.Fn.TypeInfo().ExpressionType, types.NewFunction(g.fresher.Fresh(), params, info.Effect, info.ExpressionType), e)
		for i, arg := range e.Args {
			g.equal(arg.TypeInfo().ExpressionType, params[i], arg)
		}
		g.sameEffect(e.Fn, info.Effect)
		for _, arg := range e.Args {
			g.sameEffect(arg, info.Effect)
		}
		return assumptions

	case *ast.Let:
		var assumptions []*ast.Identifier
		for _, b := range e.Bindings {
			assumptions = append(assumptions, g.expr(b.Value, monovars)...)
			b.Name.ExpressionType = b.Value.TypeInfo().ExpressionType
			g.sameEffect(b.Value, info.Effect)
		}
		bodyAssumptions, last := g.body(e.Body, monovars, info.Effect)
		resultOf(e, last)

		byName := make(map[string]*ast.LetBinding, len(e.Bindings))
		for _, b := range e.Bindings {
			byName[b.Name.Name] = b
		}
		for _, ref := range bodyAssumptions {
			b, ok := byName[ref.Name]
			if !ok {
				assumptions = append(assumptions, ref)
				continue
			}
			g.constraints = append(g.constraints, &ImplicitInstance{
				T:          ref.ExpressionType,
				Generalize: b.Value.TypeInfo().ExpressionType,
				Monovars:   monovars,
				Source:     ref,
			})
		}
		return assumptions

	case *ast.The:
		assumptions := g.expr(e.Value, monovars)
		info.ExpressionType = e.Value.TypeInfo().ExpressionType
		g.constraints = append(g.constraints, &ExplicitInstance{
			T:      info.ExpressionType,
			Schema: e.Annotation,
			Source: e,
		})
		g.sameEffect(e.Value, info.Effect)
		return assumptions

	case *ast.If:
		assumptions := g.expr(e.Cond, monovars)
		assumptions = append(assumptions, g.expr(e.Then, monovars)...)
		assumptions = append(assumptions, g.expr(e.Else, monovars)...)
		info.ExpressionType = e.Then.TypeInfo().ExpressionType
		g.equal(e.Cond.TypeInfo().ExpressionType, types.BooleanType, e.Cond)
		g.equal(e.Else.TypeInfo().ExpressionType, info.ExpressionType, e.Else)
		thenValues, elseValues := e.Then.TypeInfo().ResultingType, e.Else.TypeInfo().ResultingType
		if thenValues != nil && elseValues != nil {
			g.equal(elseValues, thenValues, e.Else)
			info.ResultingType = thenValues
		}
		g.sameEffect(e.Cond, info.Effect)
		g.sameEffect(e.Then, info.Effect)
		g.sameEffect(e.Else, info.Effect)
		return assumptions

	case *ast.Do:
		assumptions, last := g.body(e.Body, monovars, info.Effect)
		resultOf(e, last)
		return assumptions

	case *ast.VectorLiteral:
		elem := g.fresher.Fresh()
		var assumptions []*ast.Identifier
		for _, x := range e.Elems {
			assumptions = append(assumptions, g.expr(x, monovars)...)
			g.equal(x.TypeInfo().ExpressionType, elem, x)
			g.sameEffect(x, info.Effect)
		}
		info.ExpressionType = types.NewVector(elem)
		return assumptions

	case *ast.RecordLiteral:
		var assumptions []*ast.Identifier
		fields := make([]types.Field, len(e.Fields))
		for i, f := range e.Fields {
			assumptions = append(assumptions, g.expr(f.Value, monovars)...)
			fields[i] = types.Field{Label: f.Label, Type: f.Value.TypeInfo().ExpressionType}
			g.sameEffect(f.Value, info.Effect)
		}
		var tail types.Type
		if e.Extends != nil {
			assumptions = append(assumptions, g.expr(e.Extends, monovars)...)
			tail = g.fresher.Fresh()
			g.equal(e.Extends.TypeInfo().ExpressionType, types.NewRecord(nil, tail), e.Extends)
			g.sameEffect(e.Extends, info.Effect)
		}
		info.ExpressionType = types.NewRecord(fields, tail)
		return assumptions

	case *ast.FieldAccess:
		assumptions := g.expr(e.Record, monovars)
		info.ExpressionType = g.fresher.Fresh()
		record := types.NewRecord([]types.Field{{Label: e.Label, Type: info.ExpressionType}}, g.fresher.Fresh())
		g.equal(e.Record.TypeInfo().ExpressionType, record, e.Record)
		g.sameEffect(e.Record, info.Effect)
		return assumptions

	case *ast.Values:
		var assumptions []*ast.Identifier
		values := make([]types.Type, len(e.Values))
		for i, v := range e.Values {
			assumptions = append(assumptions, g.expr(v, monovars)...)
			values[i] = v.TypeInfo().ExpressionType
			g.sameEffect(v, info.Effect)
		}
		info.ExpressionType = types.NoneType
		if len(values) > 0 {
			info.ExpressionType = values[0]
		}
		info.ResultingType = types.NewValues(values...)
		return assumptions

	case *ast.MultipleValueBind:
		assumptions := g.expr(e.Form, monovars)
		g.sameEffect(e.Form, info.Effect)
		vars := make([]types.Type, len(e.Vars))
		for i, v := range e.Vars {
			vars[i] = g.fresher.Fresh()
			v.ExpressionType = vars[i]
		}
		formInfo := e.Form.TypeInfo()
		switch {
		case formInfo.ResultingType != nil:
			g.equal(formInfo.ResultingType, types.NewValues(vars...), e.Form)
		case len(vars) > 0:
			// a form returning a single value binds the rest of the names to none
			g.equal(formInfo.ExpressionType, vars[0], e.Form)
			for _, v := range e.Vars[1:] {
				g.equal(types.NoneType, v.ExpressionType, v)
			}
		}
		bodyAssumptions, last := g.body(e.Body, monovarsWith(monovars, vars...), info.Effect)
		resultOf(e, last)
		return append(assumptions, g.discharge(bodyAssumptions, e.Vars)...)

	case *ast.Case:
		var assumptions []*ast.Identifier
		valueType := types.Type(types.VoidType)
		if e.Value != nil {
			assumptions = g.expr(e.Value, monovars)
			valueType = e.Value.TypeInfo().ExpressionType
			g.sameEffect(e.Value, info.Effect)
		}
		info.ExpressionType = types.NewCases([]types.Field{{Label: e.Tag, Type: valueType}}, g.fresher.Fresh())
		return assumptions

	case *ast.Match:
		assumptions := g.expr(e.Value, monovars)
		g.sameEffect(e.Value, info.Effect)
		info.ExpressionType = g.fresher.Fresh()
		fields := make([]types.Field, len(e.Cases))
		for i, c := range e.Cases {
			fields[i] = types.Field{Label: c.Tag, Type: types.VoidType}
			var binders []*ast.Identifier
			caseMonovars := monovars
			if c.Var != nil {
				fields[i].Type = g.fresher.Fresh()
				c.Var.ExpressionType = fields[i].Type
				binders = append(binders, c.Var)
				caseMonovars = monovarsWith(monovars, fields[i].Type)
			}
			caseAssumptions, last := g.body(c.Body, caseMonovars, info.Effect)
			if last != nil {
				g.equal(last.TypeInfo().ExpressionType, info.ExpressionType, last)
			}
			assumptions = append(assumptions, g.discharge(caseAssumptions, binders)...)
		}
		var tail types.Type
		if e.Default != nil {
			tail = g.fresher.Fresh()
			defaultAssumptions, last := g.body(e.Default, monovars, info.Effect)
			if last != nil {
				g.equal(last.TypeInfo().ExpressionType, info.ExpressionType, last)
			}
			assumptions = append(assumptions, defaultAssumptions...)
		}
		g.equal(e.Value.TypeInfo().ExpressionType, types.NewCases(fields, tail), e.Value)
		return assumptions

	default:
		panic(fmt.Sprintf("unreachable: unknown expression %T", e))
	}
}

// reference is an assumption made by a top-level form
type reference struct {
	form int
	ref  *ast.Identifier
}

// module generates the constraints of every form of m.
// References to names that neither m nor env define are returned as unknowns,
// and left unconstrained.
func (g *generator) module(m *ast.Module, env *TypeEnv) (constraints []Constraint, unknowns []*ast.Identifier) {
	defined := make(map[string]int)
	definitions := make(map[string]*ast.Definition)
	var refs []reference
	noMonovars := set.New[string](0)

	for i, form := range m.Forms {
		switch form := form.(type) {
		case *ast.Definition:
			if _, ok := definitions[form.Name.Name]; ok {
				g.logger.Warn("name defined twice, using the last definition", "name", form.Name.Name)
			}
			defined[form.Name.Name] = i
			definitions[form.Name.Name] = form
			for _, ref := range g.expr(form.Value, noMonovars) {
				refs = append(refs, reference{form: i, ref: ref})
			}
			form.Name.ExpressionType = form.Value.TypeInfo().ExpressionType
		case *ast.ExprStatement:
			for _, ref := range g.expr(form.X, noMonovars) {
				refs = append(refs, reference{form: i, ref: ref})
			}
		case *ast.Export:
		default:
			panic(fmt.Sprintf("unreachable: unknown form %T", form))
		}
	}

	var external, internal []Constraint
	for _, r := range refs {
		if def, ok := definitions[r.ref.Name]; ok {
			defType := def.Value.TypeInfo().ExpressionType
			if r.form > defined[r.ref.Name] {
				internal = append(internal, &ImplicitInstance{T: r.ref.ExpressionType, Generalize: defType, Monovars: noMonovars, Source: r.ref})
			} else {
				internal = append(internal, &Equal{T1: r.ref.ExpressionType, T2: defType, Source: r.ref})
			}
			continue
		}
		if c, ok := g.external(r.ref, env); ok {
			external = append(external, c)
			continue
		}
		unknowns = append(unknowns, r.ref)
	}

	for _, form := range m.Forms {
		export, ok := form.(*ast.Export)
		if !ok {
			continue
		}
		for _, name := range export.Names {
			if def, ok := definitions[name.Name]; ok {
				name.ExpressionType = def.Value.TypeInfo().ExpressionType
				continue
			}
			unknowns = append(unknowns, name)
		}
	}

	constraints = make([]Constraint, 0, len(external)+len(g.constraints)+len(internal))
	constraints = append(constraints, external...)
	constraints = append(constraints, g.constraints...)
	return append(constraints, internal...), unknowns
}

// expression generates the constraints of a single expression, where free names come from env
func (g *generator) expression(e ast.Expr, env *TypeEnv) (constraints []Constraint, unknowns []*ast.Identifier) {
	var external []Constraint
	for _, ref := range g.expr(e, set.New[string](0)) {
		if c, ok := g.external(ref, env); ok {
			external = append(external, c)
			continue
		}
		unknowns = append(unknowns, ref)
	}
	return append(external, g.constraints...), unknowns
}

// external constrains a reference to a name of env, whose functions may be called
// from code with more effects than they declare
func (g *generator) external(ref *ast.Identifier, env *TypeEnv) (Constraint, bool) {
	schema, ok := env.Lookup(ref.Name)
	if !ok {
		return nil, false
	}
	return &ExplicitInstance{
		T:      ref.ExpressionType,
		Schema: types.OpenFunctionEffect(schema, g.fresher),
		Source: ref,
	}, true
}
