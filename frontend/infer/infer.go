package infer

import (
	"log/slog"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/ilerr"
	"github.com/delisp/delisp/frontend/types"
	"github.com/delisp/delisp/internal/log"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
)

// Settings configure an InferenceContext
type Settings struct {
	// Strict reports references to unknown names as errors.
	// Otherwise they are only listed in Result.Unknowns.
	Strict bool
	// Logger defaults to log.DefaultLogger
	Logger *slog.Logger
}

// InferenceContext is a type inference session.
// Type variables created by a session are never reused within it, so the
// types of different modules checked by the same session never clash.
//
// A session is not safe for concurrent use; use a session per goroutine.
type InferenceContext struct {
	settings Settings
	fresher  *types.Fresher
	logger   *slog.Logger
	solver   solver
}

func NewContext(settings Settings) *InferenceContext {
	logger := settings.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	fresher := types.NewFresher()
	return &InferenceContext{
		settings: settings,
		fresher:  fresher,
		logger:   ast.ExprLogger(logger.With("section", "infer")),
		solver:   newSolver(fresher, logger),
	}
}

// Fresher is the source of the type variables of this session
func (ctx *InferenceContext) Fresher() *types.Fresher {
	return ctx.fresher
}

// Result is a successfully typed tree.
// The nodes of the tree hold their final types in their ast.Info.
type Result struct {
	// Module is set when a module was inferred
	Module *ast.Module
	// Expr is set when a single expression was inferred
	Expr ast.Expr
	// Substitution solves every constraint of the tree
	Substitution types.Substitution
	// Definitions holds the generalized type of each top-level definition
	Definitions map[string]types.TypeSchema
	// Unknowns are the references to names defined neither in the tree nor in its environment
	Unknowns []*ast.Identifier
}

// Type is the type of the inferred expression, with the effects of functions
// closed where nothing else refers to them
func (r *Result) Type() types.Type {
	if r.Expr == nil {
		return nil
	}
	return types.CloseFunctionEffect(r.Expr.TypeInfo().ExpressionType)
}

// UnknownNames lists the names of Unknowns, sorted and without duplicates
func (r *Result) UnknownNames() []string {
	names := make([]string, len(r.Unknowns))
	for i, ref := range r.Unknowns {
		names[i] = ref.Name
	}
	return set.Strings(names)
}

// Exported returns the definitions visible to other modules with their types: the names
// of the export forms of the module, or every definition when the module exports nothing
func (r *Result) Exported() map[string]types.TypeSchema {
	if r.Module == nil {
		return nil
	}
	names, found := r.Module.Exports()
	if !found {
		return r.Definitions
	}
	exported := make(map[string]types.TypeSchema, len(names))
	for _, name := range names {
		if schema, ok := r.Definitions[name.Name]; ok {
			exported[name.Name] = schema
		}
	}
	return exported
}

// InferModule types every form of m, where names not defined in m come from env.
//
// Type errors are reported in the returned ilerr.Errors, and then the result is nil.
// The returned error is only set for failures unrelated to the program being typed.
func (ctx *InferenceContext) InferModule(m *ast.Module, env *TypeEnv) (*Result, *ilerr.Errors, error) {
	g := &generator{fresher: ctx.fresher, logger: ctx.logger}
	constraints, unknowns := g.module(m, env)
	ctx.logger.Debug("generated module constraints", "constraints", len(constraints), "unknowns", len(unknowns))

	s, errs, err := ctx.solve(constraints)
	if err != nil || errs.HasError() {
		return nil, errs, err
	}

	s = ctx.renameWildcards(s, func(visit func(ast.Expr) bool) { ast.WalkModule(m, visit) })
	ast.WalkModule(m, applyTo(s))
	errs = errs.Merge(checkAnnotations(m))
	errs = errs.Merge(ctx.unknownErrors(unknowns))

	definitions := make(map[string]types.TypeSchema)
	for _, def := range m.Definitions() {
		schema := types.Generalize(def.Value.TypeInfo().ExpressionType, nil)
		definitions[def.Name.Name] = types.CloseFunctionEffectSchema(schema)
		ctx.logger.Debug("inferred definition", "name", def.Name.Name, "type", definitions[def.Name.Name])
	}
	return &Result{
		Module:       m,
		Substitution: s,
		Definitions:  definitions,
		Unknowns:     unknowns,
	}, errs, nil
}

// InferExpression types e, where free names come from env
func (ctx *InferenceContext) InferExpression(e ast.Expr, env *TypeEnv) (*Result, *ilerr.Errors, error) {
	g := &generator{fresher: ctx.fresher, logger: ctx.logger}
	constraints, unknowns := g.expression(e, env)
	ctx.logger.Debug("generated expression constraints", "expr", e, "constraints", len(constraints))

	s, errs, err := ctx.solve(constraints)
	if err != nil || errs.HasError() {
		return nil, errs, err
	}

	s = ctx.renameWildcards(s, func(visit func(ast.Expr) bool) { ast.Walk(e, visit) })
	ast.Walk(e, applyTo(s))
	errs = errs.Merge(checkAnnotationsOf(e))
	errs = errs.Merge(ctx.unknownErrors(unknowns))
	ctx.logger.Debug("inferred expression", "expr", e, "type", e.TypeInfo().ExpressionType)
	return &Result{
		Expr:         e,
		Substitution: s,
		Unknowns:     unknowns,
	}, errs, nil
}

// solve splits the failures of Solve into type errors and internal errors
func (ctx *InferenceContext) solve(constraints []Constraint) (types.Substitution, *ilerr.Errors, error) {
	s, err := ctx.solver.solve(constraints, types.Substitution{})
	if err == nil {
		return s.Resolve(), nil, nil
	}
	var solveErr *SolveError
	if errors.As(err, &solveErr) {
		ctx.logger.Debug("type error", "constraint", solveErr.Constraint.String(), "at", solveErr.Constraint.Origin(), "err", solveErr.Err)
		return s, (&ilerr.Errors{}).With(ilerr.FromUnification(solveErr.Err, solveErr.Constraint.Origin())), nil
	}
	return s, nil, errors.Wrap(err, "solving constraints")
}

func (ctx *InferenceContext) unknownErrors(unknowns []*ast.Identifier) *ilerr.Errors {
	if !ctx.settings.Strict {
		return nil
	}
	var errs *ilerr.Errors
	for _, ref := range unknowns {
		errs = errs.With(ilerr.New(ilerr.NewUndefinedVariable{Positioner: ref, Name: ref.Name}))
	}
	return errs
}

// renameWildcards extends s so the wildcard variables of annotations still
// free in the solved tree become ordinary fresh variables. Wildcards print
// as `_`, which would lose the sharing of a wildcard met in two places.
func (ctx *InferenceContext) renameWildcards(s types.Substitution, walk func(func(ast.Expr) bool)) types.Substitution {
	renames := make(map[string]types.Type)
	walk(func(e ast.Expr) bool {
		info := e.TypeInfo()
		for _, t := range []types.Type{info.ExpressionType, info.ResultingType, info.Effect} {
			if t == nil {
				continue
			}
			for _, name := range types.ListTypeVariables(types.Apply(t, s)) {
				if _, done := renames[name]; !done && types.IsWildcard(name) {
					renames[name] = ctx.fresher.Fresh()
				}
			}
		}
		return true
	})
	if len(renames) == 0 {
		return s
	}
	ctx.logger.Debug("renamed wildcards", "count", len(renames))
	return types.NewSubstitution(renames).Compose(s)
}

func applyTo(s types.Substitution) func(ast.Expr) bool {
	return func(e ast.Expr) bool {
		e.TypeInfo().Apply(s)
		return true
	}
}

func checkAnnotations(m *ast.Module) *ilerr.Errors {
	var errs *ilerr.Errors
	for _, form := range m.Forms {
		switch form := form.(type) {
		case *ast.Definition:
			errs = errs.Merge(checkAnnotationsOf(form.Value))
		case *ast.ExprStatement:
			errs = errs.Merge(checkAnnotationsOf(form.X))
		}
	}
	return errs
}

// checkAnnotationsOf reports annotations in e that are more general than the
// type inferred for the expression they annotate
func checkAnnotationsOf(e ast.Expr) *ilerr.Errors {
	var errs *ilerr.Errors
	ast.Walk(e, func(e ast.Expr) bool {
		the, ok := e.(*ast.The)
		if !ok {
			return true
		}
		inferred := the.Value.TypeInfo().ExpressionType
		if !types.MatchesAnnotation(the.Annotation.Body, inferred) {
			errs = errs.With(ilerr.New(ilerr.NewAnnotationTooGeneral{
				Positioner: the,
				Annotation: the.Annotation.Body,
				Inferred:   inferred,
			}))
		}
		return true
	})
	return errs
}
