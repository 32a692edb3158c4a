package frontend

import (
	"fmt"
	"go/token"
	"log/slog"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/ilerr"
	"github.com/delisp/delisp/frontend/reader"
	"github.com/delisp/delisp/frontend/types"
	"github.com/delisp/delisp/internal/log"
)

const (
	DefineForm            = "define"
	ExportForm            = "export"
	LambdaForm            = "lambda"
	LetForm               = "let"
	TheForm               = "the"
	IfForm                = "if"
	DoForm                = "do"
	ValuesForm            = "values"
	MultipleValueBindForm = "multiple-value-bind"
	CaseForm              = "case"
	MatchForm             = "match"
	DefaultTag            = "default"
)

// ParseModule reads the source of a module and converts it to a tree.
// The file is added to fset so positions of the tree and of errors can be resolved.
//
// Forms that fail to convert are reported in the returned ilerr.Errors and
// left out of the module; a source that cannot be read at all returns a nil module.
func ParseModule(fset *token.FileSet, filename, src string) (*ast.Module, *ilerr.Errors) {
	file := fset.AddFile(filename, -1, len(src))
	file.SetLinesForContent([]byte(src))
	nodes, err := reader.ReadAll(src, file.Base())
	if err != nil {
		return nil, (&ilerr.Errors{}).With(readError(err))
	}

	c := newConverter()
	module := &ast.Module{Range: ast.Range{PosStart: token.Pos(file.Base()), PosEnd: token.Pos(file.Base() + len(src))}}
	for _, node := range nodes {
		form, ok := c.form(node)
		if ok {
			module.Forms = append(module.Forms, form)
		}
	}
	c.logger.Debug("parsed module", "file", filename, "forms", len(module.Forms), "errors", c.errs)
	return module, c.errs
}

// ParseExpr reads a single expression
func ParseExpr(src string) (ast.Expr, *ilerr.Errors) {
	node, err := reader.ReadOne(src)
	if err != nil {
		return nil, (&ilerr.Errors{}).With(readError(err))
	}
	c := newConverter()
	expr, ok := c.expr(node)
	if !ok {
		return nil, c.errs
	}
	return expr, c.errs
}

func readError(err error) ilerr.IleError {
	if syntaxErr, ok := err.(*reader.SyntaxError); ok {
		return ilerr.New(ilerr.NewParse{Positioner: ast.RangeOf(syntaxErr), ParserMessage: syntaxErr.Message})
	}
	return ilerr.New(ilerr.Unclassified{From: err})
}

type converter struct {
	// fresher names the wildcards of type annotations
	fresher *types.Fresher
	errs    *ilerr.Errors
	logger  *slog.Logger
}

func newConverter() *converter {
	return &converter{
		fresher: types.NewFresher(),
		logger:  log.DefaultLogger.With("section", "frontend"),
	}
}

func rangeOf(node reader.Node) ast.Range {
	return ast.Range{PosStart: node.Pos(), PosEnd: node.End()}
}

func (c *converter) fail(node reader.Node, format string, args ...any) {
	c.errs = c.errs.With(ilerr.New(ilerr.NewParse{
		Positioner:    rangeOf(node),
		ParserMessage: fmt.Sprintf(format, args...),
	}))
}

func (c *converter) failHint(node reader.Node, hint string, format string, args ...any) {
	c.errs = c.errs.With(ilerr.New(ilerr.NewParse{
		Positioner:    rangeOf(node),
		ParserMessage: fmt.Sprintf(format, args...),
		Hint:          hint,
	}))
}

func headSymbol(list *reader.List) string {
	if len(list.Elems) == 0 {
		return ""
	}
	if sym, ok := list.Elems[0].(*reader.Symbol); ok {
		return sym.Name
	}
	return ""
}

func (c *converter) form(node reader.Node) (ast.Form, bool) {
	list, ok := node.(*reader.List)
	if !ok {
		expr, ok := c.expr(node)
		return &ast.ExprStatement{X: expr}, ok
	}
	switch headSymbol(list) {
	case DefineForm:
		if len(list.Elems) != 3 {
			c.failHint(list, "(define name value)", "define takes a name and a value")
			return nil, false
		}
		name, ok := c.identifier(list.Elems[1])
		if !ok {
			return nil, false
		}
		value, ok := c.expr(list.Elems[2])
		if !ok {
			return nil, false
		}
		return &ast.Definition{Range: rangeOf(list), Name: name, Value: value}, true
	case ExportForm:
		export := &ast.Export{Range: rangeOf(list)}
		for _, elem := range list.Elems[1:] {
			name, ok := c.identifier(elem)
			if !ok {
				return nil, false
			}
			export.Names = append(export.Names, name)
		}
		return export, true
	}
	expr, ok := c.expr(node)
	return &ast.ExprStatement{X: expr}, ok
}

func (c *converter) identifier(node reader.Node) (*ast.Identifier, bool) {
	sym, ok := node.(*reader.Symbol)
	if !ok {
		c.fail(node, "expected a name, found %s", node.String())
		return nil, false
	}
	switch sym.Name {
	case "true", "false", "none", "|":
		c.fail(node, "'%s' cannot be used as a name", sym.Name)
		return nil, false
	}
	return &ast.Identifier{Range: rangeOf(sym), Name: sym.Name}, true
}

// exprs converts every node, reporting all failures
func (c *converter) exprs(nodes []reader.Node) ([]ast.Expr, bool) {
	exprs := make([]ast.Expr, 0, len(nodes))
	allOk := true
	for _, node := range nodes {
		expr, ok := c.expr(node)
		allOk = allOk && ok
		exprs = append(exprs, expr)
	}
	return exprs, allOk
}

// body converts the body of a form, which needs at least one expression
func (c *converter) body(form *reader.List, nodes []reader.Node) ([]ast.Expr, bool) {
	if len(nodes) == 0 {
		c.fail(form, "%s needs a body", headSymbol(form))
		return nil, false
	}
	return c.exprs(nodes)
}

func (c *converter) expr(node reader.Node) (ast.Expr, bool) {
	rng := rangeOf(node)
	switch n := node.(type) {
	case *reader.Number:
		return &ast.NumberLiteral{Range: rng, Syntax: n.Syntax, Value: n.Value}, true
	case *reader.String:
		return &ast.StringLiteral{Range: rng, Value: n.Value}, true
	case *reader.Symbol:
		switch n.Name {
		case "true", "false":
			return &ast.BooleanLiteral{Range: rng, Value: n.Name == "true"}, true
		case "none":
			return &ast.NoneLiteral{Range: rng}, true
		}
		return &ast.Identifier{Range: rng, Name: n.Name}, true
	case *reader.Keyword:
		c.failHint(n, "to read a field write (:"+n.Name+" record)", "unexpected keyword :%s", n.Name)
		return nil, false
	case *reader.Vector:
		elems, ok := c.exprs(n.Elems)
		return &ast.VectorLiteral{Range: rng, Elems: elems}, ok
	case *reader.Map:
		return c.record(n)
	case *reader.List:
		return c.list(n)
	default:
		c.fail(node, "unexpected %s", node.String())
		return nil, false
	}
}

func (c *converter) record(n *reader.Map) (ast.Expr, bool) {
	record := &ast.RecordLiteral{Range: rangeOf(n)}
	elems := n.Elems
	for i, elem := range elems {
		if reader.IsSymbol(elem, "|") {
			if i != len(elems)-2 {
				c.fail(elem, "'|' must be followed by exactly one record")
				return nil, false
			}
			base, ok := c.expr(elems[i+1])
			if !ok {
				return nil, false
			}
			record.Extends = base
			elems = elems[:i]
			break
		}
	}
	if len(elems)%2 != 0 {
		c.fail(n, "records need a value for every label")
		return nil, false
	}
	seen := make(map[string]struct{}, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		kw, ok := elems[i].(*reader.Keyword)
		if !ok {
			c.fail(elems[i], "record labels must be keywords, found %s", elems[i].String())
			return nil, false
		}
		if _, dup := seen[kw.Name]; dup {
			c.fail(kw, "duplicate label :%s", kw.Name)
			return nil, false
		}
		seen[kw.Name] = struct{}{}
		value, ok := c.expr(elems[i+1])
		if !ok {
			return nil, false
		}
		record.Fields = append(record.Fields, &ast.RecordField{Label: kw.Name, Value: value})
	}
	return record, true
}

func (c *converter) list(n *reader.List) (ast.Expr, bool) {
	rng := rangeOf(n)
	if len(n.Elems) == 0 {
		c.fail(n, "empty application")
		return nil, false
	}
	if kw, ok := n.Elems[0].(*reader.Keyword); ok {
		if len(n.Elems) != 2 {
			c.failHint(n, "(:label record)", "field access takes exactly one record")
			return nil, false
		}
		record, ok := c.expr(n.Elems[1])
		return &ast.FieldAccess{Range: rng, Label: kw.Name, Record: record}, ok
	}

	args := n.Elems[1:]
	switch headSymbol(n) {
	case LambdaForm:
		return c.lambda(n)
	case LetForm:
		return c.let(n)
	case TheForm:
		if len(args) != 2 {
			c.failHint(n, "(the type value)", "the takes a type and a value")
			return nil, false
		}
		schema, err := types.ConvertSchema(args[0], c.fresher)
		if err != nil {
			c.errs = c.errs.With(ilerr.New(ilerr.NewInvalidTypeSyntax{Positioner: rangeOf(args[0]), Message: err.Error()}))
			return nil, false
		}
		value, ok := c.expr(args[1])
		return &ast.The{Range: rng, Annotation: schema, Value: value}, ok
	case IfForm:
		if len(args) != 3 {
			c.failHint(n, "(if condition then else)", "if takes a condition and two branches")
			return nil, false
		}
		exprs, ok := c.exprs(args)
		if !ok {
			return nil, false
		}
		return &ast.If{Range: rng, Cond: exprs[0], Then: exprs[1], Else: exprs[2]}, true
	case DoForm:
		body, ok := c.body(n, args)
		return &ast.Do{Range: rng, Body: body}, ok
	case ValuesForm:
		values, ok := c.exprs(args)
		return &ast.Values{Range: rng, Values: values}, ok
	case MultipleValueBindForm:
		return c.multipleValueBind(n)
	case CaseForm:
		return c.caseExpr(n)
	case MatchForm:
		return c.match(n)
	case DefineForm, ExportForm:
		c.fail(n, "%s is only allowed at the top level of a module", headSymbol(n))
		return nil, false
	}

	fn, ok := c.expr(n.Elems[0])
	if !ok {
		return nil, false
	}
	callArgs, ok := c.exprs(args)
	return &ast.Call{Range: rng, Fn: fn, Args: callArgs}, ok
}

// names converts a list of distinct names, like the parameters of a lambda
func (c *converter) names(node reader.Node) ([]*ast.Identifier, bool) {
	list, ok := node.(*reader.List)
	if !ok {
		c.fail(node, "expected a list of names, found %s", node.String())
		return nil, false
	}
	var names []*ast.Identifier
	seen := make(map[string]struct{}, len(list.Elems))
	for _, elem := range list.Elems {
		name, ok := c.identifier(elem)
		if !ok {
			return nil, false
		}
		if _, dup := seen[name.Name]; dup {
			c.fail(elem, "duplicate name %s", name.Name)
			return nil, false
		}
		seen[name.Name] = struct{}{}
		names = append(names, name)
	}
	return names, true
}

func (c *converter) lambda(n *reader.List) (ast.Expr, bool) {
	if len(n.Elems) < 2 {
		c.failHint(n, "(lambda (params...) body...)", "lambda needs a parameter list")
		return nil, false
	}
	params, ok := c.names(n.Elems[1])
	if !ok {
		return nil, false
	}
	body, ok := c.body(n, n.Elems[2:])
	return &ast.Lambda{Range: rangeOf(n), Params: params, Body: body}, ok
}

func (c *converter) let(n *reader.List) (ast.Expr, bool) {
	if len(n.Elems) < 2 {
		c.failHint(n, "(let {name value...} body...)", "let needs bindings")
		return nil, false
	}
	bindings, ok := n.Elems[1].(*reader.Map)
	if !ok || len(bindings.Elems)%2 != 0 {
		c.failHint(n.Elems[1], "{name value...}", "let bindings must be a map of names to values")
		return nil, false
	}
	let := &ast.Let{Range: rangeOf(n)}
	seen := make(map[string]struct{}, len(bindings.Elems)/2)
	for i := 0; i < len(bindings.Elems); i += 2 {
		name, ok := c.identifier(bindings.Elems[i])
		if !ok {
			return nil, false
		}
		if _, dup := seen[name.Name]; dup {
			c.fail(bindings.Elems[i], "duplicate name %s", name.Name)
			return nil, false
		}
		seen[name.Name] = struct{}{}
		value, ok := c.expr(bindings.Elems[i+1])
		if !ok {
			return nil, false
		}
		let.Bindings = append(let.Bindings, &ast.LetBinding{Name: name, Value: value})
	}
	body, ok := c.body(n, n.Elems[2:])
	let.Body = body
	return let, ok
}

func (c *converter) multipleValueBind(n *reader.List) (ast.Expr, bool) {
	if len(n.Elems) < 3 {
		c.failHint(n, "(multiple-value-bind (names...) form body...)", "multiple-value-bind needs names and a form")
		return nil, false
	}
	vars, ok := c.names(n.Elems[1])
	if !ok {
		return nil, false
	}
	form, ok := c.expr(n.Elems[2])
	if !ok {
		return nil, false
	}
	body, ok := c.body(n, n.Elems[3:])
	return &ast.MultipleValueBind{Range: rangeOf(n), Vars: vars, Form: form, Body: body}, ok
}

func (c *converter) caseExpr(n *reader.List) (ast.Expr, bool) {
	if len(n.Elems) != 2 && len(n.Elems) != 3 {
		c.failHint(n, "(case :tag value)", "case takes a tag and an optional value")
		return nil, false
	}
	tag, ok := n.Elems[1].(*reader.Keyword)
	if !ok {
		c.fail(n.Elems[1], "expected a tag, found %s", n.Elems[1].String())
		return nil, false
	}
	variant := &ast.Case{Range: rangeOf(n), Tag: tag.Name}
	if len(n.Elems) == 3 {
		value, ok := c.expr(n.Elems[2])
		if !ok {
			return nil, false
		}
		variant.Value = value
	}
	return variant, true
}

func (c *converter) match(n *reader.List) (ast.Expr, bool) {
	if len(n.Elems) < 3 {
		c.failHint(n, "(match value ((:tag name) body...)...)", "match needs a value and at least one case")
		return nil, false
	}
	value, ok := c.expr(n.Elems[1])
	if !ok {
		return nil, false
	}
	match := &ast.Match{Range: rangeOf(n), Value: value}
	seen := make(map[string]struct{})
	for _, clauseNode := range n.Elems[2:] {
		clause, ok := clauseNode.(*reader.List)
		if !ok || len(clause.Elems) < 2 {
			c.failHint(clauseNode, "((:tag name) body...)", "invalid match case")
			return nil, false
		}
		matchCase := &ast.MatchCase{Range: rangeOf(clause)}
		switch pattern := clause.Elems[0].(type) {
		case *reader.Keyword:
			matchCase.Tag = pattern.Name
		case *reader.List:
			if len(pattern.Elems) != 2 {
				c.failHint(pattern, "(:tag name)", "invalid match pattern")
				return nil, false
			}
			tag, isTag := pattern.Elems[0].(*reader.Keyword)
			if !isTag {
				c.failHint(pattern, "(:tag name)", "invalid match pattern")
				return nil, false
			}
			name, ok := c.identifier(pattern.Elems[1])
			if !ok {
				return nil, false
			}
			matchCase.Tag = tag.Name
			matchCase.Var = name
		default:
			c.failHint(pattern, "(:tag name)", "invalid match pattern")
			return nil, false
		}
		if _, dup := seen[matchCase.Tag]; dup {
			c.fail(clause, "duplicate case :%s", matchCase.Tag)
			return nil, false
		}
		seen[matchCase.Tag] = struct{}{}
		body, ok := c.exprs(clause.Elems[1:])
		if !ok {
			return nil, false
		}
		if matchCase.Tag == DefaultTag && matchCase.Var == nil {
			match.Default = body
			continue
		}
		matchCase.Body = body
		match.Cases = append(match.Cases, matchCase)
	}
	return match, true
}
