package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ToTypeScript renders a TypeScript declaration of name with the type schema.
// Bound variables of functions become generic parameters T1, T2... in the
// order they appear, effects and the function context are dropped, and
// variants become tagged unions. Other variables are `unknown`.
func ToTypeScript(name string, schema TypeSchema) string {
	_, args, _, out, ok := FunctionParts(schema.Body)
	if !ok {
		plain := tsPrinter{}
		return fmt.Sprintf("export declare const %s: %s;", name, plain.print(schema.Body))
	}

	p := tsPrinter{generics: make(map[string]string, len(schema.BoundVars))}
	for _, bound := range schema.BoundVars {
		p.generics[bound] = ""
	}
	declaration := fmt.Sprintf("(%s): %s", p.params(args), p.print(out))
	params := ""
	if len(p.order) > 0 {
		params = "<" + strings.Join(p.order, ", ") + ">"
	}
	return fmt.Sprintf("export declare function %s%s%s;", name, params, declaration)
}

type tsPrinter struct {
	// generics maps bound variables to their parameter name, once printed
	generics map[string]string
	order    []string
}

func (p *tsPrinter) params(args []Type) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("p%d: %s", i, p.print(arg))
	}
	return strings.Join(parts, ", ")
}

func (p *tsPrinter) print(t Type) string {
	switch t := t.(type) {
	case *Var:
		generic, bound := p.generics[t.Name]
		if !bound {
			return "unknown"
		}
		if generic == "" {
			generic = "T" + strconv.Itoa(len(p.order)+1)
			p.generics[t.Name] = generic
			p.order = append(p.order, generic)
		}
		return generic
	case *Constant:
		switch t.Name {
		case NoneName:
			return "undefined"
		case VoidName:
			return "void"
		}
		return t.Name
	case EmptyRow, *RowExtension:
		return "never"
	case *Application:
		return p.application(t)
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", t))
	}
}

func (p *tsPrinter) application(t *Application) string {
	switch OperatorOf(t) {
	case FunctionOp:
		if _, args, _, out, ok := FunctionParts(t); ok {
			return fmt.Sprintf("((%s) => %s)", p.params(args), p.print(out))
		}
	case VectorOp:
		if len(t.Args) == 1 {
			return fmt.Sprintf("Array<%s>", p.print(t.Args[0]))
		}
	case RecordOp:
		if row, ok := RowOf(t); ok {
			fields, _ := RowFields(row)
			parts := make([]string, len(fields))
			for i, f := range fields {
				parts[i] = fmt.Sprintf("%s: %s", strconv.Quote(f.Label), p.print(f.Type))
			}
			return "{ " + strings.Join(parts, "; ") + " }"
		}
	case CasesOp:
		if row, ok := RowOf(t); ok {
			fields, _ := RowFields(row)
			if len(fields) == 0 {
				return "never"
			}
			parts := make([]string, len(fields))
			for i, f := range fields {
				if c, ok := f.Type.(*Constant); ok && c.Name == VoidName {
					parts[i] = fmt.Sprintf("{ tag: %s }", strconv.Quote(f.Label))
					continue
				}
				parts[i] = fmt.Sprintf("{ tag: %s; value: %s }", strconv.Quote(f.Label), p.print(f.Type))
			}
			return strings.Join(parts, " | ")
		}
	case EffectOp:
		return "never"
	case ValuesOp:
		if len(t.Args) == 0 {
			return "undefined"
		}
		return p.print(t.Args[0])
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = p.print(arg)
	}
	if len(args) == 0 {
		return p.print(t.Op)
	}
	return fmt.Sprintf("%s<%s>", p.print(t.Op), strings.Join(args, ", "))
}
