package types

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// String prints t in the canonical syntax read back by ConvertType.
// Variables keep their names; the context argument of functions is not printed.
func String(t Type) string {
	p := printer{varName: func(name string) string { return name }}
	p.print(t)
	return p.sb.String()
}

// Pretty prints t like String, but renames variables to a, b, c... in the
// order they are printed, for reporting to users
func Pretty(t Type) string {
	var order []string
	names := make(map[string]string)
	collect := printer{varName: func(name string) string {
		if _, ok := names[name]; !ok {
			names[name] = prettyName(len(order))
			order = append(order, name)
		}
		return name
	}}
	collect.print(t)

	p := printer{varName: func(name string) string { return names[name] }}
	p.print(t)
	return p.sb.String()
}

// PrettySchema prints the body of schema like Pretty
func PrettySchema(schema TypeSchema) string {
	return Pretty(schema.Body)
}

func prettyName(i int) string {
	letter := string(rune('a' + i%26))
	if i < 26 {
		return letter
	}
	return letter + strconv.Itoa(i/26)
}

type printer struct {
	sb      strings.Builder
	varName func(string) string
}

func (p *printer) print(t Type) {
	switch t := t.(type) {
	case *Var:
		if IsWildcard(t.Name) {
			p.sb.WriteString(WildcardPrefix)
			return
		}
		p.sb.WriteString(p.varName(t.Name))
	case *Constant:
		p.sb.WriteString(t.Name)
	case EmptyRow, *RowExtension:
		p.row("{", t, "}", p.recordField)
	case *Application:
		p.application(t)
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", t))
	}
}

func (p *printer) application(t *Application) {
	op := OperatorOf(t)
	switch {
	case op == FunctionOp && IsFunction(t):
		_, args, effect, out, _ := FunctionParts(t)
		p.sb.WriteString("(->")
		for _, arg := range args {
			p.sb.WriteByte(' ')
			p.print(arg)
		}
		p.sb.WriteByte(' ')
		p.print(effect)
		p.sb.WriteByte(' ')
		p.print(out)
		p.sb.WriteByte(')')
		return
	case op == VectorOp && len(t.Args) == 1:
		p.sb.WriteByte('[')
		p.print(t.Args[0])
		p.sb.WriteByte(']')
		return
	case op == RecordOp && len(t.Args) == 1:
		p.row("{", t.Args[0], "}", p.recordField)
		return
	case op == EffectOp && len(t.Args) == 1:
		p.row("(effect", t.Args[0], ")", p.effectLabel)
		return
	case op == CasesOp && len(t.Args) == 1:
		p.row("(cases", t.Args[0], ")", p.casesField)
		return
	}
	p.sb.WriteByte('(')
	p.print(t.Op)
	for _, arg := range t.Args {
		p.sb.WriteByte(' ')
		p.print(arg)
	}
	p.sb.WriteByte(')')
}

// row prints the fields of row between open and close, followed by `| tail` when the row is open
func (p *printer) row(open string, row Type, close string, field func(Field)) {
	fields, tail := RowFields(row)
	p.sb.WriteString(open)
	first := open == "{"
	for _, f := range fields {
		if !first {
			p.sb.WriteByte(' ')
		}
		first = false
		field(f)
	}
	if _, closed := tail.(EmptyRow); !closed {
		if !first {
			p.sb.WriteByte(' ')
		}
		p.sb.WriteString("| ")
		p.print(tail)
	}
	p.sb.WriteString(close)
}

func (p *printer) recordField(f Field) {
	p.sb.WriteByte(':')
	p.sb.WriteString(f.Label)
	p.sb.WriteByte(' ')
	p.print(f.Type)
}

func (p *printer) effectLabel(f Field) {
	p.sb.WriteString(f.Label)
}

func (p *printer) casesField(f Field) {
	if c, ok := f.Type.(*Constant); ok && c.Name == VoidName {
		p.sb.WriteByte(':')
		p.sb.WriteString(f.Label)
		return
	}
	p.sb.WriteString("(:")
	p.sb.WriteString(f.Label)
	p.sb.WriteByte(' ')
	p.print(f.Type)
	p.sb.WriteByte(')')
}

// Slog wraps a Type as a slog.LogValuer so it is only printed if the record is logged
func Slog(t Type) slog.LogValuer {
	return typeLogValuer{t}
}

type typeLogValuer struct{ Type }

func (l typeLogValuer) LogValue() slog.Value {
	if l.Type == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(String(l.Type))
}
