package reader

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError is returned when the source is not a well-formed sequence of s-expressions
type SyntaxError struct {
	Message string
	Range
}

func (e *SyntaxError) Error() string {
	return e.Message
}

type reader struct {
	src  string
	off  int
	base int
}

// ReadAll reads every s-expression in src. Positions are reported relative to
// base, which should be the base of the token.File src belongs to (or 1 when
// there is none).
func ReadAll(src string, base int) ([]Node, error) {
	r := &reader{src: src, base: base}
	var nodes []Node
	for {
		r.skipSpace()
		if r.eof() {
			return nodes, nil
		}
		n, err := r.read()
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, n)
	}
}

// ReadOne reads a single s-expression and fails if anything but whitespace follows it
func ReadOne(src string) (Node, error) {
	nodes, err := ReadAll(src, 1)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, &SyntaxError{
			Message: fmt.Sprintf("expected exactly one expression, found %d", len(nodes)),
			Range:   Range{token.Pos(1), token.Pos(1 + len(src))},
		}
	}
	return nodes[0], nil
}

func (r *reader) pos(off int) token.Pos { return token.Pos(r.base + off) }

func (r *reader) eof() bool { return r.off >= len(r.src) }

func (r *reader) peek() rune {
	ch, _ := utf8.DecodeRuneInString(r.src[r.off:])
	return ch
}

func (r *reader) errorf(start int, format string, args ...any) error {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Range:   Range{r.pos(start), r.pos(r.off)},
	}
}

func (r *reader) skipSpace() {
	for !r.eof() {
		ch := r.peek()
		switch {
		case ch == ';':
			for !r.eof() && r.src[r.off] != '\n' {
				r.off++
			}
		case unicode.IsSpace(ch) || ch == ',':
			r.off += utf8.RuneLen(ch)
		default:
			return
		}
	}
}

func (r *reader) read() (Node, error) {
	start := r.off
	switch ch := r.peek(); ch {
	case '(':
		elems, err := r.readSeq(')')
		return &List{Elems: elems, Range: Range{r.pos(start), r.pos(r.off)}}, err
	case '[':
		elems, err := r.readSeq(']')
		return &Vector{Elems: elems, Range: Range{r.pos(start), r.pos(r.off)}}, err
	case '{':
		elems, err := r.readSeq('}')
		return &Map{Elems: elems, Range: Range{r.pos(start), r.pos(r.off)}}, err
	case ')', ']', '}':
		r.off++
		return nil, r.errorf(start, "unexpected '%c'", ch)
	case '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readSeq(close byte) ([]Node, error) {
	start := r.off
	r.off++
	var elems []Node
	for {
		r.skipSpace()
		if r.eof() {
			return elems, r.errorf(start, "missing closing '%c'", close)
		}
		if r.src[r.off] == close {
			r.off++
			return elems, nil
		}
		elem, err := r.read()
		if err != nil {
			return elems, err
		}
		elems = append(elems, elem)
	}
}

func (r *reader) readString() (Node, error) {
	start := r.off
	r.off++
	sb := strings.Builder{}
	for {
		if r.eof() {
			return nil, r.errorf(start, "unterminated string")
		}
		ch := r.src[r.off]
		r.off++
		switch ch {
		case '"':
			return &String{Value: sb.String(), Range: Range{r.pos(start), r.pos(r.off)}}, nil
		case '\\':
			if r.eof() {
				return nil, r.errorf(start, "unterminated string")
			}
			esc := r.src[r.off]
			r.off++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(esc)
			default:
				return nil, r.errorf(start, "unknown escape sequence '\\%c'", esc)
			}
		default:
			sb.WriteByte(ch)
		}
	}
}

func isDelimiter(ch rune) bool {
	return unicode.IsSpace(ch) || strings.ContainsRune("()[]{}\",;", ch)
}

func (r *reader) readAtom() (Node, error) {
	start := r.off
	for !r.eof() && !isDelimiter(r.peek()) {
		r.off += utf8.RuneLen(r.peek())
	}
	text := r.src[start:r.off]
	rng := Range{r.pos(start), r.pos(r.off)}
	if text == "" {
		r.off++
		return nil, r.errorf(start, "unexpected character")
	}
	if strings.HasPrefix(text, ":") {
		if len(text) == 1 {
			return nil, r.errorf(start, "empty keyword")
		}
		return &Keyword{Name: text[1:], Range: rng}, nil
	}
	if looksNumeric(text) {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, r.errorf(start, "invalid number '%s'", text)
		}
		return &Number{Syntax: text, Value: value, Range: rng}, nil
	}
	return &Symbol{Name: text, Range: rng}, nil
}

func looksNumeric(text string) bool {
	digits := strings.TrimLeft(text, "+-")
	if digits == "" || len(text)-len(digits) > 1 {
		return false
	}
	ch := digits[0]
	return ch >= '0' && ch <= '9' || ch == '.' && len(digits) > 1 && digits[1] >= '0' && digits[1] <= '9'
}
