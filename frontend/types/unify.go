package types

import (
	"fmt"
)

// OccursCheckError is returned when binding Var to Type would build an infinite type
type OccursCheckError struct {
	Var  *Var
	Type Type
}

func (e *OccursCheckError) Error() string {
	return fmt.Sprintf("type variable %s occurs in %s", e.Var.Name, String(e.Type))
}

// MismatchError is returned when two types have incompatible structure
type MismatchError struct {
	Left  Type
	Right Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s is not %s", String(e.Left), String(e.Right))
}

// MissingValueError is returned when a closed row lacks Label.
// Row is wrapped in the record, effect or variant it belongs to when known.
type MissingValueError struct {
	Label string
	Row   Type
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("label %s is missing from %s", e.Label, String(e.Row))
}

// Unify extends s with the bindings that make t1 and t2 equal.
//
// Both types are seen through s first. Rows are unified by label: each field
// of one row is looked up in the other, which is extended through its tail
// variable when the label is not there yet. The variables created for that
// come from fresher.
// On failure the error is an *OccursCheckError, a *MismatchError or a
// *MissingValueError, and s is returned unchanged.
func Unify(t1, t2 Type, s Substitution, fresher *Fresher) (Substitution, error) {
	u := unifier{fresher: fresher}
	result, err := u.unify(t1, t2, s)
	if err != nil {
		return s, err
	}
	return result, nil
}

type unifier struct {
	fresher *Fresher
}

func (u *unifier) unify(t1, t2 Type, s Substitution) (Substitution, error) {
	t1 = Apply(t1, s)
	t2 = Apply(t2, s)

	if v, ok := t1.(*Var); ok {
		return unifyVariable(v, t2, s)
	}
	if v, ok := t2.(*Var); ok {
		return unifyVariable(v, t1, s)
	}

	switch a := t1.(type) {
	case *Constant:
		if b, ok := t2.(*Constant); ok && a.Name == b.Name {
			return s, nil
		}
		return s, &MismatchError{Left: t1, Right: t2}
	case *Application:
		b, ok := t2.(*Application)
		if !ok || len(a.Args) != len(b.Args) {
			return s, &MismatchError{Left: t1, Right: t2}
		}
		s, err := u.unify(a.Op, b.Op, s)
		if err != nil {
			return s, err
		}
		for i := range a.Args {
			s, err = u.unify(a.Args[i], b.Args[i], s)
			if err != nil {
				return s, rowIn(OperatorOf(a), err)
			}
		}
		return s, nil
	case EmptyRow:
		switch b := t2.(type) {
		case EmptyRow:
			return s, nil
		case *RowExtension:
			return s, &MissingValueError{Label: b.Label, Row: t1}
		}
		return s, &MismatchError{Left: t1, Right: t2}
	case *RowExtension:
		return u.unifyRow(a, t2, s)
	default:
		panic("unreachable: unknown type " + fmt.Sprintf("%T", t1))
	}
}

// rowIn puts the bare row of a *MissingValueError back in the application of op it was found in
func rowIn(op string, err error) error {
	missing, ok := err.(*MissingValueError)
	if !ok {
		return err
	}
	switch missing.Row.(type) {
	case *RowExtension, EmptyRow:
	default:
		return err
	}
	switch op {
	case RecordOp, EffectOp, CasesOp:
		missing.Row = NewApplication(op, missing.Row)
	}
	return err
}

func unifyVariable(v *Var, t Type, s Substitution) (Substitution, error) {
	if other, ok := t.(*Var); ok {
		if other.Name == v.Name {
			return s, nil
		}
		// wildcards of annotations are solved by the variables they meet
		if IsWildcard(other.Name) && !IsWildcard(v.Name) {
			return s.Bind(other.Name, v), nil
		}
	}
	if OccursIn(v.Name, t) {
		return s, &OccursCheckError{Var: v, Type: t}
	}
	return s.Bind(v.Name, t), nil
}

func (u *unifier) unifyRow(row *RowExtension, other Type, s Substitution) (Substitution, error) {
	switch other.(type) {
	case *RowExtension, EmptyRow:
	default:
		return s, &MismatchError{Left: row, Right: other}
	}

	labelType, rest, rewritten, err := u.rewriteRow(other, row.Label, s)
	if err != nil {
		if missing, ok := err.(*MissingValueError); ok {
			missing.Row = other
		}
		return s, err
	}

	// the rewrite extended our own tail: {:x a | r} ~ {:y b | r} has no finite solution
	_, tail := RowFields(row)
	if tv, ok := tail.(*Var); ok {
		if _, bound := rewritten.Lookup(tv.Name); bound {
			return s, &OccursCheckError{Var: tv, Type: other}
		}
	}

	rewritten, err = u.unify(row.LabelType, labelType, rewritten)
	if err != nil {
		return s, err
	}
	return u.unify(row.Tail, rest, rewritten)
}

// rewriteRow finds label in row and returns its type and the row without it.
// An open tail met on the way is extended with label.
func (u *unifier) rewriteRow(row Type, label string, s Substitution) (Type, Type, Substitution, error) {
	switch r := row.(type) {
	case EmptyRow:
		return nil, nil, s, &MissingValueError{Label: label, Row: r}
	case *RowExtension:
		if r.Label == label {
			return r.LabelType, r.Tail, s, nil
		}
		labelType, rest, s, err := u.rewriteRow(r.Tail, label, s)
		if err != nil {
			return nil, nil, s, err
		}
		return labelType, &RowExtension{Label: r.Label, LabelType: r.LabelType, Tail: rest}, s, nil
	case *Var:
		labelType := u.fresher.Fresh()
		rest := u.fresher.Fresh()
		return labelType, rest, s.Bind(r.Name, &RowExtension{Label: label, LabelType: labelType, Tail: rest}), nil
	default:
		return nil, nil, s, &MismatchError{Left: &RowExtension{Label: label, LabelType: u.fresher.Fresh(), Tail: u.fresher.Fresh()}, Right: row}
	}
}
