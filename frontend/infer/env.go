package infer

import (
	"iter"

	"github.com/benbjohnson/immutable"
	"github.com/delisp/delisp/frontend/types"
)

// TypeEnv maps names defined outside the code being checked to their type schemas.
// Declaring names returns a new TypeEnv and leaves the original untouched, so an
// environment can be shared between inference sessions.
type TypeEnv struct {
	schemas *immutable.SortedMap[string, types.TypeSchema]
}

func NewTypeEnv() *TypeEnv {
	return &TypeEnv{schemas: immutable.NewSortedMap[string, types.TypeSchema](nil)}
}

func (e *TypeEnv) Len() int {
	if e == nil || e.schemas == nil {
		return 0
	}
	return e.schemas.Len()
}

// Lookup returns the schema of name, if declared
func (e *TypeEnv) Lookup(name string) (types.TypeSchema, bool) {
	if e == nil || e.schemas == nil {
		return types.TypeSchema{}, false
	}
	return e.schemas.Get(name)
}

// Declare returns an environment where name has the type schema, shadowing previous declarations
func (e *TypeEnv) Declare(name string, schema types.TypeSchema) *TypeEnv {
	if e == nil || e.schemas == nil {
		e = NewTypeEnv()
	}
	return &TypeEnv{schemas: e.schemas.Set(name, schema)}
}

// Merge returns an environment with the declarations of both, where other wins on conflicts
func (e *TypeEnv) Merge(other *TypeEnv) *TypeEnv {
	merged := e
	if merged == nil {
		merged = NewTypeEnv()
	}
	for name, schema := range other.All() {
		merged = merged.Declare(name, schema)
	}
	return merged
}

// Names returns the declared names, sorted
func (e *TypeEnv) Names() []string {
	names := make([]string, 0, e.Len())
	for name := range e.All() {
		names = append(names, name)
	}
	return names
}

// All iterates declarations by name order
func (e *TypeEnv) All() iter.Seq2[string, types.TypeSchema] {
	return func(yield func(string, types.TypeSchema) bool) {
		if e == nil || e.schemas == nil {
			return
		}
		itr := e.schemas.Iterator()
		for !itr.Done() {
			name, schema, _ := itr.Next()
			if !yield(name, schema) {
				return
			}
		}
	}
}
