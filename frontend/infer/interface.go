package infer

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/delisp/delisp/frontend/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a module interface: an object mapping each name
// to its type, written in the syntax of type annotations
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks the Format of an interface file from its extension
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// ReadInterface reads the types of names defined elsewhere.
// Every type variable of a type, `_` included, is generalized.
func ReadInterface(r io.Reader, format Format) (*TypeEnv, error) {
	var entries map[string]string
	var err error
	switch format {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&entries)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		err = json.NewDecoder(r).Decode(&entries)
	}
	if err != nil {
		return nil, errors.Wrap(err, "decoding interface")
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	fresher := types.NewFresher()
	env := NewTypeEnv()
	for _, name := range names {
		schema, err := types.ParseClosedSchema(entries[name], fresher)
		if err != nil {
			return nil, errors.Wrapf(err, "reading type of %s", name)
		}
		env = env.Declare(name, schema)
	}
	return env, nil
}

// WriteInterface writes schemas so ReadInterface can read them back
func WriteInterface(w io.Writer, schemas map[string]types.TypeSchema, format Format) error {
	entries := make(map[string]string, len(schemas))
	for name, schema := range schemas {
		entries[name] = types.PrettySchema(schema)
	}
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return errors.Wrap(err, "encoding interface")
		}
		return errors.Wrap(enc.Close(), "encoding interface")
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return errors.Wrap(enc.Encode(entries), "encoding interface")
	}
}
