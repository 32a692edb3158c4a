package frontend

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/token"
	"io/fs"
	"path"
	"sort"
	"sync"
	"testing/fstest"

	"github.com/delisp/delisp/frontend/ast"
	"github.com/delisp/delisp/frontend/ilerr"
	"github.com/delisp/delisp/frontend/infer"
	"github.com/delisp/delisp/frontend/types"
	"github.com/delisp/delisp/internal/log"
	"github.com/pkg/errors"
)

// SourceExt is the extension of source files
const SourceExt = ".dl"

var packageLogger = log.DefaultLogger.With("section", "package")

// Package is a single build unit for a program: a module and the types
// inferred for it
type Package struct {
	name, path string

	Module *ast.Module
	// Result is nil when the source could not be read or has type errors
	Result *infer.Result
	fSet   *token.FileSet
	errors *ilerr.Errors
}

// SourceFS is the filesystem a Package is read from
type SourceFS interface {
	fs.ReadFileFS
	fs.ReadDirFS
}

type PkgCompileSettings struct {
	// Dir is the path of the folder in the filesystem where the package is located
	// the default is `.`
	Dir string
	// File is the name of the source file in Dir; the default is the first
	// source file found
	File string
	// Strict reports references to names that are not defined anywhere as errors
	Strict bool
	// Env declares names defined by other modules, on top of the builtins
	Env             *infer.TypeEnv
	disableBuiltins bool
}

// LoadPackage returns a Package, where dir is the root folder for that package
//
// Only single-file packages are supported: unless config.File is set, the first source file found is used.
// Errors in the program are reported by Package.Errors; the returned error is
// only set when the package could not be read.
func LoadPackage(dir SourceFS, config PkgCompileSettings) (*Package, error) {
	dirPath := config.Dir
	if dirPath == "" {
		dirPath = "."
	}
	if config.File != "" {
		filename := path.Join(dirPath, config.File)
		src, err := dir.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", filename)
		}
		return loadSource(filename, src, config)
	}
	entries, err := dir.ReadDir(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dirPath)
	}
	var sources []string
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == SourceExt {
			sources = append(sources, entry.Name())
		}
	}
	if len(sources) == 0 {
		return nil, errors.Errorf("no %s files found in %s", SourceExt, dirPath)
	}
	sort.Strings(sources)
	if len(sources) > 1 {
		packageLogger.Warn("multiple files found, but we do not support multi-file packages - using the first one", "file", sources[0])
	}
	filename := path.Join(dirPath, sources[0])
	src, err := dir.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return loadSource(filename, src, config)
}

func loadSource(filename string, src []byte, config PkgCompileSettings) (*Package, error) {
	pkg := &Package{
		// TODO derive name and path from a package manifest once there is one
		path: filename,
		name: "main",
		fSet: token.NewFileSet(),
	}

	// parse phase
	module, errs := ParseModule(pkg.fSet, filename, string(src))
	pkg.errors = pkg.errors.Merge(errs)
	if module == nil {
		return pkg, nil
	}
	pkg.Module = module

	// inference phase
	env := config.Env
	if !config.disableBuiltins {
		env = BuiltinsEnv().Merge(env)
	}
	ctx := infer.NewContext(infer.Settings{Strict: config.Strict})
	result, errs, err := ctx.InferModule(module, env)
	pkg.errors = pkg.errors.Merge(errs)
	if err != nil {
		return pkg, errors.Wrap(err, "inferring types")
	}
	pkg.Result = result
	if result != nil {
		packageLogger.Debug("loaded package", "file", filename, "definitions", len(result.Definitions), "unknowns", result.UnknownNames())
	}
	return pkg, nil
}

func (p *Package) Name() string {
	return p.name
}

func (p *Package) Path() string {
	return p.path
}

// FileSet resolves the positions of the nodes and errors of the package
func (p *Package) FileSet() *token.FileSet {
	return p.fSet
}

func (p *Package) Errors() *ilerr.Errors {
	return p.errors
}

// Exported returns the types of the definitions the package exports,
// or nil when they could not be inferred
func (p *Package) Exported() map[string]types.TypeSchema {
	if p.Result == nil {
		return nil
	}
	return p.Result.Exported()
}

// Definitions lists the definitions of the package with their types, sorted by name
func (p *Package) Definitions() []Declaration {
	if p.Result == nil {
		return nil
	}
	decls := make([]Declaration, 0, len(p.Result.Definitions))
	for name, schema := range p.Result.Definitions {
		decls = append(decls, Declaration{Name: name, Type: schema})
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

type Declaration struct {
	Name string
	Type types.TypeSchema
}

func (d Declaration) String() string {
	return fmt.Sprintf("%s : %s", d.Name, types.PrettySchema(d.Type))
}

//go:embed builtins/builtins.json
var builtinsJSON []byte

var builtinsEnv = sync.OnceValue(func() *infer.TypeEnv {
	env, err := infer.ReadInterface(bytes.NewReader(builtinsJSON), infer.JSON)
	if err != nil {
		packageLogger.Error("failed to load builtins", "err", err)
		panic(err.Error())
	}
	return env
})

// BuiltinsEnv declares the names available to every package without imports
func BuiltinsEnv() *infer.TypeEnv {
	return builtinsEnv()
}

// NewPackageFromBytes does all frontend passes end-to-end for a single file, meant for testing
func NewPackageFromBytes(data []byte) (*Package, *ilerr.Errors, error) {
	filesystem := fstest.MapFS{
		"test" + SourceExt: &fstest.MapFile{
			Data: data,
		},
	}
	pkg, err := LoadPackage(filesystem, PkgCompileSettings{})
	if err != nil {
		return nil, nil, err
	}
	return pkg, pkg.errors, nil
}
