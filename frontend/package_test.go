package frontend_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/delisp/delisp/frontend"
	"github.com/delisp/delisp/frontend/infer"
	"github.com/delisp/delisp/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsEnv(t *testing.T) {
	env := frontend.BuiltinsEnv()
	for _, name := range []string{"+", "print", "map", "string-length"} {
		_, ok := env.Lookup(name)
		assert.True(t, ok, name)
	}
	schema, _ := env.Lookup("print")
	assert.Equal(t, "(-> string (effect console) none)", types.PrettySchema(schema))
}

func TestLoadPackage(t *testing.T) {
	filesystem := fstest.MapFS{
		"src/main.dl": &fstest.MapFile{Data: []byte(`
(define double (lambda (x) (* x 2)))
(define shout (lambda (s) (print (string-upcase s))))
(define total (reduce + 0 (map double [1 2 3])))
(export double shout)
`)},
		"src/notes.txt": &fstest.MapFile{Data: []byte("not a module")},
	}
	pkg, err := frontend.LoadPackage(filesystem, frontend.PkgCompileSettings{Dir: "src"})
	require.NoError(t, err)
	require.False(t, pkg.Errors().HasError(), pkg.Errors().Error())
	assert.Equal(t, "src/main.dl", pkg.Path())

	var lines []string
	for _, decl := range pkg.Definitions() {
		lines = append(lines, decl.String())
	}
	assert.Equal(t, []string{
		"double : (-> number (effect) number)",
		"shout : (-> string (effect console) none)",
		"total : number",
	}, lines)
	assert.Len(t, pkg.Exported(), 2)
}

func TestLoadPackageFile(t *testing.T) {
	filesystem := fstest.MapFS{
		"a.dl": &fstest.MapFile{Data: []byte(`(define a 1)`)},
		"b.dl": &fstest.MapFile{Data: []byte(`(define b (ext 1))`)},
	}
	env, err := infer.ReadInterface(strings.NewReader(`{"ext": "(-> number string)"}`), infer.JSON)
	require.NoError(t, err)

	pkg, err := frontend.LoadPackage(filesystem, frontend.PkgCompileSettings{File: "b.dl", Env: env, Strict: true})
	require.NoError(t, err)
	require.False(t, pkg.Errors().HasError(), pkg.Errors().Error())
	require.Len(t, pkg.Definitions(), 1)
	assert.Equal(t, "b : string", pkg.Definitions()[0].String())

	pkg, err = frontend.LoadPackage(filesystem, frontend.PkgCompileSettings{File: "b.dl", Strict: true})
	require.NoError(t, err)
	assert.Contains(t, pkg.Errors().Error(), "variable 'ext' is not defined")
}

func TestLoadPackageWithoutSources(t *testing.T) {
	_, err := frontend.LoadPackage(fstest.MapFS{"README": &fstest.MapFile{}}, frontend.PkgCompileSettings{})
	assert.ErrorContains(t, err, "no .dl files found")
}
