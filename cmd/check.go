package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/delisp/delisp/frontend"
	"github.com/delisp/delisp/frontend/ilerr"
	"github.com/delisp/delisp/frontend/infer"
	"github.com/delisp/delisp/frontend/types"
	"github.com/delisp/delisp/internal/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check ./folder|file.dl",
	Short:        "Type check a delisp module and print the types of its definitions",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	interfacePaths []string
	outPath        string
	dtsPath        string
	strict         bool
	logLevel       int
	logSections    []string
)

func init() {
	CheckCmd.Flags().StringSliceVarP(&interfacePaths, "interface", "i", nil, "interface file (.json or .yaml) declaring names defined elsewhere, can be repeated")
	CheckCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the interface of the module to this file (.json or .yaml)")
	CheckCmd.Flags().StringVar(&dtsPath, "dts", "", "write TypeScript declarations of the exported definitions to this file")
	CheckCmd.Flags().BoolVar(&strict, "strict", false, "report references to unknown names as errors")
	CheckCmd.Flags().IntVarP(&logLevel, "log-level", "l", int(slog.LevelError), "log level")
	CheckCmd.Flags().StringSliceVar(&logSections, "log-section", nil, "also print debug logs of this section")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(logLevel))
	for _, section := range logSections {
		log.EnableSection(section)
	}

	target, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("could not stat target: %w", err)
	}

	env, err := readInterfaces(interfacePaths)
	if err != nil {
		return err
	}

	rootDir := target
	settings := frontend.PkgCompileSettings{Strict: strict, Env: env}
	if !stat.IsDir() {
		rootDir = filepath.Dir(target)
		settings.File = filepath.Base(target)
	}
	folderFS, ok := os.DirFS(rootDir).(frontend.SourceFS)
	if !ok {
		return fmt.Errorf("cannot list files of %s", rootDir)
	}
	pkg, err := frontend.LoadPackage(folderFS, settings)
	if err != nil {
		return fmt.Errorf("could not load package (this is a bug and not a compile error): %w", err)
	}

	if pkg.Errors().HasError() {
		sb := &strings.Builder{}
		for _, ileError := range pkg.Errors().Errors() {
			sb.WriteString("\n")
			sb.WriteString(ilerr.FormatWithCodeAndSource(ileError, pkg.FileSet()))
		}
		return fmt.Errorf("errors found during type checking:\n%s", sb.String())
	}

	out := cmd.OutOrStdout()
	for _, decl := range pkg.Definitions() {
		_, _ = fmt.Fprintln(out, decl.String())
	}
	if unknowns := pkg.Result.UnknownNames(); len(unknowns) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "unknown names: %s\n", strings.Join(unknowns, ", "))
	}

	if outPath != "" {
		if err := writeFile(outPath, func(w io.Writer) error {
			return infer.WriteInterface(w, pkg.Exported(), infer.FormatOf(outPath))
		}); err != nil {
			return err
		}
	}
	if dtsPath != "" {
		if err := writeFile(dtsPath, func(w io.Writer) error {
			return writeDeclarations(w, pkg.Exported())
		}); err != nil {
			return err
		}
	}
	return nil
}

func readInterfaces(paths []string) (*infer.TypeEnv, error) {
	env := infer.NewTypeEnv()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "opening interface")
		}
		read, err := infer.ReadInterface(f, infer.FormatOf(path))
		_ = f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading interface %s", path)
		}
		env = env.Merge(read)
	}
	return env, nil
}

func writeDeclarations(w io.Writer, schemas map[string]types.TypeSchema) error {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintln(w, types.ToTypeScript(name, schemas[name])); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(at string, write func(io.Writer) error) error {
	f, err := os.Create(filepath.Clean(at))
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("could not write to %s: %w", at, err)
	}
	return nil
}
