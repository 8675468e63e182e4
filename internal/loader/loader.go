// Package loader parses Go test files into modules that can be inspected
// for test methods. A failure to load one file is returned as a *LoadError
// value so callers can record it and carry on with the next file.
package loader

import (
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// Sentinel causes wrapped by LoadError.
var (
	ErrModuleNotFound  = errors.New("module not found")
	ErrNotGoSource     = errors.New("not a Go source file")
	ErrPackageMismatch = errors.New("package clause conflicts with sibling files")
	ErrBuildExcluded   = errors.New("file excluded by build constraints")
)

// LoadError records why a module could not be loaded.
type LoadError struct {
	Module string // name as requested
	Path   string // resolved file path, if any
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Module, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Module is a parsed test file together with the other files of its
// package directory.
type Module struct {
	Name       string // slash path relative to the root, without ".go"
	Path       string // absolute file path
	Dir        string // absolute directory
	Package    string // package clause of the file
	ImportPath string // import path of Dir; empty outside a Go module

	Fset     *token.FileSet
	File     *ast.File
	Siblings []*ast.File // parsed files of the same package in Dir

	// BrokenSiblings lists files in Dir that do not parse or import a
	// package that cannot be found. They are left out when the module's
	// tests are executed.
	BrokenSiblings []string
}

// Loader resolves module names against a project root.
type Loader struct {
	root        string
	excludeDirs []string
	modulePath  string
	ctxt        build.Context
	imports     *imports
}

// New creates a loader rooted at root. Directory names in exclude are
// skipped when searching for bare file names.
func New(root string, exclude []string) (*Loader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Loader{
		root:        abs,
		excludeDirs: slices.Clone(exclude),
		modulePath:  ModulePath(abs),
		ctxt:        build.Default,
		imports:     newImports(build.Default.GOROOT),
	}, nil
}

// Root returns the absolute project root.
func (l *Loader) Root() string { return l.root }

// ModulePath reads the module path from root/go.mod, or "" when there is
// no readable go.mod.
func ModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// ModuleName converts a file path to its module name.
func (l *Loader) ModuleName(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), ".go")
}

// Excluded reports whether a directory name is pruned from searches.
func (l *Loader) Excluded(dirName string) bool {
	if slices.Contains(l.excludeDirs, dirName) {
		return true
	}
	return strings.HasPrefix(dirName, ".") && dirName != "." && dirName != ".."
}

// Resolve finds the file for a module name or path. It accepts an
// absolute or root-relative path (with or without ".go"), a module name,
// or a bare file name that is searched for under the root.
func (l *Loader) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrModuleNotFound
	}
	var candidates []string
	if filepath.IsAbs(name) {
		candidates = append(candidates, name, name+".go")
	} else {
		p := filepath.Join(l.root, filepath.FromSlash(name))
		candidates = append(candidates, p, p+".go")
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}

	if strings.ContainsAny(name, `/\`) {
		return "", ErrModuleNotFound
	}
	return l.search(name)
}

// search walks the root for a file whose base name is name or name+".go".
func (l *Loader) search(name string) (string, error) {
	var found string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != l.root && l.Excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name || d.Name() == name+".go" {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrModuleNotFound
	}
	return found, nil
}

// Load resolves and parses a module. Every failure is a *LoadError.
func (l *Loader) Load(name string) (*Module, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, &LoadError{Module: name, Err: err}
	}
	fail := func(err error) (*Module, error) {
		return nil, &LoadError{Module: name, Path: path, Err: err}
	}
	if filepath.Ext(path) != ".go" {
		return fail(ErrNotGoSource)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return fail(err)
	}
	dir := filepath.Dir(path)
	if ok, err := l.ctxt.MatchFile(dir, filepath.Base(path)); err != nil {
		return fail(err)
	} else if !ok {
		return fail(ErrBuildExcluded)
	}
	if p := l.imports.missing(dir, file); p != "" {
		return fail(fmt.Errorf("%w: %s", ErrMissingImport, p))
	}

	m := &Module{
		Name:       l.ModuleName(path),
		Path:       path,
		Dir:        dir,
		Package:    file.Name.Name,
		ImportPath: l.importPath(dir),
		Fset:       fset,
		File:       file,
	}
	if err := l.loadSiblings(m); err != nil {
		return fail(err)
	}
	return m, nil
}

func (l *Loader) importPath(dir string) string {
	if l.modulePath == "" {
		return ""
	}
	rel, err := filepath.Rel(l.root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	if rel == "." {
		return l.modulePath
	}
	return l.modulePath + "/" + filepath.ToSlash(rel)
}

// loadSiblings parses the other buildable Go files in the module's
// directory and checks that the module's package clause agrees with them.
func (l *Loader) loadSiblings(m *Module) error {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		// Files whose header cannot be read stay in the list so the parse
		// below records them as broken.
		if ok, err := l.ctxt.MatchFile(m.Dir, e.Name()); err == nil && !ok {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var base string
	pkgs := map[string]bool{}
	var parsed []*ast.File
	for _, name := range names {
		p := filepath.Join(m.Dir, name)
		if p == m.Path {
			continue
		}
		f, err := parser.ParseFile(m.Fset, p, nil, parser.SkipObjectResolution)
		if err != nil || l.imports.missing(m.Dir, f) != "" {
			m.BrokenSiblings = append(m.BrokenSiblings, p)
			continue
		}
		parsed = append(parsed, f)
		pkgs[f.Name.Name] = true
		if base == "" && !strings.HasSuffix(name, "_test.go") {
			base = f.Name.Name
		}
	}

	if base == "" {
		// Only test files around: all of them share one name, optionally
		// with the external _test suffix.
		base = strings.TrimSuffix(m.Package, "_test")
		for pkg := range pkgs {
			if strings.TrimSuffix(pkg, "_test") != base {
				return fmt.Errorf("%w: %s vs %s", ErrPackageMismatch, m.Package, pkg)
			}
		}
	}
	if !packageAllowed(m.Package, base, strings.HasSuffix(m.Path, "_test.go")) {
		return fmt.Errorf("%w: %s in a directory of package %s", ErrPackageMismatch, m.Package, base)
	}

	for _, f := range parsed {
		if f.Name.Name == m.Package {
			m.Siblings = append(m.Siblings, f)
		}
	}
	return nil
}

func packageAllowed(pkg, base string, isTest bool) bool {
	if pkg == base {
		return true
	}
	return isTest && pkg == base+"_test"
}
