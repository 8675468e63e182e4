package loader

import (
	"errors"
	"go/ast"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// ErrMissingImport means a file imports a package that neither the
// standard library, the enclosing module, its vendor tree, nor any module
// required in go.mod provides.
var ErrMissingImport = errors.New("missing dependency")

// imports answers whether an import path can be satisfied, without
// running the go command. It only sees module boundaries: a package that
// is absent from a required module is not detected.
type imports struct {
	goroot string // empty when no standard library tree is installed

	mu   sync.Mutex
	mods map[string]*modInfo // by directory; nil value when no go.mod encloses it
}

type modInfo struct {
	dir  string
	path string
	deps []string // required and replaced module paths
}

func newImports(goroot string) *imports {
	if goroot != "" && !isDir(filepath.Join(goroot, "src", "testing")) {
		goroot = ""
	}
	return &imports{goroot: goroot, mods: map[string]*modInfo{}}
}

// missing returns the first import of f, a file in dir, that cannot be
// resolved, or "".
func (r *imports) missing(dir string, f *ast.File) string {
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return spec.Path.Value
		}
		if !r.resolves(dir, p) {
			return p
		}
	}
	return ""
}

func (r *imports) resolves(dir, p string) bool {
	if p == "C" {
		return true
	}
	mod := r.module(dir)
	if mod != nil && within(p, mod.path) {
		return hasPackage(filepath.Join(mod.dir, filepath.FromSlash(strings.TrimPrefix(p, mod.path))))
	}
	if standard(p) {
		return r.goroot == "" || isDir(filepath.Join(r.goroot, "src", filepath.FromSlash(p)))
	}
	if mod == nil {
		// GOPATH layout; nothing to check against.
		return true
	}
	if isDir(filepath.Join(mod.dir, "vendor", filepath.FromSlash(p))) {
		return true
	}
	for _, dep := range mod.deps {
		if within(p, dep) {
			return true
		}
	}
	return false
}

// module finds the go.mod enclosing dir.
func (r *imports) module(dir string) *modInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(dir)
}

func (r *imports) lookup(dir string) *modInfo {
	if mod, ok := r.mods[dir]; ok {
		return mod
	}
	var mod *modInfo
	if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
		mod = parseModule(dir, data)
	} else if parent := filepath.Dir(dir); parent != dir {
		mod = r.lookup(parent)
	}
	r.mods[dir] = mod
	return mod
}

func parseModule(dir string, data []byte) *modInfo {
	name := filepath.Join(dir, "go.mod")
	f, err := modfile.Parse(name, data, nil)
	if err != nil {
		// Lax parsing drops replace directives but still yields requires.
		f, err = modfile.ParseLax(name, data, nil)
	}
	if err != nil || f.Module == nil {
		return nil
	}
	mod := &modInfo{dir: dir, path: f.Module.Mod.Path}
	for _, req := range f.Require {
		mod.deps = append(mod.deps, req.Mod.Path)
	}
	for _, rep := range f.Replace {
		mod.deps = append(mod.deps, rep.Old.Path)
	}
	return mod
}

// standard reports an import path whose first element has no dot, the
// go command's rule for the standard library.
func standard(p string) bool {
	first, _, _ := strings.Cut(p, "/")
	return !strings.Contains(first, ".")
}

func within(p, modPath string) bool {
	return p == modPath || strings.HasPrefix(p, modPath+"/")
}

// hasPackage reports whether dir holds at least one non-test Go file.
func hasPackage(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasSuffix(n, ".go") && !strings.HasSuffix(n, "_test.go") {
			return true
		}
	}
	return false
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
