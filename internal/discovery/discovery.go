// Package discovery turns a selector into the ordered list of test methods
// to run. Files that fail to load are recorded as warnings and skipped.
package discovery

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkoosis/testrules/internal/classify"
	"github.com/dkoosis/testrules/internal/config"
	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/loader"
)

// WarningKind classifies discovery warnings.
type WarningKind string

const (
	WarnLoad       WarningKind = "load"
	WarnNotFound   WarningKind = "not-found"
	WarnOrphanCase WarningKind = "orphan-case"
)

// Warning is a recoverable problem met during discovery.
type Warning struct {
	Kind    WarningKind
	Module  string
	Message string
}

func (w Warning) String() string {
	return w.Module + ": " + w.Message
}

// Result is the outcome of one discovery run.
type Result struct {
	Selector Selector
	Methods  []inspect.Method
	Modules  []string // modules that loaded, in resolution order
	Warnings []Warning
}

// Discoverer composes classification, loading and inspection.
type Discoverer struct {
	cfg    *config.Config
	loader *loader.Loader
	log    *slog.Logger
}

// New creates a Discoverer.
func New(cfg *config.Config, l *loader.Loader, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discoverer{cfg: cfg, loader: l, log: logger}
}

// Discover resolves sel into methods. The only errors are an unknown
// selector and context cancellation; both are returned before anything
// is executed.
func (d *Discoverer) Discover(ctx context.Context, sel Selector) (*Result, error) {
	candidates, err := d.candidates(ctx, sel)
	if err != nil {
		return nil, err
	}
	d.log.Debug("resolved selector", "selector", sel.String(), "kind", sel.Kind.String(), "candidates", len(candidates))

	res := &Result{Selector: sel}
	seenCandidate := map[string]bool{}
	seenModule := map[string]bool{}
	seenMethod := map[string]bool{}

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seenCandidate[name] {
			continue
		}
		seenCandidate[name] = true

		mod, err := d.loader.Load(name)
		if err != nil {
			res.Warnings = append(res.Warnings, loadWarning(name, err))
			d.log.Warn("skipping module", "module", name, "error", err)
			continue
		}
		if seenModule[mod.Name] {
			continue
		}
		seenModule[mod.Name] = true
		res.Modules = append(res.Modules, mod.Name)

		found := inspect.InspectModule(mod)
		for _, orphan := range found.Orphans {
			res.Warnings = append(res.Warnings, Warning{
				Kind:    WarnOrphanCase,
				Module:  mod.Name,
				Message: "suite " + orphan + " has test methods but no suite.Run runner",
			})
		}
		for _, m := range found.Methods {
			if seenMethod[m.FullName()] {
				continue
			}
			seenMethod[m.FullName()] = true
			res.Methods = append(res.Methods, m)
		}
		d.log.Debug("inspected module", "module", mod.Name, "methods", len(found.Methods))
	}
	return res, nil
}

func loadWarning(name string, err error) Warning {
	kind := WarnLoad
	if errors.Is(err, loader.ErrModuleNotFound) {
		kind = WarnNotFound
	}
	msg := err.Error()
	var le *loader.LoadError
	if errors.As(err, &le) {
		msg = le.Err.Error()
	}
	return Warning{Kind: kind, Module: name, Message: msg}
}

// candidates resolves a selector to module names in resolution order.
func (d *Discoverer) candidates(ctx context.Context, sel Selector) ([]string, error) {
	switch sel.Kind {
	case KindAll:
		mods, err := d.walk(ctx, d.cfg.TestTypes())
		if err != nil {
			return nil, err
		}
		for _, g := range d.cfg.Groups() {
			group, _ := d.cfg.Group(g)
			mods = append(mods, group...)
		}
		return mods, nil
	case KindType:
		if !d.cfg.HasTestType(sel.Name) {
			return nil, &SelectorError{Selector: sel.Name}
		}
		return d.walk(ctx, []string{sel.Name})
	case KindGroup:
		group, ok := d.cfg.Group(sel.Name)
		if !ok {
			return nil, &SelectorError{Selector: sel.Name}
		}
		return group, nil
	case KindModules:
		if len(sel.Modules) == 1 {
			if _, err := d.loader.Resolve(sel.Modules[0]); err != nil {
				return nil, &SelectorError{Selector: sel.Modules[0]}
			}
		}
		return sel.Modules, nil
	default:
		return nil, &SelectorError{Selector: sel.String()}
	}
}

// walk collects, in lexical order, the files matching any of types.
func (d *Discoverer) walk(ctx context.Context, types []string) ([]string, error) {
	src := typeFilter{cfg: d.cfg, types: types}
	root := d.loader.Root()
	var mods []string
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.log.Debug("walk error", "path", p, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if p != root && (d.loader.Excluded(entry.Name()) || nestedModule(p)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(entry.Name(), ".go") {
			return nil
		}
		if types := classify.Classify(entry.Name(), src); len(types) > 0 {
			mods = append(mods, d.loader.ModuleName(p))
		}
		return nil
	})
	return mods, err
}

// nestedModule reports whether dir holds its own go.mod, which go test
// does not descend into from the parent module.
func nestedModule(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil
}

// typeFilter restricts a config to a subset of its test types.
type typeFilter struct {
	cfg   *config.Config
	types []string
}

func (f typeFilter) TestTypes() []string          { return f.types }
func (f typeFilter) Patterns(typ string) []string { return f.cfg.Patterns(typ) }
