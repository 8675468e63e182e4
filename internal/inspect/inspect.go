// Package inspect enumerates the test methods a loaded module declares.
//
// A test case is any struct type that embeds a testify Suite (directly or
// through another case type) and is started by a runner function calling
// suite.Run. Its test methods are the exported zero-argument methods whose
// names carry the Test prefix. Plain `func TestXxx(t *testing.T)`
// functions are reported as case-less methods.
package inspect

import (
	"go/ast"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dkoosis/testrules/internal/loader"
)

// Prefix is the name prefix shared by test functions and suite methods.
const Prefix = "Test"

// Method identifies one executable test.
type Method struct {
	Module  string // module name
	Case    string // suite type, empty for bare functions
	Name    string // method or function name
	Path    string // file declaring the method
	Dir     string // package directory
	Package string // package clause
	Runner  string // top-level test function that runs the method

	// Exclude lists files of Dir that must be left out when running.
	Exclude []string
}

// FullName is module.Case.Name, or module.Name for bare functions.
func (m Method) FullName() string {
	if m.Case == "" {
		return m.Module + "." + m.Name
	}
	return m.Module + "." + m.Case + "." + m.Name
}

// IsCase reports whether the method belongs to a suite.
func (m Method) IsCase() bool { return m.Case != "" }

// Result is the outcome of inspecting one module.
type Result struct {
	Methods []Method
	// Orphans are case types with test methods in the module but no
	// runner function anywhere in the package.
	Orphans []string
}

// Inspect returns the module's test methods in declaration order.
func Inspect(m *loader.Module) []Method {
	return InspectModule(m).Methods
}

// InspectModule walks the module's top-level declarations.
func InspectModule(m *loader.Module) Result {
	files := append([]*ast.File{m.File}, m.Siblings...)
	cases := caseTypes(files)
	runners := runnerFuncs(files, cases)

	isRunner := make(map[string]bool, len(runners))
	for _, fn := range runners {
		isRunner[fn] = true
	}

	var res Result
	orphaned := map[string]bool{}
	for _, decl := range m.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		method := Method{
			Module:  m.Name,
			Name:    fn.Name.Name,
			Path:    m.Path,
			Dir:     m.Dir,
			Package: m.Package,
			Exclude: m.BrokenSiblings,
		}

		if fn.Recv == nil {
			if isTestFunc(fn) && !isRunner[fn.Name.Name] {
				method.Runner = fn.Name.Name
				res.Methods = append(res.Methods, method)
			}
			continue
		}

		recv := receiverType(fn)
		if !cases[recv] || !isCaseMethod(fn) {
			continue
		}
		runner, ok := runners[recv]
		if !ok {
			if !orphaned[recv] {
				orphaned[recv] = true
				res.Orphans = append(res.Orphans, recv)
			}
			continue
		}
		method.Case = recv
		method.Runner = runner
		res.Methods = append(res.Methods, method)
	}
	return res
}

// isTestFunc matches func TestXxx(t *testing.T) the way go test does.
func isTestFunc(fn *ast.FuncDecl) bool {
	name := fn.Name.Name
	if name == "TestMain" || !validTestName(name) {
		return false
	}
	if fn.Type.TypeParams != nil || fn.Type.Results != nil && len(fn.Type.Results.List) > 0 {
		return false
	}
	params := fn.Type.Params.List
	if len(params) != 1 || len(params[0].Names) > 1 {
		return false
	}
	star, ok := params[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "T"
}

// validTestName applies go test's rule: the prefix must not be followed
// by a lower-case letter.
func validTestName(name string) bool {
	if !strings.HasPrefix(name, Prefix) {
		return false
	}
	if len(name) == len(Prefix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len(Prefix):])
	return !unicode.IsLower(r)
}

func isCaseMethod(fn *ast.FuncDecl) bool {
	if !strings.HasPrefix(fn.Name.Name, Prefix) || !ast.IsExported(fn.Name.Name) {
		return false
	}
	if fn.Type.Params != nil && len(fn.Type.Params.List) > 0 {
		return false
	}
	return fn.Type.Results == nil || len(fn.Type.Results.List) == 0
}

func receiverType(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	return typeName(fn.Recv.List[0].Type)
}

// typeName strips pointers and type arguments from a type expression.
func typeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return typeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return typeName(t.X)
	case *ast.IndexListExpr:
		return typeName(t.X)
	case *ast.ParenExpr:
		return typeName(t.X)
	}
	return ""
}
