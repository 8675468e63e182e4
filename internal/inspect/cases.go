package inspect

import "go/ast"

// caseTypes finds struct types embedding a Suite, directly or through
// another case type declared in the same package.
func caseTypes(files []*ast.File) map[string]bool {
	embeds := map[string][]ast.Expr{}
	for _, f := range files {
		for _, decl := range f.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				for _, field := range st.Fields.List {
					if len(field.Names) == 0 {
						embeds[ts.Name.Name] = append(embeds[ts.Name.Name], field.Type)
					}
				}
			}
		}
	}

	cases := map[string]bool{}
	for changed := true; changed; {
		changed = false
		for name, fields := range embeds {
			if cases[name] {
				continue
			}
			for _, e := range fields {
				if isSuiteEmbed(e) || cases[typeName(e)] {
					cases[name] = true
					changed = true
					break
				}
			}
		}
	}
	return cases
}

func isSuiteEmbed(expr ast.Expr) bool {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	sel, ok := expr.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "Suite"
}

// runnerFuncs maps each case type to the first test function that passes
// it to suite.Run.
func runnerFuncs(files []*ast.File, cases map[string]bool) map[string]string {
	runners := map[string]string{}
	for _, f := range files {
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Body == nil || !isTestFunc(fn) {
				continue
			}
			locals := localTypes(fn.Body)
			ast.Inspect(fn.Body, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok || !isSuiteRun(call) {
					return true
				}
				typ := exprType(call.Args[1], locals)
				if cases[typ] {
					if _, seen := runners[typ]; !seen {
						runners[typ] = fn.Name.Name
					}
				}
				return true
			})
		}
	}
	return runners
}

// isSuiteRun matches <pkg>.Run(t, x).
func isSuiteRun(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Run" || len(call.Args) != 2 {
		return false
	}
	_, ok = sel.X.(*ast.Ident)
	return ok
}

// exprType resolves the suite type of the second suite.Run argument.
func exprType(expr ast.Expr, locals map[string]string) string {
	switch e := expr.(type) {
	case *ast.CallExpr:
		if id, ok := e.Fun.(*ast.Ident); ok && id.Name == "new" && len(e.Args) == 1 {
			return typeName(e.Args[0])
		}
	case *ast.UnaryExpr:
		return exprType(e.X, locals)
	case *ast.CompositeLit:
		return typeName(e.Type)
	case *ast.ParenExpr:
		return exprType(e.X, locals)
	case *ast.Ident:
		return locals[e.Name]
	}
	return ""
}

// localTypes records the types of variables declared in a function body
// with := , var x T, or var x = expr.
func localTypes(body *ast.BlockStmt) map[string]string {
	locals := map[string]string{}
	ast.Inspect(body, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.AssignStmt:
			for i, lhs := range s.Lhs {
				id, ok := lhs.(*ast.Ident)
				if !ok || i >= len(s.Rhs) {
					continue
				}
				if typ := exprType(s.Rhs[i], locals); typ != "" {
					locals[id.Name] = typ
				}
			}
		case *ast.ValueSpec:
			for i, id := range s.Names {
				switch {
				case s.Type != nil:
					locals[id.Name] = typeName(s.Type)
				case i < len(s.Values):
					if typ := exprType(s.Values[i], locals); typ != "" {
						locals[id.Name] = typ
					}
				}
			}
		}
		return true
	})
	return locals
}
