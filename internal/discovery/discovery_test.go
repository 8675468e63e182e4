package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/testrules/internal/config"
	"github.com/dkoosis/testrules/internal/fixture"
	"github.com/dkoosis/testrules/internal/inspect"
	"github.com/dkoosis/testrules/internal/loader"
)

func newDiscoverer(t *testing.T, root string, cfg *config.Config) *Discoverer {
	t.Helper()
	l, err := loader.New(root, cfg.ExcludeDirs())
	require.NoError(t, err)
	return New(cfg, l, nil)
}

func fullNames(methods []inspect.Method) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, m.FullName())
	}
	return out
}

func configWith(t *testing.T, root, body string) *config.Config {
	t.Helper()
	fixture.Write(t, root, map[string]string{"testrules.yaml": body})
	cfg, warnings, err := config.Load(config.LoadOptions{Root: root, Getenv: func(string) string { return "" }})
	require.NoError(t, err)
	require.Empty(t, warnings)
	return cfg
}

func TestDiscover_AllSkipsBrokenModuleAndWarns(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"calc/calc.go":                 fixture.Calc,
		"calc/math_test.go":            fixture.MathTest,
		"calc/broken_test.go":          fixture.BrokenTest,
		"calc/integration_api_test.go": fixture.IntegrationAPITest,
	})
	d := newDiscoverer(t, root, config.Default())

	res, err := d.Discover(context.Background(), Selector{Kind: KindAll})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"calc/integration_api_test.TestAPIRoundTrip",
		"calc/math_test.TestAdd",
		"calc/math_test.TestSub",
	}, fullNames(res.Methods))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "calc/broken_test", res.Warnings[0].Module)
	assert.Equal(t, WarnLoad, res.Warnings[0].Kind)
}

func TestDiscover_OneSyntaxErrorAmongFiveModules(t *testing.T) {
	files := map[string]string{"calc/calc.go": fixture.Calc}
	valid := map[string]int{}
	for i, name := range []string{"alpha", "beta", "gamma", "delta"} {
		src := "package calc\n\nimport \"testing\"\n"
		for j := 0; j <= i; j++ {
			src += fmt.Sprintf("\nfunc Test%s%d(t *testing.T) {}\n", strings.ToUpper(name[:1])+name[1:], j)
		}
		files["calc/"+name+"_test.go"] = src
		valid["calc/"+name+"_test"] = i + 1
	}
	files["calc/epsilon_test.go"] = fixture.BrokenTest
	root := fixture.Project(t, files)

	res, err := newDiscoverer(t, root, config.Default()).Discover(context.Background(), Selector{Kind: KindType, Name: "unit"})
	require.NoError(t, err)

	want := 0
	for _, n := range valid {
		want += n
	}
	assert.Len(t, res.Methods, want)
	assert.ElementsMatch(t, []string{"calc/alpha_test", "calc/beta_test", "calc/delta_test", "calc/gamma_test"}, res.Modules)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "calc/epsilon_test", res.Warnings[0].Module)
}

func TestDiscover_AllIsUnionOfTypesAndGroups(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"calc/calc.go":                 fixture.Calc,
		"calc/math_test.go":            fixture.MathTest,
		"calc/integration_api_test.go": fixture.IntegrationAPITest,
		"calc/e2e_flow_test.go":        "package calc\n\nimport \"testing\"\n\nfunc TestFlow(t *testing.T) {}\n",
		"calc/smoke_check_test.go":     "package calc\n\nimport \"testing\"\n\nfunc TestSmoke(t *testing.T) {}\n",
		"extra/extra.go":               "package extra\n\nimport \"testing\"\n\nfunc TestExtra(t *testing.T) {}\n",
	})
	cfg := configWith(t, root, `
test_patterns:
  unit: ["math_test.go"]
  smoke: ["smoke_*_test.go"]
test_groups:
  misc: ["extra/extra", "calc/math_test"]
`)
	d := newDiscoverer(t, root, cfg)
	ctx := context.Background()

	all, err := d.Discover(ctx, Selector{Kind: KindAll})
	require.NoError(t, err)

	union := map[string]bool{}
	for _, typ := range cfg.TestTypes() {
		res, err := d.Discover(ctx, Selector{Kind: KindType, Name: typ})
		require.NoError(t, err)
		for _, n := range fullNames(res.Methods) {
			union[n] = true
		}
	}
	for _, g := range cfg.Groups() {
		res, err := d.Discover(ctx, Selector{Kind: KindGroup, Name: g})
		require.NoError(t, err)
		for _, n := range fullNames(res.Methods) {
			union[n] = true
		}
	}
	want := make([]string, 0, len(union))
	for n := range union {
		want = append(want, n)
	}
	sort.Strings(want)

	got := fullNames(all.Methods)
	assert.ElementsMatch(t, want, got)
	assert.Len(t, got, len(want), "no duplicates")
	assert.Contains(t, got, "extra/extra.TestExtra", "groups contribute modules the patterns miss")
}

func TestDiscover_MissingImportIsWarnedAndLeftOut(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"calc/calc.go":          fixture.Calc,
		"calc/math_test.go":     fixture.MathTest,
		"calc/uses_dep_test.go": fixture.MissingImportTest,
	})
	d := newDiscoverer(t, root, config.Default())

	res, err := d.Discover(context.Background(), Selector{Kind: KindAll})
	require.NoError(t, err)

	assert.Equal(t, []string{"calc/math_test.TestAdd", "calc/math_test.TestSub"}, fullNames(res.Methods))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnLoad, res.Warnings[0].Kind)
	assert.Equal(t, "calc/uses_dep_test", res.Warnings[0].Module)
	assert.Contains(t, res.Warnings[0].Message, "missing dependency: example.com/does/not/exist")

	broken := filepath.Join(root, "calc", "uses_dep_test.go")
	for _, m := range res.Methods {
		assert.Equal(t, []string{broken}, m.Exclude, "%s runs without the file that cannot build", m.FullName())
	}
}

func TestDiscover_IsIdempotent(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"go.mod":                  fixture.GoModTestify,
		"calc/calc.go":            fixture.Calc,
		"calc/suite_test.go":      fixture.SuiteTest,
		"calc/math_test.go":       fixture.MathTest,
		"b/integration_x_test.go": "package b\n\nimport \"testing\"\n\nfunc TestX(t *testing.T) {}\n",
	})
	d := newDiscoverer(t, root, config.Default())

	first, err := d.Discover(context.Background(), Selector{Kind: KindAll})
	require.NoError(t, err)
	second, err := d.Discover(context.Background(), Selector{Kind: KindAll})
	require.NoError(t, err)
	assert.Equal(t, fullNames(first.Methods), fullNames(second.Methods))
	assert.NotEmpty(t, first.Methods)
}

func TestDiscover_ExplicitModulesVerbatim(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"calc/calc.go":      fixture.Calc,
		"calc/math_test.go": fixture.MathTest,
		"calc/helpers.go":   "package calc\n\nimport \"testing\"\n\nfunc TestInHelpers(t *testing.T) {}\n",
	})
	d := newDiscoverer(t, root, config.Default())

	res, err := d.Discover(context.Background(), Selector{Kind: KindModules, Modules: []string{"calc/helpers", "calc/math_test", "missing_test", "math_test"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"calc/helpers.TestInHelpers", "calc/math_test.TestAdd", "calc/math_test.TestSub"}, fullNames(res.Methods),
		"explicit modules bypass classification and duplicates collapse")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnNotFound, res.Warnings[0].Kind)
}

func TestDiscover_UnknownSelectorFailsBeforeExecution(t *testing.T) {
	root := fixture.Project(t, map[string]string{"calc/math_test.go": fixture.MathTest})
	cfg := config.Default()
	d := newDiscoverer(t, root, cfg)

	sel := ParseSelector([]string{"nonsense"}, cfg)
	require.Equal(t, KindModules, sel.Kind)

	res, err := d.Discover(context.Background(), sel)
	assert.Nil(t, res)
	var se *SelectorError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nonsense", se.Selector)
	assert.ErrorIs(t, err, ErrUnknownSelector)
}

func TestDiscover_EmptySelectionIsNotAnError(t *testing.T) {
	root := fixture.Project(t, map[string]string{"calc/calc.go": fixture.Calc})
	res, err := newDiscoverer(t, root, config.Default()).Discover(context.Background(), Selector{Kind: KindType, Name: "e2e"})
	require.NoError(t, err)
	assert.Empty(t, res.Methods)
	assert.Empty(t, res.Warnings)
}

func TestDiscover_WarnsAboutOrphanSuites(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"go.mod":              fixture.GoModTestify,
		"calc/orphan_test.go": "package calc\n\nimport \"github.com/stretchr/testify/suite\"\n\ntype S struct{ suite.Suite }\n\nfunc (s *S) TestA() {}\n",
	})
	res, err := newDiscoverer(t, root, config.Default()).Discover(context.Background(), Selector{Kind: KindAll})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnOrphanCase, res.Warnings[0].Kind)
}

func TestDiscover_SkipsExcludedAndNestedModules(t *testing.T) {
	root := fixture.Project(t, map[string]string{
		"calc/math_test.go":  fixture.MathTest,
		"vendor/v/v_test.go": "package v\n\nimport \"testing\"\n\nfunc TestV(t *testing.T) {}\n",
		"tools/go.mod":       "module example.com/tools\n",
		"tools/tool_test.go": "package tools\n\nimport \"testing\"\n\nfunc TestTool(t *testing.T) {}\n",
		".hidden/h_test.go":  "package h\n\nimport \"testing\"\n\nfunc TestH(t *testing.T) {}\n",
	})
	res, err := newDiscoverer(t, root, config.Default()).Discover(context.Background(), Selector{Kind: KindAll})
	require.NoError(t, err)
	assert.Equal(t, []string{"calc/math_test"}, res.Modules)
}

func TestDiscover_HonoursCancellation(t *testing.T) {
	root := fixture.Project(t, map[string]string{"calc/math_test.go": fixture.MathTest})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newDiscoverer(t, root, config.Default()).Discover(ctx, Selector{Kind: KindAll})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseSelector(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "testrules.yaml"), []byte("test_groups:\n  fast: [a_test]\n"), 0o600))
	cfg, _, err := config.Load(config.LoadOptions{Root: root, Getenv: func(string) string { return "" }})
	require.NoError(t, err)

	tests := []struct {
		args []string
		want Selector
	}{
		{args: nil, want: Selector{Kind: KindAll, Name: "all"}},
		{args: []string{"all"}, want: Selector{Kind: KindAll, Name: "all"}},
		{args: []string{"integration"}, want: Selector{Kind: KindType, Name: "integration"}},
		{args: []string{"fast"}, want: Selector{Kind: KindGroup, Name: "fast"}},
		{args: []string{"a_test"}, want: Selector{Kind: KindModules, Modules: []string{"a_test"}}},
		{args: []string{"unit", "fast"}, want: Selector{Kind: KindModules, Modules: []string{"unit", "fast"}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSelector(tt.args, cfg), "args %v", tt.args)
	}
}
