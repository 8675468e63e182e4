package coverage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/cover"
)

const sampleProfile = `mode: atomic
example.com/proj/calc/calc.go:3.24,3.38 1 4
example.com/proj/calc/calc.go:5.24,7.2 2 0
example.com/proj/calc/calc.go:9.20,10.10 1 0
example.com/proj/calc/calc.go:10.10,12.3 1 2
example.com/proj/calc/calc_test.go:5.30,7.2 1 1
example.com/proj/util/util.go:3.20,3.30 1 0
`

func parse(t *testing.T, text string) []*cover.Profile {
	t.Helper()
	ps, err := cover.ParseProfilesFromReader(strings.NewReader(text))
	require.NoError(t, err)
	return ps
}

func TestNewReport(t *testing.T) {
	rep := NewReport(parse(t, sampleProfile), "example.com/proj")

	require.Len(t, rep.Files, 2, "test files are not reported")
	calc := rep.Files[0]
	assert.Equal(t, "calc/calc.go", calc.Name)
	assert.Equal(t, 5, calc.Statements)
	assert.Equal(t, 3, calc.Missed)
	assert.Equal(t, 4, calc.Blocks)
	assert.Equal(t, 2, calc.MissedBlocks)
	assert.Equal(t, []LineRange{{5, 7}, {9, 9}}, calc.Missing, "line 10 is shared with a covered block")
	assert.Equal(t, "5-7, 9", calc.MissingString())
	assert.InDelta(t, 40.0, calc.LinePercent(), 1e-9)
	assert.InDelta(t, 50.0, calc.BranchPercent(), 1e-9)

	assert.Equal(t, "util/util.go", rep.Files[1].Name)
	assert.Equal(t, 6, rep.Statements)
	assert.Equal(t, 4, rep.Missed)
	assert.InDelta(t, 100.0*2/6, rep.LinePercent(), 1e-9)
}

func TestReport_EmptyIsFullyCovered(t *testing.T) {
	rep := NewReport(nil, "")
	assert.InDelta(t, 100.0, rep.LinePercent(), 0)
	assert.InDelta(t, 100.0, rep.BranchPercent(), 0)
}

func TestMerge_SumsCountsAcrossProfiles(t *testing.T) {
	a := parse(t, "mode: atomic\nexample.com/proj/calc/calc.go:3.24,3.38 1 0\nexample.com/proj/calc/calc.go:5.24,7.2 2 1\n")
	b := parse(t, "mode: atomic\nexample.com/proj/calc/calc.go:3.24,3.38 1 3\nexample.com/proj/calc/calc.go:5.24,7.2 2 0\nexample.com/proj/util/util.go:3.20,3.30 1 0\n")

	merged := merge([][]*cover.Profile{a, b})
	require.Len(t, merged, 2)
	require.Len(t, merged[0].Blocks, 2)
	assert.Equal(t, 3, merged[0].Blocks[0].Count)
	assert.Equal(t, 1, merged[0].Blocks[1].Count)

	rep := NewReport(merged, "example.com/proj")
	assert.Equal(t, 0, rep.Files[0].Missed)

	roundTrip := parse(t, writeProfile(merged))
	assert.Equal(t, merged[0].Blocks, roundTrip[0].Blocks)
}

func TestLineRange_String(t *testing.T) {
	assert.Equal(t, "4", LineRange{4, 4}.String())
	assert.Equal(t, "4-9", LineRange{4, 9}.String())
}
