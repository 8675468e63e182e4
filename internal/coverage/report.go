package coverage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/cover"
)

// LineRange is an inclusive span of source lines.
type LineRange struct {
	Start, End int
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// FileCoverage holds statement and block statistics for one source file.
// Blocks are Go's basic coverage blocks and play the role of branches.
type FileCoverage struct {
	Name         string
	Statements   int
	Missed       int
	Blocks       int
	MissedBlocks int
	Missing      []LineRange
}

// Report is the coverage of a whole run.
type Report struct {
	Files        []FileCoverage
	Statements   int
	Missed       int
	Blocks       int
	MissedBlocks int
}

// LinePercent is the share of executed statements; 100 when there are none.
func (f FileCoverage) LinePercent() float64 { return percent(f.Statements, f.Missed) }

// BranchPercent is the share of executed blocks; 100 when there are none.
func (f FileCoverage) BranchPercent() float64 { return percent(f.Blocks, f.MissedBlocks) }

// MissingString renders the missing ranges as "3-5, 9".
func (f FileCoverage) MissingString() string {
	parts := make([]string, len(f.Missing))
	for i, r := range f.Missing {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// LinePercent is the total statement coverage.
func (r *Report) LinePercent() float64 { return percent(r.Statements, r.Missed) }

// BranchPercent is the total block coverage.
func (r *Report) BranchPercent() float64 { return percent(r.Blocks, r.MissedBlocks) }

func percent(total, missed int) float64 {
	if total == 0 {
		return 100
	}
	return float64(total-missed) / float64(total) * 100
}

// NewReport builds a report from parsed profiles. Test files are left out
// and modulePath is stripped from file names.
func NewReport(profiles []*cover.Profile, modulePath string) *Report {
	rep := &Report{}
	for _, p := range profiles {
		if strings.HasSuffix(p.FileName, "_test.go") {
			continue
		}
		fc := fileCoverage(p)
		fc.Name = trimModule(p.FileName, modulePath)
		rep.Files = append(rep.Files, fc)
		rep.Statements += fc.Statements
		rep.Missed += fc.Missed
		rep.Blocks += fc.Blocks
		rep.MissedBlocks += fc.MissedBlocks
	}
	sort.Slice(rep.Files, func(i, j int) bool { return rep.Files[i].Name < rep.Files[j].Name })
	return rep
}

func trimModule(name, modulePath string) string {
	if modulePath != "" && strings.HasPrefix(name, modulePath+"/") {
		return strings.TrimPrefix(name, modulePath+"/")
	}
	return name
}

func fileCoverage(p *cover.Profile) FileCoverage {
	var fc FileCoverage
	covered := map[int]bool{}
	missed := map[int]bool{}
	for _, b := range p.Blocks {
		fc.Statements += b.NumStmt
		fc.Blocks++
		if b.Count > 0 {
			for l := b.StartLine; l <= b.EndLine; l++ {
				covered[l] = true
			}
			continue
		}
		fc.Missed += b.NumStmt
		fc.MissedBlocks++
		for l := b.StartLine; l <= b.EndLine; l++ {
			missed[l] = true
		}
	}

	var lines []int
	for l := range missed {
		if !covered[l] {
			lines = append(lines, l)
		}
	}
	sort.Ints(lines)
	fc.Missing = ranges(lines)
	return fc
}

// ranges groups sorted line numbers into consecutive spans.
func ranges(lines []int) []LineRange {
	var out []LineRange
	for _, l := range lines {
		if n := len(out); n > 0 && out[n-1].End+1 == l {
			out[n-1].End = l
			continue
		}
		out = append(out, LineRange{Start: l, End: l})
	}
	return out
}

// merge folds profiles for the same file together. Block counts are
// summed since every profile comes from a separate process.
func merge(profiles [][]*cover.Profile) []*cover.Profile {
	type key struct {
		startLine, startCol, endLine, endCol int
	}
	files := map[string]*cover.Profile{}
	index := map[string]map[key]int{}
	var order []string

	for _, set := range profiles {
		for _, p := range set {
			dst, ok := files[p.FileName]
			if !ok {
				dst = &cover.Profile{FileName: p.FileName, Mode: p.Mode}
				files[p.FileName] = dst
				index[p.FileName] = map[key]int{}
				order = append(order, p.FileName)
			}
			for _, b := range p.Blocks {
				k := key{b.StartLine, b.StartCol, b.EndLine, b.EndCol}
				if i, ok := index[p.FileName][k]; ok {
					dst.Blocks[i].Count += b.Count
					continue
				}
				index[p.FileName][k] = len(dst.Blocks)
				dst.Blocks = append(dst.Blocks, b)
			}
		}
	}

	sort.Strings(order)
	out := make([]*cover.Profile, 0, len(order))
	for _, name := range order {
		p := files[name]
		sort.Slice(p.Blocks, func(i, j int) bool {
			a, b := p.Blocks[i], p.Blocks[j]
			return a.StartLine < b.StartLine || a.StartLine == b.StartLine && a.StartCol < b.StartCol
		})
		out = append(out, p)
	}
	return out
}

// writeProfile serializes profiles in the go test -coverprofile format.
func writeProfile(profiles []*cover.Profile) string {
	var b strings.Builder
	mode := "atomic"
	if len(profiles) > 0 && profiles[0].Mode != "" {
		mode = profiles[0].Mode
	}
	fmt.Fprintf(&b, "mode: %s\n", mode)
	for _, p := range profiles {
		for _, blk := range p.Blocks {
			fmt.Fprintf(&b, "%s:%d.%d,%d.%d %d %d\n", p.FileName,
				blk.StartLine, blk.StartCol, blk.EndLine, blk.EndCol, blk.NumStmt, blk.Count)
		}
	}
	return b.String()
}
