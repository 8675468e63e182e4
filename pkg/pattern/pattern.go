// Package pattern defines the semantic data types for testrules' report
// output. Patterns are pure data; renderers decide presentation.
package pattern

// PatternType identifies the kind of visualization pattern.
type PatternType string

const (
	PatternTypeSummary       PatternType = "summary"
	PatternTypeLeaderboard   PatternType = "leaderboard"
	PatternTypeTestTable     PatternType = "test-table"
	PatternTypeCoverageTable PatternType = "coverage-table"
	PatternTypeSparkline     PatternType = "sparkline"
	PatternTypeComparison    PatternType = "comparison"
	PatternTypeNotice        PatternType = "notice"
)

// Pattern is the interface all visualization patterns implement.
type Pattern interface {
	Type() PatternType
}
