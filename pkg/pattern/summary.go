package pattern

// SummaryKind identifies the producing step so renderers can dispatch
// without matching on labels.
type SummaryKind string

const (
	SummaryKindDiscovery SummaryKind = "discovery"
	SummaryKindTest      SummaryKind = "test"
	SummaryKindLint      SummaryKind = "lint"
	SummaryKindCoverage  SummaryKind = "coverage"
	SummaryKindHistory   SummaryKind = "history"
)

// Summary represents high-level metrics and counts.
type Summary struct {
	Label   string        `json:"label"`
	Kind    SummaryKind   `json:"kind"`
	Metrics []SummaryItem `json:"metrics"`
}

// SummaryItem is a single metric in a summary.
type SummaryItem struct {
	Label string `json:"label"` // "Passed", "Success Rate"
	Value string `json:"value"` // formatted value
	Kind  string `json:"kind"`  // "success", "error", "warning", "info"; affects coloring
}

func (s *Summary) Type() PatternType { return PatternTypeSummary }
