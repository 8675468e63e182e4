package pattern

// Sparkline is a trend over stored runs, oldest value first.
type Sparkline struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Min    float64   `json:"min"` // Min == Max means scale to the values
	Max    float64   `json:"max"`
	Unit   string    `json:"unit,omitempty"` // "%", "s"
}

func (s *Sparkline) Type() PatternType { return PatternTypeSparkline }

// Comparison shows metric deltas between two runs.
type Comparison struct {
	Label   string           `json:"label"`
	Changes []ComparisonItem `json:"changes"`
}

// ComparisonItem is one metric before and after.
type ComparisonItem struct {
	Label  string  `json:"label"`
	Before string  `json:"before"`
	After  string  `json:"after"`
	Change float64 `json:"change"` // After minus Before, in Unit
	Unit   string  `json:"unit,omitempty"`
}

func (c *Comparison) Type() PatternType { return PatternTypeComparison }
