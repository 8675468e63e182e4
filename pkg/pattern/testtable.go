package pattern

// TestTable represents test results with status and timing.
type TestTable struct {
	Label   string          `json:"label"`
	Results []TestTableItem `json:"results"`
}

// TestTableItem is a single row of a TestTable.
type TestTableItem struct {
	Name     string `json:"name"`               // method name, warning subject or lint location
	Status   string `json:"status"`             // "pass", "fail", "error", "warn", "skip"
	Duration string `json:"duration,omitempty"` // formatted duration
	Count    int    `json:"count,omitempty"`
	Details  string `json:"details,omitempty"` // failure summary, trace or message
}

func (t *TestTable) Type() PatternType { return PatternTypeTestTable }
