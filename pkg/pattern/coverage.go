package pattern

// CoverageTable is a per-file coverage listing with a TOTAL row.
type CoverageTable struct {
	Label string        `json:"label"`
	Rows  []CoverageRow `json:"rows"`
	Total CoverageRow   `json:"total"`
}

// CoverageRow holds the columns Name, Stmts, Miss, Branch, BrPart,
// Cover, BrCover and Missing.
type CoverageRow struct {
	Name          string  `json:"name"`
	Statements    int     `json:"statements"`
	Missed        int     `json:"missed"`
	Branches      int     `json:"branches"`
	BranchPartial int     `json:"branch_partial"`
	Cover         float64 `json:"cover"`             // line percent
	BranchCover   float64 `json:"branch_cover"`      // branch percent
	Missing       string  `json:"missing,omitempty"` // "5-7, 9"
}

func (c *CoverageTable) Type() PatternType { return PatternTypeCoverageTable }
