package pattern

// Leaderboard ranks the top entries of a larger set, such as the slowest
// methods of a run or the files with the most style violations.
type Leaderboard struct {
	Label      string            `json:"label"`
	MetricName string            `json:"metric_name"` // "Duration", "Issues"
	Items      []LeaderboardItem `json:"items"`
	TotalCount int               `json:"total_count"` // size of the ranked set before the cut
	ShowRank   bool              `json:"show_rank"`
}

// LeaderboardItem is one ranked entry, highest first.
type LeaderboardItem struct {
	Name    string  `json:"name"`
	Metric  string  `json:"metric"` // "2.300s", "12 issues"
	Value   float64 `json:"value"`
	Rank    int     `json:"rank"`
	Context string  `json:"context,omitempty"` // module or full file path
}

func (l *Leaderboard) Type() PatternType { return PatternTypeLeaderboard }
