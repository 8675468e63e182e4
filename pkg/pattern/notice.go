package pattern

// Notice is a one-line message that does not fit a table, such as
// "Coverage not collected".
type Notice struct {
	Level string `json:"level"` // "info", "success", "warning", "error"
	Text  string `json:"text"`
}

func (n *Notice) Type() PatternType { return PatternTypeNotice }
