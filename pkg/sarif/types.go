// Package sarif reads the SARIF 2.1.0 subset that style tools emit and
// flattens it into findings. Line-oriented compiler diagnostics are
// converted into the same document shape.
package sarif

// Version is the only SARIF version accepted by Read.
const Version = "2.1.0"

// Result levels. An empty level means LevelWarning.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelNote    = "note"
	LevelNone    = "none"
)

// Document is a SARIF log.
type Document struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run is the output of one tool invocation.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Result is one reported problem.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level,omitempty"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region,omitzero"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// Finding is a Result with its primary location resolved.
type Finding struct {
	Tool    string
	File    string // "" when the result has no location
	Line    int
	Column  int
	Rule    string
	Level   string
	Message string
}
