package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkoosis/testrules/pkg/pattern"
)

// JSONVersion is the version of the envelope written by JSON.
const JSONVersion = "1.0"

// JSON writes every pattern into one document:
//
//	{"version": "1.0", "patterns": [{"type": "summary", "data": {...}}, ...]}
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON { return &JSON{} }

type envelope struct {
	Version  string         `json:"version"`
	Patterns []typedPattern `json:"patterns"`
}

type typedPattern struct {
	Type pattern.PatternType `json:"type"`
	Data pattern.Pattern     `json:"data"`
}

// Render encodes patterns in order. Traces keep <, > and & unescaped.
func (j *JSON) Render(patterns []pattern.Pattern) string {
	env := envelope{Version: JSONVersion, Patterns: make([]typedPattern, 0, len(patterns))}
	for _, p := range patterns {
		env.Patterns = append(env.Patterns, typedPattern{Type: p.Type(), Data: p})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Sprintf("{\"version\": %q, \"error\": %q}\n", JSONVersion, err.Error())
	}
	return buf.String()
}
