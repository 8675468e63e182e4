// Package detect sniffs tool output to determine its format.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized output format.
type Format int

const (
	Unknown     Format = iota // JSON that is neither SARIF nor go test -json
	Empty                     // nothing but whitespace
	SARIF                     // SARIF 2.1.0 JSON document
	GoTestJSON                // go test -json NDJSON stream
	Diagnostics               // plain text, e.g. file:line:col: message
)

func (f Format) String() string {
	switch f {
	case Empty:
		return "empty"
	case SARIF:
		return "sarif"
	case GoTestJSON:
		return "go-test-json"
	case Diagnostics:
		return "diagnostics"
	default:
		return "unknown"
	}
}

// Sniff examines the first bytes of output to determine format.
// Input must contain at least the first line.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Empty
	}

	// Anything not starting like a JSON object is treated as text
	if data[0] != '{' {
		return Diagnostics
	}

	// SARIF is a complete JSON document; go test -json is NDJSON (one object per line)
	if isSARIF(data) {
		return SARIF
	}

	if isGoTestJSON(data) {
		return GoTestJSON
	}

	return Unknown
}

func isSARIF(data []byte) bool {
	var probe struct {
		Version string            `json:"version"`
		Schema  string            `json:"$schema"`
		Runs    []json.RawMessage `json:"runs"`
	}
	// Decode only the first value; tools may print a text summary after it.
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&probe); err != nil {
		return false
	}
	// SARIF version is "2.1.0" and has runs array
	return probe.Version != "" && probe.Runs != nil
}

func isGoTestJSON(data []byte) bool {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}

	var event struct {
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(firstLine, &event); err != nil {
		return false
	}

	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
		"build-output": true, "build-fail": true,
	}
	return validActions[event.Action]
}
