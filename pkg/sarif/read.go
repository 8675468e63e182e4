package sarif

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrVersion is returned for documents that are not SARIF 2.1.0.
var ErrVersion = errors.New("unsupported sarif version")

// Read decodes the first JSON value of r. Anything the tool printed after
// the document is ignored.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode sarif: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %q", ErrVersion, doc.Version)
	}
	return &doc, nil
}

// Findings flattens every run of doc. Results of one file stay together,
// files in order of first appearance, results in document order.
func Findings(doc *Document) []Finding {
	index := map[string]int{}
	var groups [][]Finding
	for _, run := range doc.Runs {
		for _, r := range run.Results {
			f := finding(run.Tool.Driver.Name, r)
			i, ok := index[f.File]
			if !ok {
				i = len(groups)
				index[f.File] = i
				groups = append(groups, nil)
			}
			groups[i] = append(groups[i], f)
		}
	}
	var out []Finding
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func finding(tool string, r Result) Finding {
	f := Finding{
		Tool:    tool,
		Rule:    r.RuleID,
		Level:   r.Level,
		Message: strings.TrimSpace(r.Message.Text),
	}
	if f.Level == "" {
		f.Level = LevelWarning
	}
	if len(r.Locations) > 0 {
		loc := r.Locations[0].PhysicalLocation
		f.File = strings.TrimPrefix(loc.ArtifactLocation.URI, "file://")
		f.Line = loc.Region.StartLine
		f.Column = loc.Region.StartColumn
	}
	return f
}
