package sarif

import (
	"errors"
	"strings"
	"testing"
)

const golangciOutput = `{"version":"2.1.0","$schema":"https://json.schemastore.org/sarif-2.1.0.json","runs":[{"tool":{"driver":{"name":"golangci-lint"}},"results":[
{"ruleId":"errcheck","level":"error","message":{"text":"Error return value is not checked"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"calc/calc.go"},"region":{"startLine":12,"startColumn":5}}}]},
{"ruleId":"revive","message":{"text":"exported function Add should have comment "},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"file:///src/api/api.go"},"region":{"startLine":3}}}]},
{"ruleId":"unused","level":"note","message":{"text":"func helper is unused"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"calc/calc.go"},"region":{"startLine":20,"startColumn":6}}}]},
{"ruleId":"typecheck","level":"error","message":{"text":"could not load packages"}}
]}]}`

func TestRead_TrailingOutputIgnored(t *testing.T) {
	doc, err := Read(strings.NewReader(golangciOutput + "\n3 issues:\n* errcheck: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Runs) != 1 || len(doc.Runs[0].Results) != 4 {
		t.Fatalf("runs = %+v", doc.Runs)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		version bool
	}{
		{name: "not json", input: "calc.go:1: oops"},
		{name: "truncated", input: `{"version":"2.1.0","runs":[`},
		{name: "missing version", input: `{"runs":[]}`, version: true},
		{name: "old version", input: `{"version":"1.0.0","runs":[]}`, version: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrVersion); got != tt.version {
				t.Errorf("errors.Is(err, ErrVersion) = %v, want %v (%v)", got, tt.version, err)
			}
		})
	}
}

func TestFindings_GroupsByFileInFirstSeenOrder(t *testing.T) {
	doc, err := Read(strings.NewReader(golangciOutput))
	if err != nil {
		t.Fatal(err)
	}
	got := Findings(doc)

	var order []string
	for _, f := range got {
		order = append(order, f.File+":"+f.Rule)
	}
	want := "calc/calc.go:errcheck calc/calc.go:unused /src/api/api.go:revive :typecheck"
	if strings.Join(order, " ") != want {
		t.Errorf("order = %v, want %s", order, want)
	}
	if got[2].Level != LevelWarning {
		t.Errorf("missing level = %q, want warning", got[2].Level)
	}
	if got[2].Message != "exported function Add should have comment" {
		t.Errorf("message not trimmed: %q", got[2].Message)
	}
	if got[0].Tool != "golangci-lint" || got[0].Line != 12 || got[0].Column != 5 {
		t.Errorf("findings[0] = %+v", got[0])
	}
}
