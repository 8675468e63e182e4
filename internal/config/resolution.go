package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables recognised by Load.
const (
	EnvCoverage = "TESTRULES_COVERAGE"
)

// Overrides carries CLI flag values. Zero values leave the loaded config alone.
type Overrides struct {
	NoCoverage bool
	NoHTML     bool
	HTMLDir    string
}

// WithOverrides returns a copy of c with CLI overrides applied.
func (c *Config) WithOverrides(o Overrides) *Config {
	cp := c.clone()
	if o.NoCoverage {
		cp.coverageEnabled = false
	}
	if o.NoHTML {
		cp.htmlCoverage = false
	}
	if o.HTMLDir != "" {
		cp.htmlCoverageDir = o.HTMLDir
	}
	return cp
}

func (c *Config) applyEnv(getenv func(string) string) []Warning {
	raw := strings.TrimSpace(getenv(EnvCoverage))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return []Warning{{Source: EnvCoverage, Message: fmt.Sprintf("ignoring non-boolean value %q", raw)}}
	}
	c.coverageEnabled = v
	return nil
}
