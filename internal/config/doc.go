// Package config loads the testrules project configuration.
//
// # Configuration Precedence
//
// Values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--no-coverage, --config)
//  2. Environment variables (TESTRULES_COVERAGE)
//  3. Project config file (testrules.yaml, testrules.yml or testrules.json in the project root)
//  4. Hardcoded defaults
//
// # File Format
//
// The file is a flat YAML (or JSON) document:
//
//	test_patterns:
//	  unit: ["*_test.go"]
//	  smoke: ["smoke_*_test.go"]
//	test_groups:
//	  fast: ["internal/calc/calc_test"]
//	coverage_enabled: true
//	html_coverage: true
//	html_coverage_dir: htmlcov
//
// A malformed file never aborts a run: the problem is reported as a Warning
// and the defaults are used instead.
//
// A loaded Config is read-only. Accessors hand out copies, so the value can
// be shared by every component of a run without synchronization.
package config
