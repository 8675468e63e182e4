// Package classify maps test file names to test types by glob pattern.
package classify

import (
	"path"
	"path/filepath"
)

// PatternSource supplies the registered test types and their patterns.
// *config.Config satisfies it.
type PatternSource interface {
	TestTypes() []string
	Patterns(typ string) []string
}

// Classify returns every test type whose patterns match the base name of
// fileName, in the order the source lists its types. A file may belong to
// several types; a nil result means it is not picked up automatically.
func Classify(fileName string, src PatternSource) []string {
	var types []string
	for _, typ := range src.TestTypes() {
		if Matches(fileName, src.Patterns(typ)) {
			types = append(types, typ)
		}
	}
	return types
}

// Matches reports whether the base name of fileName matches any pattern.
// Matching is case-sensitive with path.Match semantics; malformed patterns
// never match.
func Matches(fileName string, patterns []string) bool {
	base := path.Base(filepath.ToSlash(fileName))
	for _, p := range patterns {
		if ok, err := path.Match(p, base); err == nil && ok {
			return true
		}
	}
	return false
}
