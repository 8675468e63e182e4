package discovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkoosis/testrules/internal/config"
)

// Kind is the shape of a selector.
type Kind int

const (
	KindAll Kind = iota
	KindType
	KindGroup
	KindModules
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindType:
		return "type"
	case KindGroup:
		return "group"
	case KindModules:
		return "modules"
	default:
		return "unknown"
	}
}

// AllSelector is the literal selecting every test type and group.
const AllSelector = "all"

// ErrUnknownSelector is wrapped by SelectorError.
var ErrUnknownSelector = errors.New("unknown selector")

// SelectorError reports a selector that names no type, group or module.
type SelectorError struct {
	Selector string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("%s %q: not a test type, group, or module", ErrUnknownSelector, e.Selector)
}

func (e *SelectorError) Unwrap() error { return ErrUnknownSelector }

// Selector says which tests to discover.
type Selector struct {
	Kind    Kind
	Name    string   // type or group name
	Modules []string // explicit module names for KindModules
}

func (s Selector) String() string {
	switch s.Kind {
	case KindAll:
		return AllSelector
	case KindModules:
		return strings.Join(s.Modules, " ")
	default:
		return s.Name
	}
}

// ParseSelector interprets positional arguments. No arguments or "all"
// selects everything; a single type or group name selects it; anything
// else is an explicit module list.
func ParseSelector(args []string, cfg *config.Config) Selector {
	if len(args) == 0 || len(args) == 1 && args[0] == AllSelector {
		return Selector{Kind: KindAll, Name: AllSelector}
	}
	if len(args) == 1 {
		name := args[0]
		if cfg.HasTestType(name) {
			return Selector{Kind: KindType, Name: name}
		}
		if _, ok := cfg.Group(name); ok {
			return Selector{Kind: KindGroup, Name: name}
		}
	}
	return Selector{Kind: KindModules, Modules: append([]string(nil), args...)}
}
