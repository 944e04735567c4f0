package ruleset

import (
	"fmt"
	"sort"
)

// Level indicates how much attention a diagnostic deserves.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// DiagnosticKind classifies advisory diagnostics.
type DiagnosticKind string

const (
	// KindSeverityDemoted: a later layer turned an "error" rule "off".
	KindSeverityDemoted DiagnosticKind = "severity-demoted"
	// KindUnknownNamespace: a namespaced rule has no declared plugin (non-strict only).
	KindUnknownNamespace DiagnosticKind = "unknown-namespace"
	// KindUnusedPlugin: a declared plugin no rule refers to.
	KindUnusedPlugin DiagnosticKind = "unused-plugin"
	// KindNonCanonicalSeverity: a severity spelled e.g. "Error" or "2" (non-strict only).
	KindNonCanonicalSeverity DiagnosticKind = "non-canonical-severity"
	// KindUnknownRule: the rule engine has no implementation for a configured rule.
	KindUnknownRule DiagnosticKind = "unknown-rule"
)

// Diagnostic is a non-fatal observation made while resolving.
type Diagnostic struct {
	Level   Level
	Kind    DiagnosticKind
	Rule    string
	Plugin  string
	Layer   string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s] %s", d.Level, d.Kind, d.Message)
}

// SortDiagnostics orders diagnostics by kind, rule, plugin, then message.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Plugin != b.Plugin {
			return a.Plugin < b.Plugin
		}
		return a.Message < b.Message
	})
}
