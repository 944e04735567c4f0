package engine

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/tools/go/analysis"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// Selected is an analyzer enabled by the effective config. Flags holds the
// value of every analyzer flag for this selection; the analyzer itself is
// never modified, so registries may share analyzers.
type Selected struct {
	Rule     string
	Analyzer *analysis.Analyzer
	Severity ruleset.Severity
	Flags    map[string]string
}

// Args renders the flags that differ from their defaults in the
// -analyzer.flag=value form accepted by analysis drivers.
func (s Selected) Args() []string {
	var args []string
	s.Analyzer.Flags.VisitAll(func(f *flag.Flag) {
		if v, ok := s.Flags[f.Name]; ok && v != f.DefValue {
			args = append(args, fmt.Sprintf("-%s.%s=%s", s.Analyzer.Name, f.Name, v))
		}
	})
	return args
}

// Select returns the analyzers whose rules are enabled in eff, sorted by rule
// name. The keys of a rule's first mapping option override the analyzer's
// flag defaults; a key naming no flag, or a value the flag cannot parse, is
// an error. Rules in the registry's namespace that no analyzer implements are
// reported as diagnostics.
func (r *Registry) Select(eff *ruleset.EffectiveConfig) ([]Selected, []ruleset.Diagnostic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		selected []Selected
		diags    []ruleset.Diagnostic
	)
	for _, rule := range eff.RuleNames() {
		if !r.owns(rule) {
			continue
		}
		setting, _ := eff.Rule(rule)
		name, _ := r.analyzerName(rule)
		a, ok := r.analyzers[name]
		if !ok {
			diags = append(diags, ruleset.Diagnostic{
				Level:   ruleset.LevelWarning,
				Kind:    ruleset.KindUnknownRule,
				Rule:    rule,
				Message: fmt.Sprintf("rule %q has no analyzer", rule),
			})
			continue
		}
		if !setting.Severity.Enabled() {
			continue
		}
		flags, err := configure(a, setting)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %q: %w", rule, err)
		}
		selected = append(selected, Selected{Rule: rule, Analyzer: a, Severity: setting.Severity, Flags: flags})
	}

	if err := analysis.Validate(Analyzers(selected)); err != nil {
		return nil, nil, fmt.Errorf("invalid analyzer set: %w", err)
	}
	ruleset.SortDiagnostics(diags)
	return selected, diags, nil
}

// Analyzers extracts the analyzers of a selection.
func Analyzers(selected []Selected) []*analysis.Analyzer {
	out := make([]*analysis.Analyzer, len(selected))
	for i, s := range selected {
		out[i] = s.Analyzer
	}
	return out
}

// configure returns a's flag defaults overlaid with the first mapping option
// of setting.
func configure(a *analysis.Analyzer, setting ruleset.Setting) (map[string]string, error) {
	flags := map[string]string{}
	a.Flags.VisitAll(func(f *flag.Flag) {
		flags[f.Name] = f.DefValue
	})

	for _, opt := range setting.Options {
		m, ok := opt.(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f := a.Flags.Lookup(k)
			if f == nil {
				return nil, fmt.Errorf("analyzer %s has no flag %q", a.Name, k)
			}
			v := flagValue(m[k])
			if err := checkFlag(f, v); err != nil {
				return nil, fmt.Errorf("analyzer %s flag %q: %w", a.Name, k, err)
			}
			flags[k] = v
		}
		break
	}
	return flags, nil
}

// checkFlag parses v the way f would without setting it. Flags whose type is
// not one of the flag package's own are accepted as is.
func checkFlag(f *flag.Flag, v string) error {
	g, ok := f.Value.(flag.Getter)
	if !ok {
		return nil
	}
	var err error
	switch g.Get().(type) {
	case bool:
		_, err = strconv.ParseBool(v)
	case int:
		_, err = strconv.ParseInt(v, 0, strconv.IntSize)
	case int64:
		_, err = strconv.ParseInt(v, 0, 64)
	case uint:
		_, err = strconv.ParseUint(v, 0, strconv.IntSize)
	case uint64:
		_, err = strconv.ParseUint(v, 0, 64)
	case float64:
		_, err = strconv.ParseFloat(v, 64)
	case time.Duration:
		_, err = time.ParseDuration(v)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q", v)
	}
	return nil
}

func flagValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
