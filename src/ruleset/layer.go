package ruleset

import (
	"fmt"
	"sort"
)

// ruleEntry remembers which layer last wrote a rule.
type ruleEntry struct {
	setting Setting
	layer   string
}

// layer is a flattened set of configs. A preset's layer already contains
// everything it extends.
type layer struct {
	name string

	parser         string
	parserOptions  map[string]any
	plugins        []string
	env            map[string]bool
	globals        map[string]string
	settings       map[string]any
	ignorePatterns []string
	rules          map[string]ruleEntry

	root                          *bool
	noInlineConfig                *bool
	reportUnusedDisableDirectives *bool

	// contributors in merge order, this layer last.
	layers []string
}

func newLayer(name string) *layer {
	return &layer{
		name:  name,
		env:   map[string]bool{},
		rules: map[string]ruleEntry{},
	}
}

// layerFromConfig validates cfg's own entries (not its extends) and wraps
// them in a layer.
func (res *resolution) layerFromConfig(name string, cfg *Config) (*layer, error) {
	l := newLayer(name)
	l.parser = cfg.Parser
	l.parserOptions = cloneMap(cfg.ParserOptions)
	l.settings = cloneMap(cfg.Settings)
	l.root = cfg.Root
	l.noInlineConfig = cfg.NoInlineConfig
	l.reportUnusedDisableDirectives = cfg.ReportUnusedDisableDirectives
	l.ignorePatterns = unionStrings(nil, cfg.IgnorePatterns)

	for _, p := range cfg.Plugins {
		l.plugins = unionStrings(l.plugins, []string{NormalizePluginName(p)})
	}
	for k, v := range cfg.Env {
		l.env[k] = v
	}
	if len(cfg.Globals) > 0 {
		l.globals = make(map[string]string, len(cfg.Globals))
		for k, v := range cfg.Globals {
			l.globals[k] = v
		}
	}

	for _, rule := range sortedKeys(cfg.Rules) {
		s := cfg.Rules[rule]
		if !s.Severity.Valid() {
			return nil, &MalformedSettingError{
				Rule:  rule,
				Layer: name,
				Err:   fmt.Errorf("unknown severity %d", int(s.Severity)),
			}
		}
		if !s.Canonical() {
			if res.opts.Strict {
				return nil, &MalformedSettingError{
					Rule:  rule,
					Layer: name,
					Err:   fmt.Errorf("severity must be one of off, warn, error, 0, 1, 2"),
				}
			}
			res.report(Diagnostic{
				Level:   LevelInfo,
				Kind:    KindNonCanonicalSeverity,
				Rule:    rule,
				Layer:   name,
				Message: fmt.Sprintf("rule %q in %s: severity read as %q", rule, name, s.Severity),
			})
		}
		l.rules[rule] = ruleEntry{setting: s.clone(), layer: name}
	}

	l.layers = []string{name}
	return l, nil
}

// merge applies src on top of dst: rules and scalars are last-write-wins,
// plugins, env and ignore patterns accumulate, mappings merge deeply.
func (res *resolution) merge(dst, src *layer) {
	if src.parser != "" {
		dst.parser = src.parser
	}
	if src.parserOptions != nil {
		dst.parserOptions = deepMerge(dst.parserOptions, src.parserOptions)
	}
	if src.settings != nil {
		dst.settings = deepMerge(dst.settings, src.settings)
	}
	if src.root != nil {
		dst.root = src.root
	}
	if src.noInlineConfig != nil {
		dst.noInlineConfig = src.noInlineConfig
	}
	if src.reportUnusedDisableDirectives != nil {
		dst.reportUnusedDisableDirectives = src.reportUnusedDisableDirectives
	}

	dst.plugins = unionStrings(dst.plugins, src.plugins)
	dst.ignorePatterns = unionStrings(dst.ignorePatterns, src.ignorePatterns)
	dst.layers = unionStrings(dst.layers, src.layers)
	for k, v := range src.env {
		dst.env[k] = v
	}
	if len(src.globals) > 0 && dst.globals == nil {
		dst.globals = make(map[string]string, len(src.globals))
	}
	for k, v := range src.globals {
		dst.globals[k] = v
	}

	for _, rule := range sortedKeys(src.rules) {
		next := src.rules[rule]
		prev, seen := dst.rules[rule]
		if seen {
			if prev.setting.Severity == SeverityError && next.setting.Severity == SeverityOff {
				res.report(Diagnostic{
					Level: LevelWarning,
					Kind:  KindSeverityDemoted,
					Rule:  rule,
					Layer: next.layer,
					Message: fmt.Sprintf("rule %q: error from %s turned off by %s",
						rule, prev.layer, next.layer),
				})
			}
			if res.opts.PreserveOptions && next.setting.Kind() == SettingBare && prev.setting.Kind() == SettingWithOptions {
				next.setting.Options = cloneSlice(prev.setting.Options)
			}
		}
		dst.rules[rule] = next
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
