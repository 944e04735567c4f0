package ruleset

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EffectiveConfig is the flattened result of a resolution. It is never
// modified after construction; accessors return copies.
type EffectiveConfig struct {
	parser         string
	parserOptions  map[string]any
	root           bool
	env            map[string]bool
	plugins        []string
	rules          map[string]Setting
	globals        map[string]string
	settings       map[string]any
	ignorePatterns []string

	noInlineConfig                bool
	reportUnusedDisableDirectives bool

	layers []string
}

func newEffectiveConfig(acc *layer) *EffectiveConfig {
	eff := &EffectiveConfig{
		parser:         acc.parser,
		parserOptions:  cloneMap(acc.parserOptions),
		env:            make(map[string]bool, len(acc.env)),
		plugins:        slices.Clone(acc.plugins),
		rules:          make(map[string]Setting, len(acc.rules)),
		globals:        make(map[string]string, len(acc.globals)),
		settings:       cloneMap(acc.settings),
		ignorePatterns: slices.Clone(acc.ignorePatterns),
		layers:         slices.Clone(acc.layers),
	}
	if eff.parserOptions == nil {
		eff.parserOptions = map[string]any{}
	}
	if eff.settings == nil {
		eff.settings = map[string]any{}
	}
	if acc.root != nil {
		eff.root = *acc.root
	}
	if acc.noInlineConfig != nil {
		eff.noInlineConfig = *acc.noInlineConfig
	}
	if acc.reportUnusedDisableDirectives != nil {
		eff.reportUnusedDisableDirectives = *acc.reportUnusedDisableDirectives
	}
	for k, v := range acc.env {
		eff.env[k] = v
	}
	for k, v := range acc.globals {
		eff.globals[k] = v
	}
	for name, e := range acc.rules {
		eff.rules[name] = e.setting.clone()
	}
	return eff
}

func (c *EffectiveConfig) Parser() string { return c.parser }
func (c *EffectiveConfig) Root() bool     { return c.root }

func (c *EffectiveConfig) NoInlineConfig() bool { return c.noInlineConfig }

func (c *EffectiveConfig) ReportUnusedDisableDirectives() bool {
	return c.reportUnusedDisableDirectives
}

func (c *EffectiveConfig) ParserOptions() map[string]any { return cloneMap(c.parserOptions) }
func (c *EffectiveConfig) Settings() map[string]any      { return cloneMap(c.settings) }

// Plugins returns the normalized plugin names in first-declared order.
func (c *EffectiveConfig) Plugins() []string { return slices.Clone(c.plugins) }

func (c *EffectiveConfig) IgnorePatterns() []string { return slices.Clone(c.ignorePatterns) }

// Layers lists the presets that contributed, in merge order, followed by
// LocalLayer when local overrides were given.
func (c *EffectiveConfig) Layers() []string { return slices.Clone(c.layers) }

func (c *EffectiveConfig) Env() map[string]bool {
	out := make(map[string]bool, len(c.env))
	for k, v := range c.env {
		out[k] = v
	}
	return out
}

func (c *EffectiveConfig) Globals() map[string]string {
	out := make(map[string]string, len(c.globals))
	for k, v := range c.globals {
		out[k] = v
	}
	return out
}

// Rules returns a copy of the rule table.
func (c *EffectiveConfig) Rules() map[string]Setting {
	out := make(map[string]Setting, len(c.rules))
	for k, v := range c.rules {
		out[k] = v.clone()
	}
	return out
}

// Rule looks up a single rule.
func (c *EffectiveConfig) Rule(name string) (Setting, bool) {
	s, ok := c.rules[name]
	if !ok {
		return Setting{}, false
	}
	return s.clone(), true
}

// RuleNames returns all configured rule names, sorted.
func (c *EffectiveConfig) RuleNames() []string {
	return sortedKeys(c.rules)
}

// Enabled reports whether name is configured at warn or error.
func (c *EffectiveConfig) Enabled(name string) bool {
	s, ok := c.rules[name]
	return ok && s.Severity.Enabled()
}

// Map renders the config in its source shape, suitable for any encoder.
func (c *EffectiveConfig) Map() map[string]any {
	rules := make(map[string]any, len(c.rules))
	for name, s := range c.rules {
		rules[name] = s.value()
	}
	env := make(map[string]any, len(c.env))
	for k, v := range c.env {
		env[k] = v
	}
	plugins := make([]any, len(c.plugins))
	for i, p := range c.plugins {
		plugins[i] = p
	}

	m := map[string]any{
		"parser":        c.parser,
		"parserOptions": cloneMap(c.parserOptions),
		"plugins":       plugins,
		"root":          c.root,
		"env":           env,
		"rules":         rules,
	}
	if len(c.globals) > 0 {
		g := make(map[string]any, len(c.globals))
		for k, v := range c.globals {
			g[k] = v
		}
		m["globals"] = g
	}
	if len(c.settings) > 0 {
		m["settings"] = cloneMap(c.settings)
	}
	if len(c.ignorePatterns) > 0 {
		patterns := make([]any, len(c.ignorePatterns))
		for i, p := range c.ignorePatterns {
			patterns[i] = p
		}
		m["ignorePatterns"] = patterns
	}
	if c.noInlineConfig {
		m["noInlineConfig"] = true
	}
	if c.reportUnusedDisableDirectives {
		m["reportUnusedDisableDirectives"] = true
	}
	return m
}

func (c *EffectiveConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

func (c *EffectiveConfig) MarshalYAML() (any, error) {
	return c.Map(), nil
}

// Encode writes the config in the given format. Map keys are emitted in
// sorted order so equal configs encode to identical bytes.
func (c *EffectiveConfig) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Map())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c.Map()); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(c.Map())
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
