package ruleset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for configs.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// Config is one layer of configuration: a preset, or the local file.
type Config struct {
	Parser        string
	ParserOptions map[string]any
	Plugins       []string
	Extends       []string
	Env           map[string]bool
	Globals       map[string]string
	Settings      map[string]any
	Rules         map[string]Setting

	// IgnorePatterns accumulate across layers.
	IgnorePatterns []string

	// Unset (nil) fields leave the earlier layer's value in place.
	Root                          *bool
	NoInlineConfig                *bool
	ReportUnusedDisableDirectives *bool
}

// Parse decodes a config document. Rule values are validated so a
// *MalformedSettingError names the offending rule.
func Parse(data []byte, format Format) (*Config, error) {
	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		var err error
		raw, err = decodeRaw(data, format)
		if err != nil {
			return nil, err
		}
	}
	return FromMap(raw)
}

func decodeRaw(data []byte, format Format) (map[string]any, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	case FormatTOML:
		m := map[string]any{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		doc = m
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := normalizeValue(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config must be a mapping, got %T", doc)
	}
	return m, nil
}

// FromMap builds a Config from a generic decoded document.
func FromMap(raw map[string]any) (*Config, error) {
	raw = normalizeValue(raw).(map[string]any)
	cfg := &Config{}
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := raw[key]
		switch key {
		case "parser":
			s, ok := val.(string)
			if !ok {
				fail("parser: must be a string, got %T", val)
				continue
			}
			cfg.Parser = s
		case "parserOptions":
			m, ok := val.(map[string]any)
			if !ok {
				fail("parserOptions: must be a mapping, got %T", val)
				continue
			}
			cfg.ParserOptions = m
		case "plugins":
			list, err := stringList(val, false)
			if err != nil {
				fail("plugins: %v", err)
				continue
			}
			cfg.Plugins = list
		case "extends":
			list, err := stringList(val, true)
			if err != nil {
				fail("extends: %v", err)
				continue
			}
			cfg.Extends = list
		case "root":
			b, ok := val.(bool)
			if !ok {
				fail("root: must be a boolean, got %T", val)
				continue
			}
			cfg.Root = &b
		case "env":
			m, ok := val.(map[string]any)
			if !ok {
				fail("env: must be a mapping, got %T", val)
				continue
			}
			cfg.Env = make(map[string]bool, len(m))
			for name, v := range m {
				b, ok := v.(bool)
				if !ok {
					fail("env.%s: must be a boolean, got %T", name, v)
					continue
				}
				cfg.Env[name] = b
			}
		case "globals":
			m, ok := val.(map[string]any)
			if !ok {
				fail("globals: must be a mapping, got %T", val)
				continue
			}
			cfg.Globals = make(map[string]string, len(m))
			for name, v := range m {
				g, err := globalAccess(v)
				if err != nil {
					fail("globals.%s: %v", name, err)
					continue
				}
				cfg.Globals[name] = g
			}
		case "settings":
			m, ok := val.(map[string]any)
			if !ok {
				fail("settings: must be a mapping, got %T", val)
				continue
			}
			cfg.Settings = m
		case "ignorePatterns":
			list, err := stringList(val, true)
			if err != nil {
				fail("ignorePatterns: %v", err)
				continue
			}
			cfg.IgnorePatterns = list
		case "noInlineConfig":
			b, ok := val.(bool)
			if !ok {
				fail("noInlineConfig: must be a boolean, got %T", val)
				continue
			}
			cfg.NoInlineConfig = &b
		case "reportUnusedDisableDirectives":
			b, ok := val.(bool)
			if !ok {
				fail("reportUnusedDisableDirectives: must be a boolean, got %T", val)
				continue
			}
			cfg.ReportUnusedDisableDirectives = &b
		case "rules":
			m, ok := val.(map[string]any)
			if !ok {
				fail("rules: must be a mapping, got %T", val)
				continue
			}
			rules, err := parseRules(m)
			if err != nil {
				return nil, err
			}
			cfg.Rules = rules
		default:
			fail("%s: unknown field", key)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// parseRules fails on the first malformed rule in name order.
func parseRules(m map[string]any) (map[string]Setting, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make(map[string]Setting, len(m))
	for _, name := range names {
		s, err := ParseSetting(m[name])
		if err != nil {
			return nil, &MalformedSettingError{Rule: name, Err: err}
		}
		rules[name] = s
	}
	return rules, nil
}

func stringList(v any, allowScalar bool) ([]string, error) {
	if s, ok := v.(string); ok && allowScalar {
		return []string{s}, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("must be a sequence of strings, got %T", v)
	}
	out := make([]string, 0, len(seq))
	for i, e := range seq {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("[%d]: must be a string, got %T", i, e)
		}
		out = append(out, s)
	}
	return out, nil
}

// globalAccess folds the legacy boolean and "readable"/"writeable" spellings
// onto readonly, writable and off.
func globalAccess(v any) (string, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return "writable", nil
		}
		return "readonly", nil
	case string:
		switch t {
		case "readonly", "readable":
			return "readonly", nil
		case "writable", "writeable":
			return "writable", nil
		case "off":
			return "off", nil
		}
		return "", fmt.Errorf("unknown access %q (supported: readonly, writable, off)", t)
	case nil:
		return "readonly", nil
	default:
		return "", fmt.Errorf("must be a string or boolean, got %T", v)
	}
}
