package ruleset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SettingKind tags the two shapes a rule setting can take.
type SettingKind int

const (
	// SettingBare is a severity on its own: "error", 2.
	SettingBare SettingKind = iota
	// SettingWithOptions is a severity followed by rule options: ["error", {...}].
	SettingWithOptions
)

// Setting is the severity, and optional rule-defined options, assigned to a rule.
type Setting struct {
	Severity Severity
	// Options holds everything after the severity. Nil for bare settings.
	// The schema belongs to the rule; values are strings, numbers, booleans,
	// map[string]any or []any.
	Options []any

	// lenient marks a severity that was parsed from a non-canonical spelling.
	lenient bool
}

// Bare returns a setting without options.
func Bare(sev Severity) Setting {
	return Setting{Severity: sev}
}

// WithOptions returns a setting carrying rule options.
func WithOptions(sev Severity, opts ...any) Setting {
	if len(opts) == 0 {
		return Bare(sev)
	}
	return Setting{Severity: sev, Options: cloneSlice(opts)}
}

// Kind reports which variant s is.
func (s Setting) Kind() SettingKind {
	if len(s.Options) > 0 {
		return SettingWithOptions
	}
	return SettingBare
}

// Canonical reports whether the severity was written as one of
// "off", "warn", "error", 0, 1 or 2.
func (s Setting) Canonical() bool {
	return !s.lenient
}

func (s Setting) String() string {
	if s.Kind() == SettingBare {
		return s.Severity.String()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("%s %v", s.Severity, s.Options)
	}
	return string(data)
}

// value renders s back into its source shape.
func (s Setting) value() any {
	if s.Kind() == SettingBare {
		return s.Severity.String()
	}
	out := make([]any, 0, len(s.Options)+1)
	out = append(out, s.Severity.String())
	for _, o := range s.Options {
		out = append(out, cloneValue(o))
	}
	return out
}

func (s Setting) clone() Setting {
	c := s
	if s.Options != nil {
		c.Options = cloneSlice(s.Options)
	}
	return c
}

func (s Setting) MarshalJSON() ([]byte, error) {
	if !s.Severity.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid severity %d", int(s.Severity))
	}
	return json.Marshal(s.value())
}

func (s *Setting) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	v, err := ParseSetting(normalizeValue(raw))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Setting) MarshalYAML() (any, error) {
	if !s.Severity.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid severity %d", int(s.Severity))
	}
	return s.value(), nil
}

var (
	errEmptySetting = errors.New("empty sequence has no severity")
)

// ParseSetting converts a decoded value into a Setting. Accepted shapes are a
// bare severity or a non-empty sequence whose first element is a severity.
func ParseSetting(raw any) (Setting, error) {
	switch v := raw.(type) {
	case []any:
		if len(v) == 0 {
			return Setting{}, errEmptySetting
		}
		sev, canonical, err := parseSeverity(v[0])
		if err != nil {
			return Setting{}, err
		}
		s := Setting{Severity: sev, lenient: !canonical}
		if len(v) > 1 {
			s.Options = cloneSlice(v[1:])
		}
		return s, nil
	case map[string]any:
		return Setting{}, fmt.Errorf("mapping is not a severity or [severity, options...] sequence")
	case Setting:
		if !v.Severity.Valid() {
			return Setting{}, fmt.Errorf("unknown severity %d", int(v.Severity))
		}
		return v.clone(), nil
	default:
		sev, canonical, err := parseSeverity(raw)
		if err != nil {
			return Setting{}, err
		}
		return Setting{Severity: sev, lenient: !canonical}, nil
	}
}
