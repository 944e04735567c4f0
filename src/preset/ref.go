// Package preset implements ruleset.Loader over directory trees and git
// revisions, plus chaining and caching wrappers.
package preset

import (
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// RefKind classifies preset references.
type RefKind int

const (
	RefShareable RefKind = iota // prettier, prettier/@typescript-eslint
	RefBuiltin                  // eslint:recommended
	RefPlugin                   // plugin:promise/recommended
	RefFile                     // ./presets/base.yml
)

func (k RefKind) String() string {
	switch k {
	case RefShareable:
		return "shareable"
	case RefBuiltin:
		return "builtin"
	case RefPlugin:
		return "plugin"
	case RefFile:
		return "file"
	default:
		return fmt.Sprintf("refkind(%d)", int(k))
	}
}

const (
	builtinPrefix = "eslint:"
	pluginPrefix  = "plugin:"
	configPrefix  = "eslint-config"
)

// Ref is a parsed preset reference.
type Ref struct {
	Raw    string
	Kind   RefKind
	Plugin string // normalized plugin namespace, RefPlugin only
	Name   string

	// Constraint is set when the reference carries an @<constraint> suffix.
	Constraint *semver.Constraints
}

// ParseRef classifies a reference and splits off an optional version
// constraint: "prettier@^8", "plugin:promise/recommended@~6.1".
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	ref := Ref{Raw: raw}
	if raw == "" {
		return ref, fmt.Errorf("empty preset reference")
	}

	base := raw
	if i := strings.LastIndex(raw, "@"); i > 0 && raw[i-1] != '/' && raw[i-1] != ':' {
		c, err := semver.NewConstraint(raw[i+1:])
		if err != nil {
			return ref, fmt.Errorf("preset %q: invalid version constraint %q: %w", raw, raw[i+1:], err)
		}
		ref.Constraint = c
		base = raw[:i]
	}

	switch {
	case strings.HasPrefix(base, builtinPrefix):
		ref.Kind = RefBuiltin
		ref.Name = strings.TrimPrefix(base, builtinPrefix)
	case strings.HasPrefix(base, pluginPrefix):
		rest := strings.TrimPrefix(base, pluginPrefix)
		i := strings.LastIndex(rest, "/")
		if i <= 0 || i == len(rest)-1 {
			return ref, fmt.Errorf("preset %q: plugin reference must be plugin:<plugin>/<config>", raw)
		}
		ref.Kind = RefPlugin
		ref.Plugin = ruleset.NormalizePluginName(rest[:i])
		ref.Name = rest[i+1:]
	case isFileRef(base):
		ref.Kind = RefFile
		ref.Name = base
	default:
		ref.Kind = RefShareable
		ref.Name = normalizeConfigName(base)
	}

	if ref.Name == "" {
		return ref, fmt.Errorf("preset %q: missing name", raw)
	}
	return ref, nil
}

// Path is the slash-separated location of the preset relative to a preset
// root, without extension or version suffix.
func (r Ref) Path() (string, error) {
	var p string
	switch r.Kind {
	case RefBuiltin:
		p = path.Join("builtin", r.Name)
	case RefPlugin:
		p = path.Join("plugins", r.Plugin, r.Name)
	case RefShareable:
		p = path.Join("configs", r.Name)
	case RefFile:
		p = path.Clean(strings.TrimPrefix(r.Name, "/"))
	}
	if p == "." || strings.HasPrefix(p, "../") || p == ".." {
		return "", fmt.Errorf("preset %q: path escapes the preset root", r.Raw)
	}
	return p, nil
}

func (r Ref) String() string { return r.Raw }

func isFileRef(s string) bool {
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/") {
		return true
	}
	_, ok := ruleset.FormatFromPath(s)
	return ok
}

// normalizeConfigName strips the eslint-config package prefix:
//
//	eslint-config-prettier          -> prettier
//	@scope/eslint-config            -> @scope
//	@scope/eslint-config-strict/ts  -> @scope/strict/ts
func normalizeConfigName(name string) string {
	if strings.HasPrefix(name, "@") {
		scope, rest, ok := strings.Cut(name, "/")
		if !ok {
			return name
		}
		if rest == configPrefix {
			return scope
		}
		if r, ok := strings.CutPrefix(rest, configPrefix+"/"); ok {
			return scope + "/" + r
		}
		if r, ok := strings.CutPrefix(rest, configPrefix+"-"); ok {
			return scope + "/" + r
		}
		return name
	}
	if r, ok := strings.CutPrefix(name, configPrefix+"-"); ok {
		return r
	}
	return name
}
