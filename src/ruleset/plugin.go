package ruleset

import "strings"

const pluginPrefix = "eslint-plugin"

// NormalizePluginName reduces a plugin package name to the namespace its
// rules are written under:
//
//	eslint-plugin-foo          -> foo
//	@scope/eslint-plugin       -> @scope
//	@scope/eslint-plugin-bar   -> @scope/bar
//
// Names already in short form are returned unchanged.
func NormalizePluginName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "@") {
		scope, rest, ok := strings.Cut(name, "/")
		if !ok {
			return name
		}
		if rest == pluginPrefix {
			return scope
		}
		if short, ok := strings.CutPrefix(rest, pluginPrefix+"-"); ok {
			return scope + "/" + short
		}
		return name
	}
	if short, ok := strings.CutPrefix(name, pluginPrefix+"-"); ok {
		return short
	}
	return name
}

// RuleNamespace returns the plugin namespace of a rule name, or "" for core
// rules. The namespace is everything before the last slash.
func RuleNamespace(rule string) string {
	i := strings.LastIndex(rule, "/")
	if i <= 0 {
		return ""
	}
	return rule[:i]
}
