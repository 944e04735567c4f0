package ruleset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned (possibly wrapped) by loaders for unknown references.
var ErrNotFound = errors.New("preset not found")

// CyclicPresetError reports a preset that extends itself, directly or not.
// Cycle lists the references in expansion order, ending with the repeated one.
type CyclicPresetError struct {
	Cycle []string
}

func (e *CyclicPresetError) Error() string {
	return fmt.Sprintf("cyclic preset reference: %s", strings.Join(e.Cycle, " -> "))
}

// UnresolvedPresetError reports a reference the loader could not find.
type UnresolvedPresetError struct {
	Ref string
	// Chain is the expansion path that led to Ref, outermost first.
	Chain []string
	Err   error
}

func (e *UnresolvedPresetError) Error() string {
	msg := fmt.Sprintf("unresolved preset %q", e.Ref)
	if len(e.Chain) > 0 {
		msg += fmt.Sprintf(" (extended from %s)", strings.Join(e.Chain, " -> "))
	}
	return msg
}

func (e *UnresolvedPresetError) Unwrap() error { return e.Err }

// UnknownPluginNamespaceError reports a namespaced rule whose plugin is not declared.
type UnknownPluginNamespaceError struct {
	Rule      string
	Namespace string
	Plugins   []string
}

func (e *UnknownPluginNamespaceError) Error() string {
	declared := "none"
	if len(e.Plugins) > 0 {
		declared = strings.Join(e.Plugins, ", ")
	}
	return fmt.Sprintf("rule %q: plugin %q is not declared (declared: %s)", e.Rule, e.Namespace, declared)
}

// MalformedSettingError reports a rule value that is neither a severity nor a
// [severity, options...] sequence.
type MalformedSettingError struct {
	Rule string
	// Layer is the preset reference, or LocalLayer, that supplied the value.
	Layer string
	Err   error
}

func (e *MalformedSettingError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("rule %q in %s: malformed setting: %v", e.Rule, e.Layer, e.Err)
	}
	return fmt.Sprintf("rule %q: malformed setting: %v", e.Rule, e.Err)
}

func (e *MalformedSettingError) Unwrap() error { return e.Err }
