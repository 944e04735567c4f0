// Package engine connects resolved rule settings to go/analysis analyzers.
package engine

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/tools/go/analysis"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// Registry maps rule names to analyzers. Rules are named
// "<namespace>/<analyzer>", or just "<analyzer>" when the namespace is empty.
type Registry struct {
	namespace string

	mu        sync.RWMutex
	analyzers map[string]*analysis.Analyzer
}

// NewRegistry creates an empty registry for namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{namespace: namespace, analyzers: map[string]*analysis.Analyzer{}}
}

// Namespace is the rule namespace the registry serves.
func (r *Registry) Namespace() string { return r.namespace }

// Register adds analyzers. Registering two analyzers under the same name
// panics.
func (r *Registry) Register(analyzers ...*analysis.Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range analyzers {
		if _, exists := r.analyzers[a.Name]; exists {
			panic(fmt.Sprintf("engine: duplicate analyzer registration: %s", a.Name))
		}
		r.analyzers[a.Name] = a
	}
}

// RuleName is the rule key an analyzer is configured under.
func (r *Registry) RuleName(a *analysis.Analyzer) string {
	if r.namespace == "" {
		return a.Name
	}
	return r.namespace + "/" + a.Name
}

// Lookup returns the analyzer configured by rule, if rule belongs to the
// registry's namespace and is registered.
func (r *Registry) Lookup(rule string) (*analysis.Analyzer, bool) {
	name, ok := r.analyzerName(rule)
	if !ok {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[name]
	return a, ok
}

// Rules returns the sorted rule names of all registered analyzers.
func (r *Registry) Rules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		names = append(names, r.RuleName(a))
	}
	sort.Strings(names)
	return names
}

// owns reports whether rule falls under the registry's namespace.
func (r *Registry) owns(rule string) bool {
	_, ok := r.analyzerName(rule)
	return ok
}

func (r *Registry) analyzerName(rule string) (string, bool) {
	ns := ruleset.RuleNamespace(rule)
	if ns != r.namespace {
		return "", false
	}
	if ns == "" {
		return rule, true
	}
	return rule[len(ns)+1:], true
}
