package engine

import (
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
)

// GoNamespace is the rule namespace of the built-in Go analyzers.
const GoNamespace = "go"

// Default returns a registry of vet analyzers under GoNamespace, e.g.
// "go/printf" or "go/unusedresult".
func Default() *Registry {
	r := NewRegistry(GoNamespace)
	r.Register(
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		copylock.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		shift.Analyzer,
		stringintconv.Analyzer,
		structtag.Analyzer,
		unusedresult.Analyzer,
	)
	return r
}
