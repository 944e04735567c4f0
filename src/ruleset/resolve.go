package ruleset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// LocalLayer names the local override layer in diagnostics and errors.
const LocalLayer = "<local>"

// Options tune a single resolution.
type Options struct {
	// Strict turns undeclared plugin namespaces and non-canonical severity
	// spellings into errors.
	Strict bool
	// PreserveOptions keeps an earlier layer's rule options when a later
	// layer only changes the severity.
	PreserveOptions bool
}

// Result is the outcome of a successful resolution.
type Result struct {
	Config      *EffectiveConfig
	Diagnostics []Diagnostic
}

// Resolver composes presets and local overrides into an EffectiveConfig.
// It holds no per-call state and may be shared between goroutines.
type Resolver struct {
	loader Loader
	logger *slog.Logger
}

// NewResolver creates a resolver that fetches presets through loader.
// A nil logger discards log output.
func NewResolver(loader Loader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{loader: loader, logger: logger}
}

// ResolveConfig resolves cfg.Extends as the preset list with cfg itself as
// the local layer.
func (r *Resolver) ResolveConfig(ctx context.Context, cfg *Config, opts Options) (*Result, error) {
	if cfg == nil {
		return r.Resolve(ctx, nil, nil, opts)
	}
	return r.Resolve(ctx, cfg.Extends, cfg, opts)
}

// Resolve expands refs depth-first in order, merges them with later entries
// winning, applies local on top (its Extends are ignored) and validates the
// result. No partial config is returned on error.
func (r *Resolver) Resolve(ctx context.Context, refs []string, local *Config, opts Options) (*Result, error) {
	res := &resolution{
		ctx:    ctx,
		loader: r.loader,
		logger: r.logger,
		opts:   opts,
		cache:  map[string]*layer{},
		seen:   map[string]bool{},
	}

	acc := newLayer("")
	for _, ref := range refs {
		l, err := res.expand(ref)
		if err != nil {
			return nil, err
		}
		res.merge(acc, l)
	}

	if local != nil {
		l, err := res.layerFromConfig(LocalLayer, local)
		if err != nil {
			return nil, err
		}
		res.merge(acc, l)
	}

	if err := res.validate(acc); err != nil {
		return nil, err
	}

	eff := newEffectiveConfig(acc)
	SortDiagnostics(res.diags)
	r.logger.Debug("resolved config",
		"presets", len(res.cache),
		"rules", len(eff.rules),
		"plugins", len(eff.plugins),
		"diagnostics", len(res.diags),
	)
	return &Result{Config: eff, Diagnostics: res.diags}, nil
}

// resolution carries the state of one Resolve call.
type resolution struct {
	ctx    context.Context
	loader Loader
	logger *slog.Logger
	opts   Options

	cache map[string]*layer
	stack []string
	diags []Diagnostic
	seen  map[string]bool
}

func (res *resolution) report(d Diagnostic) {
	key := fmt.Sprintf("%s\x00%s\x00%s", d.Kind, d.Rule, d.Message)
	if res.seen[key] {
		return
	}
	res.seen[key] = true
	res.diags = append(res.diags, d)
}

// expand returns the flattened layer for ref, loading and expanding its
// extends first.
func (res *resolution) expand(ref string) (*layer, error) {
	ref = strings.TrimSpace(ref)
	chain := slices.Clone(res.stack)
	if ref == "" {
		return nil, &UnresolvedPresetError{Ref: ref, Chain: chain, Err: ErrNotFound}
	}
	if i := slices.Index(res.stack, ref); i >= 0 {
		cycle := append(slices.Clone(res.stack[i:]), ref)
		return nil, &CyclicPresetError{Cycle: cycle}
	}
	if l, ok := res.cache[ref]; ok {
		res.logger.Debug("preset already expanded", "ref", ref)
		return l, nil
	}
	if err := res.ctx.Err(); err != nil {
		return nil, err
	}

	res.logger.Debug("loading preset", "ref", ref, "depth", len(res.stack))
	cfg, err := res.loader.Load(res.ctx, ref)
	if err != nil {
		var malformed *MalformedSettingError
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, &UnresolvedPresetError{Ref: ref, Chain: chain, Err: err}
		case errors.As(err, &malformed):
			named := *malformed
			if named.Layer == "" {
				named.Layer = ref
			}
			return nil, &named
		default:
			return nil, fmt.Errorf("loading preset %q: %w", ref, err)
		}
	}
	if cfg == nil {
		return nil, &UnresolvedPresetError{Ref: ref, Chain: chain, Err: ErrNotFound}
	}

	res.stack = append(res.stack, ref)
	defer func() { res.stack = res.stack[:len(res.stack)-1] }()

	flat := newLayer(ref)
	for _, parent := range cfg.Extends {
		pl, err := res.expand(parent)
		if err != nil {
			return nil, err
		}
		res.merge(flat, pl)
	}

	own, err := res.layerFromConfig(ref, cfg)
	if err != nil {
		return nil, err
	}
	res.merge(flat, own)

	res.cache[ref] = flat
	return flat, nil
}

// validate checks every namespaced rule against the declared plugins and
// reports plugins no rule refers to.
func (res *resolution) validate(acc *layer) error {
	used := map[string]bool{}
	for _, rule := range sortedKeys(acc.rules) {
		ns := RuleNamespace(rule)
		if ns == "" {
			continue
		}
		used[ns] = true
		if slices.Contains(acc.plugins, ns) {
			continue
		}
		if res.opts.Strict {
			return &UnknownPluginNamespaceError{
				Rule:      rule,
				Namespace: ns,
				Plugins:   slices.Clone(acc.plugins),
			}
		}
		res.report(Diagnostic{
			Level:   LevelWarning,
			Kind:    KindUnknownNamespace,
			Rule:    rule,
			Plugin:  ns,
			Layer:   acc.rules[rule].layer,
			Message: fmt.Sprintf("rule %q: plugin %q is not declared", rule, ns),
		})
	}

	for _, p := range acc.plugins {
		if used[p] {
			continue
		}
		res.report(Diagnostic{
			Level:   LevelInfo,
			Kind:    KindUnusedPlugin,
			Plugin:  p,
			Message: fmt.Sprintf("plugin %q is declared but no rule refers to it", p),
		})
	}
	return nil
}
