package ruleset

import (
	"context"
	"fmt"
)

// Loader fetches a preset by reference. Implementations must be safe for
// concurrent use and return an error wrapping ErrNotFound for unknown refs.
type Loader interface {
	Load(ctx context.Context, ref string) (*Config, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ref string) (*Config, error)

func (f LoaderFunc) Load(ctx context.Context, ref string) (*Config, error) {
	return f(ctx, ref)
}

// MapLoader serves presets from memory. It must not be mutated while in use.
type MapLoader map[string]*Config

func (m MapLoader) Load(_ context.Context, ref string) (*Config, error) {
	cfg, ok := m[ref]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%q: %w", ref, ErrNotFound)
	}
	return cfg, nil
}
