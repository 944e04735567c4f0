package preset

import (
	"context"
	"errors"
	"fmt"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// ChainLoader asks each loader in turn and returns the first hit. Any error
// other than not-found stops the search.
type ChainLoader []ruleset.Loader

func (c ChainLoader) Load(ctx context.Context, ref string) (*ruleset.Config, error) {
	for _, l := range c {
		cfg, err := l.Load(ctx, ref)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, ruleset.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%q: %w", ref, ruleset.ErrNotFound)
}

// Locator reports where a reference would be loaded from.
type Locator interface {
	Locate(ref string) (string, error)
}

// Locate returns the location reported by the first loader that can place
// ref. Loaders that cannot report a location are skipped.
func (c ChainLoader) Locate(ref string) (string, error) {
	for _, l := range c {
		loc, ok := l.(Locator)
		if !ok {
			continue
		}
		where, err := loc.Locate(ref)
		if err == nil {
			return where, nil
		}
		if !errors.Is(err, ruleset.ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%q: %w", ref, ruleset.ErrNotFound)
}
