package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sofmeright/rulestack/src/config"
	"github.com/sofmeright/rulestack/src/preset"
	"github.com/sofmeright/rulestack/src/ruleset"
)

// projectFiles are tried in order when no project config is named.
var projectFiles = []string{".eslintrc.yml", ".eslintrc.yaml", ".eslintrc.json", ".eslintrc.toml"}

// presetSource bundles the loader stack built from the tool config.
type presetSource struct {
	loader   ruleset.Loader
	chain    preset.ChainLoader
	cache    *preset.CachingLoader
	registry *prometheus.Registry
}

// newPresetSource chains the configured directories and git source and
// wraps them in a cache when enabled.
func newPresetSource(c *config.Config, logger *slog.Logger) (*presetSource, error) {
	var chain preset.ChainLoader
	for _, dir := range c.Presets.Dirs {
		if _, err := os.Stat(dir); err != nil {
			logger.Debug("skipping preset dir", "dir", dir, "error", err)
			continue
		}
		chain = append(chain, preset.OpenDir(dir, logger))
	}
	if c.Presets.Git.Enabled() {
		g, err := preset.OpenGit(c.Presets.Git.Repo, c.Presets.Git.Rev, c.Presets.Git.Subdir, logger)
		if err != nil {
			return nil, err
		}
		chain = append(chain, g)
	}

	src := &presetSource{loader: chain, chain: chain, registry: prometheus.NewRegistry()}
	if c.Cache.Enabled {
		src.cache = preset.NewCachingLoader(chain, preset.NewMetrics(src.registry), logger)
		src.loader = src.cache
	}
	return src, nil
}

// prefetch warms the cache with the configured refs plus extra.
func (s *presetSource) prefetch(ctx context.Context, c *config.Config, extra []string, logger *slog.Logger) error {
	if s.cache == nil {
		return nil
	}
	refs := append(append([]string{}, c.Cache.Prefetch...), extra...)
	err := s.cache.Prefetch(ctx, refs, c.Cache.Parallel)
	logger.Debug("preset cache warmed", "refs", len(refs), "entries", s.cache.Len())
	return err
}

// locations maps layer names to where they were loaded from.
func (s *presetSource) locations(layers []string) map[string]string {
	out := make(map[string]string, len(layers))
	for _, l := range layers {
		if where, err := s.chain.Locate(l); err == nil {
			out[l] = where
		}
	}
	return out
}

// writeMetrics dumps the cache metrics in Prometheus text format.
func (s *presetSource) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// loadProject reads the project config from path, or the first default
// file present in the working directory.
func loadProject(path string) (*ruleset.Config, string, error) {
	if path == "" {
		for _, name := range projectFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return nil, "", fmt.Errorf("no project config found (tried %v)", projectFiles)
		}
	}

	format, ok := ruleset.FormatFromPath(path)
	if !ok {
		return nil, "", fmt.Errorf("%s: unsupported config format (use .yml, .yaml, .json or .toml)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("project config %s not found", path)
		}
		return nil, "", err
	}
	proj, err := ruleset.Parse(data, format)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return proj, path, nil
}

// resolveProject loads the project config at path and resolves it with the
// options from the tool config.
func resolveProject(ctx context.Context, path string) (*ruleset.Result, error) {
	proj, path, err := loadProject(path)
	if err != nil {
		return nil, err
	}
	src, err := newPresetSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := ruleset.Options{Strict: cfg.Resolve.Strict, PreserveOptions: cfg.Resolve.PreserveOptions}
	res, err := ruleset.NewResolver(src.loader, logger).ResolveConfig(ctx, proj, opts)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	return res, nil
}
