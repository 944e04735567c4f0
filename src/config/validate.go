package config

import (
	"fmt"
	"os"
	"strings"
)

var (
	validLogFormats = map[string]bool{"text": true, "json": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Presets ───────────────────────────────────────────────────────────

	seen := make(map[string]bool)
	for i, dir := range cfg.Presets.Dirs {
		dpath := fmt.Sprintf("presets.dirs[%d]", i)
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Sprintf("%s: must not be empty", dpath))
			continue
		}
		if seen[dir] {
			warnings = append(warnings, fmt.Sprintf("%s: duplicate directory %q", dpath, dir))
		}
		seen[dir] = true
		if fi, statErr := os.Stat(dir); statErr != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %q not accessible: %v", dpath, dir, statErr))
		} else if !fi.IsDir() {
			errs = append(errs, fmt.Sprintf("%s: %q is not a directory", dpath, dir))
		}
	}

	git := cfg.Presets.Git
	if !git.Enabled() && (git.Rev != "" || git.Subdir != "") {
		warnings = append(warnings, "presets.git: rev/subdir set without repo; git source disabled")
	}
	if strings.HasPrefix(git.Subdir, "/") || strings.Contains(git.Subdir, "..") {
		errs = append(errs, fmt.Sprintf("presets.git.subdir: %q must be a relative path inside the repository", git.Subdir))
	}

	if len(cfg.Presets.Dirs) == 0 && !git.Enabled() {
		warnings = append(warnings, "presets: no directories or git source configured; only the project config is resolved")
	}

	// ── Cache ─────────────────────────────────────────────────────────────

	if cfg.Cache.Parallel < 1 {
		errs = append(errs, fmt.Sprintf("cache.parallel: must be at least 1, got %d", cfg.Cache.Parallel))
	}
	if !cfg.Cache.Enabled && len(cfg.Cache.Prefetch) > 0 {
		warnings = append(warnings, "cache.prefetch: ignored while cache.enabled is false")
	}

	// ── Log ───────────────────────────────────────────────────────────────

	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		errs = append(errs, fmt.Sprintf("log.format: unknown format %q (supported: text, json)", cfg.Log.Format))
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q (supported: debug, info, warn, error)", cfg.Log.Level))
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}
