package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvPresetDirs = "RULESTACK_PRESET_DIRS" // os.PathListSeparator separated
	EnvStrict     = "RULESTACK_STRICT"
	EnvLogLevel   = "RULESTACK_LOG_LEVEL"
	EnvLogFormat  = "RULESTACK_LOG_FORMAT"
	EnvGitRev     = "RULESTACK_GIT_REV"
)

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPresetDirs); ok && v != "" {
		var dirs []string
		for _, d := range filepath.SplitList(v) {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		cfg.Presets.Dirs = dirs
	}
	if v, ok := lookup(EnvStrict); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		cfg.Resolve.Strict = b
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = v
	}
	if v, ok := lookup(EnvGitRev); ok && v != "" {
		cfg.Presets.Git.Rev = v
	}
	return nil
}
