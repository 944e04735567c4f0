package config

// PresetsConfig says where preset references are looked up. Directories are
// searched first, in order, then the git source when configured.
type PresetsConfig struct {
	Dirs []string  `yaml:"dirs"`
	Git  GitSource `yaml:"git"`
}

// GitSource serves presets from a committed revision of a repository.
type GitSource struct {
	Repo   string `yaml:"repo"`   // path inside the repository; empty disables
	Rev    string `yaml:"rev"`    // branch, tag or commit (default: HEAD)
	Subdir string `yaml:"subdir"` // preset root inside the repository
}

// Enabled reports whether a git source is configured.
func (g GitSource) Enabled() bool { return g.Repo != "" }

// DefaultPresetsConfig returns production defaults.
func DefaultPresetsConfig() PresetsConfig {
	return PresetsConfig{
		Dirs: []string{"presets"},
	}
}

// CacheConfig controls preset caching across resolutions.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Prefetch []string `yaml:"prefetch"` // refs warmed before resolving
	Parallel int      `yaml:"parallel"` // concurrent loads during prefetch
}

// DefaultCacheConfig returns production defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  true,
		Prefetch: []string{},
		Parallel: 4,
	}
}
