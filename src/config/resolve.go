package config

// ResolveConfig holds resolver options and the project config to resolve.
type ResolveConfig struct {
	// ConfigFile is the project config. Empty means the first of
	// .eslintrc.{yml,yaml,json,toml} found in the working directory.
	ConfigFile      string `yaml:"config_file"`
	Strict          bool   `yaml:"strict"`
	PreserveOptions bool   `yaml:"preserve_options"`
}

// DefaultResolveConfig returns production defaults.
func DefaultResolveConfig() ResolveConfig {
	return ResolveConfig{}
}

// EngineConfig controls which analyzer registries rules are checked against.
type EngineConfig struct {
	// Analyzers enables the built-in Go analyzers under the "go" namespace.
	Analyzers bool `yaml:"analyzers"`
}

// DefaultEngineConfig returns production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Analyzers: true}
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Format string `yaml:"format"` // "text"|"json"
	Level  string `yaml:"level"`  // "debug"|"info"|"warn"|"error"
}

// DefaultLogConfig returns production defaults.
func DefaultLogConfig() LogConfig {
	return LogConfig{Format: "text", Level: "info"}
}
