package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".rulestack.yml"

// Config is the top-level rulestack tool configuration.
type Config struct {
	Presets PresetsConfig `yaml:"presets"`
	Resolve ResolveConfig `yaml:"resolve"`
	Cache   CacheConfig   `yaml:"cache"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns defaults if the file doesn't exist. Environment overrides are
// applied last in both cases.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Presets: DefaultPresetsConfig(),
		Resolve: DefaultResolveConfig(),
		Cache:   DefaultCacheConfig(),
		Engine:  DefaultEngineConfig(),
		Log:     DefaultLogConfig(),
	}
}
