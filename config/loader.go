package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// envPrefix scopes the environment overrides.
const envPrefix = "ATMOSPHERE"

// Load builds the configuration: defaults, overlaid with the YAML file
// at path (skipped when path is empty), overlaid with environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	// The selector must know the local node's identity.
	if cfg.Routing.LocalNodeID == "" {
		cfg.Routing.LocalNodeID = cfg.Node.ID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides the identity and logging scalars from the
// environment: ATMOSPHERE_NODE_ID, ATMOSPHERE_LOG_LEVEL,
// ATMOSPHERE_LOG_FORMAT, ATMOSPHERE_METRICS_PORT.
func applyEnv(cfg *Config) {
	if v := os.Getenv(envPrefix + "_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv(envPrefix + "_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(envPrefix + "_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(envPrefix + "_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
