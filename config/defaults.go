package config

import (
	"time"

	"github.com/llama-farm/atmosphere-sub001/gossip"
	"github.com/llama-farm/atmosphere-sub001/routing"
)

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Node:      DefaultNodeConfig(),
		Cache:     gossip.DefaultCacheConfig(),
		Broadcast: gossip.DefaultBroadcasterConfig(),
		Routing:   routing.DefaultSelectorConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultNodeConfig returns the default node identity settings.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		PruneInterval:    60 * time.Second,
		AnnounceInterval: 5 * time.Second,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}

// DefaultMetricsConfig returns the default metrics settings.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Port:      9091,
		Namespace: "atmosphere",
	}
}
