package config

import (
	"fmt"
	"time"

	"github.com/llama-farm/atmosphere-sub001/gossip"
	"github.com/llama-farm/atmosphere-sub001/routing"
)

// Config is the full configuration of a routing node.
type Config struct {
	// Node identifies this mesh member.
	Node NodeConfig `yaml:"node"`

	// Cache bounds the gossip cost cache.
	Cache gossip.CacheConfig `yaml:"cache"`

	// Broadcast tunes the announce policy.
	Broadcast gossip.BroadcasterConfig `yaml:"broadcast"`

	// Routing tunes node selection.
	Routing routing.SelectorConfig `yaml:"routing"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log"`

	// Metrics configures the prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// NodeConfig identifies the local node.
type NodeConfig struct {
	// ID is the mesh-wide node identity. Generated when empty.
	ID string `yaml:"id"`

	// PruneInterval is how often the gossip cache prune task runs.
	PruneInterval time.Duration `yaml:"prune_interval"`

	// AnnounceInterval is how often the local snapshot is collected
	// and offered to the broadcast policy.
	AnnounceInterval time.Duration `yaml:"announce_interval"`

	// SnapshotPath points at the JSON snapshot maintained by the
	// platform collector. Empty means no local snapshot source: this
	// node routes work but never offers itself.
	SnapshotPath string `yaml:"snapshot_path"`

	// Peers are the gossip endpoints cost updates are announced to.
	Peers []string `yaml:"peers"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or console.
	Format string `yaml:"format"`
}

// MetricsConfig configures the prometheus scrape endpoint.
type MetricsConfig struct {
	// Port serves /metrics; 0 disables the endpoint.
	Port int `yaml:"port"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// Validate checks cross-field invariants the zero-guards in the
// component constructors cannot.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("config: invalid metrics port %d", c.Metrics.Port)
	}
	if c.Cache.PowerStaleAfter > c.Cache.DefaultStaleAfter {
		return fmt.Errorf("config: power_stale_after (%s) must not exceed default_stale_after (%s)",
			c.Cache.PowerStaleAfter, c.Cache.DefaultStaleAfter)
	}
	return nil
}
