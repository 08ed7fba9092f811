// Package atmosphere provides a top-level convenience entry point for
// building a cost-aware mesh router with minimal boilerplate.
//
// Usage:
//
//	import "github.com/llama-farm/atmosphere-sub001"
//
//	mesh, err := atmosphere.New(
//		atmosphere.WithNodeID("macbook-pro"),
//		atmosphere.WithTransport(myTransport),
//	)
//	mesh.Cache.HandleCostUpdate(payload)
//	result := mesh.Selector.RouteToNode(ctx, candidates, work, "gpt-4o", 0)
//
// The pieces are also usable individually; this package only wires the
// common arrangement.
package atmosphere

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/gossip"
	"github.com/llama-farm/atmosphere-sub001/internal/metrics"
	"github.com/llama-farm/atmosphere-sub001/routing"
)

// Mesh bundles the wired routing core.
type Mesh struct {
	Cache       *gossip.Cache
	Selector    *routing.Selector
	Broadcaster *gossip.Broadcaster // nil unless WithTransport was given
}

// Option configures the mesh built by [New].
type Option func(*options)

type options struct {
	nodeID    string
	logger    *zap.Logger
	registry  prometheus.Registerer
	transport gossip.Transport
	source    routing.SnapshotSource
	cache     gossip.CacheConfig
	broadcast gossip.BroadcasterConfig
	selector  routing.SelectorConfig
}

// WithNodeID sets the local node identity.
func WithNodeID(id string) Option {
	return func(o *options) { o.nodeID = id }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry sets the Prometheus registry metrics register against.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithTransport enables outbound gossip over the given transport.
func WithTransport(t gossip.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithSnapshotSource supplies live local cost factors to the selector.
func WithSnapshotSource(s routing.SnapshotSource) Option {
	return func(o *options) { o.source = s }
}

// WithCacheConfig overrides the gossip cache tuning.
func WithCacheConfig(cfg gossip.CacheConfig) Option {
	return func(o *options) { o.cache = cfg }
}

// WithBroadcasterConfig overrides the announce policy.
func WithBroadcasterConfig(cfg gossip.BroadcasterConfig) Option {
	return func(o *options) { o.broadcast = cfg }
}

// WithSelectorConfig overrides the node-selection tuning.
func WithSelectorConfig(cfg routing.SelectorConfig) Option {
	return func(o *options) { o.selector = cfg }
}

// New wires a cache, selector, and (when a transport is given) a
// broadcaster with the standard defaults.
func New(opts ...Option) (*Mesh, error) {
	o := &options{
		logger:    zap.NewNop(),
		cache:     gossip.DefaultCacheConfig(),
		broadcast: gossip.DefaultBroadcasterConfig(),
		selector:  routing.DefaultSelectorConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.nodeID != "" {
		o.selector.LocalNodeID = o.nodeID
	}

	collector := metrics.NewCollector("atmosphere", o.registry, o.logger)
	cache := gossip.NewCache(o.cache, o.logger, collector)
	selector := routing.NewSelector(o.selector, o.source, cache, o.logger, collector)

	mesh := &Mesh{Cache: cache, Selector: selector}
	if o.transport != nil {
		b, err := gossip.NewBroadcaster(o.broadcast, o.transport, o.logger, collector)
		if err != nil {
			return nil, err
		}
		mesh.Broadcaster = b
	}
	return mesh, nil
}
