package gossip

import "context"

// Transport delivers encoded gossip payloads to the mesh. Delivery is
// fire-and-forget: no ordering, dedup or delivery guarantee is assumed
// by this package, and a returned error means only that the local send
// failed.
type Transport interface {
	Broadcast(ctx context.Context, payload []byte) error
}
