// Package routing picks which mesh node should execute a unit of work.
//
// The Selector costs every capable candidate — the local node through a
// live SnapshotSource collection, remote nodes through the gossip cache
// — and takes the cheapest, with hysteresis against the previous choice
// so near-equal-cost nodes do not flap. The IntegratedRouter composes
// an external capability router (which project/model can serve this?)
// with the Selector (which node hosting it?) into one call.
//
// Selection never hard-fails on missing data: the only failure a caller
// sees is an empty candidate set.
package routing
