// Package cost implements the routing cost model: pure, stateless
// functions that turn a machine snapshot and a work descriptor into a
// single comparable scalar. 1.0 is the baseline (plugged in, idle,
// unmetered network); every degraded dimension multiplies the cost up.
//
// All functions are total over finite inputs. Input clamping is the
// caller's concern (types.NodeCostFactors.Normalize); the tier
// functions themselves never panic or return NaN for finite input.
package cost
