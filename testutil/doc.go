// Package testutil provides shared test fakes for the routing core:
// a manual clock, a recording gossip transport and a scripted local
// snapshot source.
package testutil
