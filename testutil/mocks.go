package testutil

import (
	"context"
	"sync"

	"github.com/llama-farm/atmosphere-sub001/types"
)

// FakeTransport records broadcast payloads instead of sending them.
type FakeTransport struct {
	mu       sync.Mutex
	payloads [][]byte

	// Err, when set, is returned from every Broadcast call.
	Err error
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (t *FakeTransport) Broadcast(_ context.Context, payload []byte) error {
	if t.Err != nil {
		return t.Err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	t.payloads = append(t.payloads, cp)
	return nil
}

// Sent returns a copy of every payload broadcast so far.
func (t *FakeTransport) Sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.payloads))
	copy(out, t.payloads)
	return out
}

// FakeSource returns a scripted local snapshot.
type FakeSource struct {
	mu sync.Mutex

	// Factors is what Collect returns; Err, when set, wins.
	Factors types.NodeCostFactors
	Err     error

	// Collections counts Collect calls.
	Collections int
}

func NewFakeSource(factors types.NodeCostFactors) *FakeSource {
	return &FakeSource{Factors: factors}
}

func (s *FakeSource) Collect(_ context.Context) (types.NodeCostFactors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Collections++
	if s.Err != nil {
		return types.NodeCostFactors{}, s.Err
	}
	return s.Factors, nil
}

// Set replaces the scripted snapshot.
func (s *FakeSource) Set(factors types.NodeCostFactors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Factors = factors
}
