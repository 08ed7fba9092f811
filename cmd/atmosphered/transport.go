package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// httpTransport fans a gossip payload out to a static peer list. Gossip
// is best-effort: a peer that is down is skipped, and the broadcast
// only fails when no peer accepted the payload.
type httpTransport struct {
	peers  []string
	client *http.Client
	logger *zap.Logger
}

func newHTTPTransport(peers []string, logger *zap.Logger) *httpTransport {
	return &httpTransport{
		peers:  peers,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger.With(zap.String("component", "gossip_transport")),
	}
}

// Broadcast posts payload to every peer's /gossip endpoint.
func (t *httpTransport) Broadcast(ctx context.Context, payload []byte) error {
	var delivered int
	for _, peer := range t.peers {
		if err := t.send(ctx, peer, payload); err != nil {
			t.logger.Debug("peer unreachable", zap.String("peer", peer), zap.Error(err))
			continue
		}
		delivered++
	}
	if delivered == 0 && len(t.peers) > 0 {
		return fmt.Errorf("no peer accepted the broadcast (%d tried)", len(t.peers))
	}
	return nil
}

func (t *httpTransport) send(ctx context.Context, peer string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer+"/gossip", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("peer returned %s", resp.Status)
	}
	return nil
}
