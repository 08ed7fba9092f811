package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/config"
	"github.com/llama-farm/atmosphere-sub001/gossip"
	"github.com/llama-farm/atmosphere-sub001/internal/metrics"
	"github.com/llama-farm/atmosphere-sub001/routing"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// Server hosts the routing core: the gossip cache with its prune loop,
// the broadcaster with its announce loop, and a small HTTP surface for
// gossip ingest, routing queries and metrics.
type Server struct {
	cfg         *config.Config
	logger      *zap.Logger
	cache       *gossip.Cache
	broadcaster *gossip.Broadcaster
	selector    *routing.Selector
	source      routing.SnapshotSource
	httpServer  *http.Server
}

// NewServer wires the core from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg.Node.ID == "" {
		cfg.Node.ID = "node-" + uuid.NewString()[:8]
		cfg.Routing.LocalNodeID = cfg.Node.ID
		logger.Info("generated node id", zap.String("node_id", cfg.Node.ID))
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, logger)
	cache := gossip.NewCache(cfg.Cache, logger, collector)

	var source routing.SnapshotSource
	if cfg.Node.SnapshotPath != "" {
		source = newFileSource(cfg.Node.ID, cfg.Node.SnapshotPath)
	}

	selector := routing.NewSelector(cfg.Routing, source, cache, logger, collector)

	var broadcaster *gossip.Broadcaster
	if len(cfg.Node.Peers) > 0 {
		var err error
		broadcaster, err = gossip.NewBroadcaster(cfg.Broadcast, newHTTPTransport(cfg.Node.Peers, logger), logger, collector)
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		cache:       cache,
		broadcaster: broadcaster,
		selector:    selector,
		source:      source,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/gossip", s.handleGossip)
	mux.HandleFunc("/route", s.handleRoute)
	mux.HandleFunc("/costs", s.handleCosts)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.pruneLoop(ctx)
	if s.broadcaster != nil && s.source != nil {
		go s.announceLoop(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// pruneLoop sweeps the cost cache; the cache does not self-prune.
func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Node.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cache.PruneStale()
		}
	}
}

// announceLoop feeds fresh local snapshots to the broadcast policy.
func (s *Server) announceLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Node.AnnounceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			factors, err := s.source.Collect(ctx)
			if err != nil {
				s.logger.Warn("snapshot collection failed", zap.Error(err))
				continue
			}
			if _, err := s.broadcaster.MaybeBroadcast(ctx, factors); err != nil {
				s.logger.Warn("announce failed", zap.Error(err))
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleGossip ingests NODE_COST_UPDATE payloads from peers. Malformed
// payloads are dropped by the cache; the transport still gets a 204 —
// gossip has no delivery contract to uphold.
func (s *Server) handleGossip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.cache.HandleCostUpdate(raw)
	w.WriteHeader(http.StatusNoContent)
}

type routeRequest struct {
	Candidates        []string       `json:"candidates"`
	WorkType          types.WorkType `json:"work_type"`
	WorkKey           string         `json:"work_key"`
	BudgetSensitivity float64        `json:"budget_sensitivity,omitempty"`
}

// handleRoute answers a node-selection query for an explicit candidate
// set; capability resolution happens upstream.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req routeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	workType := req.WorkType
	if !workType.Valid() {
		workType = types.WorkGeneral
	}
	work := types.WorkRequest{WorkType: workType, RequiresGPU: workType.GPUBound()}
	result := s.selector.RouteToNode(r.Context(), req.Candidates, work, req.WorkKey, req.BudgetSensitivity)
	writeJSON(w, result)
}

// handleCosts exposes the fresh view of the mesh for debugging.
func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.cache.FreshCosts())
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
	}
}
