// atmosphered hosts the cost-aware routing core: it keeps the gossip
// cost cache, announces the local snapshot to peers, and answers
// routing queries over a small HTTP surface.
//
// Usage:
//
//	atmosphered serve --config config.yaml   # run the routing daemon
//	atmosphered cost --snapshot state.json   # print the cost table for a snapshot
//	atmosphered version                      # show version information
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/llama-farm/atmosphere-sub001/config"
	"github.com/llama-farm/atmosphere-sub001/cost"
	"github.com/llama-farm/atmosphere-sub001/internal/logging"
	"github.com/llama-farm/atmosphere-sub001/types"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "cost":
		runCost(os.Args[2:])
	case "version":
		fmt.Printf("atmosphered %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting atmosphered",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit))

	server, err := NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}
	if err := server.Run(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("atmosphered stopped")
}

// runCost prints the per-dimension cost table for a snapshot — the
// presentation path for operators checking why a node is expensive.
func runCost(args []string) {
	fs := flag.NewFlagSet("cost", flag.ExitOnError)
	snapshotPath := fs.String("snapshot", "", "Path to a NodeCostFactors JSON file (default: stdin)")
	fs.Parse(args)

	var raw []byte
	var err error
	if *snapshotPath != "" {
		raw, err = os.ReadFile(*snapshotPath)
	} else {
		raw, err = readAllStdin()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read snapshot: %v\n", err)
		os.Exit(1)
	}

	var factors types.NodeCostFactors
	if err := json.Unmarshal(raw, &factors); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse snapshot: %v\n", err)
		os.Exit(1)
	}
	factors = factors.Normalize()

	fmt.Printf("node: %s\n", factors.NodeID)
	fmt.Printf("power:   on_battery=%v battery=%.0f%%\n", factors.OnBattery, factors.BatteryPercent)
	fmt.Printf("compute: cpu=%.2f gpu=%.0f%% mem=%.0f%%\n", factors.CPULoad, factors.GPULoad, factors.MemoryPercent)
	fmt.Printf("network: metered=%v\n\n", factors.IsMetered)

	fmt.Printf("%-10s %8s %8s %8s %8s\n", "work", "power", "compute", "network", "cost")
	for _, wt := range []types.WorkType{types.WorkGeneral, types.WorkInference, types.WorkEmbedding, types.WorkRAG} {
		b := cost.Breakdown(factors, types.WorkRequest{WorkType: wt}, 1.0)
		fmt.Printf("%-10s %8.2f %8.2f %8.2f %8.2f\n", wt, b.Power, b.Compute, b.Network, b.Cost)
	}
}

func readAllStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no snapshot on stdin (use --snapshot)")
	}
	return io.ReadAll(os.Stdin)
}

func printUsage() {
	fmt.Println(`atmosphered - cost-aware mesh routing daemon

Commands:
  serve     Run the routing daemon
  cost      Print the cost table for a machine snapshot
  version   Show version information
  help      Show this help`)
}
