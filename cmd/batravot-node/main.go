// Command batravot-node runs a batching node: the HTTP API that registers
// elections, censuses and ballots, and the sequencer that aggregates the
// queued ballots of every election.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/config"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/service"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
	"github.com/vocdoni/batravot/storage/db/metadb"
)

// nodeConfig extends the shared configuration with the node-only settings.
type nodeConfig struct {
	*config.Config
	MonitorInterval time.Duration
}

func parseFlags(args []string) (*nodeConfig, error) {
	cfg := &nodeConfig{Config: config.Default(), MonitorInterval: time.Minute}
	fs := flag.NewFlagSet("batravot-node", flag.ContinueOnError)
	fs.StringVar(&cfg.Curve, "curve", cfg.Curve, "default curve of elections and registrations: bn254 or bls12_381")
	fs.StringVar(&cfg.LogLevel, "logLevel", cfg.LogLevel, "log level: debug, info, warn, error or fatal")
	fs.StringVar(&cfg.LogOutput, "logOutput", cfg.LogOutput, "log output: stdout, stderr or a file path")
	fs.StringVarP(&cfg.DataDir, "dataDir", "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.DBType, "dbType", cfg.DBType, fmt.Sprintf("database type: %v", metadb.Types()))
	fs.StringVar(&cfg.Host, "host", cfg.Host, "API listen address")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "API listen port")
	fs.DurationVar(&cfg.BatchTimeWindow, "batchTimeWindow", cfg.BatchTimeWindow, "longest time a queued ballot waits for its batch")
	fs.IntVar(&cfg.BatchSize, "batchSize", cfg.BatchSize, "number of queued ballots that closes a batch")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent workers per batch, 0 for the number of CPUs")
	fs.StringVar(&cfg.InvalidPolicy, "policy", cfg.InvalidPolicy, fmt.Sprintf("invalid ballot policy: %v", batcher.PolicyNames))
	fs.DurationVar(&cfg.MonitorInterval, "monitorInterval", cfg.MonitorInterval, "period of the election status report")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.DataDir = os.ExpandEnv(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.InvalidPolicy == config.PolicyAsk {
		return nil, fmt.Errorf("the %s policy is only available in the command line tool", config.PolicyAsk)
	}
	if cfg.MonitorInterval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive")
	}
	return cfg, nil
}

// node holds the running services.
type node struct {
	storage   *storage.Storage
	sequencer *service.SequencerService
	api       *service.APIService
	monitor   *service.ElectionMonitor
}

func startNode(ctx context.Context, cfg *nodeConfig) (*node, error) {
	database, err := metadb.New(cfg.DBType, filepath.Join(cfg.DataDir, "db"))
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	n := &node{storage: storage.New(database)}
	censusDB := census.NewCensusDB(database)

	policy, err := batcher.PolicyByName(cfg.InvalidPolicy)
	if err != nil {
		n.stop()
		return nil, err
	}
	if n.sequencer, err = service.NewSequencer(n.storage, censusDB, service.SequencerConfig{
		BatchTimeWindow: cfg.BatchTimeWindow,
		BatchSize:       cfg.BatchSize,
		Workers:         cfg.Workers,
		Policy:          policy,
	}); err != nil {
		n.stop()
		return nil, err
	}
	if err := n.sequencer.Start(ctx); err != nil {
		n.stop()
		return nil, err
	}

	n.api = service.NewAPI(n.storage, censusDB, n.sequencer, cfg.Host, cfg.Port, cfg.Curve)
	if err := n.api.Start(ctx); err != nil {
		n.stop()
		return nil, err
	}

	n.monitor = service.NewElectionMonitor(n.storage, cfg.MonitorInterval)
	if err := n.monitor.Start(ctx); err != nil {
		n.stop()
		return nil, err
	}
	log.Infow("node started", "url", n.api.URL(), "dataDir", cfg.DataDir, "curve", cfg.Curve)
	return n, nil
}

// stop halts the started services and closes the storage.
func (n *node) stop() {
	if n.monitor != nil {
		n.monitor.Stop()
	}
	if n.api != nil {
		n.api.Stop()
	}
	if n.sequencer != nil {
		n.sequencer.Stop()
	}
	n.storage.Close()
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel, cfg.LogOutput, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	n, err := startNode(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to start node: %v", err)
	}
	<-ctx.Done()
	log.Infow("shutting down")
	n.stop()
}
