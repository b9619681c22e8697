package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/batravot/api"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
)

// shutdownTimeout bounds the wait for in-flight requests on Stop.
const shutdownTimeout = 5 * time.Second

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	storage   *storage.Storage
	censusDB  *census.CensusDB
	elections api.ElectionRegistry
	api       *api.API
	mu        sync.Mutex
	cancel    context.CancelFunc
	host      string
	port      int
	curve     string
}

// NewAPI creates a new APIService instance. The elections registry, usually
// the sequencer, is notified of every election created through the API and
// may be nil.
func NewAPI(stg *storage.Storage, censusDB *census.CensusDB, elections api.ElectionRegistry,
	host string, port int, curve string,
) *APIService {
	return &APIService{
		storage:   stg,
		censusDB:  censusDB,
		elections: elections,
		host:      host,
		port:      port,
		curve:     curve,
	}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	_, as.cancel = context.WithCancel(ctx)

	var err error
	as.api, err = api.New(&api.APIConfig{
		Host:      as.host,
		Port:      as.port,
		Storage:   as.storage,
		CensusDB:  as.censusDB,
		Curve:     as.curve,
		Elections: as.elections,
	})
	if err != nil {
		as.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Stop halts the API server. The storage is left open, its owner closes it.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel == nil {
		return
	}
	as.cancel()
	as.cancel = nil
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := as.api.Stop(ctx); err != nil {
		log.Warnw("API server shutdown", "error", err)
	}
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}

// URL returns the base URL of the running API server, or an empty string if
// it is not running.
func (as *APIService) URL() string {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.cancel == nil {
		return ""
	}
	return as.api.URL()
}
