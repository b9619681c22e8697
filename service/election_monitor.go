package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
)

// ElectionStatus is the progress of an election at the last check.
type ElectionStatus struct {
	Pending   int
	Invalid   int
	Batches   int
	UpdatedAt time.Time
}

// ElectionMonitor represents a service that periodically reports the
// progress of the stored elections: queued ballots, rejected ballots and
// batches merged into the running aggregate.
type ElectionMonitor struct {
	storage  *storage.Storage
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	status   map[election.ID]ElectionStatus
}

// NewElectionMonitor creates a new ElectionMonitor service.
func NewElectionMonitor(stg *storage.Storage, interval time.Duration) *ElectionMonitor {
	return &ElectionMonitor{
		storage:  stg,
		interval: interval,
		status:   make(map[election.ID]ElectionStatus),
	}
}

// Start begins monitoring the elections. It returns an error if the service
// is already running.
func (em *ElectionMonitor) Start(ctx context.Context) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		return fmt.Errorf("service already running")
	}
	if em.interval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}
	ctx, cancel := context.WithCancel(ctx)
	em.cancel = cancel
	go em.monitorElections(ctx)
	return nil
}

// Stop halts the monitoring service.
func (em *ElectionMonitor) Stop() {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		em.cancel()
		em.cancel = nil
	}
}

// Status returns the last known status of an election.
func (em *ElectionMonitor) Status(id election.ID) (ElectionStatus, bool) {
	em.mu.Lock()
	defer em.mu.Unlock()
	st, ok := em.status[id]
	return st, ok
}

func (em *ElectionMonitor) monitorElections(ctx context.Context) {
	ticker := time.NewTicker(em.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := em.check(); err != nil {
				log.Warnw("failed to check elections", "error", err.Error())
			}
		}
	}
}

// check refreshes the status of every stored election and logs the ones
// that changed.
func (em *ElectionMonitor) check() error {
	ids, err := em.storage.ListElections()
	if err != nil {
		return err
	}
	for _, id := range ids {
		st := ElectionStatus{Pending: em.storage.CountPendingBallots(id)}
		invalid, err := em.storage.InvalidBallots(id)
		if err != nil {
			return fmt.Errorf("invalid ballots of %s: %w", id, err)
		}
		st.Invalid = len(invalid)
		agg, err := em.storage.Aggregate(id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return fmt.Errorf("aggregate of %s: %w", id, err)
		default:
			st.Batches = agg.Batches
			st.UpdatedAt = agg.UpdatedAt
		}

		em.mu.Lock()
		prev, known := em.status[id]
		em.status[id] = st
		em.mu.Unlock()
		if !known || prev != st {
			log.Infow("election status",
				"electionID", id.String(),
				"pending", st.Pending,
				"invalid", st.Invalid,
				"batches", st.Batches,
			)
		}
	}
	return nil
}
