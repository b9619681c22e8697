// Package sequencer drains the queued ballots of the registered elections in
// batches, aggregates them with the batcher and keeps a running aggregate per
// election in the storage.
package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
)

// DefaultBatchSize is the number of ballots that closes a batch before the
// time window elapses.
const DefaultBatchSize = 64

// Sequencer is a worker that takes queued ballots and aggregates them into
// the running aggregate proof of their election.
type Sequencer struct {
	stg      *storage.Storage
	censusDB *census.CensusDB
	ctx      context.Context
	cancel   context.CancelFunc

	elections     map[election.ID]time.Time // last batch time of each election
	electionsLock sync.RWMutex

	// batchers holds one batcher per curve type.
	batchers     map[string]*batcher.Batcher
	batchersLock sync.Mutex

	// maxTimeWindow is the maximum time a queued ballot waits before its
	// batch is processed, even if the batch is not full.
	maxTimeWindow time.Duration
	batchSize     int

	// Policy decides on the ballots with an invalid vote proof. Nil drops
	// them.
	Policy batcher.Policy
	// Workers bounds the concurrency of each batch. Values below 1 use the
	// number of CPUs.
	Workers int
	// TickInterval is the period of the batch processor.
	TickInterval time.Duration
}

// New creates a new Sequencer. The census database may be nil, in which case
// elections are processed without census checks.
func New(stg *storage.Storage, censusDB *census.CensusDB, batchTimeWindow time.Duration, batchSize int) (*Sequencer, error) {
	if stg == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if batchTimeWindow <= 0 {
		return nil, fmt.Errorf("batch time window must be positive")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	log.Debugw("sequencer initialized", "batchTimeWindow", batchTimeWindow.String(), "batchSize", batchSize)
	return &Sequencer{
		stg:           stg,
		censusDB:      censusDB,
		elections:     make(map[election.ID]time.Time),
		batchers:      make(map[string]*batcher.Batcher),
		maxTimeWindow: batchTimeWindow,
		batchSize:     batchSize,
		TickInterval:  time.Second,
	}, nil
}

// Start registers the stored elections and begins the batch processor.
func (s *Sequencer) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	ids, err := s.stg.ListElections()
	if err != nil {
		return fmt.Errorf("failed to list elections: %w", err)
	}
	for _, id := range ids {
		s.AddElection(id)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(s.TickInterval)
	go func() {
		defer ticker.Stop()
		log.Infow("batch processor started", "tickInterval", s.TickInterval.String())
		for {
			select {
			case <-s.ctx.Done():
				log.Infow("batch processor stopped")
				return
			case <-ticker.C:
				s.processPendingBatches()
			}
		}
	}()
	log.Infow("sequencer started successfully", "elections", len(ids))
	return nil
}

// Stop shuts down the sequencer. It's safe to call Stop multiple times.
func (s *Sequencer) Stop() error {
	if s.cancel != nil {
		s.cancel()
		log.Infow("sequencer stopped")
	}
	return nil
}

// AddElection registers an election for batch processing. Registering an
// election twice has no effect.
func (s *Sequencer) AddElection(id election.ID) {
	s.electionsLock.Lock()
	defer s.electionsLock.Unlock()
	if _, exists := s.elections[id]; exists {
		log.Debugw("election already registered", "electionID", id.String())
		return
	}
	s.elections[id] = time.Now()
	log.Infow("election registered for sequencing", "electionID", id.String())
}

// DelElection unregisters an election.
func (s *Sequencer) DelElection(id election.ID) {
	s.electionsLock.Lock()
	defer s.electionsLock.Unlock()
	if _, exists := s.elections[id]; exists {
		delete(s.elections, id)
		log.Infow("election unregistered from sequencing", "electionID", id.String())
	}
}

// Elections returns the registered elections.
func (s *Sequencer) Elections() []election.ID {
	s.electionsLock.RLock()
	defer s.electionsLock.RUnlock()
	ids := make([]election.ID, 0, len(s.elections))
	for id := range s.elections {
		ids = append(ids, id)
	}
	return ids
}

// batcherFor returns the batcher of a curve type, creating it on first use.
func (s *Sequencer) batcherFor(curveType string) (*batcher.Batcher, error) {
	s.batchersLock.Lock()
	defer s.batchersLock.Unlock()
	if b, ok := s.batchers[curveType]; ok {
		return b, nil
	}
	curve, err := curves.Get(curveType)
	if err != nil {
		return nil, err
	}
	b := batcher.New(curve, s.Workers)
	s.batchers[curveType] = b
	return b, nil
}
