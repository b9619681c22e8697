package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/sequencer"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
)

// SequencerConfig holds the batching settings of the sequencer service.
type SequencerConfig struct {
	// BatchTimeWindow defines how long a batch can wait until processed
	// (either the batch becomes full of ballots or the time window expires).
	BatchTimeWindow time.Duration
	BatchSize       int
	Workers         int
	// Policy decides on ballots with an invalid vote proof. Nil drops them.
	Policy batcher.Policy
}

// SequencerService represents a service that handles background ballot
// aggregation.
type SequencerService struct {
	sequencer *sequencer.Sequencer
}

// NewSequencer creates a new sequencer service. It will drain the queued
// ballots of every election in batches and merge them into the running
// aggregate of the election.
func NewSequencer(stg *storage.Storage, censusDB *census.CensusDB, conf SequencerConfig) (*SequencerService, error) {
	s, err := sequencer.New(stg, censusDB, conf.BatchTimeWindow, conf.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sequencer: %w", err)
	}
	s.Workers = conf.Workers
	s.Policy = conf.Policy
	return &SequencerService{
		sequencer: s,
	}, nil
}

// Start begins the ballot processing service.
func (ss *SequencerService) Start(ctx context.Context) error {
	return ss.sequencer.Start(ctx)
}

// Stop halts the ballot processing service.
func (ss *SequencerService) Stop() {
	if err := ss.sequencer.Stop(); err != nil {
		log.Warnw("sequencer service stopped", "error", err)
	}
}

// AddElection registers an election in the sequencer, so its ballots are
// processed. It satisfies api.ElectionRegistry.
func (ss *SequencerService) AddElection(id election.ID) {
	ss.sequencer.AddElection(id)
}
