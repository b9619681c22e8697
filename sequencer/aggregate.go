package sequencer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/verifier"
)

// ErrAggregateMismatch is returned when a batch or the merged aggregate does
// not verify.
var ErrAggregateMismatch = errors.New("aggregate proof does not verify")

// processPendingBatches checks all registered elections and processes the
// ones with a batch ready. A batch is ready when either:
//  1. It contains at least batchSize ballots, or
//  2. The oldest queued ballot waited more than maxTimeWindow
func (s *Sequencer) processPendingBatches() {
	s.electionsLock.RLock()
	elections := maps.Clone(s.elections)
	s.electionsLock.RUnlock()

	for id := range elections {
		if s.ctx.Err() != nil {
			return
		}
		pending := s.stg.CountPendingBallots(id)
		if pending == 0 {
			continue
		}
		waited := time.Since(s.stg.OldestPendingBallot(id))
		if pending < s.batchSize && waited <= s.maxTimeWindow {
			continue
		}
		log.Debugw("batch ready for aggregation",
			"electionID", id.String(),
			"ballotCount", pending,
			"waited", waited.String(),
		)
		if err := s.ProcessBatch(s.ctx, id); err != nil {
			log.Warnw("failed to aggregate batch", "error", err.Error(), "electionID", id.String())
			continue
		}
		s.electionsLock.Lock()
		if _, ok := s.elections[id]; ok {
			s.elections[id] = time.Now()
		}
		s.electionsLock.Unlock()
	}
}

// ProcessBatch pulls one batch of queued ballots of an election, aggregates
// it and merges the result into the stored aggregate of the election.
// Ballots rejected by the batch are moved to the invalid ballots, the rest
// are released back to the queue if the batch fails.
func (s *Sequencer) ProcessBatch(ctx context.Context, id election.ID) error {
	e, err := s.stg.Election(id)
	if err != nil {
		return fmt.Errorf("failed to load election: %w", err)
	}
	b, err := s.batcherFor(e.Curve)
	if err != nil {
		return err
	}
	curve := b.Verifier().Curve()
	specifiers := election.Derive(curve, id)
	census, err := s.census(e)
	if err != nil {
		return err
	}

	records, keys, err := s.stg.PullBallots(id, s.batchSize)
	if err != nil {
		if errors.Is(err, storage.ErrNoMoreElements) {
			return nil
		}
		return fmt.Errorf("failed to pull ballots: %w", err)
	}
	batch := newPendingBatch(s.stg)
	for i, r := range records {
		bl, err := r.Ballot(curve)
		if err != nil {
			log.Warnw("undecodable ballot", "electionID", id.String(), "error", err.Error())
			batch.reject(keys[i], r, err.Error())
			continue
		}
		batch.add(keys[i], r, bl)
	}
	if len(batch.ballots) == 0 {
		return nil
	}

	res, err := b.Process(ctx, specifiers, batch.ballots, s.Policy, census)
	if res != nil {
		for _, invalid := range res.Invalid {
			batch.rejectAt(invalid.Index, invalid.Error())
		}
	}
	var violation *verifier.CensusViolationError
	if errors.As(err, &violation) {
		batch.rejectKey(violation.Voter.PublicKey, "voter not in census")
	}
	if err == nil && !res.Valid() {
		err = ErrAggregateMismatch
	}
	if err != nil {
		batch.release()
		return fmt.Errorf("failed to process batch: %w", err)
	}

	merged, batches, err := s.storedAggregate(id, curve)
	if err != nil {
		batch.release()
		return err
	}
	merged = merged.Merge(res.Aggregate)
	if ok, err := b.Verifier().VerifyGeneral(merged, specifiers); err != nil || !ok {
		batch.release()
		return fmt.Errorf("merged aggregate: %w", ErrAggregateMismatch)
	}
	if err := s.stg.SetAggregate(storage.NewAggregate(id, merged, batches+1)); err != nil {
		batch.release()
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	if err := s.stg.MarkBallotsDone(batch.pendingKeys()); err != nil {
		log.Warnw("failed to mark ballots as done", "error", err.Error(), "electionID", id.String())
	}
	log.Infow("batch aggregated successfully",
		"electionID", id.String(),
		"ballotCount", len(res.Included),
		"invalid", len(res.Invalid),
		"batches", batches+1,
		"voters", len(merged.Voters),
	)
	return nil
}

// census returns the census of an election, or nil if the election has no
// census or the sequencer has no census database.
func (s *Sequencer) census(e *storage.Election) (verifier.Census, error) {
	if s.censusDB == nil || e.CensusID == uuid.Nil {
		return nil, nil
	}
	ref, err := s.censusDB.Load(e.CensusID)
	if err != nil {
		return nil, fmt.Errorf("failed to load census: %w", err)
	}
	return ref, nil
}

// storedAggregate returns the stored aggregate of an election and its batch
// count, or the empty aggregate if there is none yet.
func (s *Sequencer) storedAggregate(id election.ID, curve ecc.Curve) (*aggregator.Proof, int, error) {
	stored, err := s.stg.Aggregate(id)
	if errors.Is(err, storage.ErrNotFound) {
		return aggregator.Empty(curve), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load aggregate: %w", err)
	}
	p, err := stored.Decode(curve)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode aggregate: %w", err)
	}
	return p, stored.Batches, nil
}

// pendingBatch tracks the storage keys of the ballots of a batch, so every
// pulled ballot ends up done, invalid or released.
type pendingBatch struct {
	stg      *storage.Storage
	ballots  []*ballot.Ballot
	records  []*storage.Ballot
	keys     [][]byte
	rejected map[int]bool
}

func newPendingBatch(stg *storage.Storage) *pendingBatch {
	return &pendingBatch{stg: stg, rejected: make(map[int]bool)}
}

func (p *pendingBatch) add(key []byte, r *storage.Ballot, b *ballot.Ballot) {
	p.keys = append(p.keys, key)
	p.records = append(p.records, r)
	p.ballots = append(p.ballots, b)
}

// reject moves a ballot that never made it into the batch to the invalid
// ballots.
func (p *pendingBatch) reject(key []byte, r *storage.Ballot, reason string) {
	if err := p.stg.MarkBallotInvalid(key, r, reason); err != nil {
		log.Warnw("failed to mark ballot as invalid", "error", err.Error())
	}
}

func (p *pendingBatch) rejectAt(i int, reason string) {
	if i < 0 || i >= len(p.keys) || p.rejected[i] {
		return
	}
	p.rejected[i] = true
	p.reject(p.keys[i], p.records[i], reason)
}

func (p *pendingBatch) rejectKey(publicKey ecc.Point, reason string) {
	for i, b := range p.ballots {
		if b.VoterPublicKey.Equal(publicKey) {
			p.rejectAt(i, reason)
		}
	}
}

// pendingKeys returns the keys of the ballots not rejected.
func (p *pendingBatch) pendingKeys() [][]byte {
	keys := make([][]byte, 0, len(p.keys))
	for i, k := range p.keys {
		if !p.rejected[i] {
			keys = append(keys, k)
		}
	}
	return keys
}

// release returns the ballots not rejected to the queue.
func (p *pendingBatch) release() {
	if err := p.stg.ReleaseBallots(p.pendingKeys()); err != nil {
		log.Warnw("failed to release ballots", "error", err.Error())
	}
}
