package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// voterKey returns the key of a voter in an election: the election id
// followed by the truncated hash of the voter public key.
func voterKey(id election.ID, publicKey []byte) []byte {
	return append(id.Bytes(), hashKey(publicKey)...)
}

// PushBallot stores a new ballot into the pending ballots queue of its
// election. It returns ErrAlreadyVoted if the voter already has a pending or
// aggregated ballot in the election.
func (s *Storage) PushBallot(b *Ballot) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := voterKey(b.ElectionID, b.PublicKey)
	if s.hasArtifact(ballotPrefix, key) || s.hasArtifact(votedPrefix, key) {
		return ErrAlreadyVoted
	}
	if b.QueuedAt.IsZero() {
		b.QueuedAt = time.Now()
	}
	if err := s.setArtifact(ballotPrefix, key, b); err != nil {
		return fmt.Errorf("store ballot: %w", err)
	}
	return nil
}

// PullBallots returns up to maxCount non-reserved pending ballots of an
// election, in key order, and creates reservations for them. A negative
// maxCount returns every available ballot. If no ballots are available,
// returns ErrNoMoreElements.
func (s *Storage) PullBallots(id election.ID, maxCount int) ([]*Ballot, [][]byte, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	if maxCount == 0 {
		return []*Ballot{}, nil, nil
	}

	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	var res []*Ballot
	var keys [][]byte
	if err := rd.Iterate(id[:], func(k, v []byte) bool {
		if maxCount > 0 && len(res) >= maxCount {
			return false
		}
		key := append(id.Bytes(), k...)
		// Skip if already reserved
		if s.isReserved(ballotReservationPrefix, key) {
			return true
		}
		var b Ballot
		if err := decodeArtifact(v, &b); err != nil {
			log.Warnw("failed to decode ballot", "key", hex.EncodeToString(key), "error", err.Error())
			return true
		}
		res = append(res, &b)
		keys = append(keys, key)
		return true
	}); err != nil {
		return nil, nil, fmt.Errorf("iterate ballots: %w", err)
	}
	if len(res) == 0 {
		return nil, nil, ErrNoMoreElements
	}
	// reservations are written once the iteration is over
	for _, key := range keys {
		if err := s.setReservation(ballotReservationPrefix, key); err != nil {
			return nil, nil, fmt.Errorf("reserve ballot: %w", err)
		}
	}
	return res, keys, nil
}

// CountPendingBallots returns the number of non-reserved pending ballots of
// an election.
func (s *Storage) CountPendingBallots(id election.ID) int {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	count := 0
	if err := rd.Iterate(id[:], func(k, _ []byte) bool {
		if !s.isReserved(ballotReservationPrefix, append(id.Bytes(), k...)) {
			count++
		}
		return true
	}); err != nil {
		log.Warnw("failed to count pending ballots", "error", err.Error())
	}
	return count
}

// OldestPendingBallot returns the time the oldest non-reserved ballot of an
// election was queued, which is used to close batches after a time window.
// It returns the zero time if there are none.
func (s *Storage) OldestPendingBallot(id election.ID) time.Time {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	var oldest time.Time
	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	if err := rd.Iterate(id[:], func(k, v []byte) bool {
		if s.isReserved(ballotReservationPrefix, append(id.Bytes(), k...)) {
			return true
		}
		var b Ballot
		if err := decodeArtifact(v, &b); err != nil {
			return true
		}
		if oldest.IsZero() || b.QueuedAt.Before(oldest) {
			oldest = b.QueuedAt
		}
		return true
	}); err != nil {
		log.Warnw("failed to iterate pending ballots", "error", err.Error())
	}
	return oldest
}

// MarkBallotsDone is called after a batch of ballots has been aggregated. It
// removes the reservations and the pending ballots, and records the voters as
// already voted.
func (s *Storage) MarkBallotsDone(keys [][]byte) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	for _, k := range keys {
		if err := s.deleteArtifact(ballotReservationPrefix, k); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete reservation: %w", err)
		}
		if err := s.deleteArtifact(ballotPrefix, k); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete pending ballot: %w", err)
		}
		if err := s.setArtifact(votedPrefix, k, time.Now().Unix()); err != nil {
			return fmt.Errorf("mark voter: %w", err)
		}
	}
	return nil
}

// ReleaseBallots removes the reservations of ballots that could not be
// processed, so they are pulled again.
func (s *Storage) ReleaseBallots(keys [][]byte) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	for _, k := range keys {
		if err := s.deleteArtifact(ballotReservationPrefix, k); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete reservation: %w", err)
		}
	}
	return nil
}

// MarkBallotInvalid moves a reserved ballot to the invalid ballots of its
// election.
func (s *Storage) MarkBallotInvalid(key []byte, b *Ballot, reason string) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	if err := s.deleteArtifact(ballotReservationPrefix, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if err := s.deleteArtifact(ballotPrefix, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete pending ballot: %w", err)
	}
	return s.setArtifact(invalidBallotPrefix, key, &InvalidBallot{
		Ballot:     *b,
		Reason:     reason,
		RejectedAt: time.Now(),
	})
}

// InvalidBallots returns the invalid ballots of an election.
func (s *Storage) InvalidBallots(id election.ID) ([]*InvalidBallot, error) {
	var res []*InvalidBallot
	rd := prefixeddb.NewPrefixedReader(s.db, invalidBallotPrefix)
	if err := rd.Iterate(id[:], func(_, v []byte) bool {
		var ib InvalidBallot
		if err := decodeArtifact(v, &ib); err != nil {
			log.Warnw("failed to decode invalid ballot", "error", err.Error())
			return true
		}
		res = append(res, &ib)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate invalid ballots: %w", err)
	}
	return res, nil
}

// HasVoted reports whether a voter public key has an aggregated ballot in
// the election.
func (s *Storage) HasVoted(id election.ID, publicKey []byte) bool {
	return s.hasArtifact(votedPrefix, voterKey(id, publicKey))
}
