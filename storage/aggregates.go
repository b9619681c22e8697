package storage

import (
	"github.com/vocdoni/batravot/election"
)

// Aggregate returns the stored aggregate of an election, or ErrNotFound if
// no batch has been aggregated yet.
func (s *Storage) Aggregate(id election.ID) (*Aggregate, error) {
	a := &Aggregate{}
	if err := s.getArtifact(aggregatePrefix, id[:], a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetAggregate replaces the aggregate of an election.
func (s *Storage) SetAggregate(a *Aggregate) error {
	return s.setArtifact(aggregatePrefix, a.ElectionID[:], a)
}
