package storage

import (
	"fmt"

	"github.com/vocdoni/batravot/election"
)

// Election retrieves an election from the storage. It returns ErrNotFound if
// the election does not exist.
func (s *Storage) Election(id election.ID) (*Election, error) {
	e := &Election{}
	if err := s.getArtifact(electionPrefix, id[:], e); err != nil {
		return nil, err
	}
	return e, nil
}

// SetElection stores a new election. It returns ErrAlreadyExists if an
// election with the same id is already stored.
func (s *Storage) SetElection(e *Election) error {
	if e == nil {
		return fmt.Errorf("nil election")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	if s.hasArtifact(electionPrefix, e.ID[:]) {
		return fmt.Errorf("%w: election %s", ErrAlreadyExists, e.ID)
	}
	return s.setArtifact(electionPrefix, e.ID[:], e)
}

// ListElections returns the ids of the stored elections.
func (s *Storage) ListElections() ([]election.ID, error) {
	keys, err := s.listArtifacts(electionPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]election.ID, 0, len(keys))
	for _, k := range keys {
		var id election.ID
		copy(id[:], k)
		ids = append(ids, id)
	}
	return ids, nil
}
