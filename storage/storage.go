// storage package contains all the artifacts that are stored in the database,
// but also is an abstraction of a queue for the processing of them by different
// services. The storage package includes a prefixed key-value store that allows
// to store the different types of artifacts in the database. The following
// prefixes are used:
//   - 'e/' for elections
//   - 'b/' for pending ballots (queued)
//   - 'br/' for pending ballot reservations
//   - 'vk/' for the voters already aggregated in an election
//   - 'ib/' for invalid ballots
//   - 'ag/' for the aggregate proof of each election
//
// Ballot keys are the election id followed by the truncated hash of the voter
// public key, so a voter has at most one ballot per election.
package storage

import (
	"errors"
	"sync"

	"github.com/vocdoni/batravot/log"
	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	electionPrefix          = []byte("e/")
	ballotPrefix            = []byte("b/")
	ballotReservationPrefix = []byte("br/")
	votedPrefix             = []byte("vk/")
	invalidBallotPrefix     = []byte("ib/")
	aggregatePrefix         = []byte("ag/")
)

var (
	// ErrNotFound is returned when an artifact is not in the storage.
	ErrNotFound = errors.New("not found")
	// ErrNoMoreElements is returned when a queue has no element available.
	ErrNoMoreElements = errors.New("no more elements")
	// ErrAlreadyExists is returned when an artifact would be overwritten.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyVoted is returned when a voter already has a ballot in the
	// election, either pending or aggregated.
	ErrAlreadyVoted = errors.New("voter already voted in this election")
)

const (
	// maxKeySize is the maximum size of the key in bytes. It is used to
	// generate the key of the artifacts stored in the database by truncating
	// the hash of the artifact itself.
	maxKeySize = 12
)

// Storage is the interface that wraps the basic methods to interact with the
// storage.
type Storage struct {
	db db.Database
	// globalLock serializes the queue operations that read and then write.
	globalLock sync.Mutex
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("error closing storage", "error", err.Error())
	}
}
