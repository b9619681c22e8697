package census

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/vocdoni/batravot/storage/db/metadb"
	"github.com/vocdoni/batravot/types"
	"go.vocdoni.io/dvote/db"
)

// newDatabase returns a new test database.
func newDatabase(t *testing.T) db.Database {
	return metadb.NewTest(t)
}

func TestCensusDBLifecycle(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	censusDB := NewCensusDB(newDatabase(t))
	censusID := uuid.New()

	c.Assert(censusDB.Exists(censusID), qt.IsFalse)
	_, err := censusDB.Load(censusID)
	c.Assert(err, qt.ErrorIs, ErrCensusNotFound)

	ref, err := censusDB.New(censusID)
	c.Assert(err, qt.IsNil)
	c.Assert(ref.Tree(), qt.IsNotNil)
	c.Assert(censusDB.Exists(censusID), qt.IsTrue)
	_, err = censusDB.New(censusID)
	c.Assert(err, qt.ErrorIs, ErrCensusAlreadyExists)

	// loading a census twice returns the same reference
	loaded, err := censusDB.Load(censusID)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.Equals, ref)

	c.Assert(censusDB.Del(censusID), qt.IsNil)
	// the tree is removed in the background
	time.Sleep(100 * time.Millisecond)
	c.Assert(censusDB.Exists(censusID), qt.IsFalse)
	_, err = censusDB.Load(censusID)
	c.Assert(err, qt.ErrorIs, ErrCensusNotFound)
}

func TestCensusPersistence(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	database := newDatabase(t)
	censusID := uuid.New()

	ref, err := NewCensusDB(database).New(censusID)
	c.Assert(err, qt.IsNil)
	c.Assert(ref.InsertVoter(testKey(1), common.Address{1}), qt.IsNil)

	// a second instance over the same database sees the registered voter
	reopened, err := NewCensusDB(database).Load(censusID)
	c.Assert(err, qt.IsNil)
	c.Assert(reopened.Root(), qt.DeepEquals, ref.Root())
	ok, err := reopened.Contains(testKey(1))
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}

func TestCensusConcurrentRegistration(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	censusDB := NewCensusDB(newDatabase(t))
	censusID := uuid.New()
	ref, err := censusDB.New(censusID)
	c.Assert(err, qt.IsNil)

	const workers, perWorker = 8, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := censusDB.Load(censusID)
			if err != nil {
				errs <- err
				return
			}
			for j := range perWorker {
				n := int64(i*perWorker + j + 1)
				if err := r.InsertVoter(testKey(n), common.BigToAddress(common.Big1)); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		c.Assert(err, qt.IsNil)
	}
	c.Assert(ref.Size(), qt.Equals, workers*perWorker)

	// the root index follows the last insertion
	proof, err := censusDB.ProofByRoot(ref.Root(), VoterKey(testKey(1)))
	c.Assert(err, qt.IsNil)
	c.Assert(CheckProof(proof), qt.IsTrue)
	size, err := censusDB.SizeByRoot(ref.Root())
	c.Assert(err, qt.IsNil)
	c.Assert(size, qt.Equals, workers*perWorker)
}

func TestProofByRoot(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	censusDB := NewCensusDB(newDatabase(t))

	_, err := censusDB.ProofByRoot([]byte("deadbeef"), VoterKey(testKey(1)))
	c.Assert(err, qt.ErrorIs, ErrRootNotFound)
	_, err = censusDB.SizeByRoot([]byte("deadbeef"))
	c.Assert(err, qt.ErrorIs, ErrRootNotFound)

	ref, err := censusDB.New(uuid.New())
	c.Assert(err, qt.IsNil)
	c.Assert(ref.InsertVoter(testKey(1), common.Address{0xaa}), qt.IsNil)

	_, err = censusDB.ProofByRoot(ref.Root(), VoterKey(testKey(2)))
	c.Assert(err, qt.ErrorIs, ErrKeyNotFound)

	proof, err := censusDB.ProofByRoot(ref.Root(), VoterKey(testKey(1)))
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Key, qt.DeepEquals, types.HexBytes(VoterKey(testKey(1))))
	c.Assert(common.BytesToAddress(proof.Value), qt.Equals, common.Address{0xaa})
	c.Assert(CheckProof(proof), qt.IsTrue)
	account, err := CheckVoterProof(proof, testKey(1))
	c.Assert(err, qt.IsNil)
	c.Assert(account, qt.Equals, common.Address{0xaa})
	// the proof does not belong to another key
	_, err = CheckVoterProof(proof, testKey(2))
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)

	// a proof for another account does not verify
	proof.Value = common.Address{0xbb}.Bytes()
	c.Assert(CheckProof(proof), qt.IsFalse)
	c.Assert(CheckProof(nil), qt.IsFalse)
	_, err = CheckVoterProof(proof, testKey(1))
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)
}

func TestSameRootForSameVoters(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	censusDB := NewCensusDB(newDatabase(t))
	ref1, err := censusDB.New(uuid.New())
	c.Assert(err, qt.IsNil)
	ref2, err := censusDB.New(uuid.New())
	c.Assert(err, qt.IsNil)

	c.Assert(ref1.InsertVoter(testKey(9), common.Address{9}), qt.IsNil)
	c.Assert(ref2.InsertVoter(testKey(9), common.Address{9}), qt.IsNil)
	c.Assert(ref1.Root(), qt.DeepEquals, ref2.Root())

	proof, err := censusDB.ProofByRoot(ref1.Root(), VoterKey(testKey(9)))
	c.Assert(err, qt.IsNil)
	c.Assert(CheckProof(proof), qt.IsTrue)
}
