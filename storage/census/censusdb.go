// Package census keeps the registered voters of each election in a Merkle
// tree. Leaves map the truncated Keccak-256 hash of a voter public key to the
// voter account, so a census answers membership queries for the verifier and
// produces inclusion proofs for external checks.
package census

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/vocdoni/arbo"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

const (
	censusDBprefix          = "cs_"
	censusDBreferencePrefix = "cr_"
)

var (
	// ErrCensusNotFound is returned when a census is not found in the database.
	ErrCensusNotFound = fmt.Errorf("census not found in the local database")
	// ErrCensusAlreadyExists is returned by New() if the census already exists.
	ErrCensusAlreadyExists = fmt.Errorf("census already exists in the local database")
	// ErrVoterAlreadyRegistered is returned when a public key is inserted
	// twice.
	ErrVoterAlreadyRegistered = fmt.Errorf("voter already registered")
	// ErrKeyNotFound is returned when a key is not found in the Merkle tree.
	ErrKeyNotFound = fmt.Errorf("key not found")
	// ErrRootNotFound is returned when no loaded census has the given root.
	ErrRootNotFound = fmt.Errorf("no census found with the provided root")
	// ErrInvalidProof is returned when an inclusion proof does not verify.
	ErrInvalidProof = fmt.Errorf("invalid census proof")

	defaultHashFunction = arbo.HashFunctionMiMC_BLS12_377
)

// updateRootRequest is used to update the root of a census tree.
type updateRootRequest struct {
	censusID uuid.UUID
	newRoot  []byte
	done     chan struct{}
}

// rootKey converts a root (a byte slice) to its canonical hexadecimal string.
func rootKey(root []byte) string {
	return hex.EncodeToString(root)
}

// CensusDB is a safe and persistent database of census trees.
// It maintains an in‑memory index mapping Merkle tree roots (in hexadecimal form)
// to census IDs.
type CensusDB struct {
	mu           sync.RWMutex
	db           db.Database
	loadedCensus map[uuid.UUID]*CensusRef
	rootIndex    map[string]uuid.UUID // maps hex(root) to censusID

	updateRootChan chan *updateRootRequest
}

// NewCensusDB creates a new CensusDB object.
// It scans the persistent database for existing census references and builds the in‑memory index.
func NewCensusDB(db db.Database) *CensusDB {
	c := &CensusDB{
		db:             db,
		loadedCensus:   make(map[uuid.UUID]*CensusRef),
		rootIndex:      make(map[string]uuid.UUID),
		updateRootChan: make(chan *updateRootRequest, 100),
	}

	// Start the root update worker.
	go func() {
		for req := range c.updateRootChan {
			if err := c.updateRoot(req.censusID, req.newRoot); err != nil {
				log.Warnw("error updating census root",
					"id", hex.EncodeToString(req.censusID[:]),
					"err", err)
			}
			if req.done != nil {
				close(req.done)
			}
		}
	}()

	return c
}

// New creates a new census and adds it to the database.
// It returns ErrCensusAlreadyExists if a census with the given ID is already present.
func (c *CensusDB) New(censusID uuid.UUID) (*CensusRef, error) {
	key := append([]byte(censusDBreferencePrefix), censusID[:]...)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Check in‑memory.
	if _, exists := c.loadedCensus[censusID]; exists {
		return nil, ErrCensusAlreadyExists
	}
	// Check persistent DB.
	if _, err := c.db.Get(key); err == nil {
		return nil, ErrCensusAlreadyExists
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, err
	}

	// Prepare a new census reference.
	ref := &CensusRef{
		ID:        censusID,
		MaxLevels: types.CensusTreeMaxLevels,
		HashType:  string(defaultHashFunction.Type()),
		LastUsed:  time.Now(),
	}

	// Create the Merkle tree.
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(c.db, censusPrefix(censusID)),
		MaxLevels:    types.CensusTreeMaxLevels,
		HashFunction: defaultHashFunction,
	})
	if err != nil {
		return nil, err
	}
	ref.SetTree(tree)
	// Compute and update the current root.
	root, err := tree.Root()
	if err != nil {
		return nil, err
	}
	ref.currentRoot = root

	// Prepare the root update channel.
	ref.updateRootRequest = c.updateRootChan

	// Store the reference in the database.
	if err := c.writeReference(ref); err != nil {
		return nil, err
	}

	// Add to the in‑memory maps.
	c.loadedCensus[censusID] = ref
	rk := rootKey(root)
	if _, exists := c.rootIndex[rk]; !exists {
		c.rootIndex[rk] = censusID
	}

	return ref, nil
}

// writeReference writes a census reference to the database.
func (c *CensusDB) writeReference(ref *CensusRef) error {
	key := append([]byte(censusDBreferencePrefix), ref.ID[:]...)
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return err
	}
	data, err := em.Marshal(ref)
	if err != nil {
		return err
	}
	wtx := c.db.WriteTx()
	defer wtx.Discard()
	if err := wtx.Set(key, data); err != nil {
		return err
	}
	return wtx.Commit()
}

// List returns the identifiers of the censuses stored in the database.
func (c *CensusDB) List() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	rd := prefixeddb.NewPrefixedReader(c.db, []byte(censusDBreferencePrefix))
	if err := rd.Iterate(nil, func(k, _ []byte) bool {
		id, err := uuid.FromBytes(k)
		if err != nil {
			log.Warnw("invalid census reference key", "key", hex.EncodeToString(k))
			return true
		}
		ids = append(ids, id)
		return true
	}); err != nil {
		return nil, err
	}
	return ids, nil
}

// Exists returns true if the censusID exists in the local database.
func (c *CensusDB) Exists(censusID uuid.UUID) bool {
	c.mu.RLock()
	_, exists := c.loadedCensus[censusID]
	c.mu.RUnlock()
	if exists {
		return true
	}
	key := append([]byte(censusDBreferencePrefix), censusID[:]...)
	_, err := c.db.Get(key)
	return err == nil
}

// Load returns a census from memory or from the persistent KV database.
func (c *CensusDB) Load(censusID uuid.UUID) (*CensusRef, error) {
	ref, err := c.loadCensusRef(censusID)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// loadCensusRef loads a census reference from memory or persistent DB using a double‑check.
func (c *CensusDB) loadCensusRef(censusID uuid.UUID) (*CensusRef, error) {
	c.mu.RLock()
	if ref, exists := c.loadedCensus[censusID]; exists {
		c.mu.RUnlock()
		return ref, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	key := append([]byte(censusDBreferencePrefix), censusID[:]...)
	b, err := c.db.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %x", ErrCensusNotFound, censusID)
		}
		return nil, err
	}

	var ref CensusRef
	if err := cbor.Unmarshal(b, &ref); err != nil {
		return nil, err
	}

	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(c.db, censusPrefix(censusID)),
		MaxLevels:    ref.MaxLevels,
		HashFunction: defaultHashFunction,
	})
	if err != nil {
		return nil, err
	}
	ref.tree = tree
	root, err := tree.Root()
	if err != nil {
		return nil, err
	}
	ref.currentRoot = root
	ref.updateRootRequest = c.updateRootChan

	// Update the LastUsed timestamp and write back to the database.
	ref.LastUsed = time.Now()
	if err := c.writeReference(&ref); err != nil {
		return nil, err
	}

	c.loadedCensus[censusID] = &ref
	rk := rootKey(root)
	if _, exists := c.rootIndex[rk]; !exists {
		c.rootIndex[rk] = censusID
	}
	return &ref, nil
}

// Del removes a census from the database and memory.
func (c *CensusDB) Del(censusID uuid.UUID) error {
	key := append([]byte(censusDBreferencePrefix), censusID[:]...)
	wtx := c.db.WriteTx()
	if err := wtx.Delete(key); err != nil {
		wtx.Discard()
		return err
	}
	if err := wtx.Commit(); err != nil {
		return err
	}

	c.mu.Lock()
	if ref, exists := c.loadedCensus[censusID]; exists {
		delete(c.rootIndex, rootKey(ref.currentRoot))
		delete(c.loadedCensus, censusID)
	}
	c.mu.Unlock()

	go func(id uuid.UUID) {
		if _, err := deleteCensusTreeFromDatabase(c.db, censusPrefix(id)); err != nil {
			log.Warnw("error deleting census tree", "id", hex.EncodeToString(id[:]), "err", err)
		}
	}(censusID)

	return nil
}

// deleteCensusTreeFromDatabase removes all keys belonging to a census tree from the database.
func deleteCensusTreeFromDatabase(kv db.Database, prefix []byte) (int, error) {
	database := prefixeddb.NewPrefixedDatabase(kv, prefix)
	wtx := database.WriteTx()
	count := 0
	err := database.Iterate(nil, func(k, _ []byte) bool {
		if err := wtx.Delete(k); err != nil {
			log.Warnw("could not remove key from database", "key", hex.EncodeToString(k))
		} else {
			count++
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	return count, wtx.Commit()
}

// ProofByRoot finds a census by its Merkle tree root and generates a Merkle proof for the given leafKey.
// It returns a CensusProof containing the proof components.
func (c *CensusDB) ProofByRoot(root, leafKey []byte) (*types.CensusProof, error) {
	rk := rootKey(root)
	c.mu.RLock()
	censusID, exists := c.rootIndex[rk]
	c.mu.RUnlock()
	if !exists {
		return nil, ErrRootNotFound
	}
	ref, err := c.Load(censusID)
	if err != nil {
		return nil, err
	}
	key, value, siblings, inclusion, err := ref.GenProof(leafKey)
	if err != nil {
		return nil, err
	}
	if !inclusion {
		return nil, ErrKeyNotFound
	}

	return &types.CensusProof{
		Root:     root,
		Key:      key,
		Value:    value,
		Siblings: siblings,
	}, nil
}

// SizeByRoot returns the number of leaves in the Merkle tree with the given root.
func (c *CensusDB) SizeByRoot(root []byte) (int, error) {
	rk := rootKey(root)
	c.mu.RLock()
	censusID, exists := c.rootIndex[rk]
	c.mu.RUnlock()
	if !exists {
		return 0, ErrRootNotFound
	}
	ref, err := c.Load(censusID)
	if err != nil {
		return 0, err
	}
	return ref.Size(), nil
}

// updateRoot recalculates the Merkle tree root for a given census and updates the in‑memory index.
// It acquires the CensusRef's treeMu before reading or writing currentRoot.
func (c *CensusDB) updateRoot(censusID uuid.UUID, newRoot []byte) error {
	newKey := rootKey(newRoot)
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, exists := c.loadedCensus[censusID]
	if !exists {
		return ErrCensusNotFound
	}

	ref.treeMu.Lock()
	oldKey := rootKey(ref.currentRoot)
	if oldKey == newKey {
		ref.treeMu.Unlock()
		return nil
	}
	ref.currentRoot = append([]byte(nil), newRoot...)
	ref.treeMu.Unlock()

	delete(c.rootIndex, oldKey)
	c.rootIndex[newKey] = censusID
	return nil
}

// censusPrefix returns the prefix used for the census tree in the database.
func censusPrefix(censusID uuid.UUID) []byte {
	return append([]byte(censusDBprefix), censusID[:]...)
}
