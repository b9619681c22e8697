package verifier

import (
	"sync"

	"github.com/vocdoni/batravot/crypto/ecc"
)

// KeySet is an in-memory Census.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewKeySet returns a census holding the given keys.
func NewKeySet(keys ...ecc.Point) *KeySet {
	ks := &KeySet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		ks.Add(k)
	}
	return ks
}

// Add registers a public key.
func (ks *KeySet) Add(publicKey ecc.Point) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.keys[string(publicKey.Marshal())] = struct{}{}
}

func (ks *KeySet) Contains(publicKey ecc.Point) (bool, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	_, ok := ks.keys[string(publicKey.Marshal())]
	return ok, nil
}

// Len returns the number of registered keys.
func (ks *KeySet) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}
