package census

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/arbo"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/types"
)

// VoterKey returns the leaf key of a voter public key: the Keccak-256 hash of
// its serialized form truncated to the key size of the tree.
func VoterKey(publicKey ecc.Point) []byte {
	return ethcrypto.Keccak256(publicKey.Marshal())[:types.CensusKeyMaxLen]
}

// InsertVoter registers a voter public key and its account.
func (cr *CensusRef) InsertVoter(publicKey ecc.Point, account common.Address) error {
	if err := cr.Insert(VoterKey(publicKey), account.Bytes()); err != nil {
		if errors.Is(err, arbo.ErrKeyAlreadyExists) {
			return fmt.Errorf("%w: %x", ErrVoterAlreadyRegistered, VoterKey(publicKey))
		}
		return err
	}
	return nil
}

// InsertVoters registers a batch of voters. It returns the positions that
// could not be inserted, along with the arbo errors.
func (cr *CensusRef) InsertVoters(publicKeys []ecc.Point, accounts []common.Address) ([]arbo.Invalid, error) {
	if len(publicKeys) != len(accounts) {
		return nil, fmt.Errorf("got %d public keys and %d accounts", len(publicKeys), len(accounts))
	}
	keys := make([][]byte, len(publicKeys))
	values := make([][]byte, len(accounts))
	for i := range publicKeys {
		keys[i] = VoterKey(publicKeys[i])
		values[i] = accounts[i].Bytes()
	}
	return cr.InsertBatch(keys, values)
}

// voterProof generates the proof of a voter key. An empty tree holds no
// voters.
func (cr *CensusRef) voterProof(publicKey ecc.Point) ([]byte, []byte, []byte, bool, error) {
	if cr.Size() == 0 {
		return nil, nil, nil, false, nil
	}
	return cr.GenProof(VoterKey(publicKey))
}

// Account returns the account registered with a public key, or
// ErrKeyNotFound.
func (cr *CensusRef) Account(publicKey ecc.Point) (common.Address, error) {
	_, value, _, inclusion, err := cr.voterProof(publicKey)
	if err != nil {
		return common.Address{}, err
	}
	if !inclusion {
		return common.Address{}, ErrKeyNotFound
	}
	return common.BytesToAddress(value), nil
}

// Contains reports whether the public key is registered.
func (cr *CensusRef) Contains(publicKey ecc.Point) (bool, error) {
	_, _, _, inclusion, err := cr.voterProof(publicKey)
	if err != nil {
		return false, err
	}
	return inclusion, nil
}

// VoterProof returns the inclusion proof of a registered public key.
func (cr *CensusRef) VoterProof(publicKey ecc.Point) (*types.CensusProof, error) {
	key, value, siblings, inclusion, err := cr.voterProof(publicKey)
	if err != nil {
		return nil, err
	}
	if !inclusion {
		return nil, ErrKeyNotFound
	}
	return &types.CensusProof{
		Root:     cr.Root(),
		Key:      key,
		Value:    value,
		Siblings: siblings,
	}, nil
}

// CheckProof verifies a census inclusion proof against the root it carries.
func CheckProof(proof *types.CensusProof) bool {
	if proof == nil {
		return false
	}
	return VerifyProof(proof.Key, proof.Value, proof.Root, proof.Siblings)
}

// CheckVoterProof verifies that the proof is the inclusion proof of the
// public key, and returns the account it registers.
func CheckVoterProof(proof *types.CensusProof, publicKey ecc.Point) (common.Address, error) {
	if proof == nil || !bytes.Equal(proof.Key, VoterKey(publicKey)) {
		return common.Address{}, ErrInvalidProof
	}
	if !CheckProof(proof) {
		return common.Address{}, ErrInvalidProof
	}
	return common.BytesToAddress(proof.Value), nil
}
