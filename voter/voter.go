// Package voter holds a voter key pair and produces its ballots and key
// ownership proofs.
package voter

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
	"github.com/vocdoni/batravot/util"
)

// PrivateKeyLen is the size of a hex encoded private key once decoded.
const PrivateKeyLen = 32

// Voter is a registered or prospective voter.
type Voter struct {
	curve      ecc.Curve
	privateKey *big.Int
	PublicKey  ecc.Point
	Account    common.Address
}

// New returns the voter of privateKey, reduced modulo the group order.
func New(curve ecc.Curve, privateKey *big.Int, account common.Address) *Voter {
	k := new(big.Int).Mod(privateKey, curve.Order())
	pk := curve.NewG1()
	pk.ScalarBaseMult(k)
	return &Voter{
		curve:      curve,
		privateKey: k,
		PublicKey:  pk,
		Account:    account,
	}
}

// Generate creates a voter with a random non-zero private key read from rng.
// A nil rng defaults to crypto/rand.
func Generate(curve ecc.Curve, account common.Address, rng io.Reader) (*Voter, error) {
	if rng == nil {
		rng = rand.Reader
	}
	for {
		k, err := util.RandomScalar(rng, curve.Order())
		if err != nil {
			return nil, fmt.Errorf("could not generate private key: %w", err)
		}
		if k.Sign() != 0 {
			return New(curve, k, account), nil
		}
	}
}

// FromHex returns the voter of a 32-byte big-endian hex private key, with or
// without 0x prefix.
func FromHex(curve ecc.Curve, privateKey string, account common.Address) (*Voter, error) {
	b, err := hex.DecodeString(util.TrimHex(privateKey))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if len(b) != PrivateKeyLen {
		return nil, fmt.Errorf("invalid private key: expected %d bytes, got %d", PrivateKeyLen, len(b))
	}
	return New(curve, new(big.Int).SetBytes(b), account), nil
}

// PrivateKeyHex returns the private key as 32-byte big-endian hex.
func (v *Voter) PrivateKeyHex() string {
	return hex.EncodeToString(util.PadBytes(v.privateKey.Bytes(), PrivateKeyLen))
}

// Ballot casts vote on the election of specifiers.
func (v *Voter) Ballot(vote types.Vote, specifiers *election.Specifiers) *ballot.Ballot {
	return ballot.New(v.privateKey, vote, specifiers, v.Account)
}

// KeyProof proves ownership of the voter public key with the given scheme.
func (v *Voter) KeyProof(scheme schnorr.Scheme, rng io.Reader) (schnorr.KeyProof, error) {
	var (
		proof schnorr.KeyProof
		err   error
	)
	switch scheme {
	case schnorr.SchemeKnowledgeProof:
		proof, err = schnorr.Prove(v.curve, v.privateKey, rng)
	case schnorr.SchemeSignature:
		proof, err = schnorr.Sign(v.curve, v.privateKey, rng)
	default:
		return nil, fmt.Errorf("unknown key proof scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return proof, nil
}
