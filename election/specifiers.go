// Package election derives the election specifiers: for each vote direction
// a pair of points (k*G1, k*G2) where k is the Keccak-256 hash of the
// election id and the direction byte. Vote proofs are built on the G1 half
// and checked in the pairing against the G2 half, so a proof for one election
// or direction does not verify against another.
package election

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/types"
)

// ErrSpecifierMismatch is returned when a set of specifiers does not match
// the ones derived from its election id.
var ErrSpecifierMismatch = errors.New("specifier mismatch")

// Pair is a specifier: the same scalar multiplied by the G1 and G2
// generators.
type Pair struct {
	G1 ecc.Point
	G2 ecc.Point
}

// Equal reports whether both halves are equal.
func (p Pair) Equal(other Pair) bool {
	if p.G1 == nil || p.G2 == nil || other.G1 == nil || other.G2 == nil {
		return false
	}
	return p.G1.Equal(other.G1) && p.G2.Equal(other.G2)
}

// Specifiers holds the specifier of each vote direction of an election.
type Specifiers struct {
	For     Pair
	Against Pair
}

// Derive computes the specifiers of the election id.
func Derive(curve ecc.Curve, id ID) *Specifiers {
	return &Specifiers{
		For:     derivePair(curve, id, types.VoteFor),
		Against: derivePair(curve, id, types.VoteAgainst),
	}
}

func derivePair(curve ecc.Curve, id ID, vote types.Vote) Pair {
	msg := append(id.Bytes(), vote.Byte())
	k := new(big.Int).SetBytes(crypto.Keccak256(msg))
	return pairFromScalar(curve, k.Mod(k, curve.Order()))
}

// pairFromScalar multiplies both generators by k, moving to k+1 while any of
// the results is the identity.
func pairFromScalar(curve ecc.Curve, k *big.Int) Pair {
	k = new(big.Int).Set(k)
	one := big.NewInt(1)
	for {
		g1 := curve.NewG1()
		g1.ScalarBaseMult(k)
		g2 := curve.NewG2()
		g2.ScalarBaseMult(k)
		if !g1.IsZero() && !g2.IsZero() {
			return Pair{G1: g1, G2: g2}
		}
		k.Add(k, one)
		k.Mod(k, curve.Order())
	}
}

// Pair returns the specifier of the vote direction.
func (s *Specifiers) Pair(vote types.Vote) Pair {
	if vote == types.VoteFor {
		return s.For
	}
	return s.Against
}

// Equal compares two sets of specifiers by value.
func (s *Specifiers) Equal(other *Specifiers) bool {
	if s == nil || other == nil {
		return false
	}
	return s.For.Equal(other.For) && s.Against.Equal(other.Against)
}

// Check recomputes the specifiers of id and compares them with s.
func (s *Specifiers) Check(curve ecc.Curve, id ID) bool {
	return s.Equal(Derive(curve, id))
}

// Verify returns ErrSpecifierMismatch if s are not the specifiers of id.
func Verify(curve ecc.Curve, s *Specifiers, id ID) error {
	if !s.Check(curve, id) {
		return fmt.Errorf("%w: election %s", ErrSpecifierMismatch, id)
	}
	return nil
}
