// Package verifier checks aggregate proofs with a constant number of pairings,
// whatever the number of voters.
//
// The general form checks
//
//	e(proof, G2) == e(forKeysSum, For.G2) * e(againstKeysSum, Against.G2)
//
// and the compact form, suited to multi-pairing precompiles, checks
//
//	e(proof, -G2) * e(forKeysSum, For.G2) * e(againstKeysSum, Against.G2) == 1
//
// leaving out the terms whose key sum is the identity.
package verifier

import (
	"errors"
	"fmt"

	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
)

var (
	// ErrCensusViolation is returned when a key summed into an aggregate is
	// not part of the census.
	ErrCensusViolation = errors.New("census violation")
	// ErrKeySumMismatch is returned when the key sums of an aggregate do not
	// match its list of voters.
	ErrKeySumMismatch = errors.New("key sums do not match the listed voters")
	// ErrInvalidInput is returned for incomplete proofs or specifiers.
	ErrInvalidInput = errors.New("invalid verification input")
)

// CensusViolationError names the first voter of an aggregate missing from
// the census.
type CensusViolationError struct {
	Index int
	Voter aggregator.VoterKey
}

func (e *CensusViolationError) Error() string {
	return fmt.Sprintf("%s: voter %d (%s) public key %s is not registered",
		ErrCensusViolation, e.Index, e.Voter.Account.Hex(), e.Voter.PublicKey)
}

func (e *CensusViolationError) Unwrap() error {
	return ErrCensusViolation
}

// Census is the set of registered voter public keys.
type Census interface {
	Contains(publicKey ecc.Point) (bool, error)
}

// Verifier evaluates both verification forms on a curve.
type Verifier struct {
	curve    ecc.Curve
	g2Gen    ecc.Point
	negG2Gen ecc.Point
}

// New returns a Verifier for the curve.
func New(curve ecc.Curve) *Verifier {
	g2 := curve.NewG2()
	g2.SetGenerator()
	neg := curve.NewG2()
	neg.Neg(g2)
	return &Verifier{curve: curve, g2Gen: g2, negG2Gen: neg}
}

// Curve returns the curve of the verifier.
func (v *Verifier) Curve() ecc.Curve {
	return v.curve
}

func checkInput(proof *aggregator.Proof, specifiers *election.Specifiers) error {
	if proof == nil || proof.Proof == nil || proof.ForKeysSum == nil || proof.AgainstKeysSum == nil {
		return fmt.Errorf("%w: incomplete aggregate proof", ErrInvalidInput)
	}
	if specifiers == nil || specifiers.For.G2 == nil || specifiers.Against.G2 == nil {
		return fmt.Errorf("%w: incomplete specifiers", ErrInvalidInput)
	}
	return nil
}

// VerifyGeneral evaluates the general form.
func (v *Verifier) VerifyGeneral(proof *aggregator.Proof, specifiers *election.Specifiers) (bool, error) {
	if err := checkInput(proof, specifiers); err != nil {
		return false, err
	}
	lhs, err := v.curve.Pair([]ecc.Point{proof.Proof}, []ecc.Point{v.g2Gen})
	if err != nil {
		return false, err
	}
	rhs, err := v.curve.Pair(
		[]ecc.Point{proof.ForKeysSum, proof.AgainstKeysSum},
		[]ecc.Point{specifiers.For.G2, specifiers.Against.G2},
	)
	if err != nil {
		return false, err
	}
	return lhs.Equal(rhs), nil
}

// compactTerms returns the pairing inputs of the compact form.
func (v *Verifier) compactTerms(proof *aggregator.Proof, specifiers *election.Specifiers) ([]ecc.Point, []ecc.Point) {
	p := []ecc.Point{proof.Proof}
	q := []ecc.Point{v.negG2Gen}
	if !proof.ForKeysSum.IsZero() {
		p = append(p, proof.ForKeysSum)
		q = append(q, specifiers.For.G2)
	}
	if !proof.AgainstKeysSum.IsZero() {
		p = append(p, proof.AgainstKeysSum)
		q = append(q, specifiers.Against.G2)
	}
	return p, q
}

// VerifyCompact evaluates the compact form.
func (v *Verifier) VerifyCompact(proof *aggregator.Proof, specifiers *election.Specifiers) (bool, error) {
	if err := checkInput(proof, specifiers); err != nil {
		return false, err
	}
	p, q := v.compactTerms(proof, specifiers)
	return v.curve.PairingCheck(p, q)
}

// CheckKeySums recomputes the key sums from the listed voters.
func (v *Verifier) CheckKeySums(proof *aggregator.Proof) error {
	forSum, againstSum := v.curve.NewG1(), v.curve.NewG1()
	for _, voter := range proof.Voters {
		if voter.Vote == types.VoteFor {
			forSum.Add(forSum, voter.PublicKey)
		} else {
			againstSum.Add(againstSum, voter.PublicKey)
		}
	}
	if !forSum.Equal(proof.ForKeysSum) || !againstSum.Equal(proof.AgainstKeysSum) {
		return ErrKeySumMismatch
	}
	return nil
}

// VerifyWithCensus checks that the key sums match the listed voters and that
// every voter is in the census, then evaluates the general form. A missing
// voter is reported as a *CensusViolationError.
func (v *Verifier) VerifyWithCensus(proof *aggregator.Proof, specifiers *election.Specifiers, census Census) (bool, error) {
	if err := checkInput(proof, specifiers); err != nil {
		return false, err
	}
	if err := v.CheckKeySums(proof); err != nil {
		return false, err
	}
	for i, voter := range proof.Voters {
		ok, err := census.Contains(voter.PublicKey)
		if err != nil {
			return false, fmt.Errorf("could not query census: %w", err)
		}
		if !ok {
			return false, &CensusViolationError{Index: i, Voter: voter}
		}
	}
	return v.VerifyGeneral(proof, specifiers)
}
