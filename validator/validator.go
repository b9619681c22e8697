// Package validator checks single ballots before they are aggregated. An
// invalid ballot is always reported back to the caller, which decides
// whether to keep it, drop it or abort.
package validator

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/verifier"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidProof is returned when the vote proof of a ballot does not verify
// against the election specifiers.
var ErrInvalidProof = errors.New("invalid vote proof")

// InvalidProofError reports an invalid ballot and its position in the input.
type InvalidProofError struct {
	Index  int
	Ballot *ballot.Ballot
}

func (e *InvalidProofError) Error() string {
	return fmt.Sprintf("ballot #%d (%s voting %s): %s",
		e.Index+1, e.Ballot.Account.Hex(), e.Ballot.Vote, ErrInvalidProof)
}

func (e *InvalidProofError) Unwrap() error {
	return ErrInvalidProof
}

// Validator runs the single ballot check.
type Validator struct {
	curve    ecc.Curve
	verifier *verifier.Verifier
	// Workers bounds the number of concurrent checks run by Filter.
	Workers int
}

// New returns a Validator for the curve.
func New(curve ecc.Curve) *Validator {
	return &Validator{
		curve:    curve,
		verifier: verifier.New(curve),
		Workers:  runtime.NumCPU(),
	}
}

// IsValid verifies the ballot as an aggregate of one: its public key on the
// claimed side and nothing on the other. A private key that is zero modulo
// the group order gives the identity public key, which is never valid.
func (v *Validator) IsValid(b *ballot.Ballot, specifiers *election.Specifiers) bool {
	if b == nil || b.VoterPublicKey == nil || b.VoteProof == nil || !b.Vote.Valid() {
		return false
	}
	if b.VoterPublicKey.IsZero() {
		return false
	}
	ok, err := v.verifier.VerifyGeneral(aggregator.Aggregate(v.curve, []*ballot.Ballot{b}), specifiers)
	return err == nil && ok
}

// Check returns an *InvalidProofError if the ballot at index is not valid.
func (v *Validator) Check(index int, b *ballot.Ballot, specifiers *election.Specifiers) error {
	if !v.IsValid(b, specifiers) {
		return &InvalidProofError{Index: index, Ballot: b}
	}
	return nil
}

// Filter checks the ballots concurrently and splits them into the valid ones
// and one error per invalid ballot, both in input order.
func (v *Validator) Filter(ctx context.Context, ballots []*ballot.Ballot,
	specifiers *election.Specifiers,
) ([]*ballot.Ballot, []*InvalidProofError, error) {
	results := make([]error, len(ballots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(v.Workers, 1))
	for i, b := range ballots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = v.Check(i, b, specifiers)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	valid := make([]*ballot.Ballot, 0, len(ballots))
	var invalid []*InvalidProofError
	for i, err := range results {
		if err == nil {
			valid = append(valid, ballots[i])
			continue
		}
		var ipe *InvalidProofError
		if errors.As(err, &ipe) {
			invalid = append(invalid, ipe)
		}
	}
	return valid, invalid, nil
}
