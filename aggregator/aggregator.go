// Package aggregator sums ballots into a single aggregate proof. Point
// addition is commutative and associative, so ballots may be summed in any
// order or in parallel chunks with the same result.
package aggregator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/types"
	"golang.org/x/sync/errgroup"
)

// VoterKey is the public record of a voter summed into an aggregate.
type VoterKey struct {
	Vote      types.Vote
	PublicKey ecc.Point
	Account   common.Address
}

// Proof is the aggregate of a set of ballots. Proof is the sum of the vote
// proofs and ForKeysSum and AgainstKeysSum the sums of the public keys of
// each direction. Voters lists the records the sums were built from, in
// input order.
type Proof struct {
	Proof          ecc.Point
	ForKeysSum     ecc.Point
	AgainstKeysSum ecc.Point
	Voters         []VoterKey
}

// Empty returns the aggregate of no ballots: all sums are the identity.
func Empty(curve ecc.Curve) *Proof {
	return &Proof{
		Proof:          curve.NewG1(),
		ForKeysSum:     curve.NewG1(),
		AgainstKeysSum: curve.NewG1(),
	}
}

// Aggregate sums the ballots.
func Aggregate(curve ecc.Curve, ballots []*ballot.Ballot) *Proof {
	agg := Empty(curve)
	agg.Voters = make([]VoterKey, 0, len(ballots))
	for _, b := range ballots {
		agg.Proof.Add(agg.Proof, b.VoteProof)
		if b.Vote == types.VoteFor {
			agg.ForKeysSum.Add(agg.ForKeysSum, b.VoterPublicKey)
		} else {
			agg.AgainstKeysSum.Add(agg.AgainstKeysSum, b.VoterPublicKey)
		}
		agg.Voters = append(agg.Voters, VoterKey{
			Vote:      b.Vote,
			PublicKey: b.VoterPublicKey,
			Account:   b.Account,
		})
	}
	return agg
}

// AggregateParallel splits the ballots into chunks, sums each chunk on its
// own goroutine and merges the partial aggregates. The result is the same as
// Aggregate.
func AggregateParallel(ctx context.Context, curve ecc.Curve, ballots []*ballot.Ballot, workers int) (*Proof, error) {
	if workers < 1 {
		workers = 1
	}
	chunkSize := (len(ballots) + workers - 1) / workers
	if workers == 1 || chunkSize < 2 {
		return Aggregate(curve, ballots), nil
	}
	var chunks [][]*ballot.Ballot
	for start := 0; start < len(ballots); start += chunkSize {
		end := min(start+chunkSize, len(ballots))
		chunks = append(chunks, ballots[start:end])
	}

	partials := make([]*Proof, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = Aggregate(curve, chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := Empty(curve)
	for _, p := range partials {
		agg = agg.Merge(p)
	}
	return agg, nil
}

// Merge returns the aggregate of the ballots of p and other, which must be
// disjoint. Neither operand is modified.
func (p *Proof) Merge(other *Proof) *Proof {
	merged := &Proof{
		Proof:          p.Proof.New(),
		ForKeysSum:     p.ForKeysSum.New(),
		AgainstKeysSum: p.AgainstKeysSum.New(),
		Voters:         make([]VoterKey, 0, len(p.Voters)+len(other.Voters)),
	}
	merged.Proof.Add(p.Proof, other.Proof)
	merged.ForKeysSum.Add(p.ForKeysSum, other.ForKeysSum)
	merged.AgainstKeysSum.Add(p.AgainstKeysSum, other.AgainstKeysSum)
	merged.Voters = append(merged.Voters, p.Voters...)
	merged.Voters = append(merged.Voters, other.Voters...)
	return merged
}

// Equal compares the three sums of two aggregates.
func (p *Proof) Equal(other *Proof) bool {
	return p.Proof.Equal(other.Proof) &&
		p.ForKeysSum.Equal(other.ForKeysSum) &&
		p.AgainstKeysSum.Equal(other.AgainstKeysSum)
}

// Accounts returns the accounts that voted in the given direction, in
// aggregation order.
func (p *Proof) Accounts(vote types.Vote) []common.Address {
	accounts := []common.Address{}
	for _, v := range p.Voters {
		if v.Vote == vote {
			accounts = append(accounts, v.Account)
		}
	}
	return accounts
}

// ForAccounts returns the accounts that voted for.
func (p *Proof) ForAccounts() []common.Address {
	return p.Accounts(types.VoteFor)
}

// AgainstAccounts returns the accounts that voted against.
func (p *Proof) AgainstAccounts() []common.Address {
	return p.Accounts(types.VoteAgainst)
}
