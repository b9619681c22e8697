package aggregator

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
)

func testBallots(curve ecc.Curve, spec *election.Specifiers, n int) []*ballot.Ballot {
	ballots := make([]*ballot.Ballot, n)
	for i := range ballots {
		vote := types.VoteFor
		if i%3 == 0 {
			vote = types.VoteAgainst
		}
		ballots[i] = ballot.New(big.NewInt(int64(1000+i)), vote, spec, common.BigToAddress(big.NewInt(int64(i))))
	}
	return ballots
}

func sameVoters(a, b []VoterKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Vote != b[i].Vote || a[i].Account != b[i].Account || !a[i].PublicKey.Equal(b[i].PublicKey) {
			return false
		}
	}
	return true
}

func TestAggregateEmpty(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	agg := Aggregate(curve, nil)
	c.Assert(agg.Proof.IsZero(), qt.IsTrue)
	c.Assert(agg.ForKeysSum.IsZero(), qt.IsTrue)
	c.Assert(agg.AgainstKeysSum.IsZero(), qt.IsTrue)
	c.Assert(agg.Voters, qt.HasLen, 0)
	c.Assert(agg.ForAccounts(), qt.HasLen, 0)
}

func TestAggregateSingle(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	spec := election.Derive(curve, election.NewID(1))
	b := ballot.New(big.NewInt(7), types.VoteFor, spec, common.Address{7})
	agg := Aggregate(curve, []*ballot.Ballot{b})

	c.Assert(agg.Proof.Equal(b.VoteProof), qt.IsTrue)
	pk := curve.NewG1()
	pk.ScalarBaseMult(big.NewInt(7))
	c.Assert(agg.ForKeysSum.Equal(pk), qt.IsTrue)
	c.Assert(agg.AgainstKeysSum.IsZero(), qt.IsTrue)
	c.Assert(agg.ForAccounts(), qt.DeepEquals, []common.Address{{7}})
	c.Assert(agg.AgainstAccounts(), qt.DeepEquals, []common.Address{})

	// the ballot points are not modified
	expected := curve.NewG1()
	expected.ScalarMult(spec.For.G1, big.NewInt(7))
	c.Assert(b.VoteProof.Equal(expected), qt.IsTrue)
}

func TestHomomorphism(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	spec := election.Derive(curve, election.NewID(2))
	ballots := testBallots(curve, spec, 20)

	all := Aggregate(curve, ballots)
	first := Aggregate(curve, ballots[:8])
	second := Aggregate(curve, ballots[8:])
	merged := first.Merge(second)
	c.Assert(merged.Equal(all), qt.IsTrue)
	c.Assert(sameVoters(merged.Voters, all.Voters), qt.IsTrue)

	// merge leaves its operands untouched
	c.Assert(first.Equal(Aggregate(curve, ballots[:8])), qt.IsTrue)

	// order of summation is irrelevant
	reversed := make([]*ballot.Ballot, len(ballots))
	for i, b := range ballots {
		reversed[len(ballots)-1-i] = b
	}
	c.Assert(Aggregate(curve, reversed).Equal(all), qt.IsTrue)

	c.Assert(len(all.ForAccounts())+len(all.AgainstAccounts()), qt.Equals, 20)
	c.Assert(all.AgainstAccounts(), qt.HasLen, 7)
}

func TestAggregateParallel(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	spec := election.Derive(curve, election.NewID(3))
	ballots := testBallots(curve, spec, 37)
	expected := Aggregate(curve, ballots)

	for _, workers := range []int{0, 1, 2, 5, 64} {
		agg, err := AggregateParallel(context.Background(), curve, ballots, workers)
		c.Assert(err, qt.IsNil)
		c.Assert(agg.Equal(expected), qt.IsTrue)
		c.Assert(sameVoters(agg.Voters, expected.Voters), qt.IsTrue)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AggregateParallel(ctx, curve, ballots, 4)
	c.Assert(err, qt.ErrorIs, context.Canceled)
}
