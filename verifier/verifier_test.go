package verifier

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
	"github.com/vocdoni/batravot/util"
)

func randomKey(t testing.TB, curve ecc.Curve) *big.Int {
	k, err := rand.Int(rand.Reader, curve.Order())
	qt.Assert(t, err, qt.IsNil)
	return k
}

// randomBallots builds n ballots. mode selects the directions: 0 mixed,
// 1 all for, 2 all against.
func randomBallots(t testing.TB, curve ecc.Curve, spec *election.Specifiers, n, mode int) []*ballot.Ballot {
	ballots := make([]*ballot.Ballot, n)
	for i := range ballots {
		vote := types.VoteFor
		switch mode {
		case 0:
			if util.RandomInt(0, 2) == 0 {
				vote = types.VoteAgainst
			}
		case 2:
			vote = types.VoteAgainst
		}
		ballots[i] = ballot.New(randomKey(t, curve), vote, spec, common.BytesToAddress(util.RandomBytes(20)))
	}
	return ballots
}

func TestConcreteScenario(t *testing.T) {
	for _, curveType := range curves.Types() {
		t.Run(curveType, func(t *testing.T) {
			c := qt.New(t)
			curve := curves.New(curveType)
			v := New(curve)
			spec := election.Derive(curve, election.NewID(1))

			b := ballot.New(big.NewInt(7), types.VoteFor, spec, common.Address{})
			agg := aggregator.Aggregate(curve, []*ballot.Ballot{b})
			ok, err := v.VerifyGeneral(agg, spec)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsTrue)
			ok, err = v.VerifyCompact(agg, spec)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsTrue)

			empty := aggregator.Aggregate(curve, nil)
			ok, err = v.VerifyGeneral(empty, spec)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsTrue)
			ok, err = v.VerifyCompact(empty, spec)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsTrue)
		})
	}
}

func TestCrossElectionRejected(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	v := New(curve)
	spec1 := election.Derive(curve, election.NewID(1))
	spec2 := election.Derive(curve, election.NewID(2))

	agg := aggregator.Aggregate(curve, randomBallots(t, curve, spec1, 3, 1))
	ok, err := v.VerifyGeneral(agg, spec2)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
	ok, err = v.VerifyCompact(agg, spec2)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestFormEquivalence(t *testing.T) {
	curve := curves.New(curves.DefaultCurveType)
	v := New(curve)
	iterations := 0
	for _, size := range []int{0, 1, 2, 100} {
		for round := 0; round < 14; round++ {
			iterations++
			c := qt.New(t)
			spec := election.Derive(curve, election.NewID(uint64(round)))
			ballots := randomBallots(t, curve, spec, size, round%3)

			// every other round a ballot claims the opposite direction
			// of its proof, which both forms must reject
			tampered := size > 0 && round%2 == 1
			if tampered {
				b := *ballots[0]
				if b.Vote == types.VoteFor {
					b.Vote = types.VoteAgainst
				} else {
					b.Vote = types.VoteFor
				}
				ballots[0] = &b
			}
			agg := aggregator.Aggregate(curve, ballots)

			general, err := v.VerifyGeneral(agg, spec)
			c.Assert(err, qt.IsNil)
			compact, err := v.VerifyCompact(agg, spec)
			c.Assert(err, qt.IsNil)
			c.Assert(general, qt.Equals, compact, qt.Commentf("size %d round %d", size, round))
			c.Assert(general, qt.Equals, !tampered)

			evm, err := v.VerifyEVM(agg, spec)
			c.Assert(err, qt.IsNil)
			c.Assert(evm, qt.Equals, compact)
		}
	}
	qt.Assert(t, iterations >= 50, qt.IsTrue)
}

func TestHomomorphicVerification(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	v := New(curve)
	spec := election.Derive(curve, election.NewID(5))
	b1 := randomBallots(t, curve, spec, 4, 0)
	b2 := randomBallots(t, curve, spec, 5, 0)

	merged := aggregator.Aggregate(curve, b1).Merge(aggregator.Aggregate(curve, b2))
	c.Assert(merged.Equal(aggregator.Aggregate(curve, append(append([]*ballot.Ballot{}, b1...), b2...))), qt.IsTrue)
	ok, err := v.VerifyGeneral(merged, spec)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}

func TestVerifyWithCensus(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	v := New(curve)
	spec := election.Derive(curve, election.NewID(6))
	ballots := randomBallots(t, curve, spec, 4, 0)
	agg := aggregator.Aggregate(curve, ballots)

	census := NewKeySet()
	for _, b := range ballots {
		census.Add(b.VoterPublicKey)
	}
	c.Assert(census.Len(), qt.Equals, 4)
	ok, err := v.VerifyWithCensus(agg, spec, census)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	partial := NewKeySet(ballots[0].VoterPublicKey, ballots[1].VoterPublicKey, ballots[3].VoterPublicKey)
	ok, err = v.VerifyWithCensus(agg, spec, partial)
	c.Assert(ok, qt.IsFalse)
	c.Assert(err, qt.ErrorIs, ErrCensusViolation)
	var violation *CensusViolationError
	c.Assert(err, qt.ErrorAs, &violation)
	c.Assert(violation.Index, qt.Equals, 2)
	c.Assert(violation.Voter.Account, qt.Equals, ballots[2].Account)

	// sums that do not match the listed voters are rejected
	forged := *agg
	forged.Voters = agg.Voters[1:]
	_, err = v.VerifyWithCensus(&forged, spec, census)
	c.Assert(err, qt.ErrorIs, ErrKeySumMismatch)
}

func TestInvalidInput(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.DefaultCurveType)
	v := New(curve)
	spec := election.Derive(curve, election.NewID(1))
	_, err := v.VerifyGeneral(nil, spec)
	c.Assert(err, qt.ErrorIs, ErrInvalidInput)
	_, err = v.VerifyCompact(aggregator.Empty(curve), &election.Specifiers{})
	c.Assert(err, qt.ErrorIs, ErrInvalidInput)
}

func TestEVMPairingInput(t *testing.T) {
	c := qt.New(t)
	curve := curves.New(curves.CurveTypeBN254)
	v := New(curve)
	spec := election.Derive(curve, election.NewID(1))

	// the empty aggregate keeps only the proof term
	input, err := v.EVMPairingInput(aggregator.Empty(curve), spec)
	c.Assert(err, qt.IsNil)
	c.Assert(input, qt.HasLen, EVMPairSize)

	ballots := randomBallots(t, curve, spec, 6, 0)
	ballots[0] = ballot.New(randomKey(t, curve), types.VoteFor, spec, common.Address{})
	ballots[1] = ballot.New(randomKey(t, curve), types.VoteAgainst, spec, common.Address{})
	agg := aggregator.Aggregate(curve, ballots)
	input, err = v.EVMPairingInput(agg, spec)
	c.Assert(err, qt.IsNil)
	c.Assert(input, qt.HasLen, 3*EVMPairSize)
	ok, err := PairingCheckEVM(input)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// a proof point off the curve is rejected
	input[evmFieldSize-1] ^= 1
	ok, _ = PairingCheckEVM(input)
	c.Assert(ok, qt.IsFalse)

	_, err = PairingCheckEVM(input[:10])
	c.Assert(err, qt.ErrorIs, ErrInvalidInput)

	bls := New(curves.New(curves.CurveTypeBLS12_381))
	_, err = bls.EVMPairingInput(agg, spec)
	c.Assert(err, qt.IsNotNil)
}
