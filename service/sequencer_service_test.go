package service

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/batravot/api"
	"github.com/vocdoni/batravot/api/client"
	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/crypto/ethereum"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
	"github.com/vocdoni/batravot/storage/db/metadb"
	"github.com/vocdoni/batravot/types"
	"github.com/vocdoni/batravot/voter"
)

func TestNewSequencer(t *testing.T) {
	c := qt.New(t)
	_, err := NewSequencer(nil, nil, SequencerConfig{BatchTimeWindow: time.Second})
	c.Assert(err, qt.ErrorMatches, "failed to create sequencer: storage cannot be nil")
	_, err = NewSequencer(storage.New(metadb.NewTest(t)), nil, SequencerConfig{})
	c.Assert(err, qt.ErrorMatches, "failed to create sequencer: batch time window must be positive")
}

// TestNode runs the API, the sequencer and the monitor over the same
// storage and follows an election from registration to its aggregate.
func TestNode(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database := metadb.NewTest(t)
	stg := storage.New(database)
	censusDB := census.NewCensusDB(database)

	seq, err := NewSequencer(stg, censusDB, SequencerConfig{
		BatchTimeWindow: 100 * time.Millisecond,
		Policy:          batcher.Fixed(batcher.Drop),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(seq.Start(ctx), qt.IsNil)
	defer seq.Stop()

	apiService := NewAPI(stg, censusDB, seq, "127.0.0.1", 0, curves.CurveTypeBN254)
	c.Assert(apiService.Start(ctx), qt.IsNil)
	defer apiService.Stop()

	monitor := NewElectionMonitor(stg, 200*time.Millisecond)
	c.Assert(monitor.Start(ctx), qt.IsNil)
	defer monitor.Stop()
	c.Assert(monitor.Start(ctx), qt.ErrorMatches, "service already running")

	cli, err := client.New(apiService.URL())
	c.Assert(err, qt.IsNil)

	censusID, err := cli.NewCensus()
	c.Assert(err, qt.IsNil)
	id := election.NewID(7)
	_, err = cli.NewElection(id, "", censusID)
	c.Assert(err, qt.IsNil)
	curve := curves.New(curves.CurveTypeBN254)
	spec, err := cli.Specifiers(curve, id)
	c.Assert(err, qt.IsNil)

	const voters = 4
	for i := range voters {
		signer := ethereum.NewSignKeys()
		c.Assert(signer.Generate(), qt.IsNil)
		v, err := voter.Generate(curve, signer.Address(), rand.Reader)
		c.Assert(err, qt.IsNil)
		reg, err := api.NewVoterRegistration(v, censusID, schnorr.SchemeKnowledgeProof, signer)
		c.Assert(err, qt.IsNil)
		_, err = cli.RegisterVoter(censusID, reg)
		c.Assert(err, qt.IsNil)
		vote := types.VoteFor
		if i%2 == 1 {
			vote = types.VoteAgainst
		}
		_, err = cli.SubmitBallot(id, api.NewBallotRequest(v.Ballot(vote, spec)))
		c.Assert(err, qt.IsNil)
	}

	var agg *api.AggregateResponse
	for {
		agg, err = cli.Aggregate(id)
		c.Assert(err, qt.IsNil)
		if len(agg.ForAccounts)+len(agg.AgainstAccounts) == voters {
			break
		}
		select {
		case <-ctx.Done():
			c.Fatalf("ballots not aggregated: %+v", agg)
		case <-time.After(200 * time.Millisecond):
		}
	}
	c.Assert(agg.General, qt.IsTrue)
	c.Assert(agg.Compact, qt.IsTrue)
	c.Assert(agg.Pending, qt.Equals, 0)
	c.Assert(agg.ForAccounts, qt.HasLen, voters/2)

	for {
		st, ok := monitor.Status(id)
		if ok && st.Batches > 0 && st.Pending == 0 {
			c.Assert(st.Invalid, qt.Equals, 0)
			break
		}
		select {
		case <-ctx.Done():
			c.Fatalf("monitor did not report the batch: %+v", st)
		case <-time.After(100 * time.Millisecond):
		}
	}
}
