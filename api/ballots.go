package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
)

// newBallot validates a ballot and queues it for the next batch of its
// election. Ballots with an invalid vote proof, from voters outside the
// census, or from voters that already voted are rejected here.
// POST /elections/{electionId}/ballots
func (a *API) newBallot(w http.ResponseWriter, r *http.Request) {
	e, tools, ok := a.electionFromRequest(w, r)
	if !ok {
		return
	}
	req := &BallotRequest{}
	if !decodeBody(w, r, req) {
		return
	}
	if !req.Vote.Valid() {
		ErrMalformedVote.With(req.Vote.String()).Write(w)
		return
	}
	b, err := req.Ballot(tools.curve)
	if err != nil {
		ErrMalformedPoint.WithErr(err).Write(w)
		return
	}
	if err := tools.validator.Check(0, b, election.Derive(tools.curve, e.ID)); err != nil {
		ErrInvalidVoteProof.WithErr(err).Write(w)
		return
	}
	if e.CensusID != uuid.Nil {
		ref, err := a.censusDB.Load(e.CensusID)
		if err != nil {
			ErrGenericInternalServerError.WithErr(err).Write(w)
			return
		}
		account, err := ref.Account(b.VoterPublicKey)
		if err != nil {
			if errors.Is(err, census.ErrKeyNotFound) {
				ErrVoterNotInCensus.Write(w)
				return
			}
			ErrGenericInternalServerError.WithErr(err).Write(w)
			return
		}
		if account != b.Account {
			ErrVoterNotInCensus.Withf("public key registered for account %s", account.Hex()).Write(w)
			return
		}
	}
	if err := a.storage.PushBallot(storage.NewBallot(e.ID, b)); err != nil {
		if errors.Is(err, storage.ErrAlreadyVoted) {
			ErrAlreadyVoted.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	log.Debugw("ballot queued", "electionId", e.ID.String(), "account", b.Account.Hex(), "vote", b.Vote.String())
	httpWriteJSON(w, &BallotResponse{
		ElectionID: e.ID,
		Pending:    a.storage.CountPendingBallots(e.ID),
	})
}

// invalidBallots returns the ballots rejected by the batches
// GET /elections/{electionId}/ballots/invalid
func (a *API) invalidBallots(w http.ResponseWriter, r *http.Request) {
	e, _, ok := a.electionFromRequest(w, r)
	if !ok {
		return
	}
	stored, err := a.storage.InvalidBallots(e.ID)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	res := &InvalidBallots{Ballots: make([]InvalidBallot, 0, len(stored))}
	for _, ib := range stored {
		res.Ballots = append(res.Ballots, InvalidBallot{
			Ballot: BallotRequest{
				PublicKey: ib.Ballot.PublicKey,
				Vote:      ib.Ballot.Vote,
				VoteProof: ib.Ballot.VoteProof,
				Account:   ib.Ballot.Account,
			},
			Reason:     ib.Reason,
			RejectedAt: ib.RejectedAt,
		})
	}
	httpWriteJSON(w, res)
}
