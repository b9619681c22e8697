package api

import (
	"errors"
	"net/http"

	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/storage"
)

// aggregate returns the running aggregate proof of an election, verified
// in both forms. An election without batches returns the empty aggregate.
// GET /elections/{electionId}/aggregate
func (a *API) aggregate(w http.ResponseWriter, r *http.Request) {
	e, tools, ok := a.electionFromRequest(w, r)
	if !ok {
		return
	}
	proof := aggregator.Empty(tools.curve)
	res := &AggregateResponse{
		ElectionID: e.ID,
		Curve:      e.Curve,
		Pending:    a.storage.CountPendingBallots(e.ID),
	}
	stored, err := a.storage.Aggregate(e.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	default:
		if proof, err = stored.Decode(tools.curve); err != nil {
			ErrGenericInternalServerError.WithErr(err).Write(w)
			return
		}
		res.Batches = stored.Batches
		res.UpdatedAt = stored.UpdatedAt
	}

	specifiers := election.Derive(tools.curve, e.ID)
	if res.General, err = tools.verifier.VerifyGeneral(proof, specifiers); err != nil {
		ErrAggregateVerification.WithErr(err).Write(w)
		return
	}
	if res.Compact, err = tools.verifier.VerifyCompact(proof, specifiers); err != nil {
		ErrAggregateVerification.WithErr(err).Write(w)
		return
	}
	if e.Curve == curves.CurveTypeBN254 {
		if res.EVMInput, err = tools.verifier.EVMPairingInput(proof, specifiers); err != nil {
			ErrAggregateVerification.WithErr(err).Write(w)
			return
		}
	}
	res.Proof = proof.Proof.Marshal()
	res.ForKeysSum = proof.ForKeysSum.Marshal()
	res.AgainstKeysSum = proof.AgainstKeysSum.Marshal()
	res.ForAccounts = proof.ForAccounts()
	res.AgainstAccounts = proof.AgainstAccounts()
	httpWriteJSON(w, res)
}
