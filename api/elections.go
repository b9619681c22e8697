package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
)

func electionResponse(e *storage.Election, tools *curveTools) *ElectionResponse {
	return &ElectionResponse{
		ID:         e.ID,
		Curve:      e.Curve,
		CensusID:   e.CensusID,
		CreatedAt:  e.CreatedAt,
		Specifiers: NewSpecifiers(election.Derive(tools.curve, e.ID)),
	}
}

// newElection registers a new election
// POST /elections
func (a *API) newElection(w http.ResponseWriter, r *http.Request) {
	req := &ElectionRequest{}
	if !decodeBody(w, r, req) {
		return
	}
	tools, ok := a.curveFromRequest(w, req.Curve)
	if !ok {
		return
	}
	if req.CensusID != uuid.Nil && !a.censusDB.Exists(req.CensusID) {
		ErrCensusNotFound.With(req.CensusID.String()).Write(w)
		return
	}
	e := &storage.Election{
		ID:        req.ID,
		Curve:     tools.curve.Type(),
		CensusID:  req.CensusID,
		CreatedAt: time.Now(),
	}
	if err := a.storage.SetElection(e); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			ErrElectionAlreadyExists.With(req.ID.String()).Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if a.elections != nil {
		a.elections.AddElection(e.ID)
	}
	log.Infow("new election", "electionId", e.ID.String(), "curve", e.Curve, "census", e.CensusID.String())
	httpWriteJSON(w, electionResponse(e, tools))
}

// listElections returns the ids of the elections
// GET /elections
func (a *API) listElections(w http.ResponseWriter, r *http.Request) {
	ids, err := a.storage.ListElections()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if ids == nil {
		ids = []election.ID{}
	}
	httpWriteJSON(w, &ElectionList{Elections: ids})
}

// election returns the election info
// GET /elections/{electionId}
func (a *API) election(w http.ResponseWriter, r *http.Request) {
	e, tools, ok := a.electionFromRequest(w, r)
	if !ok {
		return
	}
	httpWriteJSON(w, electionResponse(e, tools))
}

// specifiers returns the election specifiers
// GET /elections/{electionId}/specifiers
func (a *API) specifiers(w http.ResponseWriter, r *http.Request) {
	e, tools, ok := a.electionFromRequest(w, r)
	if !ok {
		return
	}
	httpWriteJSON(w, NewSpecifiers(election.Derive(tools.curve, e.ID)))
}
