package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
	"github.com/vocdoni/batravot/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// decodeBody decodes the JSON request body into v, writing the error
// response if it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return false
	}
	return true
}

// electionFromRequest loads the election named by the URL, writing the
// error response if it fails.
func (a *API) electionFromRequest(w http.ResponseWriter, r *http.Request) (*storage.Election, *curveTools, bool) {
	id, err := election.ParseID(chi.URLParam(r, ElectionURLParam))
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return nil, nil, false
	}
	e, err := a.storage.Election(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrElectionNotFound.With(id.String()).Write(w)
			return nil, nil, false
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return nil, nil, false
	}
	tools, ok := a.curves[e.Curve]
	if !ok {
		ErrUnsupportedCurve.With(e.Curve).Write(w)
		return nil, nil, false
	}
	return e, tools, true
}

// censusFromRequest loads the census named by the URL, writing the error
// response if it fails.
func (a *API) censusFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *census.CensusRef, bool) {
	censusID, err := uuid.Parse(chi.URLParam(r, CensusURLParam))
	if err != nil {
		ErrInvalidCensusID.WithErr(err).Write(w)
		return uuid.Nil, nil, false
	}
	ref, err := a.censusDB.Load(censusID)
	if err != nil {
		if errors.Is(err, census.ErrCensusNotFound) {
			ErrCensusNotFound.With(censusID.String()).Write(w)
			return uuid.Nil, nil, false
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return uuid.Nil, nil, false
	}
	return censusID, ref, true
}

// curveFromRequest returns the curve named by the curve query parameter, or
// the default curve.
func (a *API) curveFromRequest(w http.ResponseWriter, name string) (*curveTools, bool) {
	if name == "" {
		name = a.curve
	}
	tools, ok := a.curves[name]
	if !ok {
		ErrUnsupportedCurve.With(name).Write(w)
		return nil, false
	}
	return tools, true
}

// rootFromRequest decodes the census root of the URL, writing the error
// response if it fails.
func rootFromRequest(w http.ResponseWriter, r *http.Request) (types.HexBytes, bool) {
	root, err := types.HexStringToHexBytes(chi.URLParam(r, CensusRootURLParam))
	if err != nil || len(root) == 0 {
		ErrInvalidCensusRoot.Withf("%q", chi.URLParam(r, CensusRootURLParam)).Write(w)
		return nil, false
	}
	return root, true
}

// publicKeyFromQuery decodes the publicKey query parameter on the curve
// named by the curve parameter, writing the error response if it fails.
func (a *API) publicKeyFromQuery(w http.ResponseWriter, r *http.Request) (ecc.Point, bool) {
	tools, ok := a.curveFromRequest(w, r.URL.Query().Get("curve"))
	if !ok {
		return nil, false
	}
	data, err := types.HexStringToHexBytes(r.URL.Query().Get("publicKey"))
	if err != nil {
		ErrMalformedQueryParameter.WithErr(err).Write(w)
		return nil, false
	}
	pk := tools.curve.NewG1()
	if err := pk.Unmarshal(data); err != nil {
		ErrMalformedPoint.WithErr(err).Write(w)
		return nil, false
	}
	return pk, true
}
