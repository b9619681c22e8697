package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vocdoni/batravot/crypto/ethereum"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/storage/census"
)

// newCensus creates an empty census
// POST /census
func (a *API) newCensus(w http.ResponseWriter, r *http.Request) {
	censusID := uuid.New()
	if _, err := a.censusDB.New(censusID); err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &NewCensus{Census: censusID})
}

// deleteCensus removes a census
// DELETE /census/{censusId}
func (a *API) deleteCensus(w http.ResponseWriter, r *http.Request) {
	censusID, _, ok := a.censusFromRequest(w, r)
	if !ok {
		return
	}
	if err := a.censusDB.Del(censusID); err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// registerVoter adds a voter to a census. The voter proves the ownership of
// its public key, and the account signs the binding to the public key.
// POST /census/{censusId}/voters
func (a *API) registerVoter(w http.ResponseWriter, r *http.Request) {
	censusID, ref, ok := a.censusFromRequest(w, r)
	if !ok {
		return
	}
	req := &VoterRegistration{}
	if !decodeBody(w, r, req) {
		return
	}
	tools, ok := a.curveFromRequest(w, req.Curve)
	if !ok {
		return
	}
	pk := tools.curve.NewG1()
	if err := pk.Unmarshal(req.PublicKey); err != nil {
		ErrMalformedPoint.WithErr(err).Write(w)
		return
	}
	if pk.IsZero() {
		ErrMalformedPoint.With("public key is the identity").Write(w)
		return
	}
	proof, err := req.KeyProof.Decode(tools.curve)
	if err != nil {
		ErrInvalidKeyProof.WithErr(err).Write(w)
		return
	}
	if !proof.Verify(tools.curve, pk) {
		ErrInvalidKeyProof.Write(w)
		return
	}
	signer, err := ethereum.AddrFromSignature(RegistrationMessage(censusID, req.PublicKey), req.Signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	if signer != req.Account {
		ErrInvalidSignature.Withf("signer %s is not the account %s", signer.Hex(), req.Account.Hex()).Write(w)
		return
	}
	if err := ref.InsertVoter(pk, req.Account); err != nil {
		if errors.Is(err, census.ErrVoterAlreadyRegistered) {
			ErrVoterAlreadyRegistered.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	log.Infow("voter registered",
		"census", censusID.String(),
		"account", req.Account.Hex(),
		"scheme", string(proof.Scheme()),
	)
	httpWriteJSON(w, &CensusRoot{Root: ref.Root()})
}

// censusRoot returns the census Merkle root
// GET /census/{censusId}/root
func (a *API) censusRoot(w http.ResponseWriter, r *http.Request) {
	_, ref, ok := a.censusFromRequest(w, r)
	if !ok {
		return
	}
	httpWriteJSON(w, &CensusRoot{Root: ref.Root()})
}

// censusSize returns the number of registered voters
// GET /census/{censusId}/size
func (a *API) censusSize(w http.ResponseWriter, r *http.Request) {
	_, ref, ok := a.censusFromRequest(w, r)
	if !ok {
		return
	}
	httpWriteJSON(w, &CensusSize{Size: ref.Size()})
}

// censusProof returns the inclusion proof of a voter public key
// GET /census/{censusId}/proof?publicKey=0x...&curve=bn254
func (a *API) censusProof(w http.ResponseWriter, r *http.Request) {
	_, ref, ok := a.censusFromRequest(w, r)
	if !ok {
		return
	}
	pk, ok := a.publicKeyFromQuery(w, r)
	if !ok {
		return
	}
	proof, err := ref.VoterProof(pk)
	if err != nil {
		writeProofError(w, err)
		return
	}
	httpWriteJSON(w, proof)
}

// censusProofByRoot returns the inclusion proof of a voter public key in the
// census identified by its current root
// GET /census/roots/{root}/proof?publicKey=0x...&curve=bn254
func (a *API) censusProofByRoot(w http.ResponseWriter, r *http.Request) {
	root, ok := rootFromRequest(w, r)
	if !ok {
		return
	}
	pk, ok := a.publicKeyFromQuery(w, r)
	if !ok {
		return
	}
	proof, err := a.censusDB.ProofByRoot(root, census.VoterKey(pk))
	if err != nil {
		writeProofError(w, err)
		return
	}
	httpWriteJSON(w, proof)
}

// censusSizeByRoot returns the number of voters of the census identified by
// its current root
// GET /census/roots/{root}/size
func (a *API) censusSizeByRoot(w http.ResponseWriter, r *http.Request) {
	root, ok := rootFromRequest(w, r)
	if !ok {
		return
	}
	size, err := a.censusDB.SizeByRoot(root)
	if err != nil {
		if errors.Is(err, census.ErrRootNotFound) {
			ErrCensusNotFound.WithErr(err).Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &CensusSize{Size: size})
}

func writeProofError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, census.ErrKeyNotFound):
		ErrVoterNotInCensus.Write(w)
	case errors.Is(err, census.ErrRootNotFound):
		ErrCensusNotFound.WithErr(err).Write(w)
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}
