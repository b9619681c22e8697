//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound        = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody           = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature        = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedElectionID     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed election ID")}
	ErrElectionNotFound        = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("election not found")}
	ErrElectionAlreadyExists   = Error{Code: 40008, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("election already exists")}
	ErrCensusNotFound          = Error{Code: 40009, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("census not found")}
	ErrInvalidCensusID         = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid census ID")}
	ErrMalformedPoint          = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed curve point")}
	ErrInvalidKeyProof         = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid key ownership proof")}
	ErrInvalidVoteProof        = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid vote proof")}
	ErrVoterNotInCensus        = Error{Code: 40014, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("voter not in census")}
	ErrAlreadyVoted            = Error{Code: 40015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voter already voted")}
	ErrUnsupportedCurve        = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unsupported curve")}
	ErrVoterAlreadyRegistered  = Error{Code: 40017, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("voter already registered")}
	ErrMalformedVote           = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed vote")}
	ErrMalformedQueryParameter = Error{Code: 40019, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed query parameter")}
	ErrInvalidCensusRoot       = Error{Code: 40020, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid census root")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrAggregateVerification      = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("aggregate verification failed")}
)
