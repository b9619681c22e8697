package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vocdoni/batravot/api"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/storage/census"
	"github.com/vocdoni/batravot/types"
)

// requestJSON performs a request and decodes a 200 response into out. Any
// other status is returned as an *api.ErrorResponse when the body carries
// one.
func (c *HTTPclient) requestJSON(method string, body, out any, params []string, urlPath string) error {
	data, status, err := c.Request(method, body, params, urlPath)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := &api.ErrorResponse{}
		if err := json.Unmarshal(data, apiErr); err == nil && apiErr.Code != 0 {
			return apiErr
		}
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

// ErrorCode returns the API error code carried by err, or zero.
func ErrorCode(err error) int {
	var apiErr *api.ErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func (c *HTTPclient) Ping() error {
	return c.requestJSON(HTTPGET, nil, nil, nil, api.PingEndpoint)
}

// NewElection registers an election. An empty curve selects the node
// default and a nil census disables the census checks.
func (c *HTTPclient) NewElection(id election.ID, curve string, censusID uuid.UUID) (*api.ElectionResponse, error) {
	res := &api.ElectionResponse{}
	req := &api.ElectionRequest{ID: id, Curve: curve, CensusID: censusID}
	if err := c.requestJSON(HTTPPOST, req, res, nil, api.ElectionsEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPclient) Election(id election.ID) (*api.ElectionResponse, error) {
	res := &api.ElectionResponse{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.ElectionEndpoint, id.String())); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPclient) Elections() ([]election.ID, error) {
	res := &api.ElectionList{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.ElectionsEndpoint); err != nil {
		return nil, err
	}
	return res.Elections, nil
}

// Specifiers fetches the election specifiers and checks them against the
// ones derived locally, so a node cannot serve forged specifiers.
func (c *HTTPclient) Specifiers(curve ecc.Curve, id election.ID) (*election.Specifiers, error) {
	res := &api.Specifiers{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.SpecifiersEndpoint, id.String())); err != nil {
		return nil, err
	}
	specifiers, err := res.Decode(curve)
	if err != nil {
		return nil, err
	}
	if err := election.Verify(curve, specifiers, id); err != nil {
		return nil, err
	}
	return specifiers, nil
}

func (c *HTTPclient) NewCensus() (uuid.UUID, error) {
	res := &api.NewCensus{}
	if err := c.requestJSON(HTTPPOST, nil, res, nil, api.CensusEndpoint); err != nil {
		return uuid.Nil, err
	}
	return res.Census, nil
}

func (c *HTTPclient) DeleteCensus(censusID uuid.UUID) error {
	return c.requestJSON(HTTPDELETE, nil, nil, nil, api.Path(api.CensusRefEndpoint, censusID.String()))
}

// RegisterVoter registers a voter in a census and returns the new root. See
// api.NewVoterRegistration.
func (c *HTTPclient) RegisterVoter(censusID uuid.UUID, reg *api.VoterRegistration) (types.HexBytes, error) {
	res := &api.CensusRoot{}
	if err := c.requestJSON(HTTPPOST, reg, res, nil, api.Path(api.CensusVotersEndpoint, censusID.String())); err != nil {
		return nil, err
	}
	return res.Root, nil
}

func (c *HTTPclient) CensusRoot(censusID uuid.UUID) (types.HexBytes, error) {
	res := &api.CensusRoot{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.CensusRootEndpoint, censusID.String())); err != nil {
		return nil, err
	}
	return res.Root, nil
}

func (c *HTTPclient) CensusSize(censusID uuid.UUID) (int, error) {
	res := &api.CensusSize{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.CensusSizeEndpoint, censusID.String())); err != nil {
		return 0, err
	}
	return res.Size, nil
}

// CensusProof returns the inclusion proof of a voter public key. The proof
// is verified against the root it carries before it is returned.
func (c *HTTPclient) CensusProof(censusID uuid.UUID, pk ecc.Point) (*types.CensusProof, error) {
	return c.censusProof(pk, api.Path(api.CensusProofEndpoint, censusID.String()))
}

// CensusProofByRoot returns the inclusion proof of a voter public key in the
// census with the given root.
func (c *HTTPclient) CensusProofByRoot(root types.HexBytes, pk ecc.Point) (*types.CensusProof, error) {
	proof, err := c.censusProof(pk, api.Path(api.CensusRootProofEndpoint, root.String()))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(proof.Root, root) {
		return nil, fmt.Errorf("%w: root %s, expected %s", census.ErrInvalidProof, proof.Root, root)
	}
	return proof, nil
}

func (c *HTTPclient) censusProof(pk ecc.Point, urlPath string) (*types.CensusProof, error) {
	res := &types.CensusProof{}
	params := []string{"publicKey", types.HexBytes(pk.Marshal()).String(), "curve", pk.Type()}
	if err := c.requestJSON(HTTPGET, nil, res, params, urlPath); err != nil {
		return nil, err
	}
	if _, err := census.CheckVoterProof(res, pk); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPclient) CensusSizeByRoot(root types.HexBytes) (int, error) {
	res := &api.CensusSize{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.CensusRootSizeEndpoint, root.String())); err != nil {
		return 0, err
	}
	return res.Size, nil
}

// SubmitBallot queues a ballot and returns the number of pending ballots
// of the election.
func (c *HTTPclient) SubmitBallot(id election.ID, b *api.BallotRequest) (int, error) {
	res := &api.BallotResponse{}
	if err := c.requestJSON(HTTPPOST, b, res, nil, api.Path(api.BallotsEndpoint, id.String())); err != nil {
		return 0, err
	}
	return res.Pending, nil
}

func (c *HTTPclient) InvalidBallots(id election.ID) ([]api.InvalidBallot, error) {
	res := &api.InvalidBallots{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.InvalidBallotsEndpoint, id.String())); err != nil {
		return nil, err
	}
	return res.Ballots, nil
}

// Aggregate returns the running aggregate proof of an election.
func (c *HTTPclient) Aggregate(id election.ID) (*api.AggregateResponse, error) {
	res := &api.AggregateResponse{}
	if err := c.requestJSON(HTTPGET, nil, res, nil, api.Path(api.AggregateEndpoint, id.String())); err != nil {
		return nil, err
	}
	return res, nil
}
