package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/crypto/ethereum"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
	"github.com/vocdoni/batravot/storage/db/metadb"
	"github.com/vocdoni/batravot/types"
	"github.com/vocdoni/batravot/verifier"
	"github.com/vocdoni/batravot/voter"
)

type registry struct{ ids []election.ID }

func (r *registry) AddElection(id election.ID) { r.ids = append(r.ids, id) }

type testAPI struct {
	*API
	registry *registry
	curve    ecc.Curve
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	database := metadb.NewTest(t)
	reg := &registry{}
	a, err := New(&APIConfig{
		Host:      "127.0.0.1",
		Storage:   storage.New(database),
		CensusDB:  census.NewCensusDB(database),
		Elections: reg,
	})
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})
	return &testAPI{API: a, registry: reg, curve: curves.New(curves.DefaultCurveType)}
}

// request serves a request through the router and decodes a successful
// response into out. It returns the status and the error body, if any.
func (ta *testAPI) request(c *qt.C, method, path string, body, out any) (int, *ErrorResponse) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		c.Assert(err, qt.IsNil)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ta.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		apiErr := &ErrorResponse{}
		c.Assert(json.Unmarshal(rec.Body.Bytes(), apiErr), qt.IsNil, qt.Commentf("body: %s", rec.Body.String()))
		return rec.Code, apiErr
	}
	if out != nil {
		c.Assert(json.Unmarshal(rec.Body.Bytes(), out), qt.IsNil)
	}
	return rec.Code, nil
}

func (ta *testAPI) newCensus(c *qt.C) uuid.UUID {
	res := &NewCensus{}
	status, _ := ta.request(c, http.MethodPost, CensusEndpoint, nil, res)
	c.Assert(status, qt.Equals, http.StatusOK)
	return res.Census
}

func (ta *testAPI) newElection(c *qt.C, id uint64, censusID uuid.UUID) *ElectionResponse {
	res := &ElectionResponse{}
	status, apiErr := ta.request(c, http.MethodPost, ElectionsEndpoint,
		&ElectionRequest{ID: election.NewID(id), CensusID: censusID}, res)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("%v", apiErr))
	return res
}

// newVoter returns a voter whose account is controlled by the returned
// signer.
func (ta *testAPI) newVoter(c *qt.C) (*voter.Voter, *ethereum.SignKeys) {
	signer := ethereum.NewSignKeys()
	c.Assert(signer.Generate(), qt.IsNil)
	v, err := voter.Generate(ta.curve, signer.Address(), rand.Reader)
	c.Assert(err, qt.IsNil)
	return v, signer
}

func (ta *testAPI) register(c *qt.C, censusID uuid.UUID, v *voter.Voter, signer *ethereum.SignKeys) {
	reg, err := NewVoterRegistration(v, censusID, schnorr.SchemeKnowledgeProof, signer)
	c.Assert(err, qt.IsNil)
	status, apiErr := ta.request(c, http.MethodPost, Path(CensusVotersEndpoint, censusID.String()), reg, nil)
	c.Assert(status, qt.Equals, http.StatusOK, qt.Commentf("%v", apiErr))
}

func TestPing(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)
	resp, err := http.Get(ta.URL() + PingEndpoint)
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
}

func TestNewConfig(t *testing.T) {
	c := qt.New(t)
	_, err := New(nil)
	c.Assert(err, qt.ErrorMatches, "missing API configuration")
	_, err = New(&APIConfig{})
	c.Assert(err, qt.ErrorMatches, "missing storage instance")
	database := metadb.NewTest(t)
	_, err = New(&APIConfig{Storage: storage.New(database)})
	c.Assert(err, qt.ErrorMatches, "missing census database")
	_, err = New(&APIConfig{
		Storage:  storage.New(database),
		CensusDB: census.NewCensusDB(database),
		Curve:    "secp256k1",
	})
	c.Assert(err, qt.ErrorMatches, `unsupported curve type: "secp256k1"`)
}

func TestPath(t *testing.T) {
	c := qt.New(t)
	c.Assert(Path(AggregateEndpoint, "7"), qt.Equals, "/elections/7/aggregate")
	c.Assert(Path(CensusProofEndpoint, "abc"), qt.Equals, "/census/abc/proof")
	c.Assert(Path(CensusRootSizeEndpoint, "0x01"), qt.Equals, "/census/roots/0x01/size")
	c.Assert(Path(PingEndpoint, "x"), qt.Equals, PingEndpoint)
}

func TestElections(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)

	res := ta.newElection(c, 1, uuid.Nil)
	c.Assert(res.ID, qt.Equals, election.NewID(1))
	c.Assert(res.Curve, qt.Equals, curves.DefaultCurveType)
	c.Assert(ta.registry.ids, qt.DeepEquals, []election.ID{election.NewID(1)})

	spec, err := res.Specifiers.Decode(ta.curve)
	c.Assert(err, qt.IsNil)
	c.Assert(election.Verify(ta.curve, spec, election.NewID(1)), qt.IsNil)

	// the election and its specifiers can be fetched
	got := &ElectionResponse{}
	status, _ := ta.request(c, http.MethodGet, Path(ElectionEndpoint, "1"), nil, got)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(got.ID, qt.Equals, res.ID)
	specs := &Specifiers{}
	status, _ = ta.request(c, http.MethodGet, Path(SpecifiersEndpoint, "0x01"), nil, specs)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(specs.For.G1, qt.DeepEquals, res.Specifiers.For.G1)

	// a BLS12-381 election
	bls := &ElectionResponse{}
	status, _ = ta.request(c, http.MethodPost, ElectionsEndpoint,
		&ElectionRequest{ID: election.NewID(2), Curve: curves.CurveTypeBLS12_381}, bls)
	c.Assert(status, qt.Equals, http.StatusOK)
	blsSpec, err := bls.Specifiers.Decode(curves.New(curves.CurveTypeBLS12_381))
	c.Assert(err, qt.IsNil)
	c.Assert(blsSpec.Check(curves.New(curves.CurveTypeBLS12_381), election.NewID(2)), qt.IsTrue)

	list := &ElectionList{}
	status, _ = ta.request(c, http.MethodGet, ElectionsEndpoint, nil, list)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(list.Elections, qt.DeepEquals, []election.ID{election.NewID(1), election.NewID(2)})

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   int
	}{
		{"duplicate", http.MethodPost, ElectionsEndpoint, &ElectionRequest{ID: election.NewID(1)}, http.StatusConflict, ErrElectionAlreadyExists.Code},
		{"unsupported curve", http.MethodPost, ElectionsEndpoint, &ElectionRequest{ID: election.NewID(3), Curve: "ed25519"}, http.StatusBadRequest, ErrUnsupportedCurve.Code},
		{"unknown census", http.MethodPost, ElectionsEndpoint, &ElectionRequest{ID: election.NewID(3), CensusID: uuid.New()}, http.StatusNotFound, ErrCensusNotFound.Code},
		{"malformed body", http.MethodPost, ElectionsEndpoint, "not an election", http.StatusBadRequest, ErrMalformedBody.Code},
		{"not found", http.MethodGet, Path(ElectionEndpoint, "99"), nil, http.StatusNotFound, ErrElectionNotFound.Code},
		{"malformed id", http.MethodGet, Path(SpecifiersEndpoint, "abc"), nil, http.StatusBadRequest, ErrMalformedElectionID.Code},
	} {
		c.Run(tc.name, func(c *qt.C) {
			status, apiErr := ta.request(c, tc.method, tc.path, tc.body, nil)
			c.Assert(status, qt.Equals, tc.status)
			c.Assert(apiErr.Code, qt.Equals, tc.code)
		})
	}
}

func TestCensusRegistration(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)
	censusID := ta.newCensus(c)
	votersPath := Path(CensusVotersEndpoint, censusID.String())

	emptyRoot := &CensusRoot{}
	status, _ := ta.request(c, http.MethodGet, Path(CensusRootEndpoint, censusID.String()), nil, emptyRoot)
	c.Assert(status, qt.Equals, http.StatusOK)

	v, signer := ta.newVoter(c)
	reg, err := NewVoterRegistration(v, censusID, schnorr.SchemeKnowledgeProof, signer)
	c.Assert(err, qt.IsNil)
	root := &CensusRoot{}
	status, _ = ta.request(c, http.MethodPost, votersPath, reg, root)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(root.Root, qt.Not(qt.DeepEquals), emptyRoot.Root)

	// the signature scheme is accepted too
	v2, signer2 := ta.newVoter(c)
	reg2, err := NewVoterRegistration(v2, censusID, schnorr.SchemeSignature, signer2)
	c.Assert(err, qt.IsNil)
	status, _ = ta.request(c, http.MethodPost, votersPath, reg2, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	size := &CensusSize{}
	status, _ = ta.request(c, http.MethodGet, Path(CensusSizeEndpoint, censusID.String()), nil, size)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(size.Size, qt.Equals, 2)

	proof := &types.CensusProof{}
	status, _ = ta.request(c, http.MethodGet,
		Path(CensusProofEndpoint, censusID.String())+"?publicKey="+types.HexBytes(v.PublicKey.Marshal()).String(), nil, proof)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(census.CheckProof(proof), qt.IsTrue)
	c.Assert(common.BytesToAddress(proof.Value), qt.Equals, v.Account)

	// the same census is reachable by its current root
	byRoot := &types.CensusProof{}
	status, _ = ta.request(c, http.MethodGet,
		Path(CensusRootProofEndpoint, proof.Root.String())+"?publicKey="+types.HexBytes(v.PublicKey.Marshal()).String(), nil, byRoot)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(byRoot, qt.DeepEquals, proof)
	rootSize := &CensusSize{}
	status, _ = ta.request(c, http.MethodGet, Path(CensusRootSizeEndpoint, proof.Root.String()), nil, rootSize)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(rootSize.Size, qt.Equals, 2)
	status, apiErr := ta.request(c, http.MethodGet, Path(CensusRootSizeEndpoint, "0xdeadbeef"), nil, nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	c.Assert(apiErr.Code, qt.Equals, ErrCensusNotFound.Code)
	status, apiErr = ta.request(c, http.MethodGet, Path(CensusRootSizeEndpoint, "root"), nil, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(apiErr.Code, qt.Equals, ErrInvalidCensusRoot.Code)

	// a key proof of another key
	v3, signer3 := ta.newVoter(c)
	stolen, err := NewVoterRegistration(v3, censusID, schnorr.SchemeKnowledgeProof, signer3)
	c.Assert(err, qt.IsNil)
	stolen.KeyProof = reg.KeyProof
	// an account binding signed by someone else
	unbound, err := NewVoterRegistration(v3, censusID, schnorr.SchemeKnowledgeProof, signer3)
	c.Assert(err, qt.IsNil)
	unbound.Signature = reg.Signature
	// an identity public key
	identity := *reg
	identity.PublicKey = ta.curve.NewG1().Marshal()

	for _, tc := range []struct {
		name   string
		path   string
		body   any
		status int
		code   int
	}{
		{"already registered", votersPath, reg, http.StatusConflict, ErrVoterAlreadyRegistered.Code},
		{"invalid key proof", votersPath, stolen, http.StatusBadRequest, ErrInvalidKeyProof.Code},
		{"invalid signature", votersPath, unbound, http.StatusBadRequest, ErrInvalidSignature.Code},
		{"identity key", votersPath, &identity, http.StatusBadRequest, ErrMalformedPoint.Code},
		{"unknown census", Path(CensusVotersEndpoint, uuid.New().String()), reg, http.StatusNotFound, ErrCensusNotFound.Code},
		{"invalid census id", Path(CensusVotersEndpoint, "census"), reg, http.StatusBadRequest, ErrInvalidCensusID.Code},
	} {
		c.Run(tc.name, func(c *qt.C) {
			status, apiErr := ta.request(c, http.MethodPost, tc.path, tc.body, nil)
			c.Assert(status, qt.Equals, tc.status)
			c.Assert(apiErr.Code, qt.Equals, tc.code)
		})
	}

	status, apiErr = ta.request(c, http.MethodGet,
		Path(CensusProofEndpoint, censusID.String())+"?publicKey="+types.HexBytes(v3.PublicKey.Marshal()).String(), nil, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)
	c.Assert(apiErr.Code, qt.Equals, ErrVoterNotInCensus.Code)
}

func TestBallots(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)
	censusID := ta.newCensus(c)
	ta.newElection(c, 5, censusID)
	spec := election.Derive(ta.curve, election.NewID(5))
	ballotsPath := Path(BallotsEndpoint, "5")

	v, signer := ta.newVoter(c)
	ta.register(c, censusID, v, signer)

	res := &BallotResponse{}
	status, _ := ta.request(c, http.MethodPost, ballotsPath, NewBallotRequest(v.Ballot(types.VoteFor, spec)), res)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(res.Pending, qt.Equals, 1)

	forged := v.Ballot(types.VoteFor, spec)
	forged.Vote = types.VoteAgainst
	outsider, _ := ta.newVoter(c)
	other, otherSigner := ta.newVoter(c)
	ta.register(c, censusID, other, otherSigner)
	wrongAccount := other.Ballot(types.VoteAgainst, spec)
	wrongAccount.Account = common.Address{1}
	otherElection := other.Ballot(types.VoteFor, election.Derive(ta.curve, election.NewID(6)))
	malformed := NewBallotRequest(other.Ballot(types.VoteFor, spec))
	malformed.VoteProof = malformed.VoteProof[:10]

	for _, tc := range []struct {
		name   string
		body   any
		status int
		code   int
	}{
		{"already voted", NewBallotRequest(v.Ballot(types.VoteAgainst, spec)), http.StatusConflict, ErrAlreadyVoted.Code},
		{"forged vote", NewBallotRequest(forged), http.StatusBadRequest, ErrInvalidVoteProof.Code},
		{"other election", NewBallotRequest(otherElection), http.StatusBadRequest, ErrInvalidVoteProof.Code},
		{"not in census", NewBallotRequest(outsider.Ballot(types.VoteFor, spec)), http.StatusForbidden, ErrVoterNotInCensus.Code},
		{"wrong account", NewBallotRequest(wrongAccount), http.StatusForbidden, ErrVoterNotInCensus.Code},
		{"malformed proof", malformed, http.StatusBadRequest, ErrMalformedPoint.Code},
		{"malformed vote", map[string]any{"vote": "abstain"}, http.StatusBadRequest, ErrMalformedBody.Code},
	} {
		c.Run(tc.name, func(c *qt.C) {
			status, apiErr := ta.request(c, http.MethodPost, ballotsPath, tc.body, nil)
			c.Assert(status, qt.Equals, tc.status)
			c.Assert(apiErr.Code, qt.Equals, tc.code)
		})
	}
	c.Assert(ta.storage.CountPendingBallots(election.NewID(5)), qt.Equals, 1)

	// ballots rejected by a batch are listed
	records, keys, err := ta.storage.PullBallots(election.NewID(5), -1)
	c.Assert(err, qt.IsNil)
	c.Assert(ta.storage.MarkBallotInvalid(keys[0], records[0], "rejected"), qt.IsNil)
	invalid := &InvalidBallots{}
	status, _ = ta.request(c, http.MethodGet, Path(InvalidBallotsEndpoint, "5"), nil, invalid)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(invalid.Ballots, qt.HasLen, 1)
	c.Assert(invalid.Ballots[0].Reason, qt.Equals, "rejected")
	c.Assert(invalid.Ballots[0].Ballot.Account, qt.Equals, v.Account)
}

func TestAggregate(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)
	ta.newElection(c, 1, uuid.Nil)
	id := election.NewID(1)
	spec := election.Derive(ta.curve, id)
	path := Path(AggregateEndpoint, "1")

	// no batch yet: the empty aggregate verifies
	empty := &AggregateResponse{}
	status, _ := ta.request(c, http.MethodGet, path, nil, empty)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(empty.Batches, qt.Equals, 0)
	c.Assert(empty.General, qt.IsTrue)
	c.Assert(empty.Compact, qt.IsTrue)
	c.Assert(empty.ForAccounts, qt.HasLen, 0)
	c.Assert(len(empty.EVMInput), qt.Equals, verifier.EVMPairSize)

	agg := aggregator.Aggregate(ta.curve, []*ballot.Ballot{
		ballot.New(big.NewInt(7), types.VoteFor, spec, common.Address{7}),
		ballot.New(big.NewInt(14), types.VoteAgainst, spec, common.Address{14}),
	})
	c.Assert(ta.storage.SetAggregate(storage.NewAggregate(id, agg, 1)), qt.IsNil)

	res := &AggregateResponse{}
	status, _ = ta.request(c, http.MethodGet, path, nil, res)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(res.Batches, qt.Equals, 1)
	c.Assert(res.General, qt.IsTrue)
	c.Assert(res.Compact, qt.IsTrue)
	c.Assert(res.ForAccounts, qt.DeepEquals, []common.Address{{7}})
	c.Assert(res.AgainstAccounts, qt.DeepEquals, []common.Address{{14}})
	c.Assert(res.Proof, qt.DeepEquals, types.HexBytes(agg.Proof.Marshal()))
	ok, err := verifier.PairingCheckEVM(res.EVMInput)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}
