package api

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
)

// ElectionRequest is the body of an election creation request. An empty
// curve selects the node default, a nil census disables census checks.
type ElectionRequest struct {
	ID       election.ID `json:"id"`
	Curve    string      `json:"curve,omitempty"`
	CensusID uuid.UUID   `json:"censusId"`
}

// SpecifierPair holds the marshaled G1 and G2 halves of a specifier.
type SpecifierPair struct {
	G1 types.HexBytes `json:"g1"`
	G2 types.HexBytes `json:"g2"`
}

// Specifiers is the JSON form of the election specifiers.
type Specifiers struct {
	For     SpecifierPair `json:"for"`
	Against SpecifierPair `json:"against"`
}

// NewSpecifiers returns the JSON form of s.
func NewSpecifiers(s *election.Specifiers) Specifiers {
	return Specifiers{
		For:     SpecifierPair{G1: s.For.G1.Marshal(), G2: s.For.G2.Marshal()},
		Against: SpecifierPair{G1: s.Against.G1.Marshal(), G2: s.Against.G2.Marshal()},
	}
}

// Decode returns the specifiers on the given curve.
func (s Specifiers) Decode(curve ecc.Curve) (*election.Specifiers, error) {
	decode := func(p SpecifierPair) (election.Pair, error) {
		g1, g2 := curve.NewG1(), curve.NewG2()
		if err := g1.Unmarshal(p.G1); err != nil {
			return election.Pair{}, fmt.Errorf("g1: %w", err)
		}
		if err := g2.Unmarshal(p.G2); err != nil {
			return election.Pair{}, fmt.Errorf("g2: %w", err)
		}
		return election.Pair{G1: g1, G2: g2}, nil
	}
	forPair, err := decode(s.For)
	if err != nil {
		return nil, fmt.Errorf("for specifier %w", err)
	}
	againstPair, err := decode(s.Against)
	if err != nil {
		return nil, fmt.Errorf("against specifier %w", err)
	}
	return &election.Specifiers{For: forPair, Against: againstPair}, nil
}

// ElectionResponse is the election info.
type ElectionResponse struct {
	ID         election.ID `json:"id"`
	Curve      string      `json:"curve"`
	CensusID   uuid.UUID   `json:"censusId"`
	CreatedAt  time.Time   `json:"createdAt"`
	Specifiers Specifiers  `json:"specifiers"`
}

// ElectionList is the list of election ids.
type ElectionList struct {
	Elections []election.ID `json:"elections"`
}

// NewCensus is the response to a new census creation request.
type NewCensus struct {
	Census uuid.UUID `json:"census"`
}

// CensusRoot is the response to a census root request.
type CensusRoot struct {
	Root types.HexBytes `json:"root"`
}

// CensusSize is the response to a census size request.
type CensusSize struct {
	Size int `json:"size"`
}

// KeyProof is the JSON form of a schnorr.KeyProof. Knowledge proofs carry
// T and S, signatures carry E and S.
type KeyProof struct {
	Scheme schnorr.Scheme `json:"scheme"`
	T      types.HexBytes `json:"t,omitempty"`
	E      *types.BigInt  `json:"e,omitempty"`
	S      *types.BigInt  `json:"s"`
}

// NewKeyProof returns the JSON form of p.
func NewKeyProof(p schnorr.KeyProof) KeyProof {
	switch kp := p.(type) {
	case *schnorr.KnowledgeProof:
		return KeyProof{
			Scheme: kp.Scheme(),
			T:      kp.T.Marshal(),
			S:      new(types.BigInt).SetBigInt(kp.S),
		}
	case *schnorr.Signature:
		return KeyProof{
			Scheme: kp.Scheme(),
			E:      new(types.BigInt).SetBigInt(kp.E),
			S:      new(types.BigInt).SetBigInt(kp.S),
		}
	default:
		return KeyProof{}
	}
}

// Decode returns the key proof on the given curve.
func (k *KeyProof) Decode(curve ecc.Curve) (schnorr.KeyProof, error) {
	if k.S == nil {
		return nil, fmt.Errorf("missing s")
	}
	switch k.Scheme {
	case schnorr.SchemeKnowledgeProof:
		t := curve.NewG1()
		if err := t.Unmarshal(k.T); err != nil {
			return nil, fmt.Errorf("invalid t: %w", err)
		}
		return &schnorr.KnowledgeProof{T: t, S: k.S.MathBigInt()}, nil
	case schnorr.SchemeSignature:
		if k.E == nil {
			return nil, fmt.Errorf("missing e")
		}
		return &schnorr.Signature{E: k.E.MathBigInt(), S: k.S.MathBigInt()}, nil
	default:
		return nil, fmt.Errorf("unknown key proof scheme %q", k.Scheme)
	}
}

// VoterRegistration is the body of a census registration request. The
// signature is the account's EIP-191 signature of RegistrationMessage.
type VoterRegistration struct {
	Curve     string         `json:"curve,omitempty"`
	PublicKey types.HexBytes `json:"publicKey"`
	Account   common.Address `json:"account"`
	KeyProof  KeyProof       `json:"keyProof"`
	Signature types.HexBytes `json:"signature"`
}

// RegistrationMessage is the message an account signs to bind a voter public
// key in a census.
func RegistrationMessage(censusID uuid.UUID, publicKey []byte) []byte {
	msg := append([]byte("batravot registration:"), censusID[:]...)
	return append(msg, publicKey...)
}

// BallotRequest is the JSON form of a ballot.
type BallotRequest struct {
	PublicKey types.HexBytes `json:"publicKey"`
	Vote      types.Vote     `json:"vote"`
	VoteProof types.HexBytes `json:"voteProof"`
	Account   common.Address `json:"account"`
}

// NewBallotRequest returns the JSON form of b.
func NewBallotRequest(b *ballot.Ballot) *BallotRequest {
	return &BallotRequest{
		PublicKey: b.VoterPublicKey.Marshal(),
		Vote:      b.Vote,
		VoteProof: b.VoteProof.Marshal(),
		Account:   b.Account,
	}
}

// Ballot decodes the ballot on the given curve.
func (r *BallotRequest) Ballot(curve ecc.Curve) (*ballot.Ballot, error) {
	pk := curve.NewG1()
	if err := pk.Unmarshal(r.PublicKey); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	proof := curve.NewG1()
	if err := proof.Unmarshal(r.VoteProof); err != nil {
		return nil, fmt.Errorf("invalid vote proof: %w", err)
	}
	return &ballot.Ballot{VoterPublicKey: pk, Vote: r.Vote, VoteProof: proof, Account: r.Account}, nil
}

// BallotResponse is the response to a ballot submission.
type BallotResponse struct {
	ElectionID election.ID `json:"electionId"`
	Pending    int         `json:"pending"`
}

// InvalidBallot is a ballot rejected by a batch.
type InvalidBallot struct {
	Ballot     BallotRequest `json:"ballot"`
	Reason     string        `json:"reason"`
	RejectedAt time.Time     `json:"rejectedAt"`
}

// InvalidBallots is the list of rejected ballots of an election.
type InvalidBallots struct {
	Ballots []InvalidBallot `json:"ballots"`
}

// AggregateResponse is the running aggregate proof of an election, with the
// result of both verification forms.
type AggregateResponse struct {
	ElectionID      election.ID      `json:"electionId"`
	Curve           string           `json:"curve"`
	Proof           types.HexBytes   `json:"proof"`
	ForKeysSum      types.HexBytes   `json:"forKeysSum"`
	AgainstKeysSum  types.HexBytes   `json:"againstKeysSum"`
	ForAccounts     []common.Address `json:"forAccounts"`
	AgainstAccounts []common.Address `json:"againstAccounts"`
	Batches         int              `json:"batches"`
	Pending         int              `json:"pending"`
	General         bool             `json:"general"`
	Compact         bool             `json:"compact"`
	// EVMInput is the input of the pairing precompile for the compact form,
	// only on bn254.
	EVMInput  types.HexBytes `json:"evmInput,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
