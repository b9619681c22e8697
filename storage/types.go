package storage

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
)

// Election is a registered election. Its specifiers are derived from the ID
// on the curve named by Curve.
type Election struct {
	ID        election.ID `json:"id" cbor:"1,keyasint"`
	Curve     string      `json:"curve" cbor:"2,keyasint"`
	CensusID  uuid.UUID   `json:"censusId" cbor:"3,keyasint"`
	CreatedAt time.Time   `json:"createdAt" cbor:"4,keyasint"`
}

// Ballot is the stored form of a ballot. Points are serialized with
// ecc.Point.Marshal.
type Ballot struct {
	ElectionID election.ID    `cbor:"1,keyasint"`
	PublicKey  []byte         `cbor:"2,keyasint"`
	Vote       types.Vote     `cbor:"3,keyasint"`
	VoteProof  []byte         `cbor:"4,keyasint"`
	Account    common.Address `cbor:"5,keyasint"`
	QueuedAt   time.Time      `cbor:"6,keyasint"`
}

// NewBallot returns the stored form of b.
func NewBallot(id election.ID, b *ballot.Ballot) *Ballot {
	return &Ballot{
		ElectionID: id,
		PublicKey:  b.VoterPublicKey.Marshal(),
		Vote:       b.Vote,
		VoteProof:  b.VoteProof.Marshal(),
		Account:    b.Account,
	}
}

// Ballot decodes the stored ballot on the given curve.
func (b *Ballot) Ballot(curve ecc.Curve) (*ballot.Ballot, error) {
	pk := curve.NewG1()
	if err := pk.Unmarshal(b.PublicKey); err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	proof := curve.NewG1()
	if err := proof.Unmarshal(b.VoteProof); err != nil {
		return nil, fmt.Errorf("decode vote proof: %w", err)
	}
	return &ballot.Ballot{
		VoterPublicKey: pk,
		Vote:           b.Vote,
		VoteProof:      proof,
		Account:        b.Account,
	}, nil
}

// InvalidBallot is a ballot rejected by the validation gate, kept for
// inspection.
type InvalidBallot struct {
	Ballot     Ballot    `cbor:"1,keyasint"`
	Reason     string    `cbor:"2,keyasint"`
	RejectedAt time.Time `cbor:"3,keyasint"`
}

// Voter is the stored form of an aggregator.VoterKey.
type Voter struct {
	Vote      types.Vote     `cbor:"1,keyasint"`
	PublicKey []byte         `cbor:"2,keyasint"`
	Account   common.Address `cbor:"3,keyasint"`
}

// Aggregate is the running aggregate proof of an election.
type Aggregate struct {
	ElectionID     election.ID `cbor:"1,keyasint"`
	Proof          []byte      `cbor:"2,keyasint"`
	ForKeysSum     []byte      `cbor:"3,keyasint"`
	AgainstKeysSum []byte      `cbor:"4,keyasint"`
	Voters         []Voter     `cbor:"5,keyasint"`
	Batches        int         `cbor:"6,keyasint"`
	UpdatedAt      time.Time   `cbor:"7,keyasint"`
}

// NewAggregate returns the stored form of an aggregate proof.
func NewAggregate(id election.ID, p *aggregator.Proof, batches int) *Aggregate {
	voters := make([]Voter, len(p.Voters))
	for i, v := range p.Voters {
		voters[i] = Voter{Vote: v.Vote, PublicKey: v.PublicKey.Marshal(), Account: v.Account}
	}
	return &Aggregate{
		ElectionID:     id,
		Proof:          p.Proof.Marshal(),
		ForKeysSum:     p.ForKeysSum.Marshal(),
		AgainstKeysSum: p.AgainstKeysSum.Marshal(),
		Voters:         voters,
		Batches:        batches,
		UpdatedAt:      time.Now(),
	}
}

// Decode decodes the stored aggregate on the given curve.
func (a *Aggregate) Decode(curve ecc.Curve) (*aggregator.Proof, error) {
	p := aggregator.Empty(curve)
	for name, field := range map[string]struct {
		point ecc.Point
		data  []byte
	}{
		"proof":            {p.Proof, a.Proof},
		"for keys sum":     {p.ForKeysSum, a.ForKeysSum},
		"against keys sum": {p.AgainstKeysSum, a.AgainstKeysSum},
	} {
		if err := field.point.Unmarshal(field.data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	p.Voters = make([]aggregator.VoterKey, len(a.Voters))
	for i, v := range a.Voters {
		pk := curve.NewG1()
		if err := pk.Unmarshal(v.PublicKey); err != nil {
			return nil, fmt.Errorf("decode voter %d public key: %w", i, err)
		}
		p.Voters[i] = aggregator.VoterKey{Vote: v.Vote, PublicKey: pk, Account: v.Account}
	}
	return p, nil
}
