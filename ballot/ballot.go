// Package ballot builds vote proofs and reads ballot files.
package ballot

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
)

// Ballot is a vote cast by a voter. VoteProof is the G1 specifier of the
// chosen direction multiplied by the voter private key. Account identifies
// the voter in reports and takes no part in any check.
type Ballot struct {
	VoterPublicKey ecc.Point
	Vote           types.Vote
	VoteProof      ecc.Point
	Account        common.Address
}

// New builds the ballot of the voter holding privateKey.
func New(privateKey *big.Int, vote types.Vote, specifiers *election.Specifiers, account common.Address) *Ballot {
	specifier := specifiers.Pair(vote).G1
	proof := specifier.New()
	proof.ScalarMult(specifier, privateKey)
	pk := specifier.New()
	pk.ScalarBaseMult(privateKey)
	return &Ballot{
		VoterPublicKey: pk,
		Vote:           vote,
		VoteProof:      proof,
		Account:        account,
	}
}
