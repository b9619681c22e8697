package api

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"github.com/vocdoni/batravot/crypto/ethereum"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/voter"
)

// NewVoterRegistration builds the registration request of v in a census.
// The key ownership is proven with scheme and the binding to the voter
// account is signed by signer, whose address must be the voter account.
func NewVoterRegistration(v *voter.Voter, censusID uuid.UUID, scheme schnorr.Scheme,
	signer *ethereum.SignKeys,
) (*VoterRegistration, error) {
	if signer.Address() != v.Account {
		return nil, fmt.Errorf("signer %s is not the voter account %s", signer.Address().Hex(), v.Account.Hex())
	}
	proof, err := v.KeyProof(scheme, rand.Reader)
	if err != nil {
		return nil, err
	}
	pk := v.PublicKey.Marshal()
	signature, err := signer.SignEthereum(RegistrationMessage(censusID, pk))
	if err != nil {
		return nil, fmt.Errorf("could not sign registration: %w", err)
	}
	return &VoterRegistration{
		Curve:     v.PublicKey.Type(),
		PublicKey: pk,
		Account:   v.Account,
		KeyProof:  NewKeyProof(proof),
		Signature: signature,
	}, nil
}
