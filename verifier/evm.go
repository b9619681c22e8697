package verifier

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto/bn256"
	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/util"
)

const (
	evmFieldSize = 32
	evmG1Size    = 2 * evmFieldSize
	evmG2Size    = 4 * evmFieldSize
	// EVMPairSize is the size of each (G1, G2) pair in the input of the
	// bn256 pairing precompile at address 0x08.
	EVMPairSize = evmG1Size + evmG2Size
)

// evmPoint encodes a point the way the precompile reads it: G1 as x || y and
// G2 as x1 || x0 || y1 || y0, every element 32 bytes big-endian.
func evmPoint(p ecc.Point) []byte {
	c := p.Coordinates()
	if p.Group() == ecc.G2 {
		c = []*big.Int{c[1], c[0], c[3], c[2]}
	}
	out := make([]byte, 0, len(c)*evmFieldSize)
	for _, v := range c {
		out = append(out, util.PadBytes(v.Bytes(), evmFieldSize)...)
	}
	return out
}

// EVMPairingInput returns the input of the pairing precompile that evaluates
// the compact form. Only BN254 is available on the EVM.
func (v *Verifier) EVMPairingInput(proof *aggregator.Proof, specifiers *election.Specifiers) ([]byte, error) {
	if v.curve.Type() != curves.CurveTypeBN254 {
		return nil, fmt.Errorf("the EVM pairing precompile only supports %s, not %s",
			curves.CurveTypeBN254, v.curve.Type())
	}
	if err := checkInput(proof, specifiers); err != nil {
		return nil, err
	}
	p, q := v.compactTerms(proof, specifiers)
	input := make([]byte, 0, len(p)*EVMPairSize)
	for i := range p {
		input = append(input, evmPoint(p[i])...)
		input = append(input, evmPoint(q[i])...)
	}
	return input, nil
}

// PairingCheckEVM evaluates a precompile input with the go-ethereum
// implementation of the precompile.
func PairingCheckEVM(input []byte) (bool, error) {
	if len(input)%EVMPairSize != 0 {
		return false, fmt.Errorf("%w: pairing input length %d is not a multiple of %d",
			ErrInvalidInput, len(input), EVMPairSize)
	}
	var (
		g1s []*bn256.G1
		g2s []*bn256.G2
	)
	for i := 0; i < len(input); i += EVMPairSize {
		g1 := new(bn256.G1)
		if _, err := g1.Unmarshal(input[i : i+evmG1Size]); err != nil {
			return false, fmt.Errorf("%w: pair %d: %v", ErrInvalidInput, i/EVMPairSize, err)
		}
		g2 := new(bn256.G2)
		if _, err := g2.Unmarshal(input[i+evmG1Size : i+EVMPairSize]); err != nil {
			return false, fmt.Errorf("%w: pair %d: %v", ErrInvalidInput, i/EVMPairSize, err)
		}
		g1s = append(g1s, g1)
		g2s = append(g2s, g2)
	}
	return bn256.PairingCheck(g1s, g2s), nil
}

// VerifyEVM evaluates the compact form through the go-ethereum precompile
// implementation, which is what an on-chain verifier computes.
func (v *Verifier) VerifyEVM(proof *aggregator.Proof, specifiers *election.Specifiers) (bool, error) {
	input, err := v.EVMPairingInput(proof, specifiers)
	if err != nil {
		return false, err
	}
	return PairingCheckEVM(input)
}
