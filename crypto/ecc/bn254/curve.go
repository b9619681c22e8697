// Package bn254 implements the ecc interfaces over the BN254 (alt_bn128)
// curve, the pairing-friendly curve supported by the EVM precompiles.
package bn254

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/vocdoni/batravot/crypto/ecc"
)

const CurveType = "bn254"

var g1Gen, g2Gen = generators()

func generators() (bn254.G1Affine, bn254.G2Affine) {
	_, _, g1, g2 := bn254.Generators()
	return g1, g2
}

// Curve is the BN254 pairing handle.
type Curve struct{}

// New returns the BN254 curve handle.
func New() *Curve {
	return &Curve{}
}

func (*Curve) Type() string {
	return CurveType
}

func (*Curve) Order() *big.Int {
	return fr.Modulus()
}

func (*Curve) BaseField() *big.Int {
	return fp.Modulus()
}

func (*Curve) FieldSize() int {
	return fp.Bytes
}

func (*Curve) NewG1() ecc.Point {
	return &G1{}
}

func (*Curve) NewG2() ecc.Point {
	return &G2{}
}

func (*Curve) Pair(p, q []ecc.Point) (ecc.GT, error) {
	ps, qs, err := affines(p, q)
	if err != nil {
		return nil, err
	}
	res, err := bn254.Pair(ps, qs)
	if err != nil {
		return nil, err
	}
	return &GT{inner: res}, nil
}

func (*Curve) PairingCheck(p, q []ecc.Point) (bool, error) {
	ps, qs, err := affines(p, q)
	if err != nil {
		return false, err
	}
	return bn254.PairingCheck(ps, qs)
}

func affines(p, q []ecc.Point) ([]bn254.G1Affine, []bn254.G2Affine, error) {
	if len(p) != len(q) {
		return nil, nil, fmt.Errorf("pairing input length mismatch: %d G1 points, %d G2 points", len(p), len(q))
	}
	if len(p) == 0 {
		return nil, nil, fmt.Errorf("empty pairing input")
	}
	ps := make([]bn254.G1Affine, len(p))
	qs := make([]bn254.G2Affine, len(q))
	for i := range p {
		g1, ok := p[i].(*G1)
		if !ok {
			return nil, nil, fmt.Errorf("pairing input %d: expected a bn254 G1 point, got %T", i, p[i])
		}
		g2, ok := q[i].(*G2)
		if !ok {
			return nil, nil, fmt.Errorf("pairing input %d: expected a bn254 G2 point, got %T", i, q[i])
		}
		ps[i] = g1.inner
		qs[i] = g2.inner
	}
	return ps, qs, nil
}

// reduce returns the scalar in [0, order).
func reduce(s *big.Int) *big.Int {
	order := fr.Modulus()
	if s.Sign() >= 0 && s.Cmp(order) < 0 {
		return s
	}
	return new(big.Int).Mod(s, order)
}

// setCoordinate checks that v is a reduced base field element before setting
// it.
func setCoordinate(e *fp.Element, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return fmt.Errorf("coordinate out of the base field range")
	}
	e.SetBigInt(v)
	return nil
}
