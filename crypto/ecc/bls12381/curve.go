// Package bls12381 implements the ecc interfaces over the BLS12-381 curve.
package bls12381

import (
	"fmt"
	"math/big"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/vocdoni/batravot/crypto/ecc"
)

const CurveType = "bls12_381"

var g1Gen, g2Gen = generators()

func generators() (bls.G1Affine, bls.G2Affine) {
	_, _, g1, g2 := bls.Generators()
	return g1, g2
}

// Curve is the BLS12-381 pairing handle.
type Curve struct{}

// New returns the BLS12-381 curve handle.
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
	res, err := bls.Pair(ps, qs)
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
	return bls.PairingCheck(ps, qs)
}

func affines(p, q []ecc.Point) ([]bls.G1Affine, []bls.G2Affine, error) {
	if len(p) != len(q) {
		return nil, nil, fmt.Errorf("pairing input length mismatch: %d G1 points, %d G2 points", len(p), len(q))
	}
	if len(p) == 0 {
		return nil, nil, fmt.Errorf("empty pairing input")
	}
	ps := make([]bls.G1Affine, len(p))
	qs := make([]bls.G2Affine, len(q))
	for i := range p {
		g1, ok := p[i].(*G1)
		if !ok {
			return nil, nil, fmt.Errorf("pairing input %d: expected a bls12_381 G1 point, got %T", i, p[i])
		}
		g2, ok := q[i].(*G2)
		if !ok {
			return nil, nil, fmt.Errorf("pairing input %d: expected a bls12_381 G2 point, got %T", i, q[i])
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
