package bn254

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/vocdoni/batravot/crypto/ecc"
)

// G2 is the affine representation of a G2 group element. Its coordinates
// live in the quadratic extension of the base field.
type G2 struct {
	inner bn254.G2Affine
}

func (g *G2) New() ecc.Point {
	return &G2{}
}

func (g *G2) Order() *big.Int {
	return fr.Modulus()
}

func (g *G2) Group() ecc.Group {
	return ecc.G2
}

func (g *G2) Add(a, b ecc.Point) {
	var res bn254.G2Jac
	res.FromAffine(&a.(*G2).inner)
	res.AddMixed(&b.(*G2).inner)
	g.inner.FromJacobian(&res)
}

func (g *G2) ScalarMult(a ecc.Point, scalar *big.Int) {
	g.inner.ScalarMultiplication(&a.(*G2).inner, reduce(scalar))
}

func (g *G2) ScalarBaseMult(scalar *big.Int) {
	g.inner.ScalarMultiplication(&g2Gen, reduce(scalar))
}

func (g *G2) Marshal() []byte {
	return g.inner.Marshal()
}

func (g *G2) Unmarshal(buf []byte) error {
	var p bn254.G2Affine
	if err := p.Unmarshal(buf); err != nil {
		return err
	}
	g.inner = p
	return nil
}

func (g *G2) Equal(a ecc.Point) bool {
	o, ok := a.(*G2)
	return ok && g.inner.Equal(&o.inner)
}

func (g *G2) Neg(a ecc.Point) {
	g.inner.Neg(&a.(*G2).inner)
}

func (g *G2) SetZero() {
	g.inner = bn254.G2Affine{}
}

func (g *G2) IsZero() bool {
	return g.inner.IsInfinity()
}

func (g *G2) Set(a ecc.Point) {
	g.inner = a.(*G2).inner
}

func (g *G2) SetGenerator() {
	g.inner = g2Gen
}

func (g *G2) String() string {
	return fmt.Sprintf("%x", g.Marshal())
}

func (g *G2) Coordinates() []*big.Int {
	return []*big.Int{
		g.inner.X.A0.BigInt(new(big.Int)),
		g.inner.X.A1.BigInt(new(big.Int)),
		g.inner.Y.A0.BigInt(new(big.Int)),
		g.inner.Y.A1.BigInt(new(big.Int)),
	}
}

func (g *G2) SetCoordinates(coords ...*big.Int) error {
	if len(coords) != 4 {
		return fmt.Errorf("expected 4 coordinates, got %d", len(coords))
	}
	var p bn254.G2Affine
	dst := []*fp.Element{&p.X.A0, &p.X.A1, &p.Y.A0, &p.Y.A1}
	for i := range dst {
		if err := setCoordinate(dst[i], coords[i]); err != nil {
			return err
		}
	}
	if !p.IsOnCurve() {
		return fmt.Errorf("point is not on the curve")
	}
	if !p.IsInSubGroup() {
		return fmt.Errorf("point is not in the prime order subgroup")
	}
	g.inner = p
	return nil
}

func (g *G2) Type() string {
	return CurveType
}
