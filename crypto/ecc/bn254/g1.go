package bn254

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/vocdoni/batravot/crypto/ecc"
)

// G1 is the affine representation of a G1 group element.
type G1 struct {
	inner bn254.G1Affine
}

func (g *G1) New() ecc.Point {
	return &G1{}
}

func (g *G1) Order() *big.Int {
	return fr.Modulus()
}

func (g *G1) Group() ecc.Group {
	return ecc.G1
}

// Add goes through Jacobian coordinates, which handle the identity and
// doubling cases.
func (g *G1) Add(a, b ecc.Point) {
	var res bn254.G1Jac
	res.FromAffine(&a.(*G1).inner)
	res.AddMixed(&b.(*G1).inner)
	g.inner.FromJacobian(&res)
}

func (g *G1) ScalarMult(a ecc.Point, scalar *big.Int) {
	g.inner.ScalarMultiplication(&a.(*G1).inner, reduce(scalar))
}

func (g *G1) ScalarBaseMult(scalar *big.Int) {
	g.inner.ScalarMultiplication(&g1Gen, reduce(scalar))
}

func (g *G1) Marshal() []byte {
	return g.inner.Marshal()
}

func (g *G1) Unmarshal(buf []byte) error {
	var p bn254.G1Affine
	if err := p.Unmarshal(buf); err != nil {
		return err
	}
	g.inner = p
	return nil
}

func (g *G1) Equal(a ecc.Point) bool {
	o, ok := a.(*G1)
	return ok && g.inner.Equal(&o.inner)
}

func (g *G1) Neg(a ecc.Point) {
	g.inner.Neg(&a.(*G1).inner)
}

func (g *G1) SetZero() {
	g.inner = bn254.G1Affine{}
}

func (g *G1) IsZero() bool {
	return g.inner.IsInfinity()
}

func (g *G1) Set(a ecc.Point) {
	g.inner = a.(*G1).inner
}

func (g *G1) SetGenerator() {
	g.inner = g1Gen
}

func (g *G1) String() string {
	return fmt.Sprintf("%x", g.Marshal())
}

func (g *G1) Coordinates() []*big.Int {
	return []*big.Int{
		g.inner.X.BigInt(new(big.Int)),
		g.inner.Y.BigInt(new(big.Int)),
	}
}

func (g *G1) SetCoordinates(coords ...*big.Int) error {
	if len(coords) != 2 {
		return fmt.Errorf("expected 2 coordinates, got %d", len(coords))
	}
	var p bn254.G1Affine
	if err := setCoordinate(&p.X, coords[0]); err != nil {
		return err
	}
	if err := setCoordinate(&p.Y, coords[1]); err != nil {
		return err
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

func (g *G1) Type() string {
	return CurveType
}
