package bls12381

import (
	"crypto/rand"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/batravot/crypto/ecc"
)

func randomScalar(t *testing.T) *big.Int {
	k, err := rand.Int(rand.Reader, New().Order())
	qt.Assert(t, err, qt.IsNil)
	return k
}

func TestGroupArithmetic(t *testing.T) {
	c := qt.New(t)
	curve := New()
	for _, newPoint := range []func() ecc.Point{curve.NewG1, curve.NewG2} {
		a, b := randomScalar(t), randomScalar(t)
		pa := newPoint()
		pa.ScalarBaseMult(a)
		pb := newPoint()
		pb.ScalarBaseMult(b)

		// a*G + b*G == (a+b)*G
		sum := newPoint()
		sum.Add(pa, pb)
		expected := newPoint()
		expected.ScalarBaseMult(new(big.Int).Add(a, b))
		c.Assert(sum.Equal(expected), qt.IsTrue)

		// the identity is neutral and P + (-P) is the identity
		zero := newPoint()
		c.Assert(zero.IsZero(), qt.IsTrue)
		res := newPoint()
		res.Add(pa, zero)
		c.Assert(res.Equal(pa), qt.IsTrue)
		res.Add(zero, pa)
		c.Assert(res.Equal(pa), qt.IsTrue)
		neg := newPoint()
		neg.Neg(pa)
		res.Add(pa, neg)
		c.Assert(res.IsZero(), qt.IsTrue)

		// doubling through Add
		res.Add(pa, pa)
		expected.ScalarMult(pa, big.NewInt(2))
		c.Assert(res.Equal(expected), qt.IsTrue)

		// scalar multiplication by the order gives the identity
		res.ScalarMult(pa, curve.Order())
		c.Assert(res.IsZero(), qt.IsTrue)

		// arguments are left untouched
		copied := newPoint()
		copied.Set(pa)
		res.ScalarMult(pa, b)
		c.Assert(pa.Equal(copied), qt.IsTrue)
	}
}

func TestMarshalAndCoordinates(t *testing.T) {
	c := qt.New(t)
	curve := New()
	for _, newPoint := range []func() ecc.Point{curve.NewG1, curve.NewG2} {
		p := newPoint()
		p.ScalarBaseMult(randomScalar(t))

		decoded := newPoint()
		c.Assert(decoded.Unmarshal(p.Marshal()), qt.IsNil)
		c.Assert(decoded.Equal(p), qt.IsTrue)

		fromCoords := newPoint()
		c.Assert(fromCoords.SetCoordinates(p.Coordinates()...), qt.IsNil)
		c.Assert(fromCoords.Equal(p), qt.IsTrue)

		// the identity encodes as all zero coordinates
		zero := newPoint()
		for _, coord := range zero.Coordinates() {
			c.Assert(coord.Sign(), qt.Equals, 0)
		}
		c.Assert(fromCoords.SetCoordinates(zero.Coordinates()...), qt.IsNil)
		c.Assert(fromCoords.IsZero(), qt.IsTrue)

		// tamper with y
		coords := p.Coordinates()
		coords[len(coords)-1].Add(coords[len(coords)-1], big.NewInt(1))
		c.Assert(fromCoords.SetCoordinates(coords...), qt.IsNotNil)

		// unreduced coordinate
		coords = p.Coordinates()
		coords[0].Add(coords[0], curve.BaseField())
		c.Assert(fromCoords.SetCoordinates(coords...), qt.IsNotNil)
	}
}

func TestPairing(t *testing.T) {
	c := qt.New(t)
	curve := New()
	a, b := randomScalar(t), randomScalar(t)

	g1 := curve.NewG1()
	g1.SetGenerator()
	g2 := curve.NewG2()
	g2.SetGenerator()

	aG1 := curve.NewG1()
	aG1.ScalarMult(g1, a)
	bG2 := curve.NewG2()
	bG2.ScalarMult(g2, b)
	abG1 := curve.NewG1()
	abG1.ScalarMult(aG1, b)

	// e(a*G1, b*G2) == e(ab*G1, G2)
	lhs, err := curve.Pair([]ecc.Point{aG1}, []ecc.Point{bG2})
	c.Assert(err, qt.IsNil)
	rhs, err := curve.Pair([]ecc.Point{abG1}, []ecc.Point{g2})
	c.Assert(err, qt.IsNil)
	c.Assert(lhs.Equal(rhs), qt.IsTrue)
	c.Assert(lhs.IsOne(), qt.IsFalse)

	// e(a*G1, b*G2) * e(-ab*G1, G2) == 1
	negAB := curve.NewG1()
	negAB.Neg(abG1)
	ok, err := curve.PairingCheck([]ecc.Point{aG1, negAB}, []ecc.Point{bG2, g2})
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// pairing with the identity is one
	one, err := curve.Pair([]ecc.Point{curve.NewG1()}, []ecc.Point{g2})
	c.Assert(err, qt.IsNil)
	c.Assert(one.IsOne(), qt.IsTrue)

	prod := lhs.New()
	prod.Mul(lhs, one)
	c.Assert(prod.Equal(lhs), qt.IsTrue)

	_, err = curve.Pair([]ecc.Point{g1}, []ecc.Point{})
	c.Assert(err, qt.IsNotNil)
	_, err = curve.Pair([]ecc.Point{g2}, []ecc.Point{g1})
	c.Assert(err, qt.IsNotNil)
}
