package bls12381

import (
	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/vocdoni/batravot/crypto/ecc"
)

// GT is an element of the BLS12-381 pairing target group.
type GT struct {
	inner bls.GT
}

func (g *GT) New() ecc.GT {
	res := &GT{}
	res.inner.SetOne()
	return res
}

func (g *GT) Mul(a, b ecc.GT) {
	var res bls.GT
	res.Mul(&a.(*GT).inner, &b.(*GT).inner)
	g.inner = res
}

func (g *GT) Equal(a ecc.GT) bool {
	o, ok := a.(*GT)
	return ok && g.inner.Equal(&o.inner)
}

func (g *GT) IsOne() bool {
	return g.inner.IsOne()
}

func (g *GT) SetOne() {
	g.inner.SetOne()
}

func (g *GT) String() string {
	return g.inner.String()
}
