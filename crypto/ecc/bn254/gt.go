package bn254

import (
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/vocdoni/batravot/crypto/ecc"
)

// GT is an element of the BN254 pairing target group.
type GT struct {
	inner bn254.GT
}

func (g *GT) New() ecc.GT {
	res := &GT{}
	res.inner.SetOne()
	return res
}

func (g *GT) Mul(a, b ecc.GT) {
	var res bn254.GT
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
