// Package schnorr implements the two Fiat-Shamir Schnorr proofs over G1 used
// to prove ownership of a voter public key at registration time.
//
// Signature hashes only the x coordinate of the prover commitment, so its
// challenge is not bound to the public key being proven. KnowledgeProof hashes
// both the commitment and the public key. New registrations should use
// KnowledgeProof; Signature is kept for callers that already produce it.
package schnorr

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/util"
)

// Scheme names a key ownership proof variant.
type Scheme string

const (
	SchemeSignature      Scheme = "signature"
	SchemeKnowledgeProof Scheme = "knowledge"
)

// ParseScheme returns the Scheme named by s.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeSignature, SchemeKnowledgeProof:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("unknown key proof scheme %q", s)
	}
}

// KeyProof is implemented by both proof variants.
type KeyProof interface {
	// Verify reports whether the proof was produced by the owner of the
	// private key behind publicKey.
	Verify(curve ecc.Curve, publicKey ecc.Point) bool
	Scheme() Scheme
}

// randomScalar returns a non-zero scalar below the group order.
func randomScalar(curve ecc.Curve, rng io.Reader) (*big.Int, error) {
	for {
		k, err := util.RandomScalar(rng, curve.Order())
		if err != nil {
			return nil, fmt.Errorf("could not sample nonce: %w", err)
		}
		if k.Sign() != 0 {
			return k, nil
		}
	}
}

// hashToScalar hashes the fixed-width big-endian encoding of each value with
// Keccak-256 and reduces the digest modulo the group order.
func hashToScalar(curve ecc.Curve, values ...*big.Int) *big.Int {
	size := curve.FieldSize()
	data := make([][]byte, len(values))
	for i, v := range values {
		data[i] = util.PadBytes(v.Bytes(), size)
	}
	h := new(big.Int).SetBytes(crypto.Keccak256(data...))
	return h.Mod(h, curve.Order())
}

// Signature is a Schnorr signature (e, s) with e = H(x(k*G)) and
// s = k - e*privateKey.
type Signature struct {
	E *big.Int
	S *big.Int
}

// Sign proves ownership of privateKey with a Schnorr signature. The nonce is
// read from rng.
func Sign(curve ecc.Curve, privateKey *big.Int, rng io.Reader) (*Signature, error) {
	order := curve.Order()
	k, err := randomScalar(curve, rng)
	if err != nil {
		return nil, err
	}
	r := curve.NewG1()
	r.ScalarBaseMult(k)
	e := hashToScalar(curve, r.Coordinates()[0])

	s := new(big.Int).Mul(e, privateKey)
	s.Sub(k, s)
	s.Mod(s, order)
	return &Signature{E: e, S: s}, nil
}

// Verify recomputes r = s*G + e*publicKey and checks that H(x(r)) == e.
func (sig *Signature) Verify(curve ecc.Curve, publicKey ecc.Point) bool {
	if sig == nil || sig.E == nil || sig.S == nil || publicKey == nil {
		return false
	}
	sG := curve.NewG1()
	sG.ScalarBaseMult(sig.S)
	ePk := curve.NewG1()
	ePk.ScalarMult(publicKey, sig.E)
	r := curve.NewG1()
	r.Add(sG, ePk)
	return hashToScalar(curve, r.Coordinates()[0]).Cmp(new(big.Int).Mod(sig.E, curve.Order())) == 0
}

func (*Signature) Scheme() Scheme {
	return SchemeSignature
}

// KnowledgeProof is a Schnorr proof of knowledge (t, s) of the discrete log
// of y, with c = H(t.x, t.y, y.x, y.y) and s = r + c*privateKey.
type KnowledgeProof struct {
	T ecc.Point
	S *big.Int
}

func knowledgeChallenge(curve ecc.Curve, t, y ecc.Point) *big.Int {
	tc, yc := t.Coordinates(), y.Coordinates()
	return hashToScalar(curve, tc[0], tc[1], yc[0], yc[1])
}

// Prove produces a knowledge proof of privateKey. The nonce is read from rng.
func Prove(curve ecc.Curve, privateKey *big.Int, rng io.Reader) (*KnowledgeProof, error) {
	r, err := randomScalar(curve, rng)
	if err != nil {
		return nil, err
	}
	t := curve.NewG1()
	t.ScalarBaseMult(r)
	y := curve.NewG1()
	y.ScalarBaseMult(privateKey)
	c := knowledgeChallenge(curve, t, y)

	s := new(big.Int).Mul(c, privateKey)
	s.Add(s, r)
	s.Mod(s, curve.Order())
	return &KnowledgeProof{T: t, S: s}, nil
}

// Verify checks s*G == c*y + t.
func (p *KnowledgeProof) Verify(curve ecc.Curve, y ecc.Point) bool {
	if p == nil || p.T == nil || p.S == nil || y == nil {
		return false
	}
	if p.T.Group() != ecc.G1 || y.Group() != ecc.G1 {
		return false
	}
	c := knowledgeChallenge(curve, p.T, y)
	lhs := curve.NewG1()
	lhs.ScalarBaseMult(p.S)
	rhs := curve.NewG1()
	rhs.ScalarMult(y, c)
	rhs.Add(rhs, p.T)
	return lhs.Equal(rhs)
}

func (*KnowledgeProof) Scheme() Scheme {
	return SchemeKnowledgeProof
}
