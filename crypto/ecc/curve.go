package ecc

import (
	"math/big"
)

// Group identifies the source group of a point in a pairing.
type Group int

const (
	G1 Group = 1
	G2 Group = 2
)

func (g Group) String() string {
	switch g {
	case G1:
		return "G1"
	case G2:
		return "G2"
	default:
		return "unknown"
	}
}

// Point defines the common operations that can be performed on elliptic curve
// group elements of G1 or G2. Operations store the result in the receiver and
// never modify their arguments, so callers that want immutable values create
// the receiver with New() before every operation.
type Point interface {
	// New returns a new point of the same curve and group, set to the
	// identity.
	New() Point

	// Order returns the order of the group.
	Order() *big.Int

	// Group returns G1 or G2.
	Group() Group

	// Add adds two group elements and stores the result in the receiver.
	Add(a, b Point)

	// ScalarMult multiplies the element a by the scalar and stores the result
	// in the receiver.
	ScalarMult(a Point, scalar *big.Int)

	// ScalarBaseMult multiplies the group generator by the scalar.
	ScalarBaseMult(scalar *big.Int)

	// Marshal serializes the element in its uncompressed form.
	Marshal() []byte

	// Unmarshal deserializes a compressed or uncompressed element. It fails if
	// the point is not on the curve or not in the prime order subgroup.
	Unmarshal(buf []byte) error

	// Equal checks if two elements are equal.
	Equal(a Point) bool

	// Neg sets the receiver to the inverse of a.
	Neg(a Point)

	// SetZero sets the element to the identity (point at infinity).
	SetZero()

	// IsZero reports whether the element is the identity.
	IsZero() bool

	// Set copies a into the receiver.
	Set(a Point)

	// SetGenerator sets the element to the group generator.
	SetGenerator()

	// String returns the hex encoding of the marshaled element.
	String() string

	// Coordinates returns the affine coordinates as base field integers. G1
	// points return [x, y]; G2 points return [x0, x1, y0, y1] where x = x0 +
	// x1*u. The identity is all zeros.
	Coordinates() []*big.Int

	// SetCoordinates sets the affine coordinates, in the order returned by
	// Coordinates. It fails if a coordinate is not reduced, or the result is
	// not on the curve or not in the prime order subgroup.
	SetCoordinates(coords ...*big.Int) error

	// Type returns the curve type.
	Type() string
}

// GT is an element of the pairing target group.
type GT interface {
	New() GT
	Mul(a, b GT)
	Equal(a GT) bool
	IsOne() bool
	SetOne()
	String() string
}

// Curve is a pairing-friendly curve: the pair of source groups G1 and G2, the
// target group GT, the scalar field of the group order and the base field of
// the point coordinates.
type Curve interface {
	// Type returns the curve identifier (see curves.New).
	Type() string

	// Order returns the order of G1 and G2, the modulus of the scalar field.
	Order() *big.Int

	// BaseField returns the modulus of the base field.
	BaseField() *big.Int

	// FieldSize is the number of bytes of a serialized base field element.
	FieldSize() int

	// NewG1 returns the identity of G1.
	NewG1() Point

	// NewG2 returns the identity of G2.
	NewG2() Point

	// Pair computes the product of the pairings e(p[i], q[i]).
	Pair(p, q []Point) (GT, error)

	// PairingCheck reports whether the product of the pairings e(p[i], q[i])
	// is one.
	PairingCheck(p, q []Point) (bool, error)
}
