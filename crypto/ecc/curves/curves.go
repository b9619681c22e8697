package curves

import (
	"fmt"

	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/bls12381"
	"github.com/vocdoni/batravot/crypto/ecc/bn254"
)

const (
	CurveTypeBN254     = bn254.CurveType
	CurveTypeBLS12_381 = bls12381.CurveType
	// DefaultCurveType is the curve whose pairing is available on the EVM.
	DefaultCurveType = CurveTypeBN254
)

// Types returns the supported curve types.
func Types() []string {
	return []string{CurveTypeBN254, CurveTypeBLS12_381}
}

// New creates a new instance of a Curve implementation based on the provided
// type string. The supported types are defined as constants in this package.
// If the type is not supported, it will panic.
func New(curveType string) ecc.Curve {
	curve, err := Get(curveType)
	if err != nil {
		panic(err)
	}
	return curve
}

// Get is like New but returns an error for unsupported curve types.
func Get(curveType string) (ecc.Curve, error) {
	switch curveType {
	case CurveTypeBN254:
		return bn254.New(), nil
	case CurveTypeBLS12_381:
		return bls12381.New(), nil
	default:
		return nil, fmt.Errorf("unsupported curve type: %q", curveType)
	}
}
