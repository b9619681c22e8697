package util

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// RandomBytes generates a random byte slice of length n.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// RandomHex generates a random hex string of length n.
func RandomHex(n int) string {
	return fmt.Sprintf("%x", RandomBytes(n))
}

// RandomInt generates a random integer between min and max.
func RandomInt(min, max int) int {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	if err != nil {
		panic(err)
	}
	return int(num.Int64()) + min
}

// RandomScalar reads a uniform integer in [0, order) from rng. A nil rng
// defaults to crypto/rand.
func RandomScalar(rng io.Reader, order *big.Int) (*big.Int, error) {
	if rng == nil {
		rng = rand.Reader
	}
	return rand.Int(rng, order)
}

// TrimHex trims the '0x' prefix from a hex string.
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// BigToFF returns the representation of iv in the field of order modulus,
// using the Euclidean modulus so the result is never negative.
func BigToFF(modulus, iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(modulus); c == 0 {
		return z
	} else if c != 1 && iv.Sign() != -1 {
		return new(big.Int).Set(iv)
	}
	return z.Mod(iv, modulus)
}

// PadBytes left-pads b with zeros up to size bytes. Longer inputs are
// returned unchanged.
func PadBytes(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
