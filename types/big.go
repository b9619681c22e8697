package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation
// of the big number. Note that a nil pointer value marshals as the empty
// string.
type BigInt big.Int

// MarshalText returns the decimal string representation of the big number.
// If the receiver is nil, we return "0".
func (i *BigInt) MarshalText() ([]byte, error) {
	if i == nil {
		return []byte("0"), nil
	}
	return (*big.Int)(i).MarshalText()
}

// UnmarshalText parses the text representation into the big number.
func (i *BigInt) UnmarshalText(data []byte) error {
	if i == nil {
		return fmt.Errorf("cannot unmarshal into nil BigInt")
	}
	return (*big.Int)(i).UnmarshalText(data)
}

// MarshalCBOR encodes the number as a CBOR bignum.
func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.MathBigInt())
}

// UnmarshalCBOR decodes a CBOR bignum into the receiver.
func (i *BigInt) UnmarshalCBOR(data []byte) error {
	n := new(big.Int)
	if err := cbor.Unmarshal(data, n); err != nil {
		return err
	}
	i.SetBigInt(n)
	return nil
}

// String returns the decimal representation of the number.
func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// SetBigInt sets the value of the receiver and returns it.
func (i *BigInt) SetBigInt(n *big.Int) *BigInt {
	(*big.Int)(i).Set(n)
	return i
}

// SetUint64 sets the value of the receiver and returns it.
func (i *BigInt) SetUint64(n uint64) *BigInt {
	(*big.Int)(i).SetUint64(n)
	return i
}

// MathBigInt converts the receiver to a *big.Int. It returns nil for a nil
// receiver.
func (i *BigInt) MathBigInt() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(i))
}

// Equal reports whether both numbers hold the same value.
func (i *BigInt) Equal(j *BigInt) bool {
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}
