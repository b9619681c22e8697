package election

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/vocdoni/batravot/util"
)

// IDLen is the size of an election identifier.
const IDLen = 32

// ID is a 256-bit unsigned election identifier, stored little-endian.
type ID [IDLen]byte

// NewID returns the identifier of a 64-bit election number.
func NewID(n uint64) ID {
	return IDFromBigInt(new(big.Int).SetUint64(n))
}

// IDFromBigInt converts a non-negative integer of at most 256 bits into an
// ID. Higher bits are discarded.
func IDFromBigInt(n *big.Int) ID {
	var id ID
	be := new(big.Int).Abs(n).Bytes()
	if len(be) > IDLen {
		be = be[len(be)-IDLen:]
	}
	for i, b := range be {
		id[len(be)-1-i] = b
	}
	return id
}

// ParseID parses a decimal number or a 0x prefixed big-endian hex number.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int), false
	if trimmed := util.TrimHex(s); trimmed != s {
		n, ok = n.SetString(trimmed, 16)
	} else {
		n, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 {
		return ID{}, fmt.Errorf("invalid election id %q", s)
	}
	if n.BitLen() > IDLen*8 {
		return ID{}, fmt.Errorf("election id %q exceeds 256 bits", s)
	}
	return IDFromBigInt(n), nil
}

// Bytes returns the little-endian encoding of the identifier.
func (id ID) Bytes() []byte {
	b := make([]byte, IDLen)
	copy(b, id[:])
	return b
}

// BigInt returns the identifier as an integer.
func (id ID) BigInt() *big.Int {
	be := make([]byte, IDLen)
	for i, b := range id {
		be[IDLen-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

// String returns the decimal representation of the identifier.
func (id ID) String() string {
	return id.BigInt().String()
}

// Hex returns the little-endian bytes of the identifier as hex, which is the
// form used for storage keys.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
