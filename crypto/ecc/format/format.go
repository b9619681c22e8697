// Package format renders scalars, field elements, curve points and accounts
// as literals for external tooling (Solidity contracts and JavaScript
// tests), and parses them back.
//
// Every field element is written as fixed-width big-endian hexadecimal. A G1
// point is written as [x, y] and a G2 point, whose coordinates are elements of
// the quadratic extension x = x0 + x1*u, as [[x1, x0], [y1, y0]], which is the
// order expected by the EVM pairing precompile.
package format

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/batravot/crypto/ecc"
)

// ErrMalformedEncoding is returned when a textual value cannot be parsed
// into a field element, a point or an account.
var ErrMalformedEncoding = errors.New("malformed encoding")

// Format is the syntax used to render literals.
type Format string

const (
	// Solidity renders field elements as 0x-prefixed hex literals.
	Solidity Format = "solidity"
	// JavaScript renders field elements as ethers BigNumber constructors.
	JavaScript Format = "javascript"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{Solidity, JavaScript}
}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Solidity, JavaScript:
		return f, nil
	case "js":
		return JavaScript, nil
	case "sol":
		return Solidity, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Encoder renders values of a curve in a given format.
type Encoder struct {
	format     Format
	fieldSize  int
	scalarSize int
}

// NewEncoder returns an Encoder for the curve and format provided.
func NewEncoder(format Format, curve ecc.Curve) (*Encoder, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &Encoder{
		format:     format,
		fieldSize:  curve.FieldSize(),
		scalarSize: (curve.Order().BitLen() + 7) / 8,
	}, nil
}

// Format returns the format used by the encoder.
func (e *Encoder) Format() Format {
	return e.format
}

func (e *Encoder) literal(hexValue string) string {
	if e.format == JavaScript {
		return fmt.Sprintf("BigNumber.from(%q)", hexValue)
	}
	return hexValue
}

// Field renders a base field element.
func (e *Encoder) Field(v *big.Int) string {
	return e.literal(fmt.Sprintf("0x%0*x", e.fieldSize*2, v))
}

// Scalar renders a scalar field element.
func (e *Encoder) Scalar(v *big.Int) string {
	return e.literal(fmt.Sprintf("0x%0*x", e.scalarSize*2, v))
}

// Point renders a G1 point as [x, y] and a G2 point as [[x1, x0], [y1, y0]].
func (e *Encoder) Point(p ecc.Point) string {
	c := p.Coordinates()
	if p.Group() == ecc.G2 {
		return fmt.Sprintf("[[%s, %s], [%s, %s]]",
			e.Field(c[1]), e.Field(c[0]), e.Field(c[3]), e.Field(c[2]))
	}
	return fmt.Sprintf("[%s, %s]", e.Field(c[0]), e.Field(c[1]))
}

// Address renders an account identifier with its EIP-55 checksum, which is
// the form accepted by Solidity address literals.
func (e *Encoder) Address(a common.Address) string {
	if e.format == JavaScript {
		return fmt.Sprintf("%q", a.Hex())
	}
	return a.Hex()
}

// Addresses renders a list of accounts as an array literal.
func (e *Encoder) Addresses(list []common.Address) string {
	items := make([]string, len(list))
	for i, a := range list {
		items[i] = e.Address(a)
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// stripLiteral removes the optional JavaScript wrapper, quotes and 0x prefix
// of a single element.
func stripLiteral(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "BigNumber.from(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "BigNumber.from("), ")")
	}
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return s
}

// parseElement decodes a fixed-width hex element below modulus.
func parseElement(s string, size int, modulus *big.Int) (*big.Int, error) {
	digits := stripLiteral(s)
	if len(digits) != size*2 {
		return nil, fmt.Errorf("%w: element %q has %d hex digits, expected %d",
			ErrMalformedEncoding, s, len(digits), size*2)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: element %q: %v", ErrMalformedEncoding, s, err)
	}
	v := new(big.Int).SetBytes(b)
	if v.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%w: element %q is not reduced", ErrMalformedEncoding, s)
	}
	return v, nil
}

// splitElements accepts the bracketed forms [x, y] and [[x1, x0], [y1, y0]]
// as well as the bare comma-separated forms.
func splitElements(s string) []string {
	s = strings.NewReplacer("[", "", "]", "").Replace(s)
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseField parses a single base field element.
func ParseField(curve ecc.Curve, s string) (*big.Int, error) {
	return parseElement(s, curve.FieldSize(), curve.BaseField())
}

// ParseScalar parses a single scalar field element.
func ParseScalar(curve ecc.Curve, s string) (*big.Int, error) {
	return parseElement(s, (curve.Order().BitLen()+7)/8, curve.Order())
}

// ParseG1 parses a G1 point written as [x, y] or x, y.
func ParseG1(curve ecc.Curve, s string) (ecc.Point, error) {
	items := splitElements(s)
	if len(items) != 2 {
		return nil, fmt.Errorf("%w: G1 point needs 2 elements, got %d", ErrMalformedEncoding, len(items))
	}
	return parsePoint(curve, curve.NewG1(), items)
}

// ParseG2 parses a G2 point written as [[x1, x0], [y1, y0]] or as the four
// elements in that order.
func ParseG2(curve ecc.Curve, s string) (ecc.Point, error) {
	items := splitElements(s)
	if len(items) != 4 {
		return nil, fmt.Errorf("%w: G2 point needs 4 elements, got %d", ErrMalformedEncoding, len(items))
	}
	return parsePoint(curve, curve.NewG2(), []string{items[1], items[0], items[3], items[2]})
}

func parsePoint(curve ecc.Curve, p ecc.Point, items []string) (ecc.Point, error) {
	coords := make([]*big.Int, len(items))
	for i, item := range items {
		v, err := ParseField(curve, item)
		if err != nil {
			return nil, err
		}
		coords[i] = v
	}
	if err := p.SetCoordinates(coords...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return p, nil
}

// ParseAddress parses a 20-byte account identifier of 40 hex digits,
// optionally 0x-prefixed. The checksum is not enforced.
func ParseAddress(s string) (common.Address, error) {
	digits := stripLiteral(s)
	if len(digits) != common.AddressLength*2 {
		return common.Address{}, fmt.Errorf("%w: address %q has %d hex digits, expected %d",
			ErrMalformedEncoding, s, len(digits), common.AddressLength*2)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: address %q: %v", ErrMalformedEncoding, s, err)
	}
	return common.BytesToAddress(b), nil
}
