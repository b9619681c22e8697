package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigMarshalUnmarshalJSON(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	jsonBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := json.Marshal(jsonBigInt)
	c.Assert(err, qt.IsNil)

	c.Assert(string(bBigInt), qt.Equals, `{"bi":"1234567890"}`)

	var unmarshaled map[string]*BigInt
	c.Assert(json.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"].String(), qt.Equals, bi.String())
}

func TestBigMarshalUnmarshalCBOR(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))
	cborBigInt := map[string]*BigInt{
		"bi": bi,
	}
	bBigInt, err := cbor.Marshal(cborBigInt)
	c.Assert(err, qt.IsNil)

	var unmarshaled map[string]*BigInt
	c.Assert(cbor.Unmarshal(bBigInt, &unmarshaled), qt.IsNil)
	c.Assert(unmarshaled["bi"].String(), qt.Equals, bi.String())
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)
	b := HexBytes{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(b)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"0xdeadbeef"`)

	var decoded HexBytes
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, b)

	c.Assert(json.Unmarshal([]byte(`"deadbeef"`), &decoded), qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, b)
	c.Assert(json.Unmarshal([]byte(`"0xzz"`), &decoded), qt.IsNotNil)
}

func TestParseVote(t *testing.T) {
	c := qt.New(t)
	for _, s := range []string{"for", "FOR", "+", " For "} {
		v, err := ParseVote(s)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, VoteFor)
	}
	for _, s := range []string{"against", "Against", "-"} {
		v, err := ParseVote(s)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, VoteAgainst)
	}
	_, err := ParseVote("yes")
	c.Assert(err, qt.IsNotNil)

	data, err := json.Marshal(VoteFor)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"for"`)
	var v Vote
	c.Assert(json.Unmarshal([]byte(`"-"`), &v), qt.IsNil)
	c.Assert(v, qt.Equals, VoteAgainst)
}
