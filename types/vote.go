package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Vote is the direction of a ballot.
type Vote uint8

const (
	// VoteAgainst is encoded as the direction byte 0 in specifier derivation.
	VoteAgainst Vote = 0
	// VoteFor is encoded as the direction byte 1 in specifier derivation.
	VoteFor Vote = 1
)

// ParseVote accepts "for" or "+" and "against" or "-", case-insensitive.
func ParseVote(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for", "+":
		return VoteFor, nil
	case "against", "-":
		return VoteAgainst, nil
	default:
		return 0, fmt.Errorf("invalid vote %q: expected for/+ or against/-", s)
	}
}

// Byte returns the domain separation tag of the vote direction.
func (v Vote) Byte() byte {
	return byte(v)
}

// Valid reports whether v is one of the two known directions.
func (v Vote) Valid() bool {
	return v == VoteFor || v == VoteAgainst
}

func (v Vote) String() string {
	switch v {
	case VoteFor:
		return "for"
	case VoteAgainst:
		return "against"
	default:
		return fmt.Sprintf("vote(%d)", uint8(v))
	}
}

func (v Vote) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", v)
	}
	return json.Marshal(v.String())
}

func (v *Vote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVote(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
