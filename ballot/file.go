package ballot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/format"
	"github.com/vocdoni/batravot/types"
)

// fieldSeparator splits the fields of a ballot line:
//
//	public key | vote | vote proof | account
const fieldSeparator = "|"

// ParseLine parses a single ballot line.
func ParseLine(curve ecc.Curve, line string) (*Ballot, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: expected 4 fields separated by %q, got %d",
			format.ErrMalformedEncoding, fieldSeparator, len(fields))
	}
	pk, err := format.ParseG1(curve, fields[0])
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	vote, err := types.ParseVote(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", format.ErrMalformedEncoding, err)
	}
	proof, err := format.ParseG1(curve, fields[2])
	if err != nil {
		return nil, fmt.Errorf("vote proof: %w", err)
	}
	account, err := format.ParseAddress(fields[3])
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	return &Ballot{
		VoterPublicKey: pk,
		Vote:           vote,
		VoteProof:      proof,
		Account:        account,
	}, nil
}

// ReadBallots reads one ballot per line, skipping blank lines. Errors name
// the 1-based line number.
func ReadBallots(curve ecc.Curve, r io.Reader) ([]*Ballot, error) {
	var ballots []*Ballot
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b, err := ParseLine(curve, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		ballots = append(ballots, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ballots: %w", err)
	}
	return ballots, nil
}

// Line renders the ballot in the format read by ParseLine.
func (b *Ballot) Line(enc *format.Encoder) string {
	return strings.Join([]string{
		enc.Point(b.VoterPublicKey),
		b.Vote.String(),
		enc.Point(b.VoteProof),
		strings.ToLower(b.Account.Hex()),
	}, fieldSeparator)
}

// WriteBallots writes one line per ballot.
func WriteBallots(w io.Writer, enc *format.Encoder, ballots []*Ballot) error {
	for _, b := range ballots {
		if _, err := fmt.Fprintln(w, b.Line(enc)); err != nil {
			return err
		}
	}
	return nil
}
