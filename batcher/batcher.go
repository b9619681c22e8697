// Package batcher turns a set of submitted ballots into a verified aggregate:
// it validates every ballot, asks a policy what to do with the invalid ones,
// aggregates the rest and verifies the aggregate in both forms.
package batcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/vocdoni/batravot/aggregator"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	"github.com/vocdoni/batravot/validator"
	"github.com/vocdoni/batravot/verifier"
)

var (
	// ErrAborted is returned when the policy aborts the batch.
	ErrAborted = errors.New("batch aborted")
	// ErrFormsDisagree is returned if the general and compact verification
	// forms give different results, which means a broken curve backend.
	ErrFormsDisagree = errors.New("general and compact verification disagree")
)

// Disposition is the decision taken on an invalid ballot.
type Disposition int

const (
	// Keep aggregates the ballot anyway. The aggregate will not verify.
	Keep Disposition = iota
	// Drop leaves the ballot out of the aggregate.
	Drop
	// Abort stops processing the batch.
	Abort
)

func (d Disposition) String() string {
	switch d {
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Policy decides the disposition of each invalid ballot.
type Policy func(invalid *validator.InvalidProofError) (Disposition, error)

// Fixed returns a policy that always takes the same decision.
func Fixed(d Disposition) Policy {
	return func(*validator.InvalidProofError) (Disposition, error) {
		return d, nil
	}
}

// PolicyNames are the non-interactive policies accepted by PolicyByName.
var PolicyNames = []string{Keep.String(), Drop.String(), Abort.String()}

// PolicyByName returns the fixed policy named keep, drop or abort.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "keep":
		return Fixed(Keep), nil
	case "drop":
		return Fixed(Drop), nil
	case "abort":
		return Fixed(Abort), nil
	default:
		return nil, fmt.Errorf("unknown invalid ballot policy %q, expected one of %v", name, PolicyNames)
	}
}

// Result is the outcome of processing a batch.
type Result struct {
	Aggregate *aggregator.Proof
	// Included are the aggregated ballots, in input order.
	Included []*ballot.Ballot
	// Invalid lists every ballot that failed validation, whatever the
	// disposition taken.
	Invalid []*validator.InvalidProofError
	// Dropped counts the invalid ballots left out.
	Dropped int
	// General and Compact are the results of both verification forms.
	General bool
	Compact bool
}

// Valid reports whether the aggregate verifies.
func (r *Result) Valid() bool {
	return r.General && r.Compact
}

// Batcher processes batches of ballots of a curve.
type Batcher struct {
	curve     ecc.Curve
	validator *validator.Validator
	verifier  *verifier.Verifier
	workers   int
}

// New returns a Batcher. Workers bounds validation and aggregation
// concurrency; values below 1 use the number of CPUs.
func New(curve ecc.Curve, workers int) *Batcher {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	v := validator.New(curve)
	v.Workers = workers
	return &Batcher{
		curve:     curve,
		validator: v,
		verifier:  verifier.New(curve),
		workers:   workers,
	}
}

// Verifier returns the verifier used by the batcher.
func (b *Batcher) Verifier() *verifier.Verifier {
	return b.verifier
}

// Process validates, filters, aggregates and verifies the ballots. A nil
// policy drops every invalid ballot. If census is not nil every aggregated
// key must belong to it.
func (b *Batcher) Process(ctx context.Context, specifiers *election.Specifiers,
	ballots []*ballot.Ballot, policy Policy, census verifier.Census,
) (*Result, error) {
	if policy == nil {
		policy = Fixed(Drop)
	}
	_, invalid, err := b.validator.Filter(ctx, ballots, specifiers)
	if err != nil {
		return nil, err
	}
	res := &Result{Invalid: invalid}

	skip := make(map[int]bool, len(invalid))
	for _, e := range invalid {
		d, err := policy(e)
		if err != nil {
			return nil, fmt.Errorf("invalid ballot policy: %w", err)
		}
		log.Debugw("invalid ballot", "index", e.Index, "account", e.Ballot.Account.Hex(), "disposition", d.String())
		switch d {
		case Keep:
		case Drop:
			skip[e.Index] = true
			res.Dropped++
		case Abort:
			return res, fmt.Errorf("%w: %v", ErrAborted, e)
		default:
			return nil, fmt.Errorf("unknown disposition %s", d)
		}
	}
	res.Included = make([]*ballot.Ballot, 0, len(ballots)-len(skip))
	for i, bl := range ballots {
		if !skip[i] {
			res.Included = append(res.Included, bl)
		}
	}

	if res.Aggregate, err = aggregator.AggregateParallel(ctx, b.curve, res.Included, b.workers); err != nil {
		return nil, err
	}
	if census != nil {
		res.General, err = b.verifier.VerifyWithCensus(res.Aggregate, specifiers, census)
	} else {
		res.General, err = b.verifier.VerifyGeneral(res.Aggregate, specifiers)
	}
	if err != nil {
		return res, err
	}
	if res.Compact, err = b.verifier.VerifyCompact(res.Aggregate, specifiers); err != nil {
		return res, err
	}
	if res.General != res.Compact {
		return res, ErrFormsDisagree
	}
	return res, nil
}
