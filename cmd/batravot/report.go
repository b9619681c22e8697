package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/crypto/ecc/format"
	"github.com/vocdoni/batravot/election"
)

// printReport renders the outcome of a batch: the aggregate proof, the
// ordered account lists to submit to the verifier and the result of both
// verification forms.
func printReport(out io.Writer, enc *format.Encoder, id election.ID, res *batcher.Result) error {
	agg := res.Aggregate
	pterm.DefaultSection.WithWriter(out).Printfln("Batch of election %s", id)
	if err := pterm.DefaultTable.WithWriter(out).WithData([][]string{
		{"Ballots aggregated", strconv.Itoa(len(res.Included))},
		{"Invalid ballots", strconv.Itoa(len(res.Invalid))},
		{"Invalid ballots dropped", strconv.Itoa(res.Dropped)},
		{"Votes for", strconv.Itoa(len(agg.ForAccounts()))},
		{"Votes against", strconv.Itoa(len(agg.AgainstAccounts()))},
		{"General verification", verdict(res.General)},
		{"Compact verification", verdict(res.Compact)},
	}).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.WithWriter(out).Println("Submit the following data to the election verifier")
	lines := []string{
		fmt.Sprintf("Election proof:    %s", enc.Point(agg.Proof)),
		fmt.Sprintf("Who voted for:     %s", enc.Addresses(agg.ForAccounts())),
		fmt.Sprintf("Who voted against: %s", enc.Addresses(agg.AgainstAccounts())),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	if !res.Valid() {
		pterm.Warning.WithWriter(out).Println("the aggregate proof does not verify")
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "valid"
	}
	return "INVALID"
}
