package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/vocdoni/batravot/crypto/ecc/format"
	"github.com/vocdoni/batravot/election"
)

func (a *app) specCmd() *cobra.Command {
	var electionID string
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the specifiers of an election",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := election.ParseID(electionID)
			if err != nil {
				return err
			}
			s := election.Derive(a.curve, id)
			out := cmd.OutOrStdout()
			pterm.DefaultSection.WithWriter(out).Printfln("Specifiers of election %s", id)
			return pterm.DefaultTable.WithWriter(out).WithHasHeader().WithData([][]string{
				{"Direction", "G1", "G2"},
				{"for", a.enc.Point(s.For.G1), a.enc.Point(s.For.G2)},
				{"against", a.enc.Point(s.Against.G1), a.enc.Point(s.Against.G2)},
			}).Render()
		},
	}
	cmd.Flags().StringVarP(&electionID, "election", "e", "", "election id, decimal or 0x-prefixed hex")
	_ = cmd.MarkFlagRequired("election")
	return cmd
}

func (a *app) verifySpecCmd() *cobra.Command {
	var electionID, forG1, forG2, againstG1, againstG2 string
	cmd := &cobra.Command{
		Use:   "verify-spec",
		Short: "Check the specifiers published for an election",
		Long: `Check that the specifiers published for an election, for instance by a
verifier contract, are the ones derived from its id. A mismatch means the
election may be under attack and the command fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := election.ParseID(electionID)
			if err != nil {
				return err
			}
			s := &election.Specifiers{}
			if s.For, err = a.parsePair(forG1, forG2); err != nil {
				return fmt.Errorf("for specifier: %w", err)
			}
			if s.Against, err = a.parsePair(againstG1, againstG2); err != nil {
				return fmt.Errorf("against specifier: %w", err)
			}
			if err := election.Verify(a.curve, s, id); err != nil {
				return err
			}
			pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("the specifiers match election %s", id)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&electionID, "election", "e", "", "election id, decimal or 0x-prefixed hex")
	flags.StringVar(&forG1, "for-g1", "", "G1 specifier of the for direction, [x, y]")
	flags.StringVar(&forG2, "for-g2", "", "G2 specifier of the for direction, [[x1, x0], [y1, y0]]")
	flags.StringVar(&againstG1, "against-g1", "", "G1 specifier of the against direction, [x, y]")
	flags.StringVar(&againstG2, "against-g2", "", "G2 specifier of the against direction, [[x1, x0], [y1, y0]]")
	for _, name := range []string{"election", "for-g1", "for-g2", "against-g1", "against-g2"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) parsePair(g1, g2 string) (election.Pair, error) {
	p1, err := format.ParseG1(a.curve, g1)
	if err != nil {
		return election.Pair{}, err
	}
	p2, err := format.ParseG2(a.curve, g2)
	if err != nil {
		return election.Pair{}, err
	}
	return election.Pair{G1: p1, G2: p2}, nil
}
