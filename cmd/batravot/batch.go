package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/config"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/validator"
)

// stdinName selects the standard input as ballot source.
const stdinName = "-"

func (a *app) batchCmd() *cobra.Command {
	var electionID, input string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Aggregate the ballots of an election",
		Long: `Aggregate the ballots of an election into a single proof. Ballots are
read one per line, as printed by the vote command:

  public key | vote | vote proof | account

Ballots with an invalid vote proof are handled by the --policy: keep them
(the aggregate will not verify), drop them, abort, or ask for each one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := election.ParseID(electionID)
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if input != stdinName {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			} else if a.cfg.InvalidPolicy == config.PolicyAsk {
				return fmt.Errorf("the %s policy reads answers from the standard input, ballots need --input", config.PolicyAsk)
			}
			ballots, err := ballot.ReadBallots(a.curve, r)
			if err != nil {
				return err
			}
			policy, err := a.policy(cmd)
			if err != nil {
				return err
			}
			b := batcher.New(a.curve, a.cfg.Workers)
			res, err := b.Process(cmd.Context(), election.Derive(a.curve, id), ballots, policy, nil)
			if err != nil {
				if errors.Is(err, batcher.ErrAborted) {
					pterm.Warning.WithWriter(cmd.OutOrStdout()).Println("batch aborted")
				}
				return err
			}
			return printReport(cmd.OutOrStdout(), a.enc, id, res)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&electionID, "election", "e", "", "election id, decimal or 0x-prefixed hex")
	flags.StringVarP(&input, "input", "i", stdinName, "ballots file, - for the standard input")
	flags.StringVarP(&a.cfg.InvalidPolicy, "policy", "p", a.cfg.InvalidPolicy, "invalid ballot policy: keep, drop, abort or ask")
	flags.IntVarP(&a.cfg.Workers, "workers", "w", a.cfg.Workers, "concurrent workers, 0 for the number of CPUs")
	_ = cmd.MarkFlagRequired("election")
	return cmd
}

// policy returns the invalid ballot policy of the configuration.
func (a *app) policy(cmd *cobra.Command) (batcher.Policy, error) {
	if a.cfg.InvalidPolicy == config.PolicyAsk {
		return askPolicy(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout()), nil
	}
	return batcher.PolicyByName(a.cfg.InvalidPolicy)
}

// askPolicy asks what to do with every invalid ballot: [k]eep it, [r]emove
// it or [e]xit.
func askPolicy(in *bufio.Reader, out io.Writer) batcher.Policy {
	return func(invalid *validator.InvalidProofError) (batcher.Disposition, error) {
		pterm.Warning.WithWriter(out).Println(invalid.Error())
		for {
			fmt.Fprint(out, "[k]eep, [r]emove or [e]xit? ")
			line, err := in.ReadString('\n')
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "k", "keep":
				return batcher.Keep, nil
			case "r", "remove":
				return batcher.Drop, nil
			case "e", "exit":
				return batcher.Abort, nil
			}
			if err != nil {
				return batcher.Abort, fmt.Errorf("no answer: %w", err)
			}
			fmt.Fprintln(out, "unknown answer")
		}
	}
}

