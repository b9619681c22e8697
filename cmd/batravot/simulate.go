package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/vocdoni/batravot/ballot"
	"github.com/vocdoni/batravot/batcher"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/crypto/ethereum"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
	"github.com/vocdoni/batravot/verifier"
	"github.com/vocdoni/batravot/voter"
)

// simulation is the outcome of a simulated election.
type simulation struct {
	id      election.ID
	result  *batcher.Result
	evm     []byte
	evmOK   bool
	timings [][]string
}

func (a *app) simulateCmd() *cobra.Command {
	var (
		voters, forged int
		electionID     string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate an election end to end",
		Long: `Simulate an election: random voters with random Ethereum accounts prove
the ownership of their keys and are registered in a census, vote in a
random direction and a batcher aggregates their ballots. The aggregate is
verified in both forms and, on bn254, through the EVM pairing precompile.

--forged adds ballots whose vote proof does not match their vote, handled
by the --policy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if voters < 1 {
				return fmt.Errorf("at least one voter is needed")
			}
			if forged < 0 || forged > voters {
				return fmt.Errorf("forged ballots must be between 0 and %d", voters)
			}
			id, err := a.electionID(electionID)
			if err != nil {
				return err
			}
			policy, err := a.policy(cmd)
			if err != nil {
				return err
			}
			sim, err := a.simulate(cmd, id, voters, forged, policy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printReport(out, a.enc, sim.id, sim.result); err != nil {
				return err
			}
			if sim.evm != nil {
				fmt.Fprintf(out, "EVM pairing input: 0x%x\n", sim.evm)
				fmt.Fprintf(out, "EVM verification:  %s\n", verdict(sim.evmOK))
			}
			pterm.DefaultSection.WithWriter(out).Println("Timings")
			return pterm.DefaultTable.WithWriter(out).WithData(sim.timings).Render()
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&voters, "voters", "n", 10, "number of voters")
	flags.IntVar(&forged, "forged", 0, "number of ballots with a forged vote")
	flags.StringVarP(&electionID, "election", "e", "", "election id, random if empty")
	flags.StringVarP(&a.cfg.InvalidPolicy, "policy", "p", a.cfg.InvalidPolicy, "invalid ballot policy: keep, drop, abort or ask")
	flags.IntVarP(&a.cfg.Workers, "workers", "w", a.cfg.Workers, "concurrent workers, 0 for the number of CPUs")
	return cmd
}

// electionID parses s, or returns a random 64-bit id if s is empty.
func (a *app) electionID(s string) (election.ID, error) {
	if s != "" {
		return election.ParseID(s)
	}
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return election.ID{}, err
	}
	return election.IDFromBigInt(n), nil
}

func (a *app) simulate(cmd *cobra.Command, id election.ID, voters, forged int,
	policy batcher.Policy,
) (*simulation, error) {
	sim := &simulation{id: id}
	timed := func(name string, start time.Time) {
		sim.timings = append(sim.timings, []string{name, time.Since(start).Round(time.Microsecond).String()})
	}

	start := time.Now()
	census := verifier.NewKeySet()
	vs := make([]*voter.Voter, voters)
	for i := range vs {
		signer := ethereum.NewSignKeys()
		if err := signer.Generate(); err != nil {
			return nil, err
		}
		v, err := voter.Generate(a.curve, signer.Address(), rand.Reader)
		if err != nil {
			return nil, err
		}
		proof, err := v.KeyProof(schnorr.SchemeKnowledgeProof, rand.Reader)
		if err != nil {
			return nil, err
		}
		if !proof.Verify(a.curve, v.PublicKey) {
			return nil, fmt.Errorf("key proof of voter %d does not verify", i)
		}
		census.Add(v.PublicKey)
		vs[i] = v
	}
	timed("registration", start)

	start = time.Now()
	specifiers := election.Derive(a.curve, id)
	ballots := make([]*ballot.Ballot, voters)
	for i, v := range vs {
		coin, err := rand.Int(rand.Reader, big.NewInt(2))
		if err != nil {
			return nil, err
		}
		vote := types.Vote(coin.Uint64())
		ballots[i] = v.Ballot(vote, specifiers)
		if i < forged {
			// the proof of one direction submitted as the other
			ballots[i].Vote = 1 - vote
		}
	}
	timed("voting", start)

	start = time.Now()
	b := batcher.New(a.curve, a.cfg.Workers)
	res, err := b.Process(cmd.Context(), specifiers, ballots, policy, census)
	if err != nil {
		return nil, err
	}
	sim.result = res
	timed("batching", start)

	if a.curve.Type() == curves.CurveTypeBN254 {
		start = time.Now()
		if sim.evm, err = b.Verifier().EVMPairingInput(res.Aggregate, specifiers); err != nil {
			return nil, err
		}
		if sim.evmOK, err = verifier.PairingCheckEVM(sim.evm); err != nil {
			return nil, err
		}
		timed("EVM verification", start)
	}
	return sim, nil
}
