package main

import (
	"github.com/spf13/cobra"
	"github.com/vocdoni/batravot/config"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/crypto/ecc/format"
	"github.com/vocdoni/batravot/log"
)

// app holds the state shared by the subcommands once the global flags are
// parsed.
type app struct {
	cfg   *config.Config
	curve ecc.Curve
	enc   *format.Encoder
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}
	a.cfg.LogLevel = log.LogLevelError
	a.cfg.LogOutput = "stderr"

	root := &cobra.Command{
		Use:   "batravot",
		Short: "Batched voting on pairing-friendly curves",
		Long: `batravot builds and checks ballots of the batched voting protocol.

Voters derive the election specifiers, prove the ownership of their key and
cast ballots. A batcher aggregates the ballots of an election into a single
proof that a verifier checks with one multi-pairing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			log.Init(a.cfg.LogLevel, a.cfg.LogOutput, nil)
			a.curve = curves.New(a.cfg.Curve)
			f, err := format.ParseFormat(a.cfg.Format)
			if err != nil {
				return err
			}
			a.enc, err = format.NewEncoder(f, a.curve)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.Curve, "curve", a.cfg.Curve, "pairing-friendly curve: bn254 or bls12_381")
	flags.StringVarP(&a.cfg.Format, "format", "f", a.cfg.Format, "output format of curve points: solidity or javascript")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn, error or fatal")

	root.AddCommand(
		a.keygenCmd(),
		a.keyproofCmd(),
		a.voteCmd(),
		a.specCmd(),
		a.verifySpecCmd(),
		a.batchCmd(),
		a.simulateCmd(),
	)
	return root
}
