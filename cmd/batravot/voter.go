package main

import (
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/vocdoni/batravot/crypto/ecc/format"
	"github.com/vocdoni/batravot/crypto/ethereum"
	"github.com/vocdoni/batravot/crypto/schnorr"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/types"
	"github.com/vocdoni/batravot/voter"
)

// voterFlags are the flags that select the voter key pair.
type voterFlags struct {
	key     string
	account string
}

func (f *voterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "voter private key, 32 bytes big-endian hex")
	cmd.Flags().StringVarP(&f.account, "account", "a", "", "voter account address")
	_ = cmd.MarkFlagRequired("key")
}

func (a *app) voter(f *voterFlags) (*voter.Voter, error) {
	var account common.Address
	if f.account != "" {
		var err error
		if account, err = format.ParseAddress(f.account); err != nil {
			return nil, err
		}
	}
	return voter.FromHex(a.curve, f.key, account)
}

func (a *app) keygenCmd() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a voter key pair",
		Long: `Generate a random voter key pair. Without --account a new Ethereum
account is generated too, and its private key is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{}
			var addr common.Address
			if account == "" {
				signer := ethereum.NewSignKeys()
				if err := signer.Generate(); err != nil {
					return err
				}
				addr = signer.Address()
				_, priv := signer.HexString()
				rows = append(rows, []string{"Account private key", priv})
			} else {
				var err error
				if addr, err = format.ParseAddress(account); err != nil {
					return err
				}
			}
			v, err := voter.Generate(a.curve, addr, rand.Reader)
			if err != nil {
				return err
			}
			rows = append([][]string{
				{"Private key", v.PrivateKeyHex()},
				{"Public key", a.enc.Point(v.PublicKey)},
				{"Account", a.enc.Address(v.Account)},
			}, rows...)
			out := cmd.OutOrStdout()
			pterm.DefaultSection.WithWriter(out).Println("Voter key pair")
			return pterm.DefaultTable.WithWriter(out).WithData(rows).Render()
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "voter account address")
	return cmd
}

func (a *app) keyproofCmd() *cobra.Command {
	var (
		vf     voterFlags
		scheme string
	)
	cmd := &cobra.Command{
		Use:   "keyproof",
		Short: "Prove the ownership of a voter key",
		Long: `Prove the ownership of a voter private key, with a Schnorr proof of
knowledge or a Schnorr signature, to register the public key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schnorr.ParseScheme(scheme)
			if err != nil {
				return err
			}
			v, err := a.voter(&vf)
			if err != nil {
				return err
			}
			proof, err := v.KeyProof(s, rand.Reader)
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Public key", a.enc.Point(v.PublicKey)},
				{"Scheme", string(proof.Scheme())},
			}
			switch p := proof.(type) {
			case *schnorr.KnowledgeProof:
				rows = append(rows, []string{"Key proof", fmt.Sprintf("[%s, %s]", a.enc.Point(p.T), a.enc.Scalar(p.S))})
			case *schnorr.Signature:
				rows = append(rows, []string{"Key proof", fmt.Sprintf("[%s, %s]", a.enc.Scalar(p.E), a.enc.Scalar(p.S))})
			}
			out := cmd.OutOrStdout()
			pterm.DefaultSection.WithWriter(out).Println("Submit the following data to register your key")
			return pterm.DefaultTable.WithWriter(out).WithData(rows).Render()
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVarP(&scheme, "scheme", "s", string(schnorr.SchemeKnowledgeProof), "proof scheme: knowledge or signature")
	return cmd
}

func (a *app) voteCmd() *cobra.Command {
	var (
		vf         voterFlags
		electionID string
		vote       string
	)
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast a ballot",
		Long: `Cast a ballot for an election. The last line of the output is the ballot
in the line format read by the batch command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := election.ParseID(electionID)
			if err != nil {
				return err
			}
			direction, err := types.ParseVote(vote)
			if err != nil {
				return err
			}
			v, err := a.voter(&vf)
			if err != nil {
				return err
			}
			b := v.Ballot(direction, election.Derive(a.curve, id))
			out := cmd.OutOrStdout()
			pterm.DefaultSection.WithWriter(out).Println("Submit the following ballot to the election batcher")
			if err := pterm.DefaultTable.WithWriter(out).WithData([][]string{
				{"Election ID", id.String()},
				{"Vote", b.Vote.String()},
				{"Public key", a.enc.Point(b.VoterPublicKey)},
				{"Vote proof", a.enc.Point(b.VoteProof)},
				{"Account", a.enc.Address(b.Account)},
			}).Render(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, b.Line(a.enc))
			return err
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVarP(&electionID, "election", "e", "", "election id, decimal or 0x-prefixed hex")
	cmd.Flags().StringVar(&vote, "vote", types.VoteFor.String(), "vote direction: for or against")
	_ = cmd.MarkFlagRequired("election")
	return cmd
}
