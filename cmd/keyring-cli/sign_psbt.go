package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pandoracore/keyring/internal/cliauth"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

var (
	signPsbtInPath     string
	signPsbtOutPath    string
	signPsbtPassphrase string
)

var signPsbtCmd = &cobra.Command{
	Use:   "sign-psbt",
	Short: "Sign every input a vault-held key can sign for in a PSBT",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(signPsbtInPath)
		if err != nil {
			return fmt.Errorf("reading --in: %w", err)
		}

		reply, err := client().SignPsbt(rpcserver.SignPsbtParams{
			Psbt:          raw,
			DecryptionKey: cliauth.Stretch(signPsbtPassphrase),
		}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}

		if signPsbtOutPath == "" || signPsbtOutPath == "-" {
			_, err = os.Stdout.Write(reply.Psbt)
			return err
		}
		return os.WriteFile(signPsbtOutPath, reply.Psbt, 0o600)
	},
}

func init() {
	signPsbtCmd.Flags().StringVar(&signPsbtInPath, "in", "", "path to the unsigned PSBT (required)")
	signPsbtCmd.Flags().StringVar(&signPsbtOutPath, "out", "-", "path to write the signed PSBT, or - for stdout")
	signPsbtCmd.Flags().StringVar(&signPsbtPassphrase, "passphrase", "", "passphrase stretched into the decryption key (required)")
	signPsbtCmd.MarkFlagRequired("in")
	signPsbtCmd.MarkFlagRequired("passphrase")
	rootCmd.AddCommand(signPsbtCmd)
}
