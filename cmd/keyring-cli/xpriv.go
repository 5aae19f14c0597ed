package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandoracore/keyring/internal/cliauth"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

var (
	xprivKeyId      string
	xprivPassphrase string
)

var xprivCmd = &cobra.Command{
	Use:   "xpriv",
	Short: "Export an account's extended private key (use with care)",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParseXpubId(xprivKeyId)
		if err != nil {
			return fmt.Errorf("--key-id: %w", err)
		}
		reply, err := client().ExportXpriv(rpcserver.ExportXprivParams{
			KeyId:         id,
			DecryptionKey: cliauth.Stretch(xprivPassphrase),
		}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}
		fmt.Println(reply.Xpriv)
		return nil
	},
}

func init() {
	xprivCmd.Flags().StringVar(&xprivKeyId, "key-id", "", "xpub id (required)")
	xprivCmd.Flags().StringVar(&xprivPassphrase, "passphrase", "", "passphrase stretched into the decryption key (required)")
	xprivCmd.MarkFlagRequired("key-id")
	xprivCmd.MarkFlagRequired("passphrase")
	rootCmd.AddCommand(xprivCmd)
}
