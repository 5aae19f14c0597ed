package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandoracore/keyring/internal/cliauth"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

var (
	signKeyKeyId      string
	signKeyPassphrase string
)

var signKeyCmd = &cobra.Command{
	Use:   "sign-key",
	Short: "Sign the SHA-256 of an account's own compressed public key with its key (proof of possession)",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParseXpubId(signKeyKeyId)
		if err != nil {
			return fmt.Errorf("--key-id: %w", err)
		}
		reply, err := client().SignKey(rpcserver.SignKeyParams{
			KeyId:         id,
			DecryptionKey: cliauth.Stretch(signKeyPassphrase),
		}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(reply.Signature))
		return nil
	},
}

func init() {
	signKeyCmd.Flags().StringVar(&signKeyKeyId, "key-id", "", "xpub id (required)")
	signKeyCmd.Flags().StringVar(&signKeyPassphrase, "passphrase", "", "passphrase stretched into the decryption key (required)")
	signKeyCmd.MarkFlagRequired("key-id")
	signKeyCmd.MarkFlagRequired("passphrase")
	rootCmd.AddCommand(signKeyCmd)
}
