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
	signDataKeyId      string
	signDataHex        string
	signDataPassphrase string
)

var signDataCmd = &cobra.Command{
	Use:   "sign-data",
	Short: "Sign the SHA-256 digest of arbitrary hex-encoded data",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParseXpubId(signDataKeyId)
		if err != nil {
			return fmt.Errorf("--key-id: %w", err)
		}
		data, err := hexBytes(signDataHex)
		if err != nil {
			return fmt.Errorf("--data: %w", err)
		}
		reply, err := client().SignData(rpcserver.SignDataParams{
			KeyId:         id,
			Data:          data,
			DecryptionKey: cliauth.Stretch(signDataPassphrase),
		}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(reply.Signature))
		return nil
	},
}

func init() {
	signDataCmd.Flags().StringVar(&signDataKeyId, "key-id", "", "xpub id (required)")
	signDataCmd.Flags().StringVar(&signDataHex, "data", "", "hex-encoded data to sign (required)")
	signDataCmd.Flags().StringVar(&signDataPassphrase, "passphrase", "", "passphrase stretched into the decryption key (required)")
	signDataCmd.MarkFlagRequired("key-id")
	signDataCmd.MarkFlagRequired("data")
	signDataCmd.MarkFlagRequired("passphrase")
	rootCmd.AddCommand(signDataCmd)
}
