package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

var xpubKeyId string

var xpubCmd = &cobra.Command{
	Use:   "xpub",
	Short: "Export an account's extended public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParseXpubId(xpubKeyId)
		if err != nil {
			return fmt.Errorf("--key-id: %w", err)
		}
		reply, err := client().ExportXpub(rpcserver.ExportXpubParams{KeyId: id}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}
		fmt.Println(reply.Xpub)
		return nil
	},
}

func init() {
	xpubCmd.Flags().StringVar(&xpubKeyId, "key-id", "", "xpub id (required)")
	xpubCmd.MarkFlagRequired("key-id")
	rootCmd.AddCommand(xpubCmd)
}
