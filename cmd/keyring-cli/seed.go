package main

import (
	"github.com/spf13/cobra"

	"github.com/pandoracore/keyring/internal/cliauth"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

var (
	seedName        string
	seedDetails     string
	seedChain       string
	seedApplication string
	seedPassphrase  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a new master key",
	RunE: func(cmd *cobra.Command, args []string) error {
		encryptionKey := cliauth.PublicKeyFor(seedPassphrase)

		reply, err := client().Seed(rpcserver.SeedParams{
			Name:          seedName,
			Details:       seedDetails,
			Chain:         model.Chain(seedChain),
			Application:   model.KeyApplication(seedApplication),
			EncryptionKey: encryptionKey.SerializeCompressed(),
		}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}
		printAccount(*reply.Account)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", "", "human-readable name")
	seedCmd.Flags().StringVar(&seedDetails, "details", "", "free-form details")
	seedCmd.Flags().StringVar(&seedChain, "chain", string(model.ChainMainnet), "mainnet|testnet|signet|regtest")
	seedCmd.Flags().StringVar(&seedApplication, "application", string(model.AppWPKH), "pkh|sh|wpkh|wsh|wpkh-in-sh|wsh-in-sh")
	seedCmd.Flags().StringVar(&seedPassphrase, "passphrase", "", "passphrase stretched into the master's encryption key (required)")
	seedCmd.MarkFlagRequired("name")
	seedCmd.MarkFlagRequired("passphrase")
	rootCmd.AddCommand(seedCmd)
}
