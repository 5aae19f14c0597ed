package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandoracore/keyring/internal/cliauth"
	"github.com/pandoracore/keyring/internal/model"
	"github.com/pandoracore/keyring/internal/rpcserver"
)

var (
	deriveFromId     string
	derivePath       string
	deriveName       string
	deriveDetails    string
	deriveAssets     []string
	derivePassphrase string
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive a new account relative to an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromId, err := model.ParseXpubId(deriveFromId)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		path, err := model.ParsePath(derivePath)
		if err != nil {
			return fmt.Errorf("--path: %w", err)
		}
		assets := make([]model.AssetId, len(deriveAssets))
		for i, a := range deriveAssets {
			id, err := model.ParseAssetId(a)
			if err != nil {
				return fmt.Errorf("--asset %q: %w", a, err)
			}
			assets[i] = id
		}

		reply, err := client().Derive(rpcserver.DeriveParams{
			FromId:        fromId,
			Path:          path,
			Name:          deriveName,
			Details:       deriveDetails,
			Assets:        assets,
			DecryptionKey: cliauth.Stretch(derivePassphrase),
		}, authCode)
		if err := asResult(reply, err); err != nil {
			return err
		}
		printAccount(*reply.Account)
		return nil
	},
}

func init() {
	deriveCmd.Flags().StringVar(&deriveFromId, "from", "", "xpub id to derive relative to (required)")
	deriveCmd.Flags().StringVar(&derivePath, "path", "m", "derivation path, e.g. m/0/1")
	deriveCmd.Flags().StringVar(&deriveName, "name", "", "human-readable name")
	deriveCmd.Flags().StringVar(&deriveDetails, "details", "", "free-form details")
	deriveCmd.Flags().StringSliceVar(&deriveAssets, "asset", nil, "asset id (hex), repeatable")
	deriveCmd.Flags().StringVar(&derivePassphrase, "passphrase", "", "passphrase stretched into the decryption key (required)")
	deriveCmd.MarkFlagRequired("from")
	deriveCmd.MarkFlagRequired("name")
	deriveCmd.MarkFlagRequired("passphrase")
	rootCmd.AddCommand(deriveCmd)
}
