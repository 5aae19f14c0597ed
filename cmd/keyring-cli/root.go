// Command keyring-cli is a thin client talking to a running keyringd
// over the RPC transport (internal/rpcclient). It never touches a
// driver or the vault directly.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pandoracore/keyring/internal/rpcclient"
)

var (
	serverURL string
	timeout   time.Duration
	authCode  uint32
)

var rootCmd = &cobra.Command{
	Use:   "keyring-cli",
	Short: "Client for the keyringd key-custody vault",
	Long: `keyring-cli talks to a running keyringd daemon over its RPC
transport to seed, list, derive, and sign with vault-held keys.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8787", "keyringd base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().Uint32Var(&authCode, "auth-code", 0, "auth code to attach to the request")

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.SetEnvPrefix("KEYRING_CLI")
	viper.AutomaticEnv()
}

func initConfig() {
	if viper.IsSet("server") {
		serverURL = viper.GetString("server")
	}
}

func client() *rpcclient.Client {
	return rpcclient.New(serverURL, timeout)
}
