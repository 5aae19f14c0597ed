package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account held by the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := client().List()
		if err := asResult(reply, err); err != nil {
			return err
		}
		for i, info := range reply.Keylist {
			if i > 0 {
				fmt.Println("---")
			}
			printAccount(info)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
