package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bidtounsi/go-bidtounsi-server/util"
)

var adminKind bool

func init() {
	genkeyCmd.Flags().BoolVar(&adminKind, "admin", false, "generate a long-lived admin key instead of a request key")
	rootCmd.AddCommand(genkeyCmd)
}

// genkeyCmd generates admin keys offline. Operators use this to hand a key to
// a new admin over a channel of their own choosing, bypassing the mail flow.
var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate an admin key",
	Long:  "Generate a request key (default) or a long-lived admin key. The key is printed to stdout and is not persisted; insert it through the API to make it redeemable.",
	Run: func(cmd *cobra.Command, args []string) {
		if adminKind {
			fmt.Println(util.GenerateAdminKey())
			return
		}
		fmt.Println(util.GenerateRequestKey())
	},
}
