package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var outputFile string

func init() {
	capkeyCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default is stdout)")
	rootCmd.AddCommand(capkeyCmd)
}

// capkeyCmd generates the ed25519 signing key for capability tokens. The
// base64 value goes into the server configuration (admin.capabilityKeyBase64).
var capkeyCmd = &cobra.Command{
	Use:   "capkey",
	Short: "Generate a capability signing key",
	Long:  "Generate an ed25519 signing key for capability tokens, base64 encoded for the server configuration.",
	Run: func(cmd *cobra.Command, args []string) {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		check(err)
		out := fmt.Sprintf("capabilityKeyBase64: %s\n# generated %s\n",
			base64.StdEncoding.EncodeToString(priv), time.Now().UTC().Format(time.RFC3339))
		if outputFile != "" {
			// fail if file already exists
			if _, sErr := os.Stat(outputFile); !errors.Is(sErr, os.ErrNotExist) {
				fmt.Printf("File already exists: %s\n", outputFile)
				os.Exit(1)
			}
			check(os.WriteFile(outputFile, []byte(out), 0600))
			fmt.Printf("Output file: %s\n", outputFile)
		} else {
			fmt.Printf("\n%s", out)
		}
	},
}
