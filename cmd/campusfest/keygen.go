package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pwannenmacher/campus-fest/internal/auth"
)

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ECDSA P-256 key for signing access tokens",
		Long: `Generate an ECDSA P-256 private key and print it as a JWT_SECRET line for .env
files. With --out the PEM is also written to a file readable only by the owner.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keyPEM, err := auth.GenerateKeyPEM()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "JWT_SECRET=%s\n", strings.ReplaceAll(strings.TrimSpace(string(keyPEM)), "\n", `\n`))

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return nil
			}
			if err := os.WriteFile(out, keyPEM, 0o600); err != nil {
				return fmt.Errorf("failed to write private key file: %w", err)
			}
			cmd.PrintErrf("Private key saved to %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Also write the PEM encoded key to this file")
	return cmd
}
