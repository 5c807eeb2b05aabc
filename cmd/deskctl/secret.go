package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/merchantdesk/internal/secret"
)

// newSealSecretCmd encrypts the payment API key read from stdin into the file
// referenced by nearpay.api_key_file.
func newSealSecretCmd(c *cli) *cobra.Command {
	var (
		outPath     string
		passwordEnv string
	)
	cmd := &cobra.Command{
		Use:   "seal-secret",
		Short: "Encrypt the payment API key into a key file",
		Long: `Reads the API key from stdin and writes it encrypted with the password taken
from the named environment variable. Point nearpay.api_key_file at the result
and supply the same password as nearpay.api_key_password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(passwordEnv)
			if password == "" {
				return fmt.Errorf("environment variable %s is empty", passwordEnv)
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key from stdin: %w", err)
			}
			key := strings.TrimSpace(line)
			if key == "" {
				return errors.New("empty key on stdin")
			}

			doc, err := secret.Seal(key, password)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, doc, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(c.out, "sealed key written to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "nearpay.key.json", "destination file")
	cmd.Flags().StringVar(&passwordEnv, "password-env", "MERCHANTDESK_NEARPAY_API_KEY_PASSWORD", "environment variable holding the password")
	return cmd
}
