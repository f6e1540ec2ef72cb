package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifequest/lifequest-core/internal/interface/http/handlers"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create service tokens for the API",
	}

	var cost int
	hash := &cobra.Command{
		Use:   "hash [token]",
		Short: "Print the bcrypt hash to put in HTTP_SERVICE_TOKEN_HASH",
		Long:  "Hashes the given token. Without an argument a random token is generated and printed together with its hash.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				buf := make([]byte, 32)
				if _, err := rand.Read(buf); err != nil {
					return fmt.Errorf("generate token: %w", err)
				}
				token = base64.RawURLEncoding.EncodeToString(buf)
				fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
			}

			h, err := handlers.HashServiceToken(token, cost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hash:  %s\n", h)
			return nil
		},
	}
	hash.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	cmd.AddCommand(hash)
	return cmd
}
