package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"seller-gateway/internal/service"

	"github.com/spf13/cobra"
)

func hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Print the argon2id hash for admin.secret_hash",
		Long: `Hash an admin secret for SPG_ADMIN_SECRET_HASH.

The secret is read from the first line of stdin when not given as an argument,
which keeps it out of shell history:
  gatewayctl hash-secret < secret.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read secret: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if strings.TrimSpace(secret) == "" {
				return errors.New("secret must not be empty")
			}

			hash, err := service.NewArgon2Hasher().Hash(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
