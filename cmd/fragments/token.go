package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/auth"
	"github.com/sagarc03/fragments/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token [flags] <principal>",
	Short: "Mint a development bearer token",
	Long: `Print an HS256 token for principal, signed with auth.bearer.secret.

Examples:
  FRAGMENTS_AUTH_BEARER_SECRET=dev fragments token user1@email.com
  curl -H "Authorization: Bearer $(fragments token user1@email.com)" localhost:8080/v1/fragments`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

var tokenTTL time.Duration

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	bearer, err := auth.NewBearer(cfg.Auth.Bearer)
	if err != nil {
		return fmt.Errorf("configure bearer: %w", err)
	}

	token, err := bearer.Issue(args[0], tokenTTL)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
