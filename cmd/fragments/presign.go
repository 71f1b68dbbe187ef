package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/auth"
	"github.com/sagarc03/fragments/config"
)

var presignCmd = &cobra.Command{
	Use:   "presign [flags] <url>",
	Short: "Print a SigV4 presigned URL",
	Long: `Sign url with an access key from auth.sigv4.keys.

Examples:
  fragments presign --access-key AKIATEST http://localhost:8080/v1/fragments
  fragments presign --access-key AKIATEST -X DELETE http://localhost:8080/v1/fragments/<id>`,
	Args: cobra.ExactArgs(1),
	RunE: runPresign,
}

var (
	presignMethod    string
	presignAccessKey string
	presignExpires   time.Duration
)

func init() {
	presignCmd.Flags().StringVarP(&presignMethod, "method", "X", http.MethodGet, "HTTP method the URL authorizes")
	presignCmd.Flags().StringVar(&presignAccessKey, "access-key", "", "access key to sign with")
	presignCmd.Flags().DurationVar(&presignExpires, "expires", 15*time.Minute, "validity of the signature")
	_ = presignCmd.MarkFlagRequired("access-key")
	rootCmd.AddCommand(presignCmd)
}

func runPresign(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	store, err := auth.NewSecretStore(cfg.Auth.SigV4.Keys)
	if err != nil {
		return fmt.Errorf("load keys: %w", err)
	}

	secret, err := store.Lookup(presignAccessKey)
	if err != nil {
		return errors.New("access key not configured")
	}

	signed, err := auth.Presign(
		strings.ToUpper(presignMethod),
		args[0],
		auth.KeyPair{AccessKey: presignAccessKey, SecretKey: secret},
		cfg.Auth.SigV4.Region,
		cfg.Auth.SigV4.Service,
		presignExpires,
		time.Now(),
	)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
	return err
}
