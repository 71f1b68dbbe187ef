package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "fragments",
	Short:   "Typed fragment storage with format conversion",
	Long: `Fragments stores small typed blobs (text, markdown, HTML, CSV, JSON, YAML)
for authenticated owners and renders them into other formats on request.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env file", "err", err)
		}

		configFiles, _ := cmd.Flags().GetStringSlice("config")
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(os.Stderr, cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeat to merge (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("metadata-type", "", "metadata backend: memory, sqlite, postgres, bolt, filesystem, s3 (env: FRAGMENTS_METADATA_TYPE)")
	rootCmd.PersistentFlags().String("payload-type", "", "payload backend: memory, sqlite, postgres, bolt, filesystem, s3 (env: FRAGMENTS_PAYLOAD_TYPE)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FRAGMENTS_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
