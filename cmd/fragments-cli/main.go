package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	server     string
	authScheme string
	username   string
	password   string
	token      string
	accessKey  string
	secretKey  string
	region     string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "fragments-cli",
	Version: version,
	Short:   "Client for the fragments API",
	Long: `fragments-cli - client for a fragments server

Credentials come from, in increasing precedence: the selected profile in
~/.fragments/config.yaml, FRAGMENTS_* environment variables, and flags.

The auth scheme is inferred when not set: a token means bearer, an access
key means sigv4 presigned URLs, anything else HTTP basic.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.fragments/config.yaml, env: FRAGMENTS_CLIENT_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: FRAGMENTS_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:8080, env: FRAGMENTS_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&authScheme, "auth", "", "auth scheme: basic, bearer, sigv4 (env: FRAGMENTS_AUTH)")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "basic auth user (env: FRAGMENTS_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "basic auth password (env: FRAGMENTS_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (env: FRAGMENTS_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&accessKey, "access-key", "a", "", "sigv4 access key (env: FRAGMENTS_ACCESS_KEY)")
	rootCmd.PersistentFlags().StringVarP(&secretKey, "secret-key", "k", "", "sigv4 secret key (env: FRAGMENTS_SECRET_KEY)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "sigv4 region (default: us-east-1, env: FRAGMENTS_REGION)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// getConfigPath returns the client config file path: flag, then env, then default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	profileName := profile
	if profileName == "" {
		profileName = clientcli.ProfileFromEnv()
	}

	if configPath := getConfigPath(); configPath != "" {
		file, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(profileName)
			if profileErr == nil {
				configs = append(configs, clientcli.ConfigFromProfile(p))
			} else if profileName != "" {
				return nil, profileErr
			}
		case cfgFile != "" || profileName != "":
			// Only error if the user asked for a file or profile explicitly.
			return nil, err
		}
	}

	configs = append(configs, clientcli.ConfigFromEnv(), &clientcli.Config{
		Endpoint:  server,
		Auth:      authScheme,
		Username:  username,
		Password:  password,
		Token:     token,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// handleError prints err with the current formatter and returns it as already reported.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	return &exitError{code: 1, err: err}
}

// exitError is returned when the error has already been printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
