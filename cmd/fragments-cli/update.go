package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var updateContentType string

var updateCmd = &cobra.Command{
	Use:   "update <id> <local-path>",
	Short: "Replace a fragment's data",
	Long: `Replace a fragment's data with the contents of a file. The content type
must have the same base type as the fragment.

Examples:
  fragments-cli update 30a84843-0cd4-4975-95ba-b96112aea189 notes.md`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateContentType, "type", "t", "", "override content type")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]

	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided input
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	contentType := updateContentType
	if contentType == "" {
		contentType = clientcli.DetectContentType(path)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Update(cmd.Context(), id, contentType, data)
	if err != nil {
		return handleError(cmd.ErrOrStderr(), err)
	}

	return getFormatter().FormatInfo(cmd.OutOrStdout(), result)
}
