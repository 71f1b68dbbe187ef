package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var (
	createRecursive   bool
	createContentType string
)

var createCmd = &cobra.Command{
	Use:     "create <local-path> [local-path...]",
	Aliases: []string{"upload"},
	Short:   "Create fragments from local files",
	Long: `Create one fragment per file.

The content type is taken from the file extension unless --type is given.

Examples:
  fragments-cli create notes.md
  fragments-cli create -r ./docs
  fragments-cli create --type "text/plain; charset=utf-8" README`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().BoolVarP(&createRecursive, "recursive", "r", false, "create from every file in a directory")
	createCmd.Flags().StringVarP(&createContentType, "type", "t", "", "override content type")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	var results []clientcli.UploadResult
	for _, path := range args {
		res, uploadErr := client.Upload(cmd.Context(), clientcli.UploadOptions{
			LocalPath:   path,
			ContentType: createContentType,
			Recursive:   createRecursive,
		})
		results = append(results, res...)
		if uploadErr != nil {
			results = append(results, clientcli.UploadResult{LocalPath: path, Err: uploadErr})
		}
	}

	if err := getFormatter().FormatUpload(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}
