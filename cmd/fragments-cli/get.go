package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <id>[.ext]",
	Short: "Fetch a fragment, optionally converted",
	Long: `Fetch a fragment's data. Appending an extension to the id asks the server
to convert it, e.g. a markdown fragment fetched as <id>.html.

Data is written to stdout unless --output is given.

Examples:
  fragments-cli get 30a84843-0cd4-4975-95ba-b96112aea189
  fragments-cli get 30a84843-0cd4-4975-95ba-b96112aea189.html
  fragments-cli get -o data.yaml 4dcc65b6-9d57-453a-bd3a-63c107a51698.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "-", "output file path, - for stdout")
}

func runGet(cmd *cobra.Command, args []string) error {
	id, ext := args[0], ""
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		id, ext = id[:i], id[i+1:]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, body, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		ID:        id,
		Ext:       ext,
		LocalPath: getOutput,
	})
	if err != nil {
		return handleError(cmd.ErrOrStderr(), err)
	}

	if body != nil {
		defer func() { _ = body.Close() }()
		if _, err := io.Copy(cmd.OutOrStdout(), body); err != nil {
			return err
		}
		if jsonOutput {
			return getFormatter().FormatDownload(cmd.ErrOrStderr(), result)
		}
		return nil
	}

	return getFormatter().FormatDownload(cmd.OutOrStdout(), result)
}
