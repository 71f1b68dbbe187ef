package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var listExpand bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your fragments",
	Long: `List your fragments in creation order.

Examples:
  fragments-cli list
  fragments-cli list --expand
  fragments-cli list --expand --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listExpand, "expand", "e", false, "include metadata")
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{Expand: listExpand})
	if err != nil {
		return handleError(cmd.ErrOrStderr(), err)
	}

	return getFormatter().FormatList(cmd.OutOrStdout(), result)
}
