package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] --owner <principal> <id1> [id2] ...",
	Short: "Delete fragments",
	Long: `Delete fragments of an owner by id, metadata and payload both.

Examples:
  # Remove one fragment
  fragments remove --owner user1@email.com 30a84843-0cd4-4975-95ba-b96112aea189

  # Remove every fragment of an owner
  fragments remove --owner user1@email.com --all`,
	RunE: runRemove,
}

var (
	removeOwner string
	removeAll   bool
	removeQuiet bool
)

func init() {
	removeCmd.Flags().StringVar(&removeOwner, "owner", "", "principal that owns the fragments")
	removeCmd.Flags().BoolVar(&removeAll, "all", false, "remove every fragment of the owner")
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-fragment output")
	_ = removeCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if !removeAll && len(args) == 0 {
		return errors.New("no fragment ids given (use --all to remove everything)")
	}

	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	manager, closeStores, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	owner := fragments.NewOwnerID(removeOwner)

	ids := args
	if removeAll {
		listing, listErr := manager.ByUser(ctx, owner, false)
		if listErr != nil {
			return fmt.Errorf("list fragments: %w", listErr)
		}
		ids = listing.IDs
	}

	removed, missing := 0, 0
	for _, id := range ids {
		if delErr := manager.Delete(ctx, owner, id); delErr != nil {
			if errors.Is(delErr, fragments.ErrNotFound) {
				missing++
				slog.Warn("fragment not found", "id", id)
				continue
			}
			return fmt.Errorf("remove %s: %w", id, delErr)
		}

		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", missing)
	return nil
}
