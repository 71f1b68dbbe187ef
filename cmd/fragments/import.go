package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] --owner <principal> <file1> [file2] ...",
	Short: "Create fragments from local files",
	Long: `Create one fragment per file for the given owner.

The owner is the principal the HTTP API authenticates (user name, email
or access key). The content type comes from the file extension unless
--type is set.

Examples:
  # Import a single markdown file
  fragments import --owner user1@email.com notes.md

  # Import a directory recursively
  fragments import --owner user1@email.com -r ./docs

  # Force a content type
  fragments import --owner user1@email.com --type "text/plain; charset=utf-8" README`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var (
	importOwner     string
	importType      string
	importRecursive bool
	importQuiet     bool
)

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "principal that will own the fragments")
	importCmd.Flags().StringVarP(&importType, "type", "t", "", "content type for every file (default: from extension)")
	importCmd.Flags().BoolVarP(&importRecursive, "recursive", "r", false, "recursively import directories")
	importCmd.Flags().BoolVarP(&importQuiet, "quiet", "q", false, "suppress per-file output")
	_ = importCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
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

	var files []string
	for _, arg := range args {
		collected, collectErr := collectFiles(arg, importRecursive)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, collected...)
	}

	created, err := importFiles(ctx, manager, fragments.NewOwnerID(importOwner), files, importType, cmd.OutOrStdout(), importQuiet)
	if err != nil {
		return err
	}

	slog.Info("import complete", "created", created)
	return nil
}

// importFiles creates a fragment per file and prints "<id>\t<path>" lines to out.
func importFiles(ctx context.Context, manager *fragments.Manager, owner fragments.OwnerID, files []string, contentType string, out io.Writer, quiet bool) (int, error) {
	created := 0
	for _, path := range files {
		ct := contentType
		if ct == "" {
			var ok bool
			ct, ok = fragments.TypeForExtension(filepath.Ext(path))
			if !ok {
				return created, fmt.Errorf("import %s: %w: no content type for extension %q", path, fragments.ErrUnsupportedType, filepath.Ext(path))
			}
		}

		data, err := os.ReadFile(path) //nolint:gosec // Paths come from the command line
		if err != nil {
			return created, fmt.Errorf("import %s: %w", path, err)
		}

		f, err := manager.Create(ctx, owner, ct, data)
		if err != nil {
			return created, fmt.Errorf("import %s: %w", path, err)
		}
		created++

		if !quiet {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", f.ID, path)
		}
	}
	return created, nil
}

// collectFiles returns path itself, or every regular file below it when it is a
// directory and recursive is set.
func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to import recursively)", path)
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			files = append(files, walkPath)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}
