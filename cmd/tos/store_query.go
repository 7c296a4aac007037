package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/matsen/treeofscience/internal/export"
	"github.com/matsen/treeofscience/internal/storage"
	"github.com/matsen/treeofscience/internal/tree"
)

var (
	storeQueryFlags  windowFlags
	storeQueryFormat string
)

func init() {
	requireQueryID(storeQueryCmd)
	storeQueryFlags.register(storeQueryCmd)
	storeQueryCmd.Flags().StringVarP(&storeQueryFormat, "format", "f", "json", "Output format: json, csv")
	storeCmd.AddCommand(storeQueryCmd)
}

var storeQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank the sections of a stored snapshot",
	Long: `Rank the sections of a stored snapshot without re-parsing its export.

Examples:
  tos store query --id savedrecs
  tos store query --id savedrecs --section trunk --offset 10 --count 10`,
	Args: cobra.NoArgs,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(storeQueryFormat)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	db := mustOpenStore()
	defer db.Close()

	g, err := db.LoadSnapshot(storeQueryID)
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			exitWithError(ExitNotFound, "no snapshot for %q, run 'tos store save' first", storeQueryID)
		}
		exitWithError(ExitDataError, "loading snapshot: %v", err)
	}

	results, err := rankSections(tree.FromGraph(g), storeQueryFlags)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return writeResults(format, results)
}
