package main

import (
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Save and query citation trees in the snapshot store",
	Long: `Manage snapshots of built citation trees in a SQLite database.

A snapshot is keyed by a query id. Saving a snapshot replaces any earlier
one with the same id, and stored snapshots are ranked without re-parsing
the export. The database lives at store.path in the config file
(default $XDG_DATA_HOME/tos/snapshots.db).`,
}

var storeQueryID string

func init() {
	rootCmd.AddCommand(storeCmd)
}

// requireQueryID registers the --id flag on cmd.
func requireQueryID(cmd *cobra.Command) {
	cmd.Flags().StringVar(&storeQueryID, "id", "", "Query id of the snapshot (required)")
	_ = cmd.MarkFlagRequired("id")
}
