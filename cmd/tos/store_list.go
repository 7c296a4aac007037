package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/treeofscience/internal/storage"
)

func init() {
	storeCmd.AddCommand(storeListCmd)
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

func runStoreList(cmd *cobra.Command, args []string) error {
	db := mustOpenStore()
	defer db.Close()

	infos, err := db.ListSnapshots()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if infos == nil {
		infos = []storage.SnapshotInfo{}
	}

	if humanOutput {
		if len(infos) == 0 {
			outputHuman("No snapshots stored\n")
			return nil
		}
		for _, info := range infos {
			outputHuman("%-24s %5d vertices %6d edges  %s  (%s)\n",
				info.QueryID, info.Vertices, info.Edges,
				info.CreatedAt.Local().Format("2006-01-02 15:04"), info.Source)
		}
		return nil
	}
	return outputJSON(infos)
}
