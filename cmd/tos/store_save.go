package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var storeSaveID string

func init() {
	storeSaveCmd.Flags().StringVar(&storeSaveID, "id", "", "Query id of the snapshot (default: file name without extension)")
	storeCmd.AddCommand(storeSaveCmd)
}

var storeSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Build a tree from an export and store it",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreSave,
}

func runStoreSave(cmd *cobra.Command, args []string) error {
	path := args[0]
	id := storeSaveID
	if id == "" {
		id = defaultQueryID(path)
	}

	t := mustBuildTree(cmd.Context(), path)
	db := mustOpenStore()
	defer db.Close()

	if err := db.SaveSnapshot(id, filepath.Base(path), t.Graph()); err != nil {
		exitWithError(ExitError, "saving snapshot: %v", err)
	}
	logger.Info("snapshot saved", zap.String("query_id", id), zap.Int("vertices", t.Graph().Len()))

	if humanOutput {
		outputHuman("Saved %s (%d vertices)\n", id, t.Graph().Len())
		return nil
	}
	return outputJSON(StatusResponse{Status: "saved", QueryID: id, Path: cfg.Store.Path})
}

// defaultQueryID names a snapshot after its export file.
func defaultQueryID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
