package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/treeofscience/internal/storage"
)

func init() {
	rootCmd.AddCommand(dedupeCmd)
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <file>",
	Short: "Report citation labels merged as near duplicates",
	Long: `Build the citation graph of an ISI export and list every label that was
merged into another one, with the label it was merged into.

The similarity, shared prefix and threshold come from the dedupe section of
the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runDedupe,
}

// DedupeResult is the JSON output for tos dedupe.
type DedupeResult struct {
	Similarity string                  `json:"similarity"`
	Threshold  float64                 `json:"threshold"`
	Pairs      []storage.DuplicatePair `json:"pairs"`
}

func runDedupe(cmd *cobra.Command, args []string) error {
	t := mustBuildTree(cmd.Context(), args[0])
	pairs := storage.DuplicatePairs(t.Graph().Duplicates())

	if humanOutput {
		if len(pairs) == 0 {
			outputHuman("No duplicate labels found\n")
			return nil
		}
		for _, p := range pairs {
			outputHuman("%s\n  -> %s\n", p.Duplicate, p.Canonical)
		}
		outputHuman("\n%d duplicate labels\n", len(pairs))
		return nil
	}
	return outputJSON(DedupeResult{
		Similarity: cfg.Dedupe.Similarity,
		Threshold:  cfg.Dedupe.Threshold,
		Pairs:      pairs,
	})
}
