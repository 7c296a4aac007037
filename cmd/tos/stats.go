package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/treeofscience/internal/citation"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Show how an export was reduced to its citation tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

// StatsResult is the JSON output for tos stats.
type StatsResult struct {
	Stats                 citation.Stats `json:"stats"`
	IncompleteEntries     int            `json:"incomplete_entries"`
	CentralPointDominance float64        `json:"central_point_dominance"`
}

func runStats(cmd *cobra.Command, args []string) error {
	t := mustBuildTree(cmd.Context(), args[0])
	out := StatsResult{
		Stats:                 t.Graph().Stats(),
		IncompleteEntries:     len(t.Diagnostics()),
		CentralPointDominance: t.CentralPointDominance(),
	}

	if humanOutput {
		s := out.Stats
		outputHuman("Labels:           %d (%d merged as duplicates)\n", s.Labels, s.Duplicates)
		outputHuman("Citations:        %d (%d unique, %d self-citations dropped)\n", s.RawEdges, s.UniqueEdges, s.SelfCitations)
		outputHuman("Vertices:         %d (%d pruned)\n", s.Vertices, s.Pruned)
		outputHuman("Components:       %d\n", s.Components)
		outputHuman("Tree:             %d vertices, %d edges\n", s.GiantVertices, s.GiantEdges)
		outputHuman("Dominance:        %.4f\n", out.CentralPointDominance)
		if out.IncompleteEntries > 0 {
			outputHuman("Incomplete:       %d entries\n", out.IncompleteEntries)
		}
		return nil
	}
	return outputJSON(out)
}
