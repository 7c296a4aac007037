package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/treeofscience/internal/citation"
	"github.com/matsen/treeofscience/internal/storage"
)

var exportDir string

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "Directory to write the JSONL files into (required)")
	_ = exportCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the citation graph as JSONL",
	Long: `Build the citation graph of an ISI export and write it into a directory:

  vertices.jsonl    one vertex per line with degrees and betweenness
  edges.jsonl       one citation per line with edge betweenness
  duplicates.jsonl  merged labels

The directory can be ranked later with 'tos query --from-export'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

// ExportResult is the JSON output for tos export.
type ExportResult struct {
	Dir   string         `json:"dir"`
	Stats citation.Stats `json:"stats"`
}

func runExport(cmd *cobra.Command, args []string) error {
	t := mustBuildTree(cmd.Context(), args[0])
	g := t.Graph()
	if err := storage.ExportGraph(exportDir, g); err != nil {
		exitWithError(ExitError, "exporting graph: %v", err)
	}

	if humanOutput {
		s := g.Stats()
		outputHuman("Exported %d vertices and %d edges to %s\n", s.GiantVertices, s.GiantEdges, exportDir)
		return nil
	}
	return outputJSON(ExportResult{Dir: exportDir, Stats: g.Stats()})
}
