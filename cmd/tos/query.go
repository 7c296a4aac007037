package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/treeofscience/internal/export"
	"github.com/matsen/treeofscience/internal/storage"
	"github.com/matsen/treeofscience/internal/tree"
)

// defaultSections are the implemented tiers, in tree order.
var defaultSections = []string{string(tree.Root), string(tree.Trunk), string(tree.Leaves)}

// windowFlags are shared by every command that ranks a tree.
type windowFlags struct {
	sections []string
	offset   int
	count    int
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&w.sections, "section", "s", defaultSections, "Sections to rank: root, trunk, branch, leave")
	cmd.Flags().IntVar(&w.offset, "offset", 0, "Skip this many vertices per section")
	cmd.Flags().IntVarP(&w.count, "count", "n", DefaultCount, "Maximum vertices per section")
}

var (
	queryFlags      windowFlags
	queryFormat     string
	queryFromExport string
)

func init() {
	queryFlags.register(queryCmd)
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "json", "Output format: json, csv")
	queryCmd.Flags().StringVar(&queryFromExport, "from-export", "", "Rank a graph written by 'tos export' instead of parsing a file")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Rank the root, trunk and leaves of a citation export",
	Long: `Parse an ISI export, build its citation graph and rank each section.

Examples:
  tos query savedrecs.txt
  tos query savedrecs.txt --section trunk --count 20
  tos query savedrecs.txt --format csv > tree.csv
  tos query --from-export ./graph --section root`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(queryFormat)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var t *tree.Tree
	switch {
	case queryFromExport != "" && len(args) == 0:
		g, err := storage.ImportGraph(queryFromExport)
		if err != nil {
			exitWithError(ExitDataError, "importing %s: %v", queryFromExport, err)
		}
		t = tree.FromGraph(g)
	case queryFromExport == "" && len(args) == 1:
		t = mustBuildTree(cmd.Context(), args[0])
	default:
		exitWithError(ExitError, "give either an export file or --from-export")
	}

	results, err := rankSections(t, queryFlags)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return writeResults(format, results)
}

// rankSections queries every requested section of t.
func rankSections(t *tree.Tree, w windowFlags) ([]export.Result, error) {
	results := make([]export.Result, 0, len(w.sections))
	for _, name := range w.sections {
		section, err := tree.ParseSection(name)
		if err != nil {
			return nil, err
		}
		vertices, err := t.Query(string(section), w.offset, w.count)
		if err != nil {
			return nil, err
		}
		results = append(results, export.Result{
			Section:  section,
			Offset:   w.offset,
			Count:    w.count,
			Vertices: vertices,
		})
	}
	return results, nil
}

// writeResults prints results as a table with --human and in format otherwise.
func writeResults(format export.Format, results []export.Result) error {
	if humanOutput && format == export.FormatJSON {
		outputHuman("%s", formatResultsHuman(results))
		return nil
	}
	return export.Write(os.Stdout, format, results)
}

