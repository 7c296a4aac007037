package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/treeofscience/internal/clipboard"
	"github.com/matsen/treeofscience/internal/export"
	"github.com/matsen/treeofscience/internal/opener"
	"github.com/matsen/treeofscience/internal/resolve"
)

// clipboardUnavailableMsg is the standard warning when clipboard is not available.
const clipboardUnavailableMsg = "clipboard unavailable (install wl-clipboard, xclip or xsel on Linux)"

var (
	openFlags   windowFlags
	openProgram string
	openCopy    bool
	openDryRun  bool
)

func init() {
	openFlags.register(openCmd)
	openCmd.Flags().StringVarP(&openProgram, "program", "p", "", "Program used to open URLs (default from config, else the system handler)")
	openCmd.Flags().BoolVar(&openCopy, "copy", false, "Copy the URLs to the system clipboard")
	openCmd.Flags().BoolVar(&openDryRun, "dry-run", false, "Resolve URLs without opening them")
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Open the ranked papers in a browser",
	Long: `Rank the sections of an ISI export and open each paper.

Labels carrying a DOI are resolved through the DOI handle server. Papers
without a DOI, or whose DOI is unknown, open as a web search for the label.

Examples:
  tos open savedrecs.txt --section root --count 3
  tos open savedrecs.txt --section trunk --program firefox
  tos open savedrecs.txt --dry-run --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

// OpenResult is the JSON output for tos open.
type OpenResult struct {
	Resolutions []resolve.Resolution `json:"resolutions"`
	Opened      int                  `json:"opened"`
	Copied      bool                 `json:"copied"`
	Warnings    []string             `json:"warnings,omitempty"`
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t := mustBuildTree(ctx, args[0])

	results, err := rankSections(t, openFlags)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	client := resolve.NewClient(
		resolve.WithBaseURL(cfg.Resolve.BaseURL),
		resolve.WithRateLimit(cfg.Resolve.RateLimit),
		resolve.WithTimeout(cfg.Resolve.Timeout),
	)
	resolutions, err := resolveResults(ctx, client, results)
	if err != nil {
		exitWithError(ExitError, "resolving URLs: %v", err)
	}

	out := OpenResult{Resolutions: resolutions}
	urls := make([]string, len(resolutions))
	for i, r := range resolutions {
		urls[i] = r.URL
		if r.Error != "" {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", r.DOI, r.Error))
		}
	}

	if !openDryRun {
		program := openProgram
		if program == "" {
			program = cfg.Open.Program
		}
		o := opener.NewOpener(program)
		for _, u := range urls {
			if err := o.Open(u); err != nil {
				exitWithError(ExitError, "opening %s: %v", u, err)
			}
			out.Opened++
		}
	}

	if openCopy {
		if err := clipboard.CopyLines(urls); err != nil {
			if errors.Is(err, clipboard.ErrClipboardUnavailable) {
				out.Warnings = append(out.Warnings, clipboardUnavailableMsg)
			} else {
				out.Warnings = append(out.Warnings, fmt.Sprintf("clipboard error: %v", err))
			}
		} else {
			out.Copied = true
		}
	}

	if humanOutput {
		for _, r := range out.Resolutions {
			fmt.Println(r.URL)
		}
		for _, w := range out.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if out.Copied {
			fmt.Fprintln(os.Stderr, "Copied to clipboard")
		}
		return nil
	}
	return outputJSON(out)
}

// resolveResults resolves every ranked label once, in result order.
func resolveResults(ctx context.Context, client *resolve.Client, results []export.Result) ([]resolve.Resolution, error) {
	seen := make(map[string]bool)
	var resolutions []resolve.Resolution
	for _, r := range results {
		for _, v := range r.Vertices {
			if seen[v.Label] {
				continue
			}
			seen[v.Label] = true

			res, err := client.Resolve(ctx, v.Label)
			if err != nil {
				return nil, err
			}
			logger.Debug("resolved label",
				zap.String("label", v.Label),
				zap.String("source", string(res.Source)),
				zap.String("url", res.URL))
			resolutions = append(resolutions, res)
		}
	}
	return resolutions, nil
}
