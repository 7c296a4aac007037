package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/treeofscience/internal/export"
)

// Constants for output formatting.
const (
	DefaultCount = 10 // Default number of vertices per section

	LabelMaxLen = 90 // Label truncation in human-readable tables
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status  string `json:"status"`
	QueryID string `json:"query_id,omitempty"`
	Path    string `json:"path,omitempty"`
}

// formatResultsHuman renders ranked sections as lists numbered from 1.
func formatResultsHuman(results []export.Result) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s (%d)\n", strings.ToUpper(string(r.Section)), len(r.Vertices)))
		for _, v := range r.Vertices {
			sb.WriteString(fmt.Sprintf("%4d. [%s] %s\n", v.Rank+1, formatScore(v.Score), truncateString(v.Label, LabelMaxLen)))
		}
	}
	return sb.String()
}

// formatScore prints integral scores without a fraction.
func formatScore(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
