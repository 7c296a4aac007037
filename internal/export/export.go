// Package export renders ranked tree sections for other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/treeofscience/internal/tree"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: json, csv)", ErrUnknownFormat, name)
	}
}

// Header is the CSV header row.
var Header = []string{
	"section", "rank", "reverse_rank", "label", "degree", "score",
	"in_degree", "out_degree", "betweenness",
}

// Result is one section's ranked vertices.
type Result struct {
	Section  tree.Section  `json:"section"`
	Offset   int           `json:"offset"`
	Count    int           `json:"count"`
	Vertices []tree.Vertex `json:"vertices"`
}

// Write encodes results to w in the given format.
func Write(w io.Writer, format Format, results []Result) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatCSV:
		return WriteCSV(w, results)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteCSV writes one row per ranked vertex, preceded by Header.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		for _, v := range r.Vertices {
			row := []string{
				string(r.Section),
				strconv.Itoa(v.Rank),
				strconv.Itoa(v.ReverseRank),
				v.Label,
				strconv.Itoa(v.Degree),
				strconv.FormatFloat(v.Score, 'g', -1, 64),
				strconv.Itoa(v.InDegree),
				strconv.Itoa(v.OutDegree),
				strconv.FormatFloat(v.Betweenness, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
