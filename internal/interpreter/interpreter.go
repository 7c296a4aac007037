// Package interpreter defines the capabilities a bibliographic format must
// provide and the composite operations built on top of them.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/treeofscience/internal/record"
)

// ErrCapabilityMismatch is returned when a value does not implement every
// capability of Interpreter.
var ErrCapabilityMismatch = errors.New("interpreter capability mismatch")

// Splitter splits a document into entry texts.
type Splitter interface {
	SplitEntries(text string) []string
}

// EntryParser parses a single entry text.
type EntryParser interface {
	ParseEntry(text string) *record.Record
}

// Labeler derives the label of an entry. A non-nil error describes a data
// quality problem; the returned label is still usable.
type Labeler interface {
	EntryLabel(rec *record.Record) (string, error)
}

// ReferenceExtractor returns the labels an entry cites.
type ReferenceExtractor interface {
	ReferencedLabels(rec *record.Record) []string
}

// Interpreter is the full capability set needed to build a citation graph.
type Interpreter interface {
	Splitter
	EntryParser
	Labeler
	ReferenceExtractor
}

// Check returns v as an Interpreter, or an error naming every missing
// capability.
func Check(v any) (Interpreter, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil interpreter", ErrCapabilityMismatch)
	}
	var missing []string
	if _, ok := v.(Splitter); !ok {
		missing = append(missing, "SplitEntries")
	}
	if _, ok := v.(EntryParser); !ok {
		missing = append(missing, "ParseEntry")
	}
	if _, ok := v.(Labeler); !ok {
		missing = append(missing, "EntryLabel")
	}
	if _, ok := v.(ReferenceExtractor); !ok {
		missing = append(missing, "ReferencedLabels")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %T lacks %s", ErrCapabilityMismatch, v, strings.Join(missing, ", "))
	}
	return v.(Interpreter), nil
}

// Edge is a citation: Source cites Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Diagnostic is a per-record data quality report.
type Diagnostic struct {
	Index int    `json:"index"` // Position of the record in the document
	Label string `json:"label"` // Best-effort label
	Err   error  `json:"-"`
}

// Error implements error.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", d.Index+1, d.Label, d.Err)
}

// Unwrap returns the underlying error.
func (d Diagnostic) Unwrap() error { return d.Err }

// Parse splits text into entries and parses each of them in document order.
func Parse(i Interpreter, text string) []*record.Record {
	entries := i.SplitEntries(text)
	records := make([]*record.Record, len(entries))
	for n, entry := range entries {
		records[n] = i.ParseEntry(entry)
	}
	return records
}

// ParseReader reads the whole of r and parses it like Parse.
func ParseReader(i Interpreter, r io.Reader) ([]*record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return Parse(i, string(data)), nil
}

// ParseConcurrent is Parse with entries parsed by up to workers goroutines.
// The result is identical to Parse.
func ParseConcurrent(ctx context.Context, i Interpreter, text string, workers int) ([]*record.Record, error) {
	entries := i.SplitEntries(text)
	if workers <= 1 || len(entries) < 2 {
		records := make([]*record.Record, len(entries))
		for n, entry := range entries {
			records[n] = i.ParseEntry(entry)
		}
		return records, ctx.Err()
	}

	records := make([]*record.Record, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for n, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[n] = i.ParseEntry(entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// EdgeRelations pairs each record's label with every label it references,
// in record order. Duplicate pairs are kept.
func EdgeRelations(records []*record.Record, i Interpreter) ([]Edge, []Diagnostic) {
	var edges []Edge
	var diags []Diagnostic
	for n, rec := range records {
		label, err := i.EntryLabel(rec)
		if err != nil {
			diags = append(diags, Diagnostic{Index: n, Label: label, Err: err})
		}
		for _, ref := range i.ReferencedLabels(rec) {
			edges = append(edges, Edge{Source: label, Target: ref})
		}
	}
	return edges, diags
}

// LabelList returns the sorted set of entry labels and referenced labels.
func LabelList(records []*record.Record, i Interpreter) ([]string, []Diagnostic) {
	seen := make(map[string]bool)
	var diags []Diagnostic
	for n, rec := range records {
		label, err := i.EntryLabel(rec)
		if err != nil {
			diags = append(diags, Diagnostic{Index: n, Label: label, Err: err})
		}
		seen[label] = true
		for _, ref := range i.ReferencedLabels(rec) {
			seen[ref] = true
		}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, diags
}
