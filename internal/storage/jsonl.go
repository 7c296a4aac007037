// Package storage persists citation graphs as JSONL exports and SQLite
// snapshots.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matsen/treeofscience/internal/citation"
	"github.com/matsen/treeofscience/internal/dedupe"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Export file names inside an export directory.
const (
	VerticesFile   = "vertices.jsonl"
	EdgesFile      = "edges.jsonl"
	DuplicatesFile = "duplicates.jsonl"
)

// DuplicatePair is one entry of the duplicate map on disk.
type DuplicatePair struct {
	Duplicate string `json:"duplicate"`
	Canonical string `json:"canonical"`
}

// readJSONL decodes one value per non-empty line.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", filepath.Base(path), lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return items, nil
}

// writeJSONL writes items to path, replacing existing content.
func writeJSONL[T any](path string, items []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}

	w := bufio.NewWriter(f)
	if err := encodeJSONL(w, items); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func encodeJSONL[T any](w io.Writer, items []T) error {
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding item %d: %w", i, err)
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// ReadAllVertices reads vertices from a JSONL file. A missing file yields no
// vertices.
func ReadAllVertices(path string) ([]citation.Vertex, error) {
	return readJSONL[citation.Vertex](path)
}

// ReadAllEdges reads edges from a JSONL file.
func ReadAllEdges(path string) ([]citation.Edge, error) {
	return readJSONL[citation.Edge](path)
}

// WriteAllVertices writes vertices to a JSONL file.
func WriteAllVertices(path string, vertices []citation.Vertex) error {
	return writeJSONL(path, vertices)
}

// WriteAllEdges writes edges to a JSONL file.
func WriteAllEdges(path string, edges []citation.Edge) error {
	return writeJSONL(path, edges)
}

// ExportGraph writes the vertices, edges and duplicate map of g into dir,
// creating it if needed. Duplicates are sorted by the duplicate label.
func ExportGraph(dir string, g *citation.Graph) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := WriteAllVertices(filepath.Join(dir, VerticesFile), g.Vertices()); err != nil {
		return err
	}
	if err := WriteAllEdges(filepath.Join(dir, EdgesFile), g.Edges()); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dir, DuplicatesFile), DuplicatePairs(g.Duplicates()))
}

// ImportGraph reads a graph written by ExportGraph.
func ImportGraph(dir string) (*citation.Graph, error) {
	vertices, err := ReadAllVertices(filepath.Join(dir, VerticesFile))
	if err != nil {
		return nil, err
	}
	edges, err := ReadAllEdges(filepath.Join(dir, EdgesFile))
	if err != nil {
		return nil, err
	}
	pairs, err := readJSONL[DuplicatePair](filepath.Join(dir, DuplicatesFile))
	if err != nil {
		return nil, err
	}

	dups := make(dedupe.Map, len(pairs))
	for _, p := range pairs {
		dups[p.Duplicate] = p.Canonical
	}
	return citation.Restore(vertices, edges, dups)
}

// DuplicatePairs flattens m, sorted by duplicate label.
func DuplicatePairs(m dedupe.Map) []DuplicatePair {
	pairs := make([]DuplicatePair, 0, len(m))
	for dup, canonical := range m {
		pairs = append(pairs, DuplicatePair{Duplicate: dup, Canonical: canonical})
	}
	slices.SortFunc(pairs, func(a, b DuplicatePair) int {
		return strings.Compare(a.Duplicate, b.Duplicate)
	})
	return pairs
}
