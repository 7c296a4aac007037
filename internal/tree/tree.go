// Package tree builds a Tree of Science from a bibliographic export and
// answers ranked queries for its structural sections: the root (foundational
// works), the trunk (structural works) and the leaves (recent works).
package tree

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/treeofscience/internal/citation"
	"github.com/matsen/treeofscience/internal/dedupe"
	"github.com/matsen/treeofscience/internal/interpreter"
)

// Config holds the input data and build options of a tree.
type Config struct {
	// Data is the raw export text.
	Data       string
	Duplicates dedupe.Options
	// Workers bounds the goroutines used while building. Zero or one builds
	// sequentially.
	Workers int
	Logger  *zap.Logger
}

// Diagnostic reports an entry whose label is incomplete.
type Diagnostic = interpreter.Diagnostic

// Tree is a built citation graph ready for queries. It is safe for
// concurrent use.
type Tree struct {
	graph       *citation.Graph
	diagnostics []Diagnostic
}

// New builds a tree from cfg.Data using interpreter i.
func New(i interpreter.Interpreter, cfg Config) (*Tree, error) {
	return NewContext(context.Background(), i, cfg)
}

// NewFromValue checks that v provides every interpreter capability before
// building.
func NewFromValue(v any, cfg Config) (*Tree, error) {
	i, err := interpreter.Check(v)
	if err != nil {
		return nil, err
	}
	return NewContext(context.Background(), i, cfg)
}

// NewContext is New with a context that can cancel parsing and betweenness.
func NewContext(ctx context.Context, i interpreter.Interpreter, cfg Config) (*Tree, error) {
	checked, err := interpreter.Check(i)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := interpreter.ParseConcurrent(ctx, checked, cfg.Data, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("parsing entries: %w", err)
	}
	labels, diagnostics := interpreter.LabelList(records, checked)
	edges, _ := interpreter.EdgeRelations(records, checked)
	for _, d := range diagnostics {
		logger.Warn("incomplete entry label",
			zap.Int("entry", d.Index+1),
			zap.String("label", d.Label),
			zap.Error(d.Err))
	}
	logger.Debug("entries parsed",
		zap.Int("entries", len(records)),
		zap.Int("labels", len(labels)),
		zap.Int("edges", len(edges)))

	g, err := citation.Build(ctx, labels, edges, citation.Options{
		Duplicates: cfg.Duplicates,
		Workers:    cfg.Workers,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building citation graph: %w", err)
	}
	return &Tree{graph: g, diagnostics: diagnostics}, nil
}

// FromGraph wraps an already built graph, such as a stored snapshot.
func FromGraph(g *citation.Graph) *Tree {
	return &Tree{graph: g}
}

// Graph returns the underlying citation graph.
func (t *Tree) Graph() *citation.Graph { return t.graph }

// Diagnostics returns the incomplete entries found while building.
func (t *Tree) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), t.diagnostics...)
}

// CentralPointDominance reports how strongly the graph is dominated by its
// most central vertex. It does not affect trunk selection.
func (t *Tree) CentralPointDominance() float64 {
	return t.graph.CentralPointDominance()
}
