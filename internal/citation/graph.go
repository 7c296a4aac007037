// Package citation builds the deduplicated citation graph of a corpus and
// computes its structural statistics.
package citation

import (
	"errors"
	"fmt"

	"github.com/matsen/treeofscience/internal/dedupe"
)

// ErrInvalidGraph is returned when restoring a graph from inconsistent data.
var ErrInvalidGraph = errors.New("invalid citation graph")

// Vertex is a canonical label in the graph.
type Vertex struct {
	ID          int     `json:"id"`
	Label       string  `json:"label"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
	Betweenness float64 `json:"betweenness"`
}

// Edge is a citation between two vertices: From cites To.
type Edge struct {
	From        int     `json:"from"`
	To          int     `json:"to"`
	Betweenness float64 `json:"betweenness"`
}

// Stats counts what each construction stage kept.
type Stats struct {
	Labels        int `json:"labels"`         // Label universe before deduplication
	Duplicates    int `json:"duplicates"`     // Labels collapsed into another
	Vertices      int `json:"vertices"`       // Canonical labels
	RawEdges      int `json:"raw_edges"`      // Citations including repeats
	UniqueEdges   int `json:"unique_edges"`   // Distinct citations after patching
	SelfCitations int `json:"self_citations"` // Loops created by collapsing, kept as edges
	Pruned        int `json:"pruned"`         // Vertices cited once and citing nothing
	Components    int `json:"components"`     // Weak components after pruning
	GiantVertices int `json:"giant_vertices"`
	GiantEdges    int `json:"giant_edges"`
}

// Graph is an immutable citation graph. Vertex IDs are dense, 0..Len()-1,
// and follow the lexical order of their labels.
type Graph struct {
	vertices   []Vertex
	edges      []Edge
	out        [][]arc
	duplicates dedupe.Map
	stats      Stats
}

// arc is an outgoing adjacency entry.
type arc struct {
	to   int
	edge int
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// Vertex returns the vertex with the given ID.
func (g *Graph) Vertex(id int) Vertex { return g.vertices[id] }

// Vertices returns a copy of all vertices in ID order.
func (g *Graph) Vertices() []Vertex {
	return append([]Vertex(nil), g.vertices...)
}

// Edges returns a copy of all edges ordered by (From, To).
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Duplicates returns the substitution map used to build the graph.
func (g *Graph) Duplicates() dedupe.Map { return g.duplicates }

// Stats returns the construction counters.
func (g *Graph) Stats() Stats { return g.stats }

// CentralPointDominance returns Freeman's central point dominance, the mean
// difference between the most central vertex and every other vertex, using
// betweenness normalised for directed graphs. Graphs with fewer than three
// vertices have dominance 0.
func (g *Graph) CentralPointDominance() float64 {
	n := len(g.vertices)
	if n < 3 {
		return 0
	}
	maxB := 0.0
	for _, v := range g.vertices {
		maxB = max(maxB, v.Betweenness)
	}
	norm := float64((n - 1) * (n - 2))
	sum := 0.0
	for _, v := range g.vertices {
		sum += (maxB - v.Betweenness) / norm
	}
	return sum / float64(n-1)
}

// Restore rebuilds a graph from previously computed vertices and edges, for
// example a stored snapshot. Vertex IDs must be dense and in order.
// duplicates may be nil.
func Restore(vertices []Vertex, edges []Edge, duplicates dedupe.Map) (*Graph, error) {
	for i, v := range vertices {
		if v.ID != i {
			return nil, fmt.Errorf("%w: vertex %d has id %d", ErrInvalidGraph, i, v.ID)
		}
	}
	g := &Graph{
		vertices:   append([]Vertex(nil), vertices...),
		edges:      append([]Edge(nil), edges...),
		duplicates: dedupe.Map{},
	}
	for dup, canonical := range duplicates {
		g.duplicates[dup] = canonical
	}
	g.out = make([][]arc, len(vertices))
	for i, e := range g.edges {
		if e.From < 0 || e.From >= len(vertices) || e.To < 0 || e.To >= len(vertices) {
			return nil, fmt.Errorf("%w: edge %d (%d -> %d) out of range", ErrInvalidGraph, i, e.From, e.To)
		}
		g.out[e.From] = append(g.out[e.From], arc{to: e.To, edge: i})
	}
	g.stats = Stats{
		Duplicates:    len(duplicates),
		Vertices:      len(vertices),
		UniqueEdges:   len(edges),
		GiantVertices: len(vertices),
		GiantEdges:    len(edges),
	}
	return g, nil
}

// WithStats returns a copy of g reporting s, such as the counters stored with
// a snapshot. Vertices and edges are shared.
func (g *Graph) WithStats(s Stats) *Graph {
	c := *g
	c.stats = s
	return &c
}
