package citation

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matsen/treeofscience/internal/dedupe"
	"github.com/matsen/treeofscience/internal/interpreter"
)

// Options configures Build.
type Options struct {
	Duplicates dedupe.Options
	// Workers bounds the goroutines used for duplicate scoring and betweenness.
	Workers int
	Logger  *zap.Logger
}

// Build deduplicates labels, wires the citation edges between canonical
// labels, prunes vertices that are cited once and cite nothing, keeps the
// largest weakly connected component and computes betweenness on it.
//
// Edge endpoints missing from labels are added to the label universe.
func Build(ctx context.Context, labels []string, edges []interpreter.Edge, opts Options) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Duplicates.Workers == 0 {
		opts.Duplicates.Workers = opts.Workers
	}

	var stats Stats
	universe := append([]string(nil), labels...)
	for _, e := range edges {
		universe = append(universe, e.Source, e.Target)
	}
	universe = uniqueSorted(universe)
	stats.Labels = len(universe)

	duplicates := dedupe.Detect(universe, opts.Duplicates)
	stats.Duplicates = len(duplicates)
	logger.Debug("duplicates detected",
		zap.Int("labels", stats.Labels),
		zap.Int("duplicates", stats.Duplicates))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canonical := uniqueSorted(dedupe.PatchList(universe, duplicates))
	stats.Vertices = len(canonical)
	ids := make(map[string]int64, len(canonical))
	dg := simple.NewDirectedGraph()
	for i, label := range canonical {
		ids[label] = int64(i)
		dg.AddNode(simple.Node(i))
	}

	pairs := make([][2]string, len(edges))
	for i, e := range edges {
		pairs[i] = [2]string{e.Source, e.Target}
	}
	stats.RawEdges = len(pairs)
	// simple.DirectedGraph rejects self edges, so loops created by collapsing
	// duplicates are kept aside and counted in both degrees.
	loops := make(map[int64]bool)
	for _, p := range dedupe.PatchPairs(pairs, duplicates) {
		from, to := ids[p[0]], ids[p[1]]
		if from == to {
			if !loops[from] {
				loops[from] = true
				stats.SelfCitations++
				stats.UniqueEdges++
			}
			continue
		}
		if dg.HasEdgeFromTo(from, to) {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
		stats.UniqueEdges++
	}

	// Degrees are taken on the unpruned graph and all matches removed at once.
	var pruned []int64
	for i := range canonical {
		id := int64(i)
		in, out := dg.To(id).Len(), dg.From(id).Len()
		if loops[id] {
			in++
			out++
		}
		if in == 1 && out == 0 {
			pruned = append(pruned, id)
		}
	}
	for _, id := range pruned {
		dg.RemoveNode(id)
	}
	stats.Pruned = len(pruned)

	components := topo.ConnectedComponents(graph.Undirect{G: dg})
	stats.Components = len(components)
	giant := largestComponent(components)
	logger.Debug("graph pruned",
		zap.Int("pruned", stats.Pruned),
		zap.Int("components", stats.Components),
		zap.Int("giant", len(giant)))

	g := compact(dg, giant, canonical, loops)
	g.duplicates = duplicates
	stats.GiantVertices = len(g.vertices)
	stats.GiantEdges = len(g.edges)
	g.stats = stats

	if err := computeBetweenness(ctx, g, opts.Workers); err != nil {
		return nil, fmt.Errorf("computing betweenness: %w", err)
	}
	logger.Info("citation graph built",
		zap.Int("vertices", stats.GiantVertices),
		zap.Int("edges", stats.GiantEdges),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("pruned", stats.Pruned))
	return g, nil
}

// largestComponent returns the sorted IDs of the biggest component. Ties go to
// the component holding the smallest ID.
func largestComponent(components [][]graph.Node) []int64 {
	var best []int64
	for _, c := range components {
		ids := make([]int64, len(c))
		for i, n := range c {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		if len(ids) > len(best) || (len(ids) == len(best) && len(ids) > 0 && ids[0] < best[0]) {
			best = ids
		}
	}
	return best
}

// compact renumbers the kept vertices densely, preserving label order, and
// collects their edges sorted by (From, To). Vertices in loops get a self
// edge.
func compact(dg *simple.DirectedGraph, keep []int64, labels []string, loops map[int64]bool) *Graph {
	index := make(map[int64]int, len(keep))
	for i, id := range keep {
		index[id] = i
	}

	g := &Graph{
		vertices: make([]Vertex, len(keep)),
		out:      make([][]arc, len(keep)),
	}
	for i, id := range keep {
		g.vertices[i] = Vertex{ID: i, Label: labels[id]}

		var targets []int
		if loops[id] {
			targets = append(targets, i)
		}
		for _, n := range graph.NodesOf(dg.From(id)) {
			targets = append(targets, index[n.ID()])
		}
		sort.Ints(targets)
		for _, to := range targets {
			g.out[i] = append(g.out[i], arc{to: to, edge: len(g.edges)})
			g.edges = append(g.edges, Edge{From: i, To: to})
			g.vertices[i].OutDegree++
		}
	}
	for _, e := range g.edges {
		g.vertices[e.To].InDegree++
	}
	return g
}

func uniqueSorted(items []string) []string {
	sort.Strings(items)
	return slices.Compact(items)
}
