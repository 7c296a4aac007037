package citation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matsen/treeofscience/internal/dedupe"
	"github.com/matsen/treeofscience/internal/interpreter"
	"github.com/matsen/treeofscience/internal/isi"
)

const (
	abuReidah = "Abu-Reidah IM, 2013, J CHROMATOGR A, V1313, P212, DOI 10.1016/j.chroma.2013.07.020"
	kim       = "Kim J, 2013, FOOD CHEM, V137, P68, DOI 10.1016/j.foodchem.2012.10.01"
	medina    = "Medina-Cleghorn D, 2014, ACS CHEM BIOL, V9, P423, DOI 10.1021/cb400796c"
	pereira   = "Pereira SI, 2014, FOOD CHEM, V154, P291, DOI 10.1016/j.foodchem.2014.01.019"
	toyooka   = "Toyo'oka T, 2015, J CHROMATOGR SCI, V53, P233"
	zhang     = "Zhang XT, 2016, J AGR FOOD CHEM, V64, P1020, DOI 10.1021/jf104335z"
	deBekker  = "de Bekker C, 2013, PLOS ONE, V8, pE70609, DOI 10.1371/journal.pone.0070609"
)

func buildSample(t *testing.T, workers int) *Graph {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "isi", "testdata", "sample.txt"))
	if err != nil {
		t.Fatalf("reading sample: %v", err)
	}
	in := isi.New()
	records := interpreter.Parse(in, string(data))
	labels, _ := interpreter.LabelList(records, in)
	edges, _ := interpreter.EdgeRelations(records, in)

	g, err := Build(context.Background(), labels, edges, Options{
		Duplicates: dedupe.DefaultOptions(),
		Workers:    workers,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func TestBuild_Sample(t *testing.T) {
	g := buildSample(t, 1)

	wantLabels := []string{abuReidah, kim, medina, pereira, toyooka, zhang, deBekker}
	var gotLabels []string
	for _, v := range g.Vertices() {
		gotLabels = append(gotLabels, v.Label)
	}
	if !reflect.DeepEqual(gotLabels, wantLabels) {
		t.Fatalf("vertices = %q\nwant %q", gotLabels, wantLabels)
	}

	wantIn := []int{4, 3, 0, 1, 1, 0, 0}
	wantOut := []int{0, 0, 2, 2, 1, 2, 2}
	wantBetweenness := []float64{0, 0, 0, 3, 2, 0, 0}
	for i, v := range g.Vertices() {
		if v.InDegree != wantIn[i] || v.OutDegree != wantOut[i] {
			t.Errorf("%s: degree in=%d out=%d, want in=%d out=%d",
				v.Label, v.InDegree, v.OutDegree, wantIn[i], wantOut[i])
		}
		if v.Betweenness != wantBetweenness[i] {
			t.Errorf("%s: betweenness = %v, want %v", v.Label, v.Betweenness, wantBetweenness[i])
		}
	}

	wantEdges := map[[2]int]float64{
		{2, 0}: 1, {2, 1}: 1, // Medina
		{3, 0}: 2, {3, 1}: 3, // Pereira
		{4, 3}: 5,            // Toyo'oka
		{5, 0}: 1, {5, 4}: 3, // Zhang
		{6, 0}: 1, {6, 1}: 1, // de Bekker
	}
	edges := g.Edges()
	if len(edges) != len(wantEdges) {
		t.Fatalf("got %d edges, want %d", len(edges), len(wantEdges))
	}
	for _, e := range edges {
		want, ok := wantEdges[[2]int{e.From, e.To}]
		if !ok {
			t.Errorf("unexpected edge %d -> %d", e.From, e.To)
			continue
		}
		if e.Betweenness != want {
			t.Errorf("edge %d -> %d betweenness = %v, want %v", e.From, e.To, e.Betweenness, want)
		}
	}
}

func TestBuild_SampleStats(t *testing.T) {
	g := buildSample(t, 1)

	want := Stats{
		Labels:        13,
		Duplicates:    1,
		Vertices:      12,
		RawEdges:      13,
		UniqueEdges:   13,
		Pruned:        2,
		Components:    2,
		GiantVertices: 7,
		GiantEdges:    9,
	}
	if got := g.Stats(); got != want {
		t.Errorf("Stats() = %+v\nwant %+v", got, want)
	}
	if got := g.Duplicates().Resolve(kim + "2"); got != kim {
		t.Errorf("duplicate Kim label resolves to %q", got)
	}
}

func TestBuild_SelfCitationKeptAsLoop(t *testing.T) {
	const (
		alpha  = "Alpha A, 2001, J TEST, V1, P1"
		alpha2 = "Alpha A, 2001, J TEST, V1, P2"
		beta   = "Beta B, 2002, J TEST, V2, P5"
		gamma  = "Gamma C, 2003, J TEST, V3, P9"
	)
	edges := []interpreter.Edge{
		{Source: alpha, Target: alpha2},
		{Source: beta, Target: alpha},
		{Source: gamma, Target: beta},
	}
	opts := Options{Duplicates: dedupe.Options{Similarity: dedupe.JaroWinkler, SharedPrefix: 2, Threshold: 0.9}}
	g, err := Build(context.Background(), []string{alpha, beta, gamma}, edges, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// The loop counts once in each direction, so Alpha is neither pruned
	// nor a candidate root.
	wantVertices := []struct {
		label       string
		in, out     int
		betweenness float64
	}{
		{alpha, 2, 1, 0},
		{beta, 1, 1, 1},
		{gamma, 0, 1, 0},
	}
	if g.Len() != len(wantVertices) {
		t.Fatalf("Len() = %d, want %d", g.Len(), len(wantVertices))
	}
	for i, w := range wantVertices {
		v := g.Vertex(i)
		if v.Label != w.label || v.InDegree != w.in || v.OutDegree != w.out || v.Betweenness != w.betweenness {
			t.Errorf("vertex %d = %+v, want %s in=%d out=%d b=%v", i, v, w.label, w.in, w.out, w.betweenness)
		}
	}

	wantEdges := []Edge{
		{From: 0, To: 0, Betweenness: 0},
		{From: 1, To: 0, Betweenness: 2},
		{From: 2, To: 1, Betweenness: 2},
	}
	if !reflect.DeepEqual(g.Edges(), wantEdges) {
		t.Errorf("Edges() = %+v, want %+v", g.Edges(), wantEdges)
	}

	s := g.Stats()
	if s.SelfCitations != 1 || s.UniqueEdges != 3 || s.Pruned != 0 || s.GiantEdges != 3 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestBuild_LoopOnlyVertexNotPruned(t *testing.T) {
	edges := []interpreter.Edge{
		{Source: "paper one", Target: "paper onf"},
		{Source: "paper one", Target: "paper onf"},
	}
	opts := Options{Duplicates: dedupe.Options{Similarity: dedupe.JaroWinkler, SharedPrefix: 2, Threshold: 0.9}}
	g, err := Build(context.Background(), nil, edges, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	if v := g.Vertex(0); v.InDegree != 1 || v.OutDegree != 1 {
		t.Errorf("vertex = %+v, want in=1 out=1", v)
	}
	if s := g.Stats(); s.SelfCitations != 1 || s.RawEdges != 2 || s.UniqueEdges != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestBuild_RepeatedEdgesCollapse(t *testing.T) {
	edges := []interpreter.Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "b"},
		{Source: "c", Target: "b"},
	}
	g, err := Build(context.Background(), nil, edges, Options{Duplicates: dedupe.Options{SharedPrefix: 5, Threshold: 2}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s := g.Stats(); s.RawEdges != 3 || s.UniqueEdges != 2 {
		t.Errorf("RawEdges = %d, UniqueEdges = %d; want 3, 2", s.RawEdges, s.UniqueEdges)
	}
}

func TestBuild_Empty(t *testing.T) {
	g, err := Build(context.Background(), nil, nil, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.Len() != 0 || len(g.Edges()) != 0 {
		t.Errorf("empty input produced %d vertices and %d edges", g.Len(), len(g.Edges()))
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, []string{"a"}, []interpreter.Edge{{Source: "a", Target: "b"}}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestLargestComponent_TieGoesToSmallestID(t *testing.T) {
	components := [][]graph.Node{
		{simple.Node(3), simple.Node(2)},
		{simple.Node(1), simple.Node(0)},
		{simple.Node(4)},
	}
	if got := largestComponent(components); !reflect.DeepEqual(got, []int64{0, 1}) {
		t.Errorf("largestComponent() = %v, want [0 1]", got)
	}
	if got := largestComponent(nil); len(got) != 0 {
		t.Errorf("largestComponent(nil) = %v, want empty", got)
	}
}

func TestCompact_PreservesLabelOrder(t *testing.T) {
	dg := simple.NewDirectedGraph()
	for i := 0; i < 4; i++ {
		dg.AddNode(simple.Node(i))
	}
	dg.SetEdge(dg.NewEdge(simple.Node(3), simple.Node(1)))
	dg.SetEdge(dg.NewEdge(simple.Node(1), simple.Node(0)))

	g := compact(dg, []int64{0, 1, 3}, []string{"a", "b", "c", "d"}, map[int64]bool{3: true})

	var labels []string
	for _, v := range g.Vertices() {
		labels = append(labels, v.Label)
	}
	if !reflect.DeepEqual(labels, []string{"a", "b", "d"}) {
		t.Errorf("labels = %v, want [a b d]", labels)
	}
	want := []Edge{{From: 1, To: 0}, {From: 2, To: 1}, {From: 2, To: 2}}
	if !reflect.DeepEqual(g.Edges(), want) {
		t.Errorf("Edges() = %+v, want %+v", g.Edges(), want)
	}
	if v := g.Vertex(2); v.InDegree != 1 || v.OutDegree != 2 {
		t.Errorf("looped vertex = %+v, want in=1 out=2", v)
	}
}

func randomGraph(n, m int, seed int64) ([]Vertex, []Edge) {
	rng := rand.New(rand.NewSource(seed))
	vertices := make([]Vertex, n)
	for i := range vertices {
		vertices[i] = Vertex{ID: i}
	}
	seen := make(map[[2]int]bool)
	var edges []Edge
	for len(edges) < m {
		from, to := rng.Intn(n), rng.Intn(n)
		if from == to || seen[[2]int{from, to}] {
			continue
		}
		seen[[2]int{from, to}] = true
		edges = append(edges, Edge{From: from, To: to})
	}
	return vertices, edges
}

func TestBetweenness_MatchesGonum(t *testing.T) {
	vertices, edges := randomGraph(80, 240, 1)
	g, err := Restore(vertices, edges, nil)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if err := computeBetweenness(context.Background(), g, 4); err != nil {
		t.Fatalf("computeBetweenness() error = %v", err)
	}

	dg := simple.NewDirectedGraph()
	for i := range vertices {
		dg.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		dg.SetEdge(dg.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}
	wantVertex := network.Betweenness(dg)
	wantEdge := network.EdgeBetweenness(dg)

	for _, v := range g.Vertices() {
		if want := wantVertex[int64(v.ID)]; math.Abs(v.Betweenness-want) > 1e-9 {
			t.Errorf("vertex %d betweenness = %v, want %v", v.ID, v.Betweenness, want)
		}
	}
	for _, e := range g.Edges() {
		if want := wantEdge[[2]int64{int64(e.From), int64(e.To)}]; math.Abs(e.Betweenness-want) > 1e-9 {
			t.Errorf("edge %d -> %d betweenness = %v, want %v", e.From, e.To, e.Betweenness, want)
		}
	}
}

func TestBetweenness_IndependentOfWorkers(t *testing.T) {
	vertices, edges := randomGraph(150, 500, 7)

	var results [][]Vertex
	var edgeResults [][]Edge
	for _, workers := range []int{1, 3, 8} {
		g, err := Restore(vertices, edges, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if err := computeBetweenness(context.Background(), g, workers); err != nil {
			t.Fatalf("workers=%d: computeBetweenness() error = %v", workers, err)
		}
		results = append(results, g.Vertices())
		edgeResults = append(edgeResults, g.Edges())
	}
	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("vertex betweenness differs for run %d", i)
		}
		if !reflect.DeepEqual(edgeResults[0], edgeResults[i]) {
			t.Errorf("edge betweenness differs for run %d", i)
		}
	}
}

func TestBetweenness_Cancelled(t *testing.T) {
	vertices, edges := randomGraph(100, 300, 3)
	g, err := Restore(vertices, edges, nil)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := computeBetweenness(ctx, g, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("computeBetweenness() error = %v, want context.Canceled", err)
	}
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	seq := buildSample(t, 1)
	par := buildSample(t, 6)
	if !reflect.DeepEqual(seq.Vertices(), par.Vertices()) || !reflect.DeepEqual(seq.Edges(), par.Edges()) {
		t.Error("parallel build differs from sequential build")
	}
}

func TestCentralPointDominance(t *testing.T) {
	g, err := Restore(
		[]Vertex{{ID: 0}, {ID: 1, Betweenness: 1}, {ID: 2}},
		[]Edge{{From: 0, To: 1}, {From: 1, To: 2}},
		nil,
	)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := g.CentralPointDominance(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("CentralPointDominance() = %v, want 0.5", got)
	}

	small, _ := Restore([]Vertex{{ID: 0}}, nil, nil)
	if got := small.CentralPointDominance(); got != 0 {
		t.Errorf("CentralPointDominance() of a single vertex = %v, want 0", got)
	}
}

func TestWithStats(t *testing.T) {
	g, err := Restore([]Vertex{{ID: 0, Label: "a"}, {ID: 1, Label: "b"}}, []Edge{{From: 1, To: 0}}, nil)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	before := g.Stats()
	stored := Stats{Labels: 4, Vertices: 3, RawEdges: 2, UniqueEdges: 1, Pruned: 1, Components: 1, GiantVertices: 2, GiantEdges: 1}

	withStats := g.WithStats(stored)
	if withStats.Stats() != stored {
		t.Errorf("Stats() = %+v, want %+v", withStats.Stats(), stored)
	}
	if g.Stats() != before {
		t.Errorf("WithStats modified the original: %+v", g.Stats())
	}
	if !reflect.DeepEqual(withStats.Edges(), g.Edges()) || withStats.Len() != g.Len() {
		t.Error("WithStats changed the graph structure")
	}
}

func TestRestore_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices []Vertex
		edges    []Edge
	}{
		{"sparse ids", []Vertex{{ID: 0}, {ID: 2}}, nil},
		{"edge out of range", []Vertex{{ID: 0}}, []Edge{{From: 0, To: 1}}},
		{"negative endpoint", []Vertex{{ID: 0}}, []Edge{{From: -1, To: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Restore(tt.vertices, tt.edges, nil); !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("Restore() error = %v, want ErrInvalidGraph", err)
			}
		})
	}
}
