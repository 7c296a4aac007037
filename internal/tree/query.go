package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/treeofscience/internal/citation"
)

var (
	// ErrNotImplemented is returned by sections without a ranking criterion.
	ErrNotImplemented = errors.New("section not implemented")
	// ErrInvalidWindow is returned for a negative offset or count.
	ErrInvalidWindow = errors.New("offset and count must be non-negative")
	// ErrUnknownSection is returned by Query for an unrecognised name.
	ErrUnknownSection = errors.New("unknown section")
)

// Section names a structural part of the tree.
type Section string

const (
	Root   Section = "root"
	Trunk  Section = "trunk"
	Branch Section = "branch"
	Leaves Section = "leave"
)

// Sections lists the section names accepted by Query.
func Sections() []Section {
	return []Section{Root, Trunk, Branch, Leaves}
}

// ParseSection resolves a section name. "leaf" and "leaves" are accepted for
// the leaves.
func ParseSection(name string) (Section, error) {
	switch s := strings.ToLower(strings.TrimSpace(name)); s {
	case "root", "trunk", "branch":
		return Section(s), nil
	case "leave", "leaf", "leaves":
		return Leaves, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
}

// Vertex is one ranked result. Degree and Score hold the ranking criterion
// of the section: in-degree for the root, out-degree for the leaves and
// betweenness for the trunk, whose Degree is the total degree.
type Vertex struct {
	Label       string  `json:"label"`
	Degree      int     `json:"degree"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	ReverseRank int     `json:"reverse_rank"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
	Betweenness float64 `json:"betweenness"`
}

type criterion struct {
	keep   func(citation.Vertex) bool
	score  func(citation.Vertex) float64
	degree func(citation.Vertex) int
}

var (
	rootCriterion = criterion{
		keep:   func(v citation.Vertex) bool { return v.OutDegree == 0 },
		score:  func(v citation.Vertex) float64 { return float64(v.InDegree) },
		degree: func(v citation.Vertex) int { return v.InDegree },
	}
	leavesCriterion = criterion{
		keep:   func(v citation.Vertex) bool { return v.InDegree == 0 },
		score:  func(v citation.Vertex) float64 { return float64(v.OutDegree) },
		degree: func(v citation.Vertex) int { return v.OutDegree },
	}
	trunkCriterion = criterion{
		keep:   func(citation.Vertex) bool { return true },
		score:  func(v citation.Vertex) float64 { return v.Betweenness },
		degree: func(v citation.Vertex) int { return v.InDegree + v.OutDegree },
	}
)

// Root returns the works that cite nothing within the corpus, most cited
// first.
func (t *Tree) Root(offset, count int) ([]Vertex, error) {
	return t.rank(rootCriterion, offset, count)
}

// Trunk returns every work by decreasing betweenness.
func (t *Tree) Trunk(offset, count int) ([]Vertex, error) {
	return t.rank(trunkCriterion, offset, count)
}

// Leaves returns the works never cited within the corpus, citing most first.
func (t *Tree) Leaves(offset, count int) ([]Vertex, error) {
	return t.rank(leavesCriterion, offset, count)
}

// Branch always fails with ErrNotImplemented.
func (t *Tree) Branch(offset, count int) ([]Vertex, error) {
	return nil, fmt.Errorf("%s: %w", Branch, ErrNotImplemented)
}

// Query dispatches to the section named by name.
func (t *Tree) Query(name string, offset, count int) ([]Vertex, error) {
	section, err := ParseSection(name)
	if err != nil {
		return nil, err
	}
	switch section {
	case Root:
		return t.Root(offset, count)
	case Trunk:
		return t.Trunk(offset, count)
	case Leaves:
		return t.Leaves(offset, count)
	default:
		return t.Branch(offset, count)
	}
}

// rank sorts the candidates by decreasing score, keeping vertex order for
// ties, and returns the requested window. Windows past the end are empty.
func (t *Tree) rank(c criterion, offset, count int) ([]Vertex, error) {
	if offset < 0 || count < 0 {
		return nil, fmt.Errorf("%w: offset %d, count %d", ErrInvalidWindow, offset, count)
	}

	var candidates []citation.Vertex
	for _, v := range t.graph.Vertices() {
		if c.keep(v) {
			candidates = append(candidates, v)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return c.score(candidates[i]) > c.score(candidates[j])
	})

	if offset >= len(candidates) {
		return []Vertex{}, nil
	}
	n := min(count, len(candidates)-offset)
	out := make([]Vertex, n)
	for i := range out {
		rank := offset + i
		v := candidates[rank]
		out[i] = Vertex{
			Label:       v.Label,
			Degree:      c.degree(v),
			Score:       c.score(v),
			Rank:        rank,
			ReverseRank: len(candidates) - 1 - rank,
			InDegree:    v.InDegree,
			OutDegree:   v.OutDegree,
			Betweenness: v.Betweenness,
		}
	}
	return out, nil
}
