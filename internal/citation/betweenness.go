package citation

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// sourceBlock is the number of BFS sources accumulated into one partial sum.
// Blocks are merged in order, so the result does not depend on the number of
// workers.
const sourceBlock = 32

// partial holds the betweenness accumulated over one block of sources.
type partial struct {
	vertex []float64
	edge   []float64
}

// computeBetweenness fills in unnormalised directed vertex and edge
// betweenness using Brandes' algorithm.
func computeBetweenness(ctx context.Context, g *Graph, workers int) error {
	n := len(g.vertices)
	if n == 0 {
		return nil
	}
	workers = max(workers, 1)

	edgeFrom := make([]int, len(g.edges))
	for i, e := range g.edges {
		edgeFrom[i] = e.From
	}
	pool := sync.Pool{New: func() any { return newBrandes(n) }}

	blocks := (n + sourceBlock - 1) / sourceBlock
	slots := make([]chan partial, blocks)
	for i := range slots {
		slots[i] = make(chan partial, 1)
	}

	eg, ctx := errgroup.WithContext(ctx)
	// A token is held from the start of a block until it has been merged, which
	// bounds the number of live partial sums.
	tokens := make(chan struct{}, workers)
	eg.Go(func() error {
		for b := 0; b < blocks; b++ {
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			eg.Go(func() error {
				state := pool.Get().(*brandes)
				defer pool.Put(state)

				p := partial{vertex: make([]float64, n), edge: make([]float64, len(g.edges))}
				for s := b * sourceBlock; s < min((b+1)*sourceBlock, n); s++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					state.accumulate(g.out, edgeFrom, s, p)
				}
				slots[b] <- p
				return nil
			})
		}
		return nil
	})

	vertex := make([]float64, n)
	edge := make([]float64, len(g.edges))
merge:
	for b := 0; b < blocks; b++ {
		select {
		case p := <-slots[b]:
			for i, x := range p.vertex {
				vertex[i] += x
			}
			for i, x := range p.edge {
				edge[i] += x
			}
			<-tokens
		case <-ctx.Done():
			break merge
		}
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i := range g.vertices {
		g.vertices[i].Betweenness = vertex[i]
	}
	for i := range g.edges {
		g.edges[i].Betweenness = edge[i]
	}
	return nil
}

// brandes is the per-goroutine scratch space of a single-source pass.
type brandes struct {
	sigma []float64
	dist  []int
	delta []float64
	pred  [][]int
	stack []int
}

func newBrandes(n int) *brandes {
	b := &brandes{
		sigma: make([]float64, n),
		dist:  make([]int, n),
		delta: make([]float64, n),
		pred:  make([][]int, n),
	}
	for i := range b.dist {
		b.dist[i] = -1
	}
	return b
}

// accumulate adds the dependencies of source s to p. Visited vertices are
// reset afterwards so the scratch space can be reused.
func (b *brandes) accumulate(out [][]arc, edgeFrom []int, s int, p partial) {
	b.stack = b.stack[:0]
	b.sigma[s] = 1
	b.dist[s] = 0

	// The stack doubles as the BFS queue: vertices are appended in
	// non-decreasing distance. Self edges never satisfy the distance test
	// below, so loops lie on no shortest path.
	b.stack = append(b.stack, s)
	for head := 0; head < len(b.stack); head++ {
		v := b.stack[head]
		for _, a := range out[v] {
			w := a.to
			if b.dist[w] < 0 {
				b.dist[w] = b.dist[v] + 1
				b.stack = append(b.stack, w)
			}
			if b.dist[w] == b.dist[v]+1 {
				b.sigma[w] += b.sigma[v]
				b.pred[w] = append(b.pred[w], a.edge)
			}
		}
	}

	for i := len(b.stack) - 1; i >= 0; i-- {
		w := b.stack[i]
		for _, e := range b.pred[w] {
			v := edgeFrom[e]
			c := b.sigma[v] / b.sigma[w] * (1 + b.delta[w])
			p.edge[e] += c
			b.delta[v] += c
		}
		if w != s {
			p.vertex[w] += b.delta[w]
		}
	}

	for _, v := range b.stack {
		b.sigma[v] = 0
		b.dist[v] = -1
		b.delta[v] = 0
		b.pred[v] = b.pred[v][:0]
	}
}
