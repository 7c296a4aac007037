// Package dedupe detects near-duplicate labels and rewrites lists through the
// resulting substitution map.
//
// Detection assumes that duplicates share a short common prefix: labels are
// sorted and each label is compared only with the following labels that start
// with the same SharedPrefix runes.
package dedupe

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Defaults used by DefaultOptions.
const (
	DefaultSharedPrefix = 2
	DefaultThreshold    = 0.96

	// minParallelWindow is the smallest comparison window worth fanning out.
	minParallelWindow = 64
)

// Map sends a duplicate label to its canonical form. No key is also a value.
type Map map[string]string

// Resolve returns the canonical form of label, or label itself.
func (m Map) Resolve(label string) string {
	if canonical, ok := m[label]; ok {
		return canonical
	}
	return label
}

// Options configures Detect.
type Options struct {
	// Similarity scores a pair of labels. Nil means JaroWinkler. It must be
	// safe for concurrent use when Workers > 1.
	Similarity SimilarityFunc
	// SharedPrefix is the number of leading runes two labels must share to be
	// compared. Zero compares every later label.
	SharedPrefix int
	// Threshold is the score a pair must exceed (or stay under, if Inverted).
	Threshold float64
	// Inverted treats Similarity as a distance.
	Inverted bool
	// Workers bounds the goroutines scoring a single window.
	Workers int
}

// DefaultOptions returns Jaro-Winkler similarity above 0.96 on labels sharing
// their first two runes.
func DefaultOptions() Options {
	return Options{
		Similarity:   JaroWinkler,
		SharedPrefix: DefaultSharedPrefix,
		Threshold:    DefaultThreshold,
	}
}

// Detect finds near-duplicate labels. Each label, resolved through the map
// built so far, is compared with the later sorted labels sharing its prefix;
// matching labels are mapped to it.
func Detect(labels []string, opts Options) Map {
	sim := opts.Similarity
	if sim == nil {
		sim = JaroWinkler
	}
	match := func(score float64) bool { return score > opts.Threshold }
	if opts.Inverted {
		match = func(score float64) bool { return score < opts.Threshold }
	}

	sorted := uniqueSorted(labels)
	duplicates := make(Map)

	for i := range sorted {
		label := duplicates.Resolve(sorted[i])
		prefix := runePrefix(label, opts.SharedPrefix)

		end := i + 1
		for end < len(sorted) && strings.HasPrefix(sorted[end], prefix) {
			end++
		}
		window := sorted[i+1 : end]
		if len(window) == 0 {
			continue
		}

		scores := scoreWindow(label, window, sim, opts.Workers)
		for j, other := range window {
			if other != label && match(scores[j]) {
				duplicates[other] = label
			}
		}
	}

	return duplicates
}

// scoreWindow scores label against every candidate, fanning out over workers
// for large windows. Scores are returned in candidate order.
func scoreWindow(label string, candidates []string, sim SimilarityFunc, workers int) []float64 {
	scores := make([]float64, len(candidates))
	if workers <= 1 || len(candidates) < minParallelWindow {
		for j, other := range candidates {
			scores[j] = sim(label, other)
		}
		return scores
	}

	chunk := (len(candidates) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(candidates); start += chunk {
		stop := min(start+chunk, len(candidates))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := start; j < stop; j++ {
				scores[j] = sim(label, candidates[j])
			}
		}()
	}
	wg.Wait()
	return scores
}

// PatchList maps every item through m, keeping order and multiplicity.
func PatchList(items []string, m Map) []string {
	patched := make([]string, len(items))
	for i, item := range items {
		patched[i] = m.Resolve(item)
	}
	return patched
}

// PatchPairs patches both projections of pairs independently.
func PatchPairs(pairs [][2]string, m Map) [][2]string {
	firsts := make([]string, len(pairs))
	seconds := make([]string, len(pairs))
	for i, p := range pairs {
		firsts[i], seconds[i] = p[0], p[1]
	}
	firsts = PatchList(firsts, m)
	seconds = PatchList(seconds, m)

	patched := make([][2]string, len(pairs))
	for i := range pairs {
		patched[i] = [2]string{firsts[i], seconds[i]}
	}
	return patched
}

func uniqueSorted(labels []string) []string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	out := sorted[:0]
	for _, s := range sorted {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// runePrefix returns the first n runes of s, or s when it is shorter.
func runePrefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
