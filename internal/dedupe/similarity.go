package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// SimilarityFunc scores two strings. Depending on Options.Inverted a higher
// score means more or less alike.
type SimilarityFunc func(a, b string) float64

// Jaro-Winkler parameters matching the common reference implementation.
const (
	jaroWinklerBoost  = 0.7
	jaroWinklerPrefix = 4
)

// JaroWinkler returns the Jaro-Winkler similarity in [0, 1].
func JaroWinkler(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, jaroWinklerBoost, jaroWinklerPrefix)
}

// Jaro returns the Jaro similarity in [0, 1].
func Jaro(a, b string) float64 {
	return smetrics.Jaro(a, b)
}

// Levenshtein returns the edit distance. Use it with Options.Inverted.
func Levenshtein(a, b string) float64 {
	return float64(smetrics.WagnerFischer(a, b, 1, 1, 1))
}

var similarityFuncs = map[string]struct {
	fn       SimilarityFunc
	distance bool
}{
	"jaro_winkler": {JaroWinkler, false},
	"jaro":         {Jaro, false},
	"levenshtein":  {Levenshtein, true},
}

// SimilarityByName returns a named similarity function and whether it is a
// distance (lower is more alike).
func SimilarityByName(name string) (SimilarityFunc, bool, error) {
	s, ok := similarityFuncs[strings.ToLower(name)]
	if !ok {
		return nil, false, fmt.Errorf("unknown similarity %q (valid: %s)", name, strings.Join(SimilarityNames(), ", "))
	}
	return s.fn, s.distance, nil
}

// SimilarityNames lists the names accepted by SimilarityByName.
func SimilarityNames() []string {
	names := make([]string, 0, len(similarityFuncs))
	for name := range similarityFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
