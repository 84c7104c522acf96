package commands

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	fuzzyCutoff = 0.4
	fuzzyLimit  = 5
)

// similarity is 2*M/T where M counts runes in equal diff segments and T is the
// combined rune length of both strings.
func similarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	return 2 * float64(matched) / float64(total)
}

// closeMatches returns up to n candidates scoring at least cutoff, best first.
// Equal scores keep candidate order.
func closeMatches(word string, candidates []string, n int, cutoff float64) []string {
	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, c := range candidates {
		if sc := similarity(word, c); sc >= cutoff {
			hits = append(hits, scored{c, sc})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	out := make([]string, 0, min(n, len(hits)))
	for _, h := range hits[:min(n, len(hits))] {
		out = append(out, h.name)
	}
	return out
}

// matchResult is the outcome of resolving a typed game name.
type matchResult struct {
	index       int // into the searched list, -1 if none
	suggestions []string
}

// matchGame resolves query against names: a case-insensitive exact match,
// then the first case-insensitive substring match, then fuzzy suggestions.
func matchGame(query string, names []string) matchResult {
	q := strings.ToLower(query)
	for i, n := range names {
		if strings.ToLower(n) == q {
			return matchResult{index: i}
		}
	}
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			return matchResult{index: i}
		}
	}
	return matchResult{index: -1, suggestions: closeMatches(query, names, fuzzyLimit, fuzzyCutoff)}
}
