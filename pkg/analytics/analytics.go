// Package analytics counts vocabulary occurrences in batch text.
package analytics

import (
	"sort"
	"strings"
)

// TermCount is how often one term occurs in a text.
type TermCount struct {
	Term  string
	Count int
}

// CountTerms counts case-insensitive, non-overlapping occurrences of each term.
// The result keeps the order of terms.
func CountTerms(text string, terms []string) []TermCount {
	lower := strings.ToLower(text)
	counts := make([]TermCount, 0, len(terms))
	for _, term := range terms {
		n := 0
		if t := strings.ToLower(term); t != "" {
			n = strings.Count(lower, t)
		}
		counts = append(counts, TermCount{Term: term, Count: n})
	}
	return counts
}

// Total sums the counts.
func Total(counts []TermCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

// Ranked returns the non-zero counts sorted by count descending, ties kept in input order.
func Ranked(counts []TermCount) []TermCount {
	out := make([]TermCount, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
