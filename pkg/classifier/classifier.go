// Package classifier decides which extracted records are worth summarizing.
//
// Both predicates are plain OR matches over fixed vocabularies. There is no
// scoring; a human reads the final summary, so recall wins over precision.
package classifier

import (
	"strings"

	"github.com/dtnitsch/inbox-digest/models"
)

// IsImportant reports whether the record's full text contains any vocabulary term.
func IsImportant(r models.EmailRecord) bool {
	text := strings.ToLower(r.FullText)
	for _, group := range ImportantVocabulary {
		if containsAny(text, group.Terms) {
			return true
		}
	}
	return false
}

// IsRecent reports whether the date text looks like a recent timestamp.
func IsRecent(r models.EmailRecord) bool {
	return containsAny(strings.ToLower(r.Date), RecentIndicators)
}

// Retain keeps a record that is important or recent.
func Retain(r models.EmailRecord) bool {
	return IsImportant(r) || IsRecent(r)
}

// Filter returns the retained records in their original order.
func Filter(records []models.EmailRecord) []models.EmailRecord {
	kept := make([]models.EmailRecord, 0, len(records))
	for _, r := range records {
		if Retain(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// MatchedCategories lists the categories with at least one hit, in vocabulary order.
func MatchedCategories(r models.EmailRecord) []Category {
	text := strings.ToLower(r.FullText)
	var out []Category
	for _, group := range ImportantVocabulary {
		if containsAny(text, group.Terms) {
			out = append(out, group.Category)
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
