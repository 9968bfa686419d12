// Package rulebased produces deterministic summaries when no AI capability answers.
//
// Every call walks a three-tier cascade: pattern extraction, then keyword
// counting, then a fixed negative sentinel. The result is never empty.
package rulebased

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/analytics"
)

// Minimum input lengths. The two views are tuned independently.
const (
	DefaultMinAggregateChars = 50
	DefaultMinSingleChars    = 100
)

// Fixed outputs.
const (
	InsufficientAggregate = "Not enough email content to summarize. Open your inbox with a few messages visible and try again."
	InsufficientSingle    = "This email is too short to summarize."
	NoEventsDetected      = "No upcoming events detected in recent emails."
)

const (
	maxAggregateMatches = 2
	maxSingleMatches    = 3
	maxMatchLen         = 80
)

// Summarizer holds the thresholds and the clock used for the footer line.
type Summarizer struct {
	MinAggregateChars int
	MinSingleChars    int
	Now               func() time.Time
}

// New returns a Summarizer with the default thresholds.
func New() *Summarizer {
	return &Summarizer{
		MinAggregateChars: DefaultMinAggregateChars,
		MinSingleChars:    DefaultMinSingleChars,
		Now:               time.Now,
	}
}

// Summarize runs the default summarizer.
func Summarize(mode models.ViewMode, text string) string {
	return New().Summarize(mode, text)
}

// Insufficient returns the too-short message for mode.
func Insufficient(mode models.ViewMode) string {
	if mode == models.ViewSingleItem {
		return InsufficientSingle
	}
	return InsufficientAggregate
}

// Summarize returns a summary of text for mode. It never returns "".
func (s *Summarizer) Summarize(mode models.ViewMode, text string) string {
	minChars := s.MinAggregateChars
	if mode == models.ViewSingleItem {
		minChars = s.MinSingleChars
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minChars {
		return Insufficient(mode)
	}

	var bullets []string
	var heading string
	if mode == models.ViewSingleItem {
		heading = "📧 Email Summary"
		bullets = extract(text, singleFields, maxSingleMatches)
	} else {
		heading = "📊 Upcoming Events"
		bullets = extract(text, aggregateCategories, maxAggregateMatches)
	}

	if len(bullets) == 0 {
		overview, ok := keywordBullets(text)
		if !ok {
			return NoEventsDetected
		}
		heading = "📊 Keyword Overview"
		bullets = overview
	}

	return s.render(heading, bullets)
}

// KeywordOverview is the counting tier on its own: a bullet per tracked term, or
// NoEventsDetected when none occur.
func (s *Summarizer) KeywordOverview(text string) string {
	bullets, ok := keywordBullets(text)
	if !ok {
		return NoEventsDetected
	}
	return s.render("📊 Keyword Overview", bullets)
}

func (s *Summarizer) render(heading string, bullets []string) string {
	var sb strings.Builder
	sb.WriteString(heading)
	sb.WriteString("\n\n")
	for _, b := range bullets {
		sb.WriteString("• ")
		sb.WriteString(b)
		sb.WriteString("\n")
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	fmt.Fprintf(&sb, "\nGenerated without AI at %s", now().Format(time.Kitchen))
	return sb.String()
}

// extract collects up to limit distinct matches per category.
func extract(text string, categories []category, limit int) []string {
	var bullets []string
	for _, c := range categories {
		matches := distinct(c.Pattern.FindAllString(text, -1), limit)
		if len(matches) == 0 {
			continue
		}
		bullets = append(bullets, fmt.Sprintf("%s: %s", c.Label, strings.Join(matches, "; ")))
	}
	return bullets
}

func distinct(matches []string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range matches {
		m = clean(m)
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok || m == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}

// clean collapses whitespace and bounds the length of a match.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxMatchLen {
		s = string([]rune(s)[:maxMatchLen]) + "…"
	}
	return s
}

func keywordBullets(text string) ([]string, bool) {
	terms := make([]string, len(keywordTerms))
	labels := make(map[string]string, len(keywordTerms))
	for i, k := range keywordTerms {
		terms[i] = k.Term
		labels[k.Term] = k.Label
	}

	ranked := analytics.Ranked(analytics.CountTerms(text, terms))
	if len(ranked) == 0 {
		return nil, false
	}

	bullets := make([]string, 0, len(ranked))
	for _, c := range ranked {
		bullets = append(bullets, fmt.Sprintf("%s: %d mentioned", labels[c.Term], c.Count))
	}
	return bullets, true
}
