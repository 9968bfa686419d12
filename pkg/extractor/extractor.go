// Package extractor pulls candidate email records out of a rendered webmail page.
package extractor

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/inbox-digest/models"
)

// Minimum lengths a field value must exceed to count as a hit.
const (
	minSubjectLen = 2
	minSnippetLen = 5
	minSenderLen  = 0
	minDateLen    = 0

	// textKeyLen is how much rendered text identifies a row without a thread id.
	textKeyLen = 50
)

// DefaultMaxRecords caps the working set before field resolution.
const DefaultMaxRecords = 25

// ExtractionError reports a DOM access failure.
type ExtractionError struct {
	Key string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed for row %q: %v", e.Key, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor holds the strategy lists used to scan a page.
type Extractor struct {
	Rows       []RowStrategy
	Fields     FieldSet
	MaxRecords int
	Logger     *slog.Logger
}

// New returns an Extractor using the default strategies.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		Rows:       DefaultRowStrategies,
		Fields:     DefaultFields,
		MaxRecords: DefaultMaxRecords,
		Logger:     logger,
	}
}

// Extract scans doc with the default extractor.
func Extract(doc *goquery.Document) ([]models.EmailRecord, error) {
	return New(nil).Extract(doc)
}

// Extract finds, dedupes, caps and resolves email rows. A page with no matching
// rows yields an empty slice and no error.
func (x *Extractor) Extract(doc *goquery.Document) ([]models.EmailRecord, error) {
	if doc == nil || doc.Selection == nil {
		return nil, &ExtractionError{Err: fmt.Errorf("no document")}
	}
	return x.ExtractSelection(doc.Selection), nil
}

// ExtractSelection runs extraction below root.
func (x *Extractor) ExtractSelection(root *goquery.Selection) []models.EmailRecord {
	rows := x.candidates(root)

	limit := x.MaxRecords
	if limit <= 0 {
		limit = DefaultMaxRecords
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	records := make([]models.EmailRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := x.resolve(row)
		if err != nil {
			x.Logger.Debug("skipping email row", "error", err)
			continue
		}
		if rec.Unresolved() {
			continue
		}
		records = append(records, rec)
	}

	x.Logger.Debug("extracted email records", "candidates", len(rows), "records", len(records))
	return records
}

type candidate struct {
	key string
	sel *goquery.Selection
}

// candidates unions every row strategy in order and keeps the first row per key.
func (x *Extractor) candidates(root *goquery.Selection) []candidate {
	seen := make(map[string]struct{})
	var out []candidate
	total := 0

	for _, strategy := range x.Rows {
		root.Find(strategy.Selector).Each(func(i int, s *goquery.Selection) {
			total++
			key := RowKey(s)
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			out = append(out, candidate{key: key, sel: s})
		})
	}

	x.Logger.Debug("found potential email elements", "matches", total, "unique", len(out))
	return out
}

// RowKey identifies a row by thread id, legacy thread id, or the first 50
// characters of its rendered text.
func RowKey(s *goquery.Selection) string {
	if id, ok := s.Attr("data-thread-id"); ok && id != "" {
		return id
	}
	if id, ok := s.Attr("data-legacy-thread-id"); ok && id != "" {
		return id
	}
	return truncateRunes(s.Text(), textKeyLen)
}

// resolve turns one row into a record. Any panic raised while walking a
// malformed node is reported as an ExtractionError for that row only.
func (x *Extractor) resolve(c candidate) (rec models.EmailRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExtractionError{Key: c.key, Err: fmt.Errorf("%v", r)}
		}
	}()

	rec = models.NewEmailRecord()
	if v, ok := firstHit(c.sel, x.Fields.Subject, minSubjectLen); ok {
		rec.Subject = v
	}
	if v, ok := firstHit(c.sel, x.Fields.Sender, minSenderLen); ok {
		rec.Sender = v
	}
	if v, ok := firstHit(c.sel, x.Fields.Snippet, minSnippetLen); ok {
		rec.Snippet = v
	}
	if v, ok := firstHit(c.sel, x.Fields.Date, minDateLen); ok {
		rec.Date = v
	}
	rec.DeriveFullText()
	return rec, nil
}

// firstHit returns the first strategy value longer than minLen characters.
func firstHit(row *goquery.Selection, strategies []FieldStrategy, minLen int) (string, bool) {
	for _, strategy := range strategies {
		v, ok := strategy(row)
		if !ok {
			continue
		}
		if utf8.RuneCountInString(v) > minLen {
			return v, true
		}
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
