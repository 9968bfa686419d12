package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RowStrategy is one independent way of locating email rows on the page.
// Strategies may overlap; duplicates are collapsed by thread key.
type RowStrategy struct {
	Name     string
	Selector string
}

// FieldStrategy resolves one field from an email row, or reports no hit.
type FieldStrategy func(row *goquery.Selection) (string, bool)

// DefaultRowStrategies is ordered: structural attributes first, then class-name
// substrings, then tag+class combinations.
var DefaultRowStrategies = []RowStrategy{
	{Name: "thread-id", Selector: `[role="listitem"][data-thread-id]`},
	{Name: "legacy-thread-id", Selector: `[role="listitem"][data-legacy-thread-id]`},
	{Name: "thread-list", Selector: `[gh="tl"] [role="listitem"]`},
	{Name: "row-class", Selector: `.zA`},
	{Name: "msg-class", Selector: `[class*="msg"]`},
	{Name: "email-class", Selector: `[class*="email"]`},
	{Name: "row-tr", Selector: `tr[class*="zA"]`},
	{Name: "message-div", Selector: `div[class*="message"]`},
}

// FieldSet groups the ordered strategies for each record field.
type FieldSet struct {
	Subject []FieldStrategy
	Sender  []FieldStrategy
	Snippet []FieldStrategy
	Date    []FieldStrategy
}

// DefaultFields mirrors what webmail row markup has exposed over time.
var DefaultFields = FieldSet{
	Subject: []FieldStrategy{
		Within(`[data-thread-id]`, `span`),
		Within(`[data-legacy-thread-id]`, `span`),
		Within(`.bog`, `span`),
		Within(`.xS`, `span`),
		TextOf(`.bqe`),
		TextOf(`[class*="subject"]`),
		Within(`[class*="message"]`, `span`),
	},
	Sender: []FieldStrategy{
		AttrOrText(`[email]`, "email"),
		Within(`.yW`, `span`),
		TextOf(`.zF`),
		TextOf(`[class*="sender"]`),
		TextOf(`[class*="from"]`),
	},
	Snippet: []FieldStrategy{
		TextOf(`.y2`),
		TextOf(`.xT`),
		TextOf(`.a4W`),
		TextOf(`[class*="snippet"]`),
		TextOf(`[class*="preview"]`),
	},
	Date: []FieldStrategy{
		AttrOrText(`[data-tooltip]`, "data-tooltip"),
		TextOf(`.xW`),
		TextOf(`[class*="date"]`),
		TextOf(`[class*="time"]`),
	},
}

// TextOf returns the trimmed text of the first descendant matching selector.
// Compound selectors are matched against the whole document, so use Within to
// keep the outer part inside the row.
func TextOf(selector string) FieldStrategy {
	return func(row *goquery.Selection) (string, bool) {
		el := row.Find(selector).First()
		if el.Length() == 0 {
			return "", false
		}
		return strings.TrimSpace(el.Text()), true
	}
}

// Within returns the trimmed text of the first inner element below an outer
// element, both inside the row. The row itself and its ancestors never match
// outer, which a descendant selector passed to TextOf would allow.
func Within(outer, inner string) FieldStrategy {
	return func(row *goquery.Selection) (string, bool) {
		el := row.Find(outer).Find(inner).First()
		if el.Length() == 0 {
			return "", false
		}
		return strings.TrimSpace(el.Text()), true
	}
}

// AttrOrText prefers attr on the first descendant matching selector and falls
// back to its trimmed text when the attribute is empty.
func AttrOrText(selector, attr string) FieldStrategy {
	return func(row *goquery.Selection) (string, bool) {
		el := row.Find(selector).First()
		if el.Length() == 0 {
			return "", false
		}
		if v, ok := el.Attr(attr); ok && v != "" {
			return v, true
		}
		return strings.TrimSpace(el.Text()), true
	}
}
