package rulebased

import "regexp"

// category is one pattern-extraction bucket rendered as a bullet.
type category struct {
	Label   string
	Pattern *regexp.Regexp
}

const (
	weekday = `(?:mon|tues|wednes|thurs|fri|satur|sun)day`
	month   = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`
)

// aggregateCategories pair an event keyword with the detail that makes it actionable.
var aggregateCategories = []category{
	{
		Label: "📦 Deliveries",
		Pattern: regexp.MustCompile(`(?i)\b(?:out for delivery|deliver(?:y|ed|ing|s)?|arriv(?:e|es|ing|al)|package|shipment|shipped)\b[^\n.]{0,60}?\b(?:today|tomorrow|tonight|` +
			weekday + `|` + month + `\s+\d{1,2}|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`),
	},
	{
		Label:   "✈️ Flights",
		Pattern: regexp.MustCompile(`\b(?i:flight|boarding|departure|itinerary|gate)\b[^\n]{0,40}?\b[A-Z]{2}\s?\d{2,4}\b`),
	},
	{
		Label:   "📅 Meetings",
		Pattern: regexp.MustCompile(`(?i)\b(?:meeting|interview|call|appointment|zoom|webinar|standup|sync)\b[^\n]{0,60}?\b\d{1,2}(?::\d{2})?\s?(?:am|pm)\b`),
	},
}

// singleFields are extracted independently from one message body.
var singleFields = []category{
	{
		Label: "📅 Dates",
		Pattern: regexp.MustCompile(`(?i)\b(?:today|tomorrow|tonight|` + weekday + `|` + month +
			`\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?|\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{4}-\d{2}-\d{2})\b`),
	},
	{
		Label:   "⏰ Times",
		Pattern: regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(?:\s?[ap]m)?\b|\b\d{1,2}\s?[ap]m\b`),
	},
	{
		Label:   "🔢 Numbers",
		Pattern: regexp.MustCompile(`#\s?\d{3,}|\$\s?\d[\d,]*(?:\.\d{2})?|\b[A-Z]{2,3}-?\d{4,}\b|\b\d{5,}\b`),
	},
	{
		Label:   "⚠️ Action",
		Pattern: regexp.MustCompile(`(?i)\b(?:urgent|asap|immediately|action required|deadline|due (?:today|tomorrow|soon|by)|expires?|expiring|final notice|overdue|reminder|last chance)\b`),
	},
}

// keywordTerms drive the counting fallback shared by both views.
var keywordTerms = []struct {
	Term  string
	Label string
}{
	{"delivery", "📦 Deliveries"},
	{"flight", "✈️ Flights"},
	{"meeting", "📅 Meetings"},
	{"interview", "👔 Interviews"},
	{"deadline", "⏰ Deadlines"},
}
