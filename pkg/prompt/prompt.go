// Package prompt builds the instructions sent to the AI capability.
package prompt

import (
	"strings"
	"text/template"

	"github.com/dtnitsch/inbox-digest/models"
)

// NoEventsSentinel is the exact reply the aggregate prompt asks for when nothing qualifies.
const NoEventsSentinel = "No upcoming events found in recent emails"

// aggregateTmpl asks for five event buckets across a batch of inbox rows.
var aggregateTmpl = template.Must(template.New("aggregate").Parse(`You are an assistant that scans a person's recent emails and lists only the upcoming events and actions they need to know about.

Extract items into these categories. Omit a category entirely when it has no items.

📦 DELIVERIES
- What is arriving, the carrier, the expected delivery date, and the tracking number if present.

✈️ FLIGHTS
- Airline, flight number, departure date and time, route, and the confirmation code if present.

👔 INTERVIEWS & MEETINGS
- Who, date and time, and the platform (Zoom, Teams, Google Meet, phone) or location.

📅 APPOINTMENTS & RESERVATIONS
- What, date and time, and location.

⏰ DEADLINES
- What is due (bills, renewals, payments, expiring trials) and the due date.

Rules:
- Put "⚠️ URGENT" in front of any item happening within the next 24-48 hours.
- Skip marketing emails, newsletters, promotions and social notifications.
- Use one short bullet per item, starting with "-".
- Do not invent dates, numbers or codes that are not in the emails.
- If nothing qualifies, reply exactly: "` + NoEventsSentinel + `"
{{- if .Language}}
- Write the summary in {{.Language}}.
{{- end}}

--- Emails ---
{{.Text}}
`))

// singleTmpl asks for a structured digest of one opened message.
var singleTmpl = template.Must(template.New("single").Parse(`You are an assistant that summarizes a single email clearly and concisely.

Produce:

🎯 PURPOSE
- One sentence on why this email was sent.

📌 KEY POINTS
- The most important facts, one bullet each.

✅ ACTIONS REQUIRED
- What the reader must do and by when. Write "None" if nothing is required.

📊 DETAILS
- Dates, times, contacts, reference numbers, amounts and locations mentioned.

Rules:
- Use short bullets starting with "-".
- Do not invent details that are not in the email.
- If the email is a newsletter or marketing message, skip the sections above and reply with a single line starting with "TL;DR:" that says what it is promoting.
{{- if .Language}}
- Write the summary in {{.Language}}.
{{- end}}

--- Email ---
{{.Text}}
`))

// Option adjusts a build.
type Option func(*params)

type params struct {
	Text     string
	Language string
}

// WithLanguage asks the model to answer in the named language. English and ""
// add nothing.
func WithLanguage(name string) Option {
	return func(p *params) {
		if name != "" && !strings.EqualFold(name, "english") {
			p.Language = name
		}
	}
}

// Build returns the prompt for mode with text embedded verbatim.
func Build(mode models.ViewMode, text string, opts ...Option) string {
	p := params{Text: text}
	for _, opt := range opts {
		opt(&p)
	}

	tmpl := aggregateTmpl
	if mode == models.ViewSingleItem {
		tmpl = singleTmpl
	}

	var sb strings.Builder
	// Both templates are static and their data only holds strings.
	if err := tmpl.Execute(&sb, p); err != nil {
		return text
	}
	return sb.String()
}
