// Package models defines the records and messages that flow through an analysis cycle.
package models

import (
	"fmt"
	"strings"
)

// Sentinel values used when a field could not be resolved from the page.
const (
	DefaultSubject = "No subject"
	DefaultSender  = "Unknown sender"
	DefaultDate    = "Recent"
)

// EmailRecord is one candidate email extracted from a rendered inbox page.
type EmailRecord struct {
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
	FullText string `json:"full_text"`
}

// NewEmailRecord returns a record with every field at its sentinel default.
func NewEmailRecord() EmailRecord {
	r := EmailRecord{
		Subject: DefaultSubject,
		Sender:  DefaultSender,
		Date:    DefaultDate,
	}
	r.DeriveFullText()
	return r
}

// DeriveFullText rebuilds FullText from the four resolved fields.
// It must be called whenever one of them changes.
func (r *EmailRecord) DeriveFullText() {
	r.FullText = fmt.Sprintf("Subject: %s | From: %s | Date: %s | Preview: %s",
		r.Subject, r.Sender, r.Date, r.Snippet)
}

// Unresolved reports whether both subject and sender are still sentinels,
// which usually means the element was not an email row at all.
func (r EmailRecord) Unresolved() bool {
	return r.Subject == DefaultSubject && r.Sender == DefaultSender
}

// FormatBatch renders records into the batch text handed to the summarizer.
func FormatBatch(records []EmailRecord) string {
	entries := make([]string, 0, len(records))
	for i, r := range records {
		var sb strings.Builder
		fmt.Fprintf(&sb, "EMAIL %d:\n", i+1)
		fmt.Fprintf(&sb, "FROM: %s\n", r.Sender)
		fmt.Fprintf(&sb, "SUBJECT: %s\n", r.Subject)
		fmt.Fprintf(&sb, "DATE: %s\n", r.Date)
		fmt.Fprintf(&sb, "PREVIEW: %s\n", r.Snippet)
		sb.WriteString("---")
		entries = append(entries, sb.String())
	}
	return strings.Join(entries, "\n")
}
