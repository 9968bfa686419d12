package models

import (
	"fmt"
	"net/url"
	"strings"
)

// ViewMode selects the prompt template and fallback summarizer for a cycle.
type ViewMode int

const (
	// ViewAggregate summarizes a batch of inbox rows.
	ViewAggregate ViewMode = iota
	ViewSingleItem // one opened message
)

func (m ViewMode) String() string {
	switch m {
	case ViewSingleItem:
		return "single"
	default:
		return "aggregate"
	}
}

func (m ViewMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ViewMode) UnmarshalText(b []byte) error {
	v, err := ParseViewMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseViewMode accepts "aggregate", "inbox", "single", "email" or "" (aggregate).
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aggregate", "inbox":
		return ViewAggregate, nil
	case "single", "single_item", "email":
		return ViewSingleItem, nil
	default:
		return ViewAggregate, fmt.Errorf("unknown view mode: %q", s)
	}
}

// mailboxFragments are the webmail folder names that prefix an opened-message fragment,
// e.g. "#inbox/FMfcgzQXJ" or "#label/Work/FMfcgzQXJ".
var mailboxFragments = []string{"inbox", "starred", "sent", "all", "imp", "snoozed", "drafts", "spam", "trash", "search", "label", "category"}

// DetectViewMode guesses the view from a webmail location. A fragment that names a
// mailbox followed by a message identifier is a single item; everything else is
// treated as an aggregate mailbox listing.
func DetectViewMode(location string) ViewMode {
	u, err := url.Parse(location)
	if err != nil || u.Fragment == "" {
		return ViewAggregate
	}

	parts := strings.Split(strings.Trim(u.Fragment, "/"), "/")
	if len(parts) < 2 {
		return ViewAggregate
	}

	known := false
	for _, f := range mailboxFragments {
		if parts[0] == f {
			known = true
			break
		}
	}
	if !known {
		return ViewAggregate
	}

	// Labels, searches and categories carry their own name before the id.
	id := parts[len(parts)-1]
	if (parts[0] == "label" || parts[0] == "search" || parts[0] == "category") && len(parts) < 3 {
		return ViewAggregate
	}
	if len(id) >= 16 && !strings.ContainsAny(id, " ?=") {
		return ViewSingleItem
	}
	return ViewAggregate
}
