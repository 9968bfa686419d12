package models

// Actions understood by the summarization side of the bridge.
const (
	ActionGenerateSummary = "generateSummary"
	ActionProcessText     = "process_text"
)

// SummaryRequest is the single message sent per analysis cycle.
type SummaryRequest struct {
	Action      string `json:"action"`
	EmailData   string `json:"emailData"`
	EmailCount  int    `json:"emailCount"`
	CurrentView string `json:"currentView,omitempty"`
}

// SummaryResponse carries the finished summary back to the page side.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ViewMode resolves which view a request targets. An explicit CurrentView wins;
// otherwise process_text means a single item and everything else an aggregate.
func (r SummaryRequest) ViewMode() (ViewMode, error) {
	if r.CurrentView != "" {
		return ParseViewMode(r.CurrentView)
	}
	if r.Action == ActionProcessText {
		return ViewSingleItem, nil
	}
	return ViewAggregate, nil
}

// KnownAction reports whether the request names an action the bridge can serve.
func (r SummaryRequest) KnownAction() bool {
	return r.Action == ActionGenerateSummary || r.Action == ActionProcessText
}
