package models

import "time"

// Paths a summarization run can take.
const (
	RunPathAI           = "ai"
	RunPathRule         = "rule"
	RunPathInsufficient = "insufficient"
	RunPathMinimal      = "minimal"
)

// Run is the metadata of one accepted summarization request. It never
// carries email content.
type Run struct {
	ID       int64         `json:"id,omitempty"`
	CycleID  string        `json:"cycle_id,omitempty"`
	Mode     ViewMode      `json:"mode"`
	Count    int           `json:"count"`
	Path     string        `json:"path"`
	Provider string        `json:"provider"`
	Language string        `json:"language,omitempty"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
	Err      string        `json:"error,omitempty"`
}

// Cycle outcomes.
const (
	OutcomeSummary    = "summary"
	OutcomeEmpty      = "empty"
	OutcomeError      = "error"
	OutcomeNoResponse = "no_response"
)

// Cycle is the metadata of one analysis cycle on the page side.
type Cycle struct {
	ID        string    `json:"id"`
	Mode      ViewMode  `json:"mode"`
	Extracted int       `json:"extracted"`
	Retained  int       `json:"retained"`
	Outcome   string    `json:"outcome"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}
