package models

// ParsingStatus is the document lifecycle state. Transitions only move
// forward: pending -> processing -> {completed, completed_with_errors, failed}.
type ParsingStatus string

const (
	StatusPending             ParsingStatus = "pending"
	StatusProcessing          ParsingStatus = "processing"
	StatusCompleted           ParsingStatus = "completed"
	StatusCompletedWithErrors ParsingStatus = "completed_with_errors"
	StatusFailed              ParsingStatus = "failed"
)

// rank orders statuses so a backward transition can be rejected.
func (s ParsingStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next is a forward move.
func (s ParsingStatus) CanTransitionTo(next ParsingStatus) bool {
	return next.rank() > s.rank()
}

// Terminal reports whether the status ends the document lifecycle.
func (s ParsingStatus) Terminal() bool {
	return s.rank() == 2
}

// ProcessingReport accumulates per-document extraction statistics and every
// recoverable error hit along the way.
type ProcessingReport struct {
	PagesProcessed int      `json:"pages_processed"`
	TablesFound    int      `json:"tables_found"`
	CapitalCalls   int      `json:"capital_calls"`
	Distributions  int      `json:"distributions"`
	Adjustments    int      `json:"adjustments"`
	ChunksCreated  int      `json:"chunks_created"`
	Errors         []string `json:"errors,omitempty"`
}

// Records is the total count of extracted transaction records.
func (r *ProcessingReport) Records() int {
	return r.CapitalCalls + r.Distributions + r.Adjustments
}

// FinalStatus decides the terminal state. Partial success is still success:
// failed requires zero productive output and at least one error. A document
// whose tables were all Unknown but whose text chunked cleanly completes.
func (r *ProcessingReport) FinalStatus() ParsingStatus {
	produced := r.Records() > 0 || r.ChunksCreated > 0
	switch {
	case !produced && len(r.Errors) > 0:
		return StatusFailed
	case len(r.Errors) > 0:
		return StatusCompletedWithErrors
	default:
		return StatusCompleted
	}
}
