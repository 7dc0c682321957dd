package model

// Titles produced by the failure classifier. Downstream UI copy keys off
// these strings, so they are part of the external contract and must not
// drift.
const (
	ErrTitleMissingFields      = "Missing required information"
	ErrTitleCaseSummaryTooBig  = "Case summary too large"
	ErrTitleServiceUnavailable = "AI service unavailable"
	ErrTitleBadCredentials     = "AI credentials missing or invalid"
	ErrTitleGenerationFailed   = "Generation failed"
)

// StructuredError replaces raw errors at system boundaries: callers and UIs
// render title/reason/suggested action without ever seeing a stack trace.
type StructuredError struct {
	Title           string `json:"title"`
	Reason          string `json:"reason"`
	ProbableCause   string `json:"probableCause"`
	SuggestedAction string `json:"suggestedAction"`
}
