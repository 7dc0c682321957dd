package model

import "time"

type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusDelayed   JobStatus = "delayed"
	// JobStatusNotFound is synthetic: reported for unknown identifiers,
	// never stored.
	JobStatusNotFound JobStatus = "not_found"
)

// Terminal reports whether a job in this status will never run again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Cancellable reports whether a job in this status may still be removed.
// Active jobs run to completion regardless; completed jobs are history.
func (s JobStatus) Cancellable() bool {
	return s == JobStatusWaiting || s == JobStatusDelayed
}

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFirm         Tone = "firm"
	ToneConciliatory Tone = "conciliatory"
	ToneAssertive    Tone = "assertive"
	ToneDiplomatic   Tone = "diplomatic"
	ToneUrgent       Tone = "urgent"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneProfessional, ToneFirm, ToneConciliatory, ToneAssertive, ToneDiplomatic, ToneUrgent:
		return true
	}
	return false
}

type MedicalItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type Damages struct {
	Medical          float64            `json:"medical,omitempty"`
	LostWages        float64            `json:"lostWages,omitempty"`
	PropertyDamage   float64            `json:"propertyDamage,omitempty"`
	PainAndSuffering float64            `json:"painAndSuffering,omitempty"`
	MedicalItems     []MedicalItem      `json:"medicalItems,omitempty"`
	Other            map[string]float64 `json:"other,omitempty"`
	Notes            string             `json:"notes,omitempty"`
}

// GenerationPayload is the job-data contract for one letter-generation
// request. Required fields are enforced by ValidatePayload before a job is
// ever handed to the AI provider.
type GenerationPayload struct {
	LetterID            string   `json:"letterId"`
	FirmID              string   `json:"firmId"`
	RequestedBy         string   `json:"requestedBy"`
	CaseType            string   `json:"caseType"`
	IncidentDate        string   `json:"incidentDate"`
	IncidentDescription string   `json:"incidentDescription"`
	IncidentLocation    string   `json:"incidentLocation,omitempty"`
	ClientName          string   `json:"clientName"`
	ClientContact       string   `json:"clientContact,omitempty"`
	DefendantName       string   `json:"defendantName"`
	DefendantAddress    string   `json:"defendantAddress,omitempty"`
	Damages             *Damages `json:"damages,omitempty"`
	DocumentIDs         []string `json:"documentIds,omitempty"`
	TemplateID          string   `json:"templateId,omitempty"`
	TemplateText        string   `json:"templateText,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
	Tone                Tone     `json:"tone,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxTokens           *int     `json:"maxTokens,omitempty"`
}

type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// GenerationResult is what the orchestrator always resolves with. A failed
// generation is a normal completion from the queue's point of view; Error
// carries the classified failure instead of a raw exception.
type GenerationResult struct {
	Success     bool             `json:"success"`
	LetterID    string           `json:"letterId"`
	Content     string           `json:"content"`
	Usage       *TokenUsage      `json:"usage,omitempty"`
	Cost        float64          `json:"cost,omitempty"`
	Model       string           `json:"model,omitempty"`
	Error       *StructuredError `json:"error,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// JobRecord is the durable unit of work. Its ID equals the target letter's
// ID so that at most one generation per letter can be in flight.
type JobRecord struct {
	ID           string            `json:"id"`
	Queue        string            `json:"queue"`
	Payload      GenerationPayload `json:"payload"`
	Status       JobStatus         `json:"status"`
	Progress     int               `json:"progress"`
	AttemptsMade int               `json:"attemptsMade"`
	Result       *GenerationResult `json:"result,omitempty"`
	LastError    string            `json:"lastError,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	ProcessedAt  time.Time         `json:"processedAt,omitempty"`
	CompletedAt  time.Time         `json:"completedAt,omitempty"`
}
