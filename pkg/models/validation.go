package models

import "time"

// TriggerKind is a category in the safety classifier's validation taxonomy.
type TriggerKind string

// Validation trigger kinds, in taxonomy (tie-break) order.
const (
	TriggerSafetyReview         TriggerKind = "SAFETY_REVIEW"
	TriggerMedicalApproval      TriggerKind = "MEDICAL_APPROVAL"
	TriggerRegulatoryCompliance TriggerKind = "REGULATORY_COMPLIANCE"
	TriggerCriticalDecision     TriggerKind = "CRITICAL_DECISION"
	TriggerQualityAssurance     TriggerKind = "QUALITY_ASSURANCE"
)

// ValidationStatus is the lifecycle state of a ValidationRequest.
type ValidationStatus string

// Validation request statuses. PENDING is the only non-terminal state.
const (
	ValidationPending  ValidationStatus = "PENDING"
	ValidationApproved ValidationStatus = "APPROVED"
	ValidationRejected ValidationStatus = "REJECTED"
	ValidationModified ValidationStatus = "MODIFIED"
	ValidationExpired  ValidationStatus = "EXPIRED"
)

// Terminal reports whether the status is final.
func (s ValidationStatus) Terminal() bool {
	return s != ValidationPending
}

// Decision is a human reviewer's verdict on a pending validation.
type Decision string

// Reviewer decisions.
const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
	DecisionModified Decision = "MODIFIED"
)

// Valid reports whether d is a recognized decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionModified:
		return true
	}
	return false
}

// Status returns the terminal validation status matching this decision.
func (d Decision) Status() ValidationStatus {
	switch d {
	case DecisionApproved:
		return ValidationApproved
	case DecisionRejected:
		return ValidationRejected
	case DecisionModified:
		return ValidationModified
	}
	return ValidationPending
}

// ValidationRequest is a pending human decision over a draft response.
// Owned by the human-loop manager; the orchestrator holds only references.
type ValidationRequest struct {
	ID               string      `json:"id"`
	QueryFingerprint string      `json:"query_fingerprint"`
	Query            string      `json:"query"`
	TriggerKind      TriggerKind `json:"trigger_kind"`
	Priority         int         `json:"priority"`
	MatchedTerms     []string    `json:"matched_terms,omitempty"`
	DraftResponse    string      `json:"draft_response"`
	DetectedLanguage Language    `json:"detected_language"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Status        ValidationStatus `json:"status"`
	Decision      Decision         `json:"decision,omitempty"`
	ModifiedText  string           `json:"modified_text,omitempty"`
	ReviewerNotes string           `json:"reviewer_notes,omitempty"`
	DecidedAt     *time.Time       `json:"decided_at,omitempty"`
}

// FinalDraft returns the text a decision settled on: the reviewer's
// replacement for MODIFIED, otherwise the original draft.
func (v *ValidationRequest) FinalDraft() string {
	if v.Status == ValidationModified && v.ModifiedText != "" {
		return v.ModifiedText
	}
	return v.DraftResponse
}
