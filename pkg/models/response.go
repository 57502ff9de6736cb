package models

// Consensus is the terminal verdict of the iteration loop.
type Consensus string

// Consensus outcomes.
const (
	ConsensusApproved          Consensus = "APPROVED"
	ConsensusReformedApproved  Consensus = "REFORMED_APPROVED"
	ConsensusPendingValidation Consensus = "PENDING_VALIDATION"
	ConsensusFallback          Consensus = "FALLBACK"
	ConsensusFailed            Consensus = "FAILED"
)

// Cacheable reports whether responses with this consensus may be stored
// in the response cache. Pending, fallback, and failed outcomes are not.
func (c Consensus) Cacheable() bool {
	return c == ConsensusApproved || c == ConsensusReformedApproved
}

// FinalResponse is the output envelope of one completed workflow.
type FinalResponse struct {
	Success          bool      `json:"success"`
	Answer           string    `json:"answer"`
	Sources          []Source  `json:"sources"`
	DetectedLanguage Language  `json:"detected_language"`
	TargetLanguage   Language  `json:"target_language"`
	Consensus        Consensus `json:"consensus"`
	IterationsUsed   int       `json:"iterations_used"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`

	// ValidationID is set when the workflow is suspended on a human decision.
	ValidationID string `json:"validation_id,omitempty"`

	// FlaggedUncertain marks an approval from the middle confidence band.
	FlaggedUncertain bool `json:"flagged_uncertain,omitempty"`

	// Untranslated marks an approved answer whose translation failed;
	// the answer is returned in its source language.
	Untranslated bool `json:"untranslated,omitempty"`

	// Cached marks a response served from the response cache.
	Cached bool `json:"cached,omitempty"`

	Error string `json:"error,omitempty"`
}

// Clone returns a deep copy. Cache and single-flight hand out copies so
// concurrent callers never share mutable state.
func (r *FinalResponse) Clone() *FinalResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.Sources != nil {
		out.Sources = make([]Source, len(r.Sources))
		copy(out.Sources, r.Sources)
	}
	return &out
}
