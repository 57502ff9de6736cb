package models

// AgentRole identifies one of the four pipeline agents.
type AgentRole string

// Pipeline agent roles, in invocation order.
const (
	RoleGenerator  AgentRole = "generator"
	RoleVerifier   AgentRole = "verifier"
	RoleReformer   AgentRole = "reformer"
	RoleTranslator AgentRole = "translator"
)

// Vote is the Verifier's verdict on a draft answer. UNKNOWN is reserved
// for parser failure; a missing or malformed vote never becomes YES or NO.
type Vote string

// Verifier votes.
const (
	VoteYes     Vote = "YES"
	VoteNo      Vote = "NO"
	VoteUnknown Vote = "UNKNOWN"
)

// AgentOutput is the result of one agent invocation. Immutable.
// Vote and Analysis are populated by the Verifier only; the optional
// sub-scores come from the Verifier's ACCURACY/COMPLETENESS lines.
type AgentOutput struct {
	Role       AgentRole `json:"role"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`

	Vote              Vote    `json:"vote,omitempty"`
	Analysis          string  `json:"analysis,omitempty"`
	AccuracyScore     float64 `json:"accuracy_score,omitempty"`
	CompletenessScore float64 `json:"completeness_score,omitempty"`

	LatencyMS int64 `json:"latency_ms"`
}

// IterationRecord captures one pass through the verify/reform loop.
// Owned exclusively by the orchestrator for the duration of a workflow.
type IterationRecord struct {
	Index        int          `json:"iteration_index"`
	GeneratorOut *AgentOutput `json:"generator_out,omitempty"`
	VerifierOut  *AgentOutput `json:"verifier_out,omitempty"`
	ReformerOut  *AgentOutput `json:"reformer_out,omitempty"`
}
