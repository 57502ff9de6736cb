package agent

import (
	"context"
	"time"
)

// CompleteOptions are per-call options for the LLM transport.
type CompleteOptions struct {
	Timeout   time.Duration
	MaxTokens int
}

// Completion is the transport-level result of one LLM call.
type Completion struct {
	Text string

	// SelfConfidence is the model's self-reported score when the
	// provider surfaces one. nil means unavailable.
	SelfConfidence *float64
}

// LLMClient is the capability interface for the LLM transport. The core
// treats it as fallible and possibly slow; it must be safe for
// concurrent use and back-pressure via its own connection pool.
type LLMClient interface {
	Complete(ctx context.Context, system, user string, opts CompleteOptions) (*Completion, error)
	Close() error
}
