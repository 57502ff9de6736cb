package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mirage-project/mirage/pkg/models"
)

// RetryPolicy bounds the retry loop around one LLM call.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts (first call included).
	MaxAttempts int
	// BaseDelay is the initial backoff interval; it doubles per attempt
	// with ±20% jitter.
	BaseDelay time.Duration
	// CallTimeout bounds each individual LLM call.
	CallTimeout time.Duration
	// MaxTokens is passed through to the transport.
	MaxTokens int
}

// DefaultRetryPolicy matches the documented defaults: 3 attempts,
// 1s base delay, 30s per call.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		CallTimeout: 30 * time.Second,
		MaxTokens:   2048,
	}
}

// runner applies one agent's role contract over the LLM client:
// retries for transient failures, per-call timeouts, error mapping.
type runner struct {
	role   models.AgentRole
	llm    LLMClient
	policy RetryPolicy
}

// complete performs one logical LLM call with retries. Transient
// transport and timeout errors are retried up to MaxAttempts with
// exponential backoff; other failures abort immediately.
func (r *runner) complete(ctx context.Context, system, user string) (*Completion, int64, error) {
	start := time.Now()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.policy.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2
	bo.MaxElapsedTime = 0

	var out *Completion
	attempt := 0
	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, r.policy.CallTimeout)
		defer cancel()

		comp, err := r.llm.Complete(callCtx, system, user, CompleteOptions{
			Timeout:   r.policy.CallTimeout,
			MaxTokens: r.policy.MaxTokens,
		})
		if err != nil {
			aerr := r.classify(ctx, err)
			if !aerr.Kind.retryable() || ctx.Err() != nil {
				return backoff.Permanent(aerr)
			}
			slog.Warn("LLM call failed, will retry",
				"role", r.role, "attempt", attempt, "kind", aerr.Kind, "error", err)
			return aerr
		}
		out = comp
		return nil
	}

	maxRetries := uint64(0)
	if r.policy.MaxAttempts > 1 {
		maxRetries = uint64(r.policy.MaxAttempts - 1)
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
	latency := time.Since(start).Milliseconds()
	if err != nil {
		var ae *Error
		if !errors.As(err, &ae) {
			ae = r.classify(ctx, err)
		}
		return nil, latency, ae
	}
	return out, latency, nil
}

// classify maps a transport error to the agent error taxonomy.
func (r *runner) classify(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrorKindTimeout, Role: r.role, Err: err}
	case ctx.Err() != nil:
		return &Error{Kind: ErrorKindTimeout, Role: r.role, Err: ctx.Err()}
	default:
		return &Error{Kind: ErrorKindTransport, Role: r.role, Err: err}
	}
}
