package agent

import (
	"errors"
	"fmt"

	"github.com/mirage-project/mirage/pkg/models"
)

// ErrorKind classifies agent failures. Transport and timeout kinds are
// retried with backoff; input and parse kinds are not.
type ErrorKind string

// Agent error kinds.
const (
	ErrorKindInputInvalid ErrorKind = "INPUT_INVALID"
	ErrorKindTransport    ErrorKind = "LLM_TRANSPORT"
	ErrorKindOutputParse  ErrorKind = "OUTPUT_PARSE"
	ErrorKindTimeout      ErrorKind = "TIMEOUT"
)

// Error is a classified agent failure.
type Error struct {
	Kind ErrorKind
	Role models.AgentRole
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Role, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Role, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from an error chain, or "" when the
// error is not an agent error.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// retryable reports whether a failure of this kind may succeed on retry.
// Parse failures are deterministic; reissuing the same prompt rarely
// helps, so the orchestrator handles them via the Reformer path instead.
func (k ErrorKind) retryable() bool {
	return k == ErrorKindTransport || k == ErrorKindTimeout
}
