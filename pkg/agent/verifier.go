package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/mirage-project/mirage/pkg/agent/prompt"
	"github.com/mirage-project/mirage/pkg/models"
)

// Verifier reviews a draft answer against the context and emits a
// strict YES/NO vote with a confidence score.
type Verifier struct {
	r       runner
	prompts *prompt.Builder
}

// NewVerifier creates the Verifier agent over the shared prompt builder.
func NewVerifier(llm LLMClient, prompts *prompt.Builder, policy RetryPolicy) *Verifier {
	return &Verifier{
		r:       runner{role: models.RoleVerifier, llm: llm, policy: policy},
		prompts: prompts,
	}
}

// VerifyInput is the Verifier's role input.
type VerifyInput struct {
	Query    string
	Context  string
	Draft    string
	Language models.Language
}

// Verify analyzes the draft. Parsing is strict: a missing or malformed
// VOTE line yields Vote=UNKNOWN with Confidence=0.0 rather than an
// error; the orchestrator routes UNKNOWN through the Reformer path.
func (v *Verifier) Verify(ctx context.Context, in VerifyInput) (*models.AgentOutput, error) {
	if strings.TrimSpace(in.Draft) == "" {
		return nil, &Error{Kind: ErrorKindInputInvalid, Role: models.RoleVerifier,
			Err: errors.New("empty draft")}
	}

	system, user := v.prompts.Verifier(prompt.VerifierInput{
		Query:    in.Query,
		Context:  in.Context,
		Draft:    in.Draft,
		Language: in.Language,
	})

	comp, latency, err := v.r.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	vote := parseVote(comp.Text)
	scores := parseScores(comp.Text)

	out := &models.AgentOutput{
		Role:      models.RoleVerifier,
		Vote:      vote,
		Analysis:  stripDirectives(comp.Text),
		LatencyMS: latency,
	}
	if vote == models.VoteUnknown {
		out.Confidence = 0.0
		return out, nil
	}
	out.Confidence = scores["CONFIDENCE"]
	out.AccuracyScore = scores["ACCURACY"]
	out.CompletenessScore = scores["COMPLETENESS"]
	return out, nil
}
