package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/mirage-project/mirage/pkg/agent/prompt"
	"github.com/mirage-project/mirage/pkg/models"
)

// Reformer rewrites a rejected draft using the verifier's analysis,
// preserving factual content and adding structure. Its output is the
// candidate answer for the next verification pass.
type Reformer struct {
	r       runner
	prompts *prompt.Builder
}

// NewReformer creates the Reformer agent over the shared prompt builder.
func NewReformer(llm LLMClient, prompts *prompt.Builder, policy RetryPolicy) *Reformer {
	return &Reformer{
		r:       runner{role: models.RoleReformer, llm: llm, policy: policy},
		prompts: prompts,
	}
}

// ReformInput is the Reformer's role input.
type ReformInput struct {
	Query    string
	Context  string
	Draft    string
	Analysis string
	Language models.Language
}

// Reform produces an improved draft.
func (rf *Reformer) Reform(ctx context.Context, in ReformInput) (*models.AgentOutput, error) {
	if strings.TrimSpace(in.Draft) == "" {
		return nil, &Error{Kind: ErrorKindInputInvalid, Role: models.RoleReformer,
			Err: errors.New("empty draft")}
	}

	system, user := rf.prompts.Reformer(prompt.ReformerInput{
		Query:    in.Query,
		Context:  in.Context,
		Draft:    in.Draft,
		Analysis: in.Analysis,
		Language: in.Language,
	})

	comp, latency, err := rf.r.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	text := stripDirectives(comp.Text)
	if text == "" {
		return nil, &Error{Kind: ErrorKindOutputParse, Role: models.RoleReformer,
			Err: errors.New("empty completion")}
	}

	return &models.AgentOutput{
		Role:      models.RoleReformer,
		Text:      text,
		LatencyMS: latency,
	}, nil
}
