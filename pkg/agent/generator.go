package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/mirage-project/mirage/pkg/agent/prompt"
	"github.com/mirage-project/mirage/pkg/models"
)

// Generator produces the initial draft answer grounded in the
// retrieved context.
type Generator struct {
	r       runner
	prompts *prompt.Builder
}

// NewGenerator creates the Generator agent over the shared prompt builder.
func NewGenerator(llm LLMClient, prompts *prompt.Builder, policy RetryPolicy) *Generator {
	return &Generator{
		r:       runner{role: models.RoleGenerator, llm: llm, policy: policy},
		prompts: prompts,
	}
}

// GenerateInput is the Generator's role input.
type GenerateInput struct {
	Query    string
	Context  *models.RetrievedContext
	Language models.Language
}

// Generate produces a draft answer. When the context is empty or the
// model acknowledges it cannot answer from the sources, confidence is
// clamped to the uncertainty band (<= 0.3); that acknowledgement is a
// correct answer, not a failure.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (*models.AgentOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, &Error{Kind: ErrorKindInputInvalid, Role: models.RoleGenerator,
			Err: errors.New("empty query")}
	}

	system, user := g.prompts.Generator(prompt.GeneratorInput{
		Query:    in.Query,
		Context:  in.Context.Text,
		Language: in.Language,
	})

	comp, latency, err := g.r.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	answer := stripDirectives(comp.Text)
	if answer == "" {
		return nil, &Error{Kind: ErrorKindOutputParse, Role: models.RoleGenerator,
			Err: errors.New("empty completion")}
	}

	confidence := g.confidence(comp, in.Context)
	if in.Context.Empty() || IsUncertaintyAcknowledgement(answer) {
		if confidence > 0.3 {
			confidence = 0.3
		}
	}

	return &models.AgentOutput{
		Role:       models.RoleGenerator,
		Text:       answer,
		Confidence: confidence,
		LatencyMS:  latency,
	}, nil
}

// confidence prefers the model's self-reported score (CONFIDENCE line,
// then the transport's self-confidence field) and falls back to the
// best retrieval similarity.
func (g *Generator) confidence(comp *Completion, rc *models.RetrievedContext) float64 {
	if v, ok := parseScores(comp.Text)["CONFIDENCE"]; ok {
		return v
	}
	if comp.SelfConfidence != nil && *comp.SelfConfidence >= 0 && *comp.SelfConfidence <= 1 {
		return *comp.SelfConfidence
	}
	return rc.MaxSimilarity()
}

// IsUncertaintyAcknowledgement reports whether the text contains the
// no-answer acknowledgement sentence in any supported language.
func IsUncertaintyAcknowledgement(text string) bool {
	lowered := strings.ToLower(text)
	for _, l := range models.SupportedLanguages {
		if strings.Contains(lowered, strings.ToLower(prompt.UncertaintyAcknowledgement(l))) {
			return true
		}
	}
	return false
}
