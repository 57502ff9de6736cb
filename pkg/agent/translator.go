package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/mirage-project/mirage/pkg/agent/prompt"
	"github.com/mirage-project/mirage/pkg/models"
)

// Translator converts an approved answer to the requested target
// language, preserving medical terminology.
type Translator struct {
	r       runner
	prompts *prompt.Builder
}

// NewTranslator creates the Translator agent over the shared prompt builder.
func NewTranslator(llm LLMClient, prompts *prompt.Builder, policy RetryPolicy) *Translator {
	return &Translator{
		r:       runner{role: models.RoleTranslator, llm: llm, policy: policy},
		prompts: prompts,
	}
}

// TranslateInput is the Translator's role input.
type TranslateInput struct {
	Text           string
	SourceLanguage models.Language
	TargetLanguage models.Language
}

// Translate converts the text. Invoked only when source and target
// languages differ; passing equal languages is an input error.
func (t *Translator) Translate(ctx context.Context, in TranslateInput) (*models.AgentOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, &Error{Kind: ErrorKindInputInvalid, Role: models.RoleTranslator,
			Err: errors.New("empty text")}
	}
	if in.SourceLanguage == in.TargetLanguage {
		return nil, &Error{Kind: ErrorKindInputInvalid, Role: models.RoleTranslator,
			Err: errors.New("source and target language are equal")}
	}
	if !in.TargetLanguage.Valid() {
		return nil, &Error{Kind: ErrorKindInputInvalid, Role: models.RoleTranslator,
			Err: models.ErrUnsupportedLanguage}
	}

	system, user := t.prompts.Translator(prompt.TranslatorInput{
		Text:           in.Text,
		SourceLanguage: in.SourceLanguage,
		TargetLanguage: in.TargetLanguage,
	})

	comp, latency, err := t.r.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	text := stripDirectives(comp.Text)
	if text == "" {
		return nil, &Error{Kind: ErrorKindOutputParse, Role: models.RoleTranslator,
			Err: errors.New("empty completion")}
	}

	return &models.AgentOutput{
		Role:      models.RoleTranslator,
		Text:      text,
		LatencyMS: latency,
	}, nil
}
