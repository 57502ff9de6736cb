// Package prompt builds all prompt text for the pipeline agents.
// One Builder instance is shared by every agent: template updates are
// atomic pointer swaps, so in-flight calls see either the old or the
// new set, never a torn mix, and no agent can hold a stale copy.
package prompt

import (
	"fmt"
	"sync/atomic"

	"github.com/mirage-project/mirage/pkg/models"
)

// TemplateSet holds the full set of role templates. Immutable once
// installed in a Builder.
type TemplateSet struct {
	GeneratorSystem  string
	GeneratorUser    string
	VerifierSystem   string
	VerifierUser     string
	ReformerSystem   string
	ReformerUser     string
	TranslatorSystem string
	TranslatorUser   string
}

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() *TemplateSet {
	return &TemplateSet{
		GeneratorSystem:  generatorSystemTemplate,
		GeneratorUser:    generatorUserTemplate,
		VerifierSystem:   verifierSystemTemplate,
		VerifierUser:     verifierUserTemplate,
		ReformerSystem:   reformerSystemTemplate,
		ReformerUser:     reformerUserTemplate,
		TranslatorSystem: translatorSystemTemplate,
		TranslatorUser:   translatorUserTemplate,
	}
}

// Builder composes agent prompts from the current template set,
// parameterized by role and detected language.
type Builder struct {
	templates atomic.Pointer[TemplateSet]
}

// NewBuilder creates a Builder with the default templates installed.
func NewBuilder() *Builder {
	b := &Builder{}
	b.templates.Store(DefaultTemplates())
	return b
}

// Update atomically installs a new template set for all agents.
func (b *Builder) Update(ts *TemplateSet) {
	if ts == nil {
		panic("prompt.Builder.Update: template set must not be nil")
	}
	b.templates.Store(ts)
}

// Templates returns the currently installed set.
func (b *Builder) Templates() *TemplateSet {
	return b.templates.Load()
}

// languageNames maps the language code to the name used in prompt
// directives ("Answer in French.").
var languageNames = map[models.Language]string{
	models.LanguageEN: "English",
	models.LanguageFR: "French",
	models.LanguageES: "Spanish",
	models.LanguageDE: "German",
}

// LanguageName returns the prompt-directive name for a language.
func LanguageName(l models.Language) string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[models.LanguageEN]
}

// uncertaintyAcknowledgements is the exact sentence the Generator must
// emit when the context does not contain the answer, per language.
var uncertaintyAcknowledgements = map[models.Language]string{
	models.LanguageEN: "I cannot find this information in the provided sources.",
	models.LanguageFR: "Je ne trouve pas cette information dans les sources fournies.",
	models.LanguageES: "No puedo encontrar esta información en las fuentes proporcionadas.",
	models.LanguageDE: "Ich kann diese Information in den bereitgestellten Quellen nicht finden.",
}

// UncertaintyAcknowledgement returns the exact no-answer sentence for a
// language. Used both in the Generator prompt and to recognize the
// uncertainty path in Generator output.
func UncertaintyAcknowledgement(l models.Language) string {
	if msg, ok := uncertaintyAcknowledgements[l]; ok {
		return msg
	}
	return uncertaintyAcknowledgements[models.LanguageEN]
}

// GeneratorInput parameterizes the Generator prompt.
type GeneratorInput struct {
	Query    string
	Context  string
	Language models.Language
}

// Generator builds the (system, user) prompt pair for the Generator.
func (b *Builder) Generator(in GeneratorInput) (system, user string) {
	ts := b.templates.Load()
	system = fmt.Sprintf(ts.GeneratorSystem, UncertaintyAcknowledgement(in.Language), LanguageName(in.Language))
	ctx := in.Context
	if ctx == "" {
		ctx = "(no relevant documents found)"
	}
	user = fmt.Sprintf(ts.GeneratorUser, ctx, in.Query)
	return system, user
}

// VerifierInput parameterizes the Verifier prompt.
type VerifierInput struct {
	Query    string
	Context  string
	Draft    string
	Language models.Language
}

// Verifier builds the (system, user) prompt pair for the Verifier.
func (b *Builder) Verifier(in VerifierInput) (system, user string) {
	ts := b.templates.Load()
	system = fmt.Sprintf(ts.VerifierSystem, LanguageName(in.Language))
	user = fmt.Sprintf(ts.VerifierUser, in.Query, in.Context, in.Draft)
	return system, user
}

// ReformerInput parameterizes the Reformer prompt.
type ReformerInput struct {
	Query    string
	Context  string
	Draft    string
	Analysis string
	Language models.Language
}

// Reformer builds the (system, user) prompt pair for the Reformer.
func (b *Builder) Reformer(in ReformerInput) (system, user string) {
	ts := b.templates.Load()
	system = fmt.Sprintf(ts.ReformerSystem, LanguageName(in.Language))
	user = fmt.Sprintf(ts.ReformerUser, in.Query, in.Context, in.Draft, in.Analysis)
	return system, user
}

// TranslatorInput parameterizes the Translator prompt.
type TranslatorInput struct {
	Text           string
	SourceLanguage models.Language
	TargetLanguage models.Language
}

// Translator builds the (system, user) prompt pair for the Translator.
func (b *Builder) Translator(in TranslatorInput) (system, user string) {
	ts := b.templates.Load()
	system = fmt.Sprintf(ts.TranslatorSystem, LanguageName(in.SourceLanguage), LanguageName(in.TargetLanguage))
	user = fmt.Sprintf(ts.TranslatorUser, in.Text)
	return system, user
}
