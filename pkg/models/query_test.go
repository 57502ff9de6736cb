package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryValidate_LengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"too short", "short", true},
		{"minimum length", "0123456789", false},
		{"typical", "What is the mechanism of action of paracetamol?", false},
		{"too long", strings.Repeat("a", 1001), true},
		{"maximum length", strings.Repeat("a", 1000), false},
		{"whitespace only", "          \t\t\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{Text: tt.text}
			err := q.Validate()
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "query", verr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQueryValidate_TargetLanguage(t *testing.T) {
	q := Query{Text: "What are the side effects of ibuprofen?", TargetLanguage: "IT"}
	err := q.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "target_language", verr.Field)

	q.TargetLanguage = LanguageDE
	assert.NoError(t, q.Validate())
}

func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage("fr")
	require.NoError(t, err)
	assert.Equal(t, LanguageFR, lang)

	lang, err = ParseLanguage(" EN ")
	require.NoError(t, err)
	assert.Equal(t, LanguageEN, lang)

	lang, err = ParseLanguage("")
	require.NoError(t, err)
	assert.Equal(t, Language(""), lang)

	_, err = ParseLanguage("pt")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestNormalizeQueryText(t *testing.T) {
	assert.Equal(t, "what is paracetamol?",
		NormalizeQueryText("  What   is\tParacetamol? \n"))
}

func TestFingerprint_Stability(t *testing.T) {
	a := Query{Text: "What is the dosage of aspirin?", TargetLanguage: LanguageEN, EnableHumanLoop: true}
	b := Query{Text: "  what IS the   dosage of aspirin?", TargetLanguage: LanguageEN, EnableHumanLoop: true}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "normalization-equivalent queries share a fingerprint")

	// Punctuation is preserved by normalization.
	c := Query{Text: "What is the dosage of aspirin", TargetLanguage: LanguageEN, EnableHumanLoop: true}
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	// Each fingerprint component participates.
	d := a
	d.TargetLanguage = LanguageFR
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())

	e := a
	e.EnableHumanLoop = false
	assert.NotEqual(t, a.Fingerprint(), e.Fingerprint())
}

func TestFinalResponseClone(t *testing.T) {
	orig := &FinalResponse{
		Success:   true,
		Answer:    "answer",
		Consensus: ConsensusApproved,
		Sources:   []Source{{DocID: "d1", Similarity: 0.9}},
	}
	clone := orig.Clone()
	clone.Sources[0].DocID = "mutated"
	clone.Answer = "mutated"

	assert.Equal(t, "d1", orig.Sources[0].DocID)
	assert.Equal(t, "answer", orig.Answer)
}

func TestConsensusCacheable(t *testing.T) {
	assert.True(t, ConsensusApproved.Cacheable())
	assert.True(t, ConsensusReformedApproved.Cacheable())
	assert.False(t, ConsensusPendingValidation.Cacheable())
	assert.False(t, ConsensusFallback.Cacheable())
	assert.False(t, ConsensusFailed.Cacheable())
}
