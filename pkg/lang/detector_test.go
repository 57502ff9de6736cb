package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirage-project/mirage/pkg/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Language
	}{
		{"english question", "What is the mechanism of action of paracetamol?", models.LanguageEN},
		{"french question", "Quels sont les effets secondaires du paracétamol ?", models.LanguageFR},
		{"spanish question", "¿Cuáles son los efectos secundarios del paracetamol?", models.LanguageES},
		{"german question", "Was sind die Nebenwirkungen von Paracetamol?", models.LanguageDE},
		{"english medical terms", "paracetamol overdose side effects", models.LanguageEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := Detect(tt.text)
			assert.Equal(t, tt.want, det.Language)
			assert.Greater(t, det.Confidence, 0.0)
			assert.LessOrEqual(t, det.Confidence, 1.0)
		})
	}
}

func TestDetect_NoMatchesDefaultsToEnglish(t *testing.T) {
	det := Detect("xyzzy plugh 12345")
	assert.Equal(t, models.LanguageEN, det.Language)
	assert.Equal(t, 0.0, det.Confidence)

	det = Detect("")
	assert.Equal(t, models.LanguageEN, det.Language)
	assert.Equal(t, 0.0, det.Confidence)
}

func TestDetect_EnglishWinsTies(t *testing.T) {
	// "paracetamol" scores for EN, ES, and DE. EN wins the tie.
	det := Detect("paracetamol")
	assert.Equal(t, models.LanguageEN, det.Language)
}

func TestDetect_ConfidenceIsWinnerShare(t *testing.T) {
	// All matched indicators belong to one language.
	det := Detect("Quels sont les effets secondaires ?")
	assert.Equal(t, models.LanguageFR, det.Language)
	assert.Equal(t, 1.0, det.Confidence)
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Contre-indications du Paracétamol, s'il vous plaît!")
	assert.Equal(t, []string{"contre", "indications", "du", "paracétamol", "s", "il", "vous", "plaît"}, tokens)
}

func TestJoinedTokens(t *testing.T) {
	assert.Equal(t, " side effects ", JoinedTokens("Side-Effects?"))
	assert.Equal(t, " ", JoinedTokens("  ...  "))
}
