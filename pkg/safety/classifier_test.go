package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirage-project/mirage/pkg/models"
)

func TestClassify_NoTrigger(t *testing.T) {
	assert.Nil(t, Classify("What is the mechanism of action of paracetamol?"))
	assert.Nil(t, Classify(""))
}

func TestClassify_SafetyReview(t *testing.T) {
	trig := Classify("What happens in case of paracetamol overdose during pregnancy?")
	require.NotNil(t, trig)
	assert.Equal(t, models.TriggerSafetyReview, trig.Kind)
	assert.Equal(t, 5, trig.Priority)
	assert.ElementsMatch(t, []string{"overdose", "pregnancy"}, trig.MatchedTerms)
}

func TestClassify_HighestPriorityWins(t *testing.T) {
	// "dosage" → MEDICAL_APPROVAL (3), "lethal" → CRITICAL_DECISION (5).
	trig := Classify("What is the lethal dosage of paracetamol?")
	require.NotNil(t, trig)
	assert.Equal(t, models.TriggerCriticalDecision, trig.Kind)
	assert.Equal(t, 5, trig.Priority)
}

func TestClassify_TaxonomyOrderBreaksPriorityTies(t *testing.T) {
	// SAFETY_REVIEW and CRITICAL_DECISION are both priority 5;
	// SAFETY_REVIEW comes first in the taxonomy.
	trig := Classify("Is this overdose lethal?")
	require.NotNil(t, trig)
	assert.Equal(t, models.TriggerSafetyReview, trig.Kind)
}

func TestClassify_WholeWordOnly(t *testing.T) {
	// "pregnancy" must not match inside another word.
	assert.Nil(t, Classify("the prepregnancyx cohort"))

	// Case-insensitive.
	trig := Classify("OVERDOSE risk?")
	require.NotNil(t, trig)
	assert.Equal(t, models.TriggerSafetyReview, trig.Kind)
}

func TestClassify_MultiWordAndHyphenatedTerms(t *testing.T) {
	trig := Classify("Is this condition life threatening?")
	require.NotNil(t, trig)
	assert.Equal(t, models.TriggerCriticalDecision, trig.Kind)

	trig = Classify("Is this condition life-threatening?")
	require.NotNil(t, trig)
	assert.Equal(t, models.TriggerCriticalDecision, trig.Kind)
}

func TestClassify_Multilingual(t *testing.T) {
	tests := []struct {
		text string
		kind models.TriggerKind
	}{
		{"Quels sont les risques de surdosage pendant la grossesse ?", models.TriggerSafetyReview},
		{"¿Cuál es la dosificación recomendada?", models.TriggerMedicalApproval},
		{"Ist diese Behandlung für Kinder geeignet?", models.TriggerSafetyReview},
		{"Has the EMA granted approval for this compound?", models.TriggerRegulatoryCompliance},
		{"Please double-check this interaction list.", models.TriggerQualityAssurance},
	}
	for _, tt := range tests {
		trig := Classify(tt.text)
		require.NotNil(t, trig, "text %q", tt.text)
		assert.Equal(t, tt.kind, trig.Kind, "text %q", tt.text)
	}
}
