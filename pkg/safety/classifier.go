// Package safety classifies queries against the fixed taxonomy of
// human-validation triggers.
package safety

import (
	"strings"

	"github.com/mirage-project/mirage/pkg/lang"
	"github.com/mirage-project/mirage/pkg/models"
)

// Trigger is a matched validation trigger. Priority 5 is highest.
type Trigger struct {
	Kind         models.TriggerKind
	Priority     int
	MatchedTerms []string
}

// taxonomyEntry is one row of the fixed trigger taxonomy. Terms cover
// all supported languages; multi-word terms are matched as token
// sequences, so "side effects" and "side-effects" both hit.
type taxonomyEntry struct {
	kind     models.TriggerKind
	priority int
	terms    []string
}

// The taxonomy is fixed. Order matters: when two triggers share a
// priority, the earlier entry wins.
var taxonomy = []taxonomyEntry{
	{
		kind:     models.TriggerSafetyReview,
		priority: 5,
		terms: []string{
			"overdose", "toxicity", "pregnancy", "child", "children",
			"contraindication", "contraindications", "warning", "adverse",
			"surdosage", "toxicité", "grossesse", "enfant", "enfants",
			"contre-indication", "contre-indications", "avertissement",
			"sobredosis", "toxicidad", "embarazo", "niño", "niños",
			"contraindicación", "contraindicaciones", "advertencia",
			"überdosis", "überdosierung", "toxizität", "schwangerschaft",
			"kind", "kinder", "kontraindikation", "warnung",
		},
	},
	{
		kind:     models.TriggerMedicalApproval,
		priority: 3,
		terms: []string{
			"diagnosis", "treatment", "dosage", "clinical", "prescription",
			"diagnostic", "traitement", "posologie", "clinique", "ordonnance",
			"diagnóstico", "tratamiento", "dosificación", "clínico", "receta",
			"diagnose", "behandlung", "dosierung", "klinisch", "rezept",
		},
	},
	{
		kind:     models.TriggerRegulatoryCompliance,
		priority: 4,
		terms: []string{
			"fda", "ema", "regulatory", "approval", "compliance",
			"ansm", "réglementaire", "approbation", "conformité",
			"aemps", "regulatorio", "aprobación", "cumplimiento",
			"regulatorisch", "zulassung",
		},
	},
	{
		kind:     models.TriggerCriticalDecision,
		priority: 5,
		terms: []string{
			"lethal", "emergency", "life-threatening",
			"létal", "létale", "mortel", "mortelle", "urgence",
			"letal", "mortal", "emergencia",
			"tödlich", "lebensbedrohlich", "notfall",
		},
	},
	{
		kind:     models.TriggerQualityAssurance,
		priority: 2,
		terms: []string{
			"verify", "double-check",
			"vérifier", "revérifier",
			"verificar", "comprobar",
			"überprüfen", "nachprüfen",
		},
	},
}

// Classify matches the text against the trigger taxonomy. Matching is
// case-insensitive whole-word across all supported languages. When
// multiple kinds match, the highest priority wins; ties go to taxonomy
// order. Returns nil when nothing matches.
func Classify(text string) *Trigger {
	joined := lang.JoinedTokens(text)

	var best *Trigger
	for _, entry := range taxonomy {
		var matched []string
		for _, term := range entry.terms {
			if strings.Contains(joined, lang.JoinedTokens(term)) {
				matched = append(matched, term)
			}
		}
		if len(matched) == 0 {
			continue
		}
		if best == nil || entry.priority > best.Priority {
			best = &Trigger{Kind: entry.kind, Priority: entry.priority, MatchedTerms: matched}
		}
	}
	return best
}
