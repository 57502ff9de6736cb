// Package lang provides deterministic, dependency-free language
// detection over the four supported query languages.
package lang

import (
	"github.com/mirage-project/mirage/pkg/models"
)

// Detection is the classification result. Confidence is the winner's
// share of all indicator matches across languages.
type Detection struct {
	Language   models.Language
	Confidence float64
}

// Indicator lists mix general function words with medical-domain terms,
// so short domain queries ("effets secondaires paracétamol ?") still score.
var indicators = map[models.Language][]string{
	models.LanguageEN: {
		"what", "how", "why", "when", "where", "which", "who",
		"are", "is", "the", "and", "of", "for", "can", "does",
		"side", "effects", "dosage", "treatment", "contraindications",
		"overdose", "interactions", "pregnancy", "children",
		"paracetamol", "ibuprofen", "aspirin", "insulin", "chemotherapy",
	},
	models.LanguageFR: {
		"quels", "quelles", "comment", "pourquoi", "quand", "qui",
		"sont", "est", "les", "des", "une", "dans", "avec", "pour",
		"effets", "secondaires", "posologie", "traitement", "médicament",
		"contre", "indications", "surdosage", "grossesse", "enfants",
		"paracétamol", "ibuprofène", "aspirine", "chimiothérapie", "effet",
	},
	models.LanguageES: {
		"qué", "cuáles", "cómo", "cuándo", "dónde", "quién",
		"son", "es", "los", "las", "del", "para", "con", "este",
		"efectos", "secundarios", "dosis", "tratamiento", "medicamento",
		"contraindicaciones", "sobredosis", "embarazo", "niños",
		"paracetamol", "ibuprofeno", "aspirina", "quimioterapia", "efecto",
	},
	models.LanguageDE: {
		"was", "wie", "warum", "wann", "wo", "wer", "welche",
		"sind", "ist", "der", "die", "das", "und", "für", "mit",
		"nebenwirkungen", "dosierung", "behandlung", "medikament",
		"kontraindikationen", "überdosis", "schwangerschaft", "kinder",
		"paracetamol", "ibuprofen", "aspirin", "chemotherapie", "wirkung",
	},
}

var indicatorSets = buildIndicatorSets()

func buildIndicatorSets() map[models.Language]map[string]struct{} {
	sets := make(map[models.Language]map[string]struct{}, len(indicators))
	for lang, words := range indicators {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		sets[lang] = set
	}
	return sets
}

// Detect classifies text into one of the supported languages.
// Total function: it never fails and defaults to English with zero
// confidence when nothing matches. English wins ties against other
// languages, the international default for medical queries.
func Detect(text string) Detection {
	tokens := TokenSet(text)

	scores := make(map[models.Language]int, len(indicatorSets))
	total := 0
	for lang, set := range indicatorSets {
		n := 0
		for tok := range tokens {
			if _, ok := set[tok]; ok {
				n++
			}
		}
		scores[lang] = n
		total += n
	}

	if total == 0 {
		return Detection{Language: models.LanguageEN, Confidence: 0}
	}

	maxOther := 0
	for _, lang := range []models.Language{models.LanguageFR, models.LanguageES, models.LanguageDE} {
		if scores[lang] > maxOther {
			maxOther = scores[lang]
		}
	}

	if scores[models.LanguageEN] > 0 && scores[models.LanguageEN] >= maxOther {
		return Detection{
			Language:   models.LanguageEN,
			Confidence: float64(scores[models.LanguageEN]) / float64(total),
		}
	}

	// Strictly highest non-English score; fixed order settles exact ties.
	winner := models.LanguageEN
	best := 0
	for _, lang := range []models.Language{models.LanguageFR, models.LanguageES, models.LanguageDE} {
		if scores[lang] > best {
			winner = lang
			best = scores[lang]
		}
	}
	if best == 0 {
		return Detection{Language: models.LanguageEN, Confidence: 0}
	}
	return Detection{Language: winner, Confidence: float64(best) / float64(total)}
}
