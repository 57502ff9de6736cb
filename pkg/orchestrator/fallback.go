package orchestrator

import "github.com/mirage-project/mirage/pkg/models"

// safeRefusals are the per-language fallback answers returned when no
// draft survives verification or a human reviewer rejects the draft.
// Fixed text, never produced by a model.
var safeRefusals = map[models.Language]string{
	models.LanguageEN: "⚠️ I cannot provide a verified answer to this question. Please consult a qualified healthcare professional.",
	models.LanguageFR: "⚠️ Je ne peux pas fournir une réponse vérifiée à cette question. Veuillez consulter un professionnel de santé qualifié.",
	models.LanguageES: "⚠️ No puedo proporcionar una respuesta verificada a esta pregunta. Por favor, consulte a un profesional de la salud cualificado.",
	models.LanguageDE: "⚠️ Ich kann keine verifizierte Antwort auf diese Frage geben. Bitte wenden Sie sich an qualifiziertes medizinisches Fachpersonal.",
}

// SafeRefusal returns the fallback answer in the given language,
// defaulting to English for anything unrecognized.
func SafeRefusal(language models.Language) string {
	if text, ok := safeRefusals[language]; ok {
		return text
	}
	return safeRefusals[models.LanguageEN]
}
