package models

import (
	"fmt"
	"strings"
)

// Language is one of the four supported answer languages.
// The set is fixed; callers supplying other codes receive ErrUnsupportedLanguage.
type Language string

// Supported languages.
const (
	LanguageEN Language = "EN"
	LanguageFR Language = "FR"
	LanguageES Language = "ES"
	LanguageDE Language = "DE"
)

// SupportedLanguages lists every language the pipeline can detect,
// answer in, and translate to.
var SupportedLanguages = []Language{LanguageEN, LanguageFR, LanguageES, LanguageDE}

// ErrUnsupportedLanguage is returned when a caller supplies a language
// code outside the supported set.
var ErrUnsupportedLanguage = fmt.Errorf("unsupported language (supported: EN, FR, ES, DE)")

// ParseLanguage normalizes a language code to a Language.
// The empty string is valid and means "no preference".
func ParseLanguage(code string) (Language, error) {
	if code == "" {
		return "", nil
	}
	switch Language(strings.ToUpper(strings.TrimSpace(code))) {
	case LanguageEN:
		return LanguageEN, nil
	case LanguageFR:
		return LanguageFR, nil
	case LanguageES:
		return LanguageES, nil
	case LanguageDE:
		return LanguageDE, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageEN, LanguageFR, LanguageES, LanguageDE:
		return true
	}
	return false
}
