package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Query length bounds in characters (runes, not bytes; queries are multilingual).
const (
	MinQueryLength = 10
	MaxQueryLength = 1000
)

// Query is a user-submitted question together with its routing preferences.
// Immutable once constructed.
type Query struct {
	// Text is the question, 10–1000 characters.
	Text string `json:"query"`

	// TargetLanguage requests the answer language. Empty means
	// "answer in the detected language".
	TargetLanguage Language `json:"target_language,omitempty"`

	// EnableHumanLoop gates the human validation path for
	// safety-triggered queries. Defaults to true at the API boundary.
	EnableHumanLoop bool `json:"enable_human_loop"`

	// RequestID identifies this request in logs and audit records.
	RequestID string `json:"request_id,omitempty"`
}

// ValidationError describes a rejected query (pre-condition failure).
// Mapped to HTTP 400 at the API boundary; never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the query pre-conditions: length bounds and a
// supported (or empty) target language.
func (q *Query) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(q.Text))
	if n < MinQueryLength {
		return &ValidationError{Field: "query", Reason: fmt.Sprintf("must be at least %d characters", MinQueryLength)}
	}
	if n > MaxQueryLength {
		return &ValidationError{Field: "query", Reason: fmt.Sprintf("must be at most %d characters", MaxQueryLength)}
	}
	if q.TargetLanguage != "" && !q.TargetLanguage.Valid() {
		return &ValidationError{Field: "target_language", Reason: ErrUnsupportedLanguage.Error()}
	}
	return nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeQueryText lowercases the text and collapses runs of whitespace
// to a single space. Punctuation is preserved.
func NormalizeQueryText(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fingerprint returns the stable cache / single-flight key for this query:
// a hash of the normalized text, the target language, and the human-loop flag.
func (q *Query) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(NormalizeQueryText(q.Text)))
	h.Write([]byte{0})
	h.Write([]byte(q.TargetLanguage))
	h.Write([]byte{0})
	if q.EnableHumanLoop {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
