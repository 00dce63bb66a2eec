package translate

import (
	"fmt"
	"regexp"
	"strings"
)

// Input length limits, in runes after trimming.
const (
	MaxTextLen    = 10000
	MaxContextLen = 2000
)

// SupportedLanguages is the closed set of translation language codes.
var SupportedLanguages = map[string]bool{
	"ja": true, "en": true, "fr": true,
	"es": true, "de": true, "it": true,
}

// DisplayLanguages is the closed set of UI localization codes.
var DisplayLanguages = map[string]bool{
	"jp": true, "en": true, "fr": true, "es": true,
}

// strictPatterns reject obvious injection attempts in non-translation fields.
var strictPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on(load|error|click)\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)document\.cookie`),
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i);\s*rm\s+-rf`),
	regexp.MustCompile(`\$\(\s*curl`),
}

// relaxedPatterns apply to fields holding natural language to be translated.
// Only unambiguous attack markers are rejected, so phrases like "drop the
// table" or "select a union" pass through.
var relaxedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:alert`),
	regexp.MustCompile(`(?i)<iframe\s+src=`),
	regexp.MustCompile(`(?i)document\.cookie`),
	regexp.MustCompile(`(?i);\s*rm\s+-rf`),
	regexp.MustCompile(`\$\(\s*curl`),
}

// controlChars matches C0/C1 control characters other than tab, LF, and CR.
// Applied to non-translation fields only.
var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`)

// ValidationError rejects an input before any network call. It maps to the
// invalid_input kind on the HTTP surface.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks a translation request. The text and partner message use the
// relaxed pattern set; context info and session id use the strict set plus
// the control-character filter.
func Validate(req Request) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if n := len([]rune(text)); n > MaxTextLen {
		return &ValidationError{Field: "text",
			Message: fmt.Sprintf("length %d exceeds maximum %d", n, MaxTextLen)}
	}
	if err := checkPatterns("text", text, relaxedPatterns); err != nil {
		return err
	}

	if !SupportedLanguages[req.SourceLang] || !SupportedLanguages[req.TargetLang] {
		return &ValidationError{Field: "language_pair",
			Message: fmt.Sprintf("unsupported pair %q", req.LanguagePair())}
	}
	if req.SourceLang == req.TargetLang {
		return &ValidationError{Field: "language_pair",
			Message: "source and target languages must differ"}
	}

	if n := len([]rune(req.PartnerMessage)); n > MaxContextLen {
		return &ValidationError{Field: "partner_message",
			Message: fmt.Sprintf("length %d exceeds maximum %d", n, MaxContextLen)}
	}
	if err := checkPatterns("partner_message", req.PartnerMessage, relaxedPatterns); err != nil {
		return err
	}

	if n := len([]rune(req.ContextInfo)); n > MaxContextLen {
		return &ValidationError{Field: "context_info",
			Message: fmt.Sprintf("length %d exceeds maximum %d", n, MaxContextLen)}
	}
	if err := checkStrict("context_info", req.ContextInfo); err != nil {
		return err
	}

	if req.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "must not be empty"}
	}
	if err := checkStrict("session_id", req.SessionID); err != nil {
		return err
	}

	return nil
}

func checkPatterns(field, value string, patterns []*regexp.Regexp) error {
	for _, p := range patterns {
		if p.MatchString(value) {
			return &ValidationError{Field: field, Message: "contains a forbidden pattern"}
		}
	}
	return nil
}

func checkStrict(field, value string) error {
	if controlChars.MatchString(value) {
		return &ValidationError{Field: field, Message: "contains control characters"}
	}
	return checkPatterns(field, value, strictPatterns)
}
