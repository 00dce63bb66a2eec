// Package translate implements the translation service: primary, enhanced,
// reverse, and Gemini translations plus the input validation applied before
// any network call.
package translate

// Request is the immutable translation input. It is created once at the
// pipeline entry and never mutated.
type Request struct {
	Text           string `json:"text"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
	PartnerMessage string `json:"partner_message,omitempty"`
	ContextInfo    string `json:"context_info,omitempty"`
	SessionID      string `json:"session_id"`
}

// LanguagePair returns the "<src>-<tgt>" form.
func (r Request) LanguagePair() string {
	return r.SourceLang + "-" + r.TargetLang
}

// Artifacts holds the six translation products. Any subset may be empty when
// a provider failed; a record is never edited after commit.
type Artifacts struct {
	Primary         string `json:"primary"`
	PrimaryReverse  string `json:"primary_reverse"`
	Enhanced        string `json:"enhanced"`
	EnhancedReverse string `json:"enhanced_reverse"`
	Gemini          string `json:"gemini"`
	GeminiReverse   string `json:"gemini_reverse"`
}

// Context is the aggregate handed to the interactive expert and serialized
// into the state cache.
type Context struct {
	Request
	Artifacts

	AnalysisText    string `json:"analysis,omitempty"`
	AnalysisEngine  string `json:"analysis_engine,omitempty"`
	DisplayLanguage string `json:"display_language,omitempty"`
}

// EmptyMarker is returned by reverse translation when its input is empty.
const EmptyMarker = "(empty)"

// ErrorMarkerPrefix prefixes degraded artifacts so downstream consumers can
// recognize them.
const ErrorMarkerPrefix = "[Translation error"

// IsErrorMarker reports whether s is a degraded-output marker.
func IsErrorMarker(s string) bool {
	return len(s) >= len(ErrorMarkerPrefix) && s[:len(ErrorMarkerPrefix)] == ErrorMarkerPrefix
}
