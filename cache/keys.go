// Package cache implements the session-scoped state cache. Artifacts are
// keyed by (environment, session, field) and grouped into TTL classes; the
// NATS-backed store degrades to a process-local map when the cluster is
// unreachable.
package cache

import (
	"fmt"
	"strings"
	"time"
)

// Class groups fields that share a TTL ceiling. Each class maps to its own
// KV bucket so the bucket TTL enforces the ceiling.
type Class string

const (
	// ClassState holds small scalars such as language codes.
	ClassState Class = "state"

	// ClassInput holds the request inputs, the six translations, and the
	// analysis text.
	ClassInput Class = "input"

	// ClassContext holds the serialized context blob.
	ClassContext Class = "context"

	// ClassHistory holds per-session interactive history. No TTL.
	ClassHistory Class = "history"
)

// TTL ceilings per class.
const (
	TTLState   = 3600 * time.Second
	TTLInput   = 1800 * time.Second
	TTLContext = 30 * 24 * time.Hour
	TTLHistory = time.Duration(0)
)

// Well-known field names.
const (
	FieldSourceLang   = "source_lang"
	FieldTargetLang   = "target_lang"
	FieldLanguagePair = "language_pair"

	FieldInputText      = "input_text"
	FieldPartnerMessage = "partner_message"
	FieldContextInfo    = "context_info"

	FieldPrimary         = "primary"
	FieldPrimaryReverse  = "primary_reverse"
	FieldEnhanced        = "enhanced"
	FieldEnhancedReverse = "enhanced_reverse"
	FieldGemini          = "gemini"
	FieldGeminiReverse   = "gemini_reverse"

	FieldAnalysis       = "analysis"
	FieldRecommendation = "recommendation"

	FieldContextFullData = "context_full_data"
	FieldChatHistory     = "chat_history"
)

// TranslationFields lists the six artifact fields in their canonical order.
var TranslationFields = []string{
	FieldPrimary, FieldPrimaryReverse,
	FieldEnhanced, FieldEnhancedReverse,
	FieldGemini, FieldGeminiReverse,
}

// fieldClasses maps each known field to its TTL class. Unknown fields default
// to ClassInput, the shortest-lived artifact class.
var fieldClasses = map[string]Class{
	FieldSourceLang:   ClassState,
	FieldTargetLang:   ClassState,
	FieldLanguagePair: ClassState,

	FieldInputText:      ClassInput,
	FieldPartnerMessage: ClassInput,
	FieldContextInfo:    ClassInput,

	FieldPrimary:         ClassInput,
	FieldPrimaryReverse:  ClassInput,
	FieldEnhanced:        ClassInput,
	FieldEnhancedReverse: ClassInput,
	FieldGemini:          ClassInput,
	FieldGeminiReverse:   ClassInput,

	FieldAnalysis:       ClassInput,
	FieldRecommendation: ClassInput,

	FieldContextFullData: ClassContext,
	FieldChatHistory:     ClassHistory,
}

// ClassOf returns the TTL class for a field.
func ClassOf(field string) Class {
	if c, ok := fieldClasses[field]; ok {
		return c
	}
	return ClassInput
}

// TTLOf returns the TTL ceiling for a class. Zero means unbounded.
func TTLOf(class Class) time.Duration {
	switch class {
	case ClassState:
		return TTLState
	case ClassContext:
		return TTLContext
	case ClassHistory:
		return TTLHistory
	default:
		return TTLInput
	}
}

// Key builds the logical cache key. env is one of dev, stage, prod.
func Key(env, sessionID, field string) string {
	return fmt.Sprintf("langpont:%s:translation_state:%s:%s", env, sessionID, field)
}

// natsKey converts a logical key into a NATS-legal KV key. The colon
// separators become dots; the session segment is caller-supplied, so it is
// escaped byte-wise. env and field are known-safe names.
func natsKey(env, sessionID, field string) string {
	return fmt.Sprintf("langpont.%s.translation_state.%s.%s", env, escapeSegment(sessionID), field)
}

// escapeSegment maps an arbitrary string onto the NATS key alphabet. Bytes
// outside [A-Za-z0-9_-] become "=XX" hex, so distinct inputs always yield
// distinct keys and never introduce token separators or wildcards.
func escapeSegment(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "=%02X", c)
		}
	}
	return b.String()
}
