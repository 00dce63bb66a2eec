package cache

import (
	"context"
	"encoding/json"

	"github.com/langpont/core/translate"
)

// PutContext stores the full aggregate as one JSON blob and mirrors its
// fields individually so readers can reconstruct it after the blob expires.
func (c *Cache) PutContext(ctx context.Context, sessionID string, tc *translate.Context) bool {
	blob, err := json.Marshal(tc)
	if err != nil {
		c.logger.Warn("Context serialization failed",
			"session_id", sessionID,
			"error", err)
		return false
	}

	ok := c.Put(ctx, sessionID, FieldContextFullData, string(blob))

	fields := map[string]string{
		FieldInputText:      tc.Text,
		FieldSourceLang:     tc.SourceLang,
		FieldTargetLang:     tc.TargetLang,
		FieldLanguagePair:   tc.LanguagePair(),
		FieldPartnerMessage: tc.PartnerMessage,
		FieldContextInfo:    tc.ContextInfo,

		FieldPrimary:         tc.Primary,
		FieldPrimaryReverse:  tc.PrimaryReverse,
		FieldEnhanced:        tc.Enhanced,
		FieldEnhancedReverse: tc.EnhancedReverse,
		FieldGemini:          tc.Gemini,
		FieldGeminiReverse:   tc.GeminiReverse,

		FieldAnalysis: tc.AnalysisText,
	}
	return c.PutMany(ctx, sessionID, fields) && ok
}

// GetContext loads the aggregate. When the blob is absent the context is
// reconstructed from whatever individual fields survive; the second return
// is false only when nothing at all is cached for the session.
func (c *Cache) GetContext(ctx context.Context, sessionID string) (*translate.Context, bool) {
	if blob, ok := c.store.Get(ctx, sessionID, FieldContextFullData); ok {
		var tc translate.Context
		if err := json.Unmarshal([]byte(blob), &tc); err == nil {
			return &tc, true
		}
		c.logger.Warn("Context blob corrupt, reconstructing from fields",
			"session_id", sessionID)
	}

	fields := c.GetMany(ctx, sessionID, []string{
		FieldInputText, FieldSourceLang, FieldTargetLang,
		FieldPartnerMessage, FieldContextInfo,
		FieldPrimary, FieldPrimaryReverse,
		FieldEnhanced, FieldEnhancedReverse,
		FieldGemini, FieldGeminiReverse,
		FieldAnalysis,
	})
	if len(fields) == 0 {
		return nil, false
	}

	tc := &translate.Context{
		Request: translate.Request{
			Text:           fields[FieldInputText],
			SourceLang:     fields[FieldSourceLang],
			TargetLang:     fields[FieldTargetLang],
			PartnerMessage: fields[FieldPartnerMessage],
			ContextInfo:    fields[FieldContextInfo],
			SessionID:      sessionID,
		},
		Artifacts: translate.Artifacts{
			Primary:         fields[FieldPrimary],
			PrimaryReverse:  fields[FieldPrimaryReverse],
			Enhanced:        fields[FieldEnhanced],
			EnhancedReverse: fields[FieldEnhancedReverse],
			Gemini:          fields[FieldGemini],
			GeminiReverse:   fields[FieldGeminiReverse],
		},
		AnalysisText: fields[FieldAnalysis],
	}
	return tc, true
}
