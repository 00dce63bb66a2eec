package translate

import (
	"fmt"
	"strings"
)

// languageNames maps codes to the English names used inside prompts.
var languageNames = map[string]string{
	"ja": "Japanese",
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"it": "Italian",
}

// LanguageName returns the English name for a language code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// PrimaryPrompt builds the context-aware translation prompt. The partner
// message and background sections are included only when non-empty.
func PrimaryPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a professional translator. Translate the following %s text into natural %s.\n",
		LanguageName(req.SourceLang), LanguageName(req.TargetLang))

	if msg := strings.TrimSpace(req.PartnerMessage); msg != "" {
		b.WriteString("\nPREVIOUS CONVERSATION:\n")
		b.WriteString(msg)
		b.WriteString("\n")
	}
	if info := strings.TrimSpace(req.ContextInfo); info != "" {
		b.WriteString("\nBACKGROUND & RELATIONSHIP:\n")
		b.WriteString(info)
		b.WriteString("\n")
	}

	b.WriteString("\nTranslate only the text below. Output the translation and nothing else.\n\nTEXT:\n")
	b.WriteString(strings.TrimSpace(req.Text))

	return b.String()
}

// GeminiPrompt builds the Gemini-adapted prompt. Same information as the
// primary prompt, phrased as a single instruction block.
func GeminiPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Translate the following %s text into %s.\n",
		LanguageName(req.SourceLang), LanguageName(req.TargetLang))

	if msg := strings.TrimSpace(req.PartnerMessage); msg != "" {
		b.WriteString("\nPREVIOUS CONVERSATION:\n")
		b.WriteString(msg)
		b.WriteString("\n")
	}
	if info := strings.TrimSpace(req.ContextInfo); info != "" {
		b.WriteString("\nBACKGROUND & RELATIONSHIP:\n")
		b.WriteString(info)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with the translation only, no explanations.\n\nTEXT:\n")
	b.WriteString(strings.TrimSpace(req.Text))

	return b.String()
}

// EnhancedPrompt asks for a more natural rendering of an existing
// translation. Deliberately context-free: it refines the wording of the
// primary result rather than re-translating the source.
func EnhancedPrompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"The following is a %s-to-%s translation. Rewrite it so it reads more naturally in %s, keeping the meaning identical. Output only the improved translation.\n\nTRANSLATION:\n%s",
		LanguageName(sourceLang), LanguageName(targetLang),
		LanguageName(targetLang), strings.TrimSpace(text))
}

// ReversePrompt asks for a literal back-translation.
func ReversePrompt(text, fromLang, toLang string) string {
	return fmt.Sprintf(
		"Translate the following %s text back into %s as literally as possible. Output only the translation.\n\nTEXT:\n%s",
		LanguageName(fromLang), LanguageName(toLang), strings.TrimSpace(text))
}
