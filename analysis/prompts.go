package analysis

import (
	"fmt"
	"strings"

	"github.com/langpont/core/llm"
	"github.com/langpont/core/translate"
)

// analysisInstructions keys the instruction block by display language so the
// analysis prose comes back localized.
var analysisInstructions = map[string]string{
	"jp": "以下の3つの翻訳を正確さ、流暢さ、文化的な適切さ、敬語・文体の観点から比較し、最も適切な翻訳を1つ推薦してください。理由も日本語で説明してください。",
	"en": "Compare the three translations below on accuracy, fluency, cultural appropriateness, and register, then recommend the single most suitable one and explain why, in English.",
	"fr": "Comparez les trois traductions ci-dessous selon la précision, la fluidité, la pertinence culturelle et le registre, puis recommandez la plus adaptée en expliquant pourquoi, en français.",
	"es": "Compare las tres traducciones siguientes en cuanto a precisión, fluidez, adecuación cultural y registro, y recomiende la más adecuada explicando por qué, en español.",
}

// lengthNotices warn that the candidates were clamped before analysis.
var lengthNotices = map[string]string{
	"jp": "⚠️ 翻訳文が長いため、分析対象を一部省略しました。",
	"en": "⚠️ The translations were shortened before analysis due to their length.",
	"fr": "⚠️ Les traductions ont été raccourcies avant l'analyse en raison de leur longueur.",
	"es": "⚠️ Las traducciones se acortaron antes del análisis debido a su longitud.",
}

func instructionFor(displayLang string) string {
	if s, ok := analysisInstructions[displayLang]; ok {
		return s
	}
	return analysisInstructions["en"]
}

func lengthNotice(displayLang string) string {
	if s, ok := lengthNotices[displayLang]; ok {
		return s
	}
	return lengthNotices["en"]
}

// BuildPrompt renders the engine prompt: the source text, the three
// candidates labeled 1/2/3, and localized evaluation instructions. Oversized
// prompts are clamped with the head+tail strategy; the second return reports
// whether clamping occurred.
func BuildPrompt(tc *translate.Context, engine Engine) (string, bool) {
	var b strings.Builder

	b.WriteString(instructionFor(tc.DisplayLanguage))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "SOURCE TEXT (%s → %s):\n%s\n\n",
		translate.LanguageName(tc.SourceLang),
		translate.LanguageName(tc.TargetLang),
		strings.TrimSpace(tc.Text))

	if msg := strings.TrimSpace(tc.PartnerMessage); msg != "" {
		b.WriteString("PREVIOUS CONVERSATION:\n" + msg + "\n\n")
	}
	if info := strings.TrimSpace(tc.ContextInfo); info != "" {
		b.WriteString("BACKGROUND & RELATIONSHIP:\n" + info + "\n\n")
	}

	fmt.Fprintf(&b, "TRANSLATION 1 (ChatGPT):\n%s\n\n", tc.Primary)
	fmt.Fprintf(&b, "TRANSLATION 2 (Enhanced):\n%s\n\n", tc.Enhanced)
	fmt.Fprintf(&b, "TRANSLATION 3 (Gemini):\n%s\n", tc.Gemini)

	if engine == EngineClaude {
		b.WriteString("\nBe precise and cite concrete wording when you compare.")
	}

	prompt := b.String()
	clamped := llm.TruncatePrompt(prompt)
	return clamped, clamped != prompt
}
