package expert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/langpont/core/llm"
	"github.com/langpont/core/translate"
)

// expertModel is the high-capability model used for all handlers.
const expertModel = "gpt-4"

// Response is a handler result.
type Response struct {
	Type         string `json:"type"`
	Result       string `json:"result"`
	TargetNumber int    `json:"target_number,omitempty"`
	TargetStyle  string `json:"target_style,omitempty"`
}

// Turn is one question/answer exchange appended to the session history.
type Turn struct {
	TurnID    string    `json:"turn_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Intent    string    `json:"intent"`
	Timestamp time.Time `json:"timestamp"`
}

// handlerParams tunes temperature and token budget per intent.
var handlerParams = map[string]struct {
	temperature float64
	maxTokens   int
}{
	IntentModification:     {0.3, 800},
	IntentAnalysisInquiry:  {0.3, 700},
	IntentLinguistic:       {0.2, 700},
	IntentContextVariation: {0.4, 700},
	IntentComparison:       {0.3, 800},
	IntentGeneral:          {0.3, 700},
}

// styleInstructions expand a canonical style tag into prompt guidance.
var styleInstructions = map[string]string{
	"casual":         "Use a relaxed, casual tone as between close friends.",
	"formal":         "Use a formal, respectful tone suitable for official correspondence.",
	"polite":         "Use polite, considerate phrasing without being stiff.",
	"business":       "Use professional business language appropriate for workplace email.",
	"friendly":       "Use a warm, friendly tone that keeps some politeness.",
	"conversational": "Use natural spoken-style phrasing rather than written style.",
}

// errorMessages localize the degraded answer shown when a handler fails.
var errorMessages = map[string]string{
	"jp": "申し訳ありません。回答の生成中にエラーが発生しました。しばらくしてからもう一度お試しください。",
	"en": "Sorry, an error occurred while generating the answer. Please try again shortly.",
	"fr": "Désolé, une erreur s'est produite lors de la génération de la réponse. Veuillez réessayer.",
	"es": "Lo sentimos, se produjo un error al generar la respuesta. Inténtelo de nuevo en breve.",
}

// responseLanguageNames name the display languages inside prompts.
var responseLanguageNames = map[string]string{
	"jp": "Japanese",
	"en": "English",
	"fr": "French",
	"es": "Spanish",
}

// CompletionClient is the provider surface the expert needs.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Expert answers follow-up questions grounded in a translation context.
type Expert struct {
	client CompletionClient
	logger *slog.Logger
}

// New creates an interactive expert.
func New(client CompletionClient, logger *slog.Logger) *Expert {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expert{client: client, logger: logger}
}

// Ask classifies the question, runs the matching handler, and post-processes
// the answer. On handler failure the response carries a localized error
// message and the error is returned alongside it.
func (e *Expert) Ask(ctx context.Context, tc *translate.Context, question, displayLang string) (*Response, Intent, error) {
	intent := ClassifyIntent(question)

	prompt := e.buildPrompt(tc, question, intent, displayLang)
	params := handlerParams[intent.Type]

	resp := &Response{
		Type:         intent.Type,
		TargetNumber: intent.TargetNumber,
		TargetStyle:  intent.TargetStyle,
	}

	completion, err := e.client.Complete(ctx, llm.Request{
		Provider:    "openai",
		Model:       expertModel,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: &params.temperature,
		MaxTokens:   params.maxTokens,
	})
	if err != nil {
		e.logger.Warn("Expert handler failed",
			"intent", intent.Type,
			"error", err)
		resp.Result = errorMessage(displayLang)
		return resp, intent, err
	}

	resp.Result = TruncateAnswer(completion.Content, displayLang)
	return resp, intent, nil
}

// buildPrompt renders the shared context block plus handler-specific
// instructions.
func (e *Expert) buildPrompt(tc *translate.Context, question string, intent Intent, displayLang string) string {
	var b strings.Builder

	b.WriteString("You are a translation expert assisting with the session below.\n\n")
	fmt.Fprintf(&b, "SOURCE TEXT (%s → %s):\n%s\n\n",
		translate.LanguageName(tc.SourceLang),
		translate.LanguageName(tc.TargetLang),
		tc.Text)

	if msg := strings.TrimSpace(tc.PartnerMessage); msg != "" {
		b.WriteString("PREVIOUS CONVERSATION:\n" + msg + "\n\n")
	}
	if info := strings.TrimSpace(tc.ContextInfo); info != "" {
		b.WriteString("BACKGROUND & RELATIONSHIP:\n" + info + "\n\n")
	}

	fmt.Fprintf(&b, "TRANSLATION 1 (ChatGPT): %s\n", tc.Primary)
	fmt.Fprintf(&b, "TRANSLATION 1 REVERSE: %s\n", tc.PrimaryReverse)
	fmt.Fprintf(&b, "TRANSLATION 2 (Enhanced): %s\n", tc.Enhanced)
	fmt.Fprintf(&b, "TRANSLATION 2 REVERSE: %s\n", tc.EnhancedReverse)
	fmt.Fprintf(&b, "TRANSLATION 3 (Gemini): %s\n", tc.Gemini)
	fmt.Fprintf(&b, "TRANSLATION 3 REVERSE: %s\n\n", tc.GeminiReverse)

	if analysis := strings.TrimSpace(tc.AnalysisText); analysis != "" {
		b.WriteString("ANALYSIS:\n" + analysis + "\n\n")
	}

	b.WriteString(handlerInstructions(intent))
	b.WriteString("\n\nQUESTION:\n" + question)

	lang, ok := responseLanguageNames[displayLang]
	if !ok {
		lang = responseLanguageNames["en"]
	}
	fmt.Fprintf(&b, "\n\nIMPORTANT: Please provide your response in %s.", lang)

	return llm.TruncatePrompt(b.String())
}

func handlerInstructions(intent Intent) string {
	switch intent.Type {
	case IntentModification:
		instruction := styleInstructions[intent.TargetStyle]
		return fmt.Sprintf(
			"Rewrite TRANSLATION %d in the requested style. %s First give the revised translation, then briefly explain what you changed.",
			intent.TargetNumber, instruction)
	case IntentAnalysisInquiry:
		return "Answer the question about the analysis above, citing the relevant parts of the analysis."
	case IntentLinguistic:
		return "Answer the linguistic question precisely, with short examples where they help."
	case IntentContextVariation:
		return "Explain how the translation should change under the hypothetical situation in the question, and give the adjusted wording."
	case IntentComparison:
		return "Compare the translations the question refers to and state which fits better and why."
	default:
		return "Answer the question as a translation expert, grounded in the session above."
	}
}

func errorMessage(displayLang string) string {
	if msg, ok := errorMessages[displayLang]; ok {
		return msg
	}
	return errorMessages["en"]
}
