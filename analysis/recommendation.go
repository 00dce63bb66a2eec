package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/langpont/core/llm"
)

// Choice is the extracted recommendation target.
type Choice string

const (
	ChoicePrimary  Choice = "primary"
	ChoiceEnhanced Choice = "enhanced"
	ChoiceGemini   Choice = "gemini"
	ChoiceNone     Choice = "none"
	ChoiceError    Choice = "error"
)

// Extraction methods, ordered by confidence.
const (
	MethodExact        = "exact_match"
	MethodWordBoundary = "word_boundary_match"
	MethodSubstring    = "substring_match"
	MethodNoMatch      = "no_match"
	MethodFailed       = "extraction_failed"
)

// Recommendation is the structured reading of free-form analysis prose.
type Recommendation struct {
	Choice         Choice  `json:"choice"`
	Confidence     float64 `json:"confidence"`
	Method         string  `json:"method"`
	RawResponse    string  `json:"raw_response,omitempty"`
	EngineAnalyzed Engine  `json:"engine_analyzed"`
}

// extractorPrompts ask the model to name the recommended translation, per
// display language. The offered names mirror the candidate labels in the
// analysis prompt.
var extractorPrompts = map[string]string{
	"jp": "以下の分析文を読み、どの翻訳が推薦されているかを「ChatGPT」「Enhanced」「Gemini」のいずれか1語だけで答えてください。\n\n分析:\n%s",
	"en": "Read the analysis below and name which translation it recommends. Answer with exactly one word: ChatGPT, Enhanced, or Gemini.\n\nANALYSIS:\n%s",
	"fr": "Lisez l'analyse ci-dessous et indiquez quelle traduction est recommandée. Répondez par un seul mot : ChatGPT, Enhanced ou Gemini.\n\nANALYSE :\n%s",
	"es": "Lea el análisis siguiente e indique qué traducción se recomienda. Responda con una sola palabra: ChatGPT, Enhanced o Gemini.\n\nANÁLISIS:\n%s",
}

// candidateAliases maps reply tokens to choices. "chatgpt" covers the label
// used in the analysis prompt; order fixes tie-breaking.
var candidateAliases = []struct {
	token  string
	choice Choice
}{
	{"chatgpt", ChoicePrimary},
	{"primary", ChoicePrimary},
	{"enhanced", ChoiceEnhanced},
	{"gemini", ChoiceGemini},
}

// wordBoundaryPatterns are compiled once; Classify runs on every analysis.
var wordBoundaryPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(candidateAliases))
	for i, alias := range candidateAliases {
		patterns[i] = regexp.MustCompile(`\b` + alias.token + `\b`)
	}
	return patterns
}()

var extractorTemperature = 0.1

// Extractor turns analysis prose into a Recommendation with a cheap second
// model call. It always uses the OpenAI provider regardless of which engine
// produced the analysis.
type Extractor struct {
	client CompletionClient
	logger *slog.Logger
}

// NewExtractor creates a recommendation extractor.
func NewExtractor(client CompletionClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract asks the model which translation the analysis recommends and
// classifies its reply. Failures are packaged into the Recommendation, never
// raised.
func (e *Extractor) Extract(ctx context.Context, analysisText string, engine Engine, displayLang string) Recommendation {
	rec := Recommendation{EngineAnalyzed: engine}

	template, ok := extractorPrompts[displayLang]
	if !ok {
		template = extractorPrompts["en"]
	}
	prompt := fmt.Sprintf(template, llm.TruncatePrompt(analysisText))

	resp, err := e.client.Complete(ctx, llm.Request{
		Provider:    "openai",
		Model:       "gpt-3.5-turbo",
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: &extractorTemperature,
		MaxTokens:   50,
		Timeout:     30 * time.Second,
	})
	if err != nil {
		e.logger.Warn("Recommendation extraction failed", "error", err)
		rec.Choice = ChoiceError
		rec.Method = MethodFailed
		rec.RawResponse = err.Error()
		return rec
	}

	rec.RawResponse = resp.Content
	rec.Choice, rec.Confidence, rec.Method = Classify(resp.Content)
	return rec
}

// Classify maps an extractor reply to a choice. The ladder order is
// load-bearing: exact beats word-boundary beats substring, so "chatgpt3"
// still maps to primary via substring while "enhancements" never matches
// "enhanced".
func Classify(raw string) (Choice, float64, string) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.Trim(normalized, ".!?\"'「」。")

	for _, alias := range candidateAliases {
		if normalized == alias.token {
			return alias.choice, 0.95, MethodExact
		}
	}

	for i, alias := range candidateAliases {
		if wordBoundaryPatterns[i].MatchString(normalized) {
			return alias.choice, 0.90, MethodWordBoundary
		}
	}

	for _, alias := range candidateAliases {
		if strings.Contains(normalized, alias.token) {
			return alias.choice, 0.80, MethodSubstring
		}
	}

	return ChoiceNone, 0.0, MethodNoMatch
}
