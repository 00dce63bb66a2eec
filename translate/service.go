package translate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/langpont/core/llm"
)

// translationTemperature keeps the output deterministic.
var translationTemperature = 0.1

// shortResultThreshold flags suspiciously short completions: a source of 100+
// runes producing fewer than 10 is likely cut off.
const (
	shortResultSourceLen = 100
	shortResultLen       = 10
)

// CompletionClient is the provider surface the service needs.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Service produces the four translation variants. It validates inputs,
// truncates oversized prompts, and annotates degraded output; it never
// caches.
type Service struct {
	client CompletionClient
	logger *slog.Logger
}

// NewService creates a translation service.
func NewService(client CompletionClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// TranslatePrimary produces the primary translation with the context-aware
// prompt.
func (s *Service) TranslatePrimary(ctx context.Context, req Request) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	return s.complete(ctx, "openai", PrimaryPrompt(req), req.Text, req.TargetLang)
}

// TranslateEnhanced refines an existing translation for naturalness.
func (s *Service) TranslateEnhanced(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return s.complete(ctx, "openai", EnhancedPrompt(text, sourceLang, targetLang), "", targetLang)
}

// TranslateReverse back-translates to the source language. Empty or degraded
// input yields the "(empty)" marker without a network call.
func (s *Service) TranslateReverse(ctx context.Context, text, fromLang, toLang string) (string, error) {
	if strings.TrimSpace(text) == "" || IsErrorMarker(text) {
		return EmptyMarker, nil
	}
	return s.complete(ctx, "openai", ReversePrompt(text, fromLang, toLang), "", toLang)
}

// TranslateGemini produces the third candidate on the Gemini provider.
func (s *Service) TranslateGemini(ctx context.Context, req Request) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	return s.complete(ctx, "gemini", GeminiPrompt(req), req.Text, req.TargetLang)
}

// complete runs one provider call and applies the output checks. sourceText
// is the original input when the call is a forward translation, empty
// otherwise.
func (s *Service) complete(ctx context.Context, provider, prompt, sourceText, targetLang string) (string, error) {
	prompt = llm.TruncatePrompt(prompt)

	resp, err := s.client.Complete(ctx, llm.Request{
		Provider:    provider,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: &translationTemperature,
	})
	if err != nil {
		return "", err
	}

	result := resp.Content
	if sourceText != "" && result == strings.TrimSpace(sourceText) {
		s.logger.Warn("Provider echoed the input unchanged", "provider", provider)
		result = ErrorMarkerPrefix + ": output identical to input] " + result
	}
	if sourceText != "" &&
		len([]rune(strings.TrimSpace(sourceText))) >= shortResultSourceLen &&
		len([]rune(result)) < shortResultLen {
		result += shortResultWarning(targetLang)
	}

	return result, nil
}

// shortResultWarning returns the incomplete-translation notice in the target
// language where available.
func shortResultWarning(targetLang string) string {
	switch targetLang {
	case "ja":
		return "\n\n⚠️ 翻訳が不完全な可能性があります。"
	case "fr":
		return "\n\n⚠️ La traduction est peut-être incomplète."
	case "es":
		return "\n\n⚠️ La traducción puede estar incompleta."
	default:
		return "\n\n⚠️ The translation may be incomplete."
	}
}
