package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/langpont/core/llm"
)

// GeminiProvider implements the Google Generative Language REST API. It
// produces the third translation candidate and the "gemini" analysis engine.
type GeminiProvider struct{}

func init() {
	llm.RegisterProvider(&GeminiProvider{})
}

// Name returns the provider identifier.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Available reports whether GEMINI_API_KEY is set.
func (g *GeminiProvider) Available() bool {
	return os.Getenv("GEMINI_API_KEY") != ""
}

// DefaultModel returns the default Gemini model.
func (g *GeminiProvider) DefaultModel() string {
	return "gemini-1.5-pro-latest"
}

// BuildURL constructs the generateContent endpoint. The API key travels as a
// query parameter, not a header.
func (g *GeminiProvider) BuildURL(baseURL, model string) string {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		baseURL, model, url.QueryEscape(os.Getenv("GEMINI_API_KEY")))
}

// SetHeaders is a no-op: Gemini authenticates via the URL.
func (g *GeminiProvider) SetHeaders(_ *http.Request) {}

// geminiRequest is the generateContent request format.
type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// BuildRequestBody creates the generateContent request body. Gemini has no
// separate system role here, so the messages are folded into a single text part.
func (g *GeminiProvider) BuildRequestBody(_ string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}

	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: strings.Join(parts, "\n\n")}}}},
	}
	if temperature != nil || maxTokens > 0 {
		req.GenerationConfig = &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		}
	}

	return json.Marshal(req)
}

// geminiResponse is the generateContent response format.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// ParseResponse extracts the first candidate's text.
func (g *GeminiProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini response has no candidates")
	}

	var content string
	for _, part := range resp.Candidates[0].Content.Parts {
		content += part.Text
	}

	return &llm.Response{
		Content: content,
		Model:   model,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		FinishReason: resp.Candidates[0].FinishReason,
	}, nil
}
