package translate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langpont/core/llm"
	"github.com/langpont/core/translate"
)

// stubClient returns canned content per provider and records the requests it
// receives.
type stubClient struct {
	responses map[string]string
	err       error
	requests  []llm.Request
}

func (s *stubClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.responses[req.Provider]}, nil
}

func TestTranslatePrimary(t *testing.T) {
	client := &stubClient{responses: map[string]string{"openai": "Good morning."}}
	svc := translate.NewService(client, nil)

	got, err := svc.TranslatePrimary(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Good morning.", got)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "openai", req.Provider)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.1, *req.Temperature)
	assert.Contains(t, req.Messages[0].Content, "おはようございます。")
}

func TestTranslatePrimaryIncludesContextSections(t *testing.T) {
	client := &stubClient{responses: map[string]string{"openai": "ok"}}
	svc := translate.NewService(client, nil)

	req := validRequest()
	req.PartnerMessage = "See you tomorrow!"
	req.ContextInfo = "Colleagues at work."

	_, err := svc.TranslatePrimary(context.Background(), req)
	require.NoError(t, err)

	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "PREVIOUS CONVERSATION:")
	assert.Contains(t, prompt, "See you tomorrow!")
	assert.Contains(t, prompt, "BACKGROUND & RELATIONSHIP:")
	assert.Contains(t, prompt, "Colleagues at work.")
}

func TestTranslatePrimaryOmitsEmptySections(t *testing.T) {
	client := &stubClient{responses: map[string]string{"openai": "ok"}}
	svc := translate.NewService(client, nil)

	_, err := svc.TranslatePrimary(context.Background(), validRequest())
	require.NoError(t, err)

	prompt := client.requests[0].Messages[0].Content
	assert.NotContains(t, prompt, "PREVIOUS CONVERSATION:")
	assert.NotContains(t, prompt, "BACKGROUND & RELATIONSHIP:")
}

func TestTranslatePrimaryRejectsInvalidInput(t *testing.T) {
	client := &stubClient{}
	svc := translate.NewService(client, nil)

	req := validRequest()
	req.Text = ""

	_, err := svc.TranslatePrimary(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, client.requests, "no network call on invalid input")
}

func TestTranslateReverseEmptyInput(t *testing.T) {
	client := &stubClient{}
	svc := translate.NewService(client, nil)

	got, err := svc.TranslateReverse(context.Background(), "  ", "en", "ja")
	require.NoError(t, err)
	assert.Equal(t, translate.EmptyMarker, got)

	got, err = svc.TranslateReverse(context.Background(), "[Translation error: timeout]", "en", "ja")
	require.NoError(t, err)
	assert.Equal(t, translate.EmptyMarker, got)

	assert.Empty(t, client.requests)
}

func TestTranslateReverse(t *testing.T) {
	client := &stubClient{responses: map[string]string{"openai": "おはよう。"}}
	svc := translate.NewService(client, nil)

	got, err := svc.TranslateReverse(context.Background(), "Good morning.", "en", "ja")
	require.NoError(t, err)
	assert.Equal(t, "おはよう。", got)
}

func TestTranslateGeminiUsesGeminiProvider(t *testing.T) {
	client := &stubClient{responses: map[string]string{"gemini": "Good morning, everyone."}}
	svc := translate.NewService(client, nil)

	got, err := svc.TranslateGemini(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Good morning, everyone.", got)
	assert.Equal(t, "gemini", client.requests[0].Provider)
}

func TestVerbatimEchoAnnotated(t *testing.T) {
	client := &stubClient{responses: map[string]string{"openai": "おはようございます。"}}
	svc := translate.NewService(client, nil)

	got, err := svc.TranslatePrimary(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, translate.IsErrorMarker(got))
	assert.Contains(t, got, "おはようございます。")
}

func TestShortResultWarning(t *testing.T) {
	client := &stubClient{responses: map[string]string{"openai": "Hi."}}
	svc := translate.NewService(client, nil)

	req := validRequest()
	req.Text = strings.Repeat("おはようございます。", 15)

	got, err := svc.TranslatePrimary(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, got, "incomplete")
}

func TestEnhancedPromptIsContextFree(t *testing.T) {
	prompt := translate.EnhancedPrompt("Good morning.", "ja", "en")
	assert.Contains(t, prompt, "Good morning.")
	assert.NotContains(t, prompt, "PREVIOUS CONVERSATION")
}
