package expert_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langpont/core/expert"
	"github.com/langpont/core/llm"
	"github.com/langpont/core/translate"
)

type stubClient struct {
	content  string
	err      error
	requests []llm.Request
}

func (s *stubClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.content}, nil
}

func sessionContext() *translate.Context {
	return &translate.Context{
		Request: translate.Request{
			Text:       "おはようございます。",
			SourceLang: "ja",
			TargetLang: "en",
			SessionID:  "s1",
		},
		Artifacts: translate.Artifacts{
			Primary:  "Good morning.",
			Enhanced: "Good morning!",
			Gemini:   "Good morning, everyone.",
		},
		AnalysisText: "Option 2 reads most naturally.",
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"Please make translation 2 more casual.", expert.IntentModification},
		{"翻訳３をもっとフォーマルにしてください", expert.IntentModification},
		{"Why does the analysis recommend the second one?", expert.IntentAnalysisInquiry},
		{"What is the grammar rule for this conjugation?", expert.IntentLinguistic},
		{"What is the difference between translation 1 and 3?", expert.IntentComparison},
		{"How would this sound if angry?", expert.IntentContextVariation},
		{"Tell me more about this sentence.", expert.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := expert.ClassifyIntent(tt.question)
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestClassifyIntentModificationTargets(t *testing.T) {
	intent := expert.ClassifyIntent("Please make translation 2 more casual.")

	assert.Equal(t, expert.IntentModification, intent.Type)
	assert.Equal(t, 0.9, intent.Confidence)
	assert.Equal(t, 2, intent.TargetNumber)
	assert.Equal(t, "casual", intent.TargetStyle)

	intent = expert.ClassifyIntent("翻訳３をもっとフォーマルにしてください")
	assert.Equal(t, 3, intent.TargetNumber)
	assert.Equal(t, "formal", intent.TargetStyle)
}

func TestClassifyIntentNumberWithoutStyle(t *testing.T) {
	intent := expert.ClassifyIntent("Tell me about translation 2.")
	assert.NotEqual(t, expert.IntentModification, intent.Type)
}

func TestAskModification(t *testing.T) {
	client := &stubClient{content: "Hey, morning! (changed the greeting to a casual one)"}
	e := expert.New(client, nil)

	resp, intent, err := e.Ask(context.Background(), sessionContext(),
		"Please make translation 2 more casual.", "en")
	require.NoError(t, err)

	assert.Equal(t, expert.IntentModification, resp.Type)
	assert.Equal(t, 2, resp.TargetNumber)
	assert.Equal(t, "casual", resp.TargetStyle)
	assert.Equal(t, client.content, resp.Result)
	assert.Equal(t, expert.IntentModification, intent.Type)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "gpt-4", req.Model)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.3, *req.Temperature)
	assert.Equal(t, 800, req.MaxTokens)

	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "TRANSLATION 2")
	assert.Contains(t, prompt, "Good morning!")
	assert.Contains(t, prompt, "Please provide your response in English.")
}

func TestAskEmbedsFullContext(t *testing.T) {
	client := &stubClient{content: "answer"}
	e := expert.New(client, nil)

	tc := sessionContext()
	tc.PrimaryReverse = "おはよう。"

	_, _, err := e.Ask(context.Background(), tc, "Why is option 2 recommended?", "jp")
	require.NoError(t, err)

	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "Good morning.")
	assert.Contains(t, prompt, "おはよう。")
	assert.Contains(t, prompt, "Option 2 reads most naturally.")
	assert.Contains(t, prompt, "Please provide your response in Japanese.")
}

func TestAskFailureReturnsLocalizedMessage(t *testing.T) {
	client := &stubClient{err: errors.New("boom")}
	e := expert.New(client, nil)

	resp, _, err := e.Ask(context.Background(), sessionContext(), "question", "jp")
	require.Error(t, err)
	assert.Contains(t, resp.Result, "申し訳ありません")
}

func TestTruncateAnswer(t *testing.T) {
	t.Run("short answer unchanged", func(t *testing.T) {
		assert.Equal(t, "short", expert.TruncateAnswer("short", "en"))
	})

	t.Run("long answer cut at sentence boundary", func(t *testing.T) {
		sentence := "This is a fairly long sentence used for padding. "
		long := strings.Repeat(sentence, 80)

		got := expert.TruncateAnswer(long, "en")
		assert.LessOrEqual(t, len([]rune(got)), expert.MaxAnswerLen)
		assert.Contains(t, got, "[response truncated]")

		body := strings.TrimSuffix(got, "\n\n[response truncated]")
		assert.True(t, strings.HasSuffix(body, "."), "cut should land on a sentence end")
	})

	t.Run("localized marker", func(t *testing.T) {
		long := strings.Repeat("とても長い文章です。", 400)
		got := expert.TruncateAnswer(long, "jp")
		assert.LessOrEqual(t, len([]rune(got)), expert.MaxAnswerLen)
		assert.Contains(t, got, "省略されました")
	})
}

func TestTruncateQuestion(t *testing.T) {
	assert.Equal(t, "q", expert.TruncateQuestion("q"))

	long := strings.Repeat("あ", 1200)
	got := expert.TruncateQuestion(long)
	assert.Equal(t, 1000, len([]rune(got)))
}
