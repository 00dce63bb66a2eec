package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langpont/core/analysis"
	"github.com/langpont/core/cache"
	"github.com/langpont/core/events"
	"github.com/langpont/core/expert"
	"github.com/langpont/core/llm"
	"github.com/langpont/core/pipeline"
	"github.com/langpont/core/translate"
)

// fakeTranslator returns canned values per method. A nil error map means
// every call succeeds.
type fakeTranslator struct {
	primary  string
	enhanced string
	gemini   string
	errs     map[string]error

	mu       sync.Mutex
	reverses []string
}

func (f *fakeTranslator) TranslatePrimary(_ context.Context, _ translate.Request) (string, error) {
	return f.primary, f.errs["primary"]
}

func (f *fakeTranslator) TranslateEnhanced(_ context.Context, _, _, _ string) (string, error) {
	return f.enhanced, f.errs["enhanced"]
}

func (f *fakeTranslator) TranslateReverse(_ context.Context, text, _, _ string) (string, error) {
	f.mu.Lock()
	f.reverses = append(f.reverses, text)
	f.mu.Unlock()
	return "reverse of " + text, f.errs["reverse"]
}

func (f *fakeTranslator) TranslateGemini(_ context.Context, _ translate.Request) (string, error) {
	return f.gemini, f.errs["gemini"]
}

type fakeAnalyzer struct {
	result analysis.Result
}

func (f *fakeAnalyzer) Analyze(_ context.Context, tc *translate.Context, engine analysis.Engine) analysis.Result {
	r := f.result
	if r.Engine == "" {
		r.Engine = engine
	}
	return r
}

func (f *fakeAnalyzer) EngineStatus(analysis.Engine) analysis.EngineStatus {
	return analysis.EngineStatus{Available: true, Status: "ok"}
}

func (f *fakeAnalyzer) EngineStatuses() map[analysis.Engine]analysis.EngineStatus {
	return map[analysis.Engine]analysis.EngineStatus{
		analysis.EngineGemini: {Available: true, Status: "ok"},
	}
}

type fakeExtractor struct {
	rec    analysis.Recommendation
	called bool
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, engine analysis.Engine, _ string) analysis.Recommendation {
	f.called = true
	r := f.rec
	r.EngineAnalyzed = engine
	return r
}

type fakeAsker struct {
	answer string
	err    error
}

func (f *fakeAsker) Ask(_ context.Context, _ *translate.Context, question, _ string) (*expert.Response, expert.Intent, error) {
	intent := expert.ClassifyIntent(question)
	if f.err != nil {
		return &expert.Response{Type: intent.Type}, intent, f.err
	}
	return &expert.Response{Type: intent.Type, Result: f.answer}, intent, nil
}

// recordingSink captures emitted events.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingSink) Emit(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingSink) byType(t string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	controller *pipeline.Controller
	translator *fakeTranslator
	analyzer   *fakeAnalyzer
	extractor  *fakeExtractor
	asker      *fakeAsker
	cache      *cache.Cache
	sink       *recordingSink
}

func newFixture() *fixture {
	f := &fixture{
		translator: &fakeTranslator{
			primary:  "Good morning.",
			enhanced: "Good morning!",
			gemini:   "Good morning, everyone.",
		},
		analyzer: &fakeAnalyzer{result: analysis.Result{
			Status:       analysis.StatusCompleted,
			AnalysisText: "Option 2 reads most naturally.",
		}},
		extractor: &fakeExtractor{rec: analysis.Recommendation{
			Choice:     analysis.ChoiceEnhanced,
			Confidence: 0.95,
			Method:     "exact_match",
		}},
		asker: &fakeAsker{answer: "Because option 2 is more natural."},
		cache: cache.New(cache.NewMemoryStore(), nil),
		sink:  &recordingSink{},
	}
	f.controller = pipeline.NewController(pipeline.Options{
		Translator:  f.translator,
		Analyzer:    f.analyzer,
		Extractor:   f.extractor,
		Expert:      f.asker,
		Cache:       f.cache,
		Events:      f.sink,
		HistorySize: 3,
	})
	return f
}

func request() translate.Request {
	return translate.Request{
		Text:       "おはようございます。",
		SourceLang: "ja",
		TargetLang: "en",
		SessionID:  "s1",
	}
}

func TestRunPrimaryTranslationHappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	outcome, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	a := outcome.Artifacts
	assert.Equal(t, "Good morning.", a.Primary)
	assert.Equal(t, "reverse of Good morning.", a.PrimaryReverse)
	assert.Equal(t, "Good morning!", a.Enhanced)
	assert.Equal(t, "reverse of Good morning!", a.EnhancedReverse)
	assert.Equal(t, "Good morning, everyone.", a.Gemini)
	assert.Equal(t, "reverse of Good morning, everyone.", a.GeminiReverse)

	assert.NotEmpty(t, outcome.Usage.RequestID)
	assert.Len(t, outcome.Usage.Durations, 6)

	// All six artifacts cached plus the context aggregate.
	assert.Equal(t, "Good morning.", f.cache.Get(ctx, "s1", cache.FieldPrimary, ""))
	tc, ok := f.cache.GetContext(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, a, tc.Artifacts)

	assert.Len(t, f.sink.byType(events.TypeTranslation), 6)
}

func TestRunPrimaryTranslationProviderDown(t *testing.T) {
	f := newFixture()
	f.translator.errs = map[string]error{"gemini": unavailableErr()}

	outcome, err := f.controller.RunPrimaryTranslation(context.Background(), request())
	require.NoError(t, err, "a single provider failure never aborts the pipeline")

	a := outcome.Artifacts
	assert.Empty(t, a.Gemini)
	assert.Empty(t, a.GeminiReverse)
	assert.Equal(t, "Good morning.", a.Primary)
	assert.Equal(t, "Good morning!", a.Enhanced)
}

func TestRunPrimaryTranslationTransientFailureLeavesMarker(t *testing.T) {
	f := newFixture()
	f.translator.errs = map[string]error{"enhanced": errors.New("status 503")}

	outcome, err := f.controller.RunPrimaryTranslation(context.Background(), request())
	require.NoError(t, err)

	a := outcome.Artifacts
	assert.True(t, translate.IsErrorMarker(a.Enhanced))
	assert.Empty(t, a.EnhancedReverse, "no reverse of a degraded forward")
	assert.Equal(t, "Good morning.", a.Primary)
}

func TestRunPrimaryTranslationPrimaryFailureSkipsDerived(t *testing.T) {
	f := newFixture()
	f.translator.errs = map[string]error{"primary": errors.New("boom")}

	outcome, err := f.controller.RunPrimaryTranslation(context.Background(), request())
	require.NoError(t, err)

	a := outcome.Artifacts
	assert.True(t, translate.IsErrorMarker(a.Primary))
	assert.Empty(t, a.PrimaryReverse)
	assert.Empty(t, a.Enhanced)
	assert.Empty(t, a.EnhancedReverse)
	assert.NotEmpty(t, a.Gemini, "gemini family is independent of primary")
}

func TestRunPrimaryTranslationInvalidInput(t *testing.T) {
	f := newFixture()

	req := request()
	req.Text = ""

	_, err := f.controller.RunPrimaryTranslation(context.Background(), req)
	var verr *translate.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRunAnalysis(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	result, rec, err := f.controller.RunAnalysis(ctx, "s1", "gemini", "en")
	require.NoError(t, err)

	assert.Equal(t, analysis.StatusCompleted, result.Status)
	require.NotNil(t, rec)
	assert.Equal(t, analysis.ChoiceEnhanced, rec.Choice)

	assert.Equal(t, "Option 2 reads most naturally.",
		f.cache.Get(ctx, "s1", cache.FieldAnalysis, ""))
	assert.NotEmpty(t, f.cache.Get(ctx, "s1", cache.FieldRecommendation, ""))
	assert.Len(t, f.sink.byType(events.TypeAnalysis), 1)
	assert.Len(t, f.sink.byType(events.TypeRecommendation), 1)
}

func TestRunAnalysisNotCompletedSkipsExtraction(t *testing.T) {
	f := newFixture()
	f.analyzer.result = analysis.Result{Status: analysis.StatusUnavailable}
	ctx := context.Background()

	_, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	result, rec, err := f.controller.RunAnalysis(ctx, "s1", "claude", "en")
	require.NoError(t, err)

	assert.Equal(t, analysis.StatusUnavailable, result.Status)
	assert.Nil(t, rec)
	assert.False(t, f.extractor.called)
}

func TestRunAnalysisUsesConfiguredDefaultEngine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	controller := pipeline.NewController(pipeline.Options{
		Translator:    f.translator,
		Analyzer:      f.analyzer,
		Extractor:     f.extractor,
		Expert:        f.asker,
		Cache:         f.cache,
		Events:        f.sink,
		DefaultEngine: analysis.EngineClaude,
	})

	result, _, err := controller.RunAnalysis(ctx, "s1", "", "en")
	require.NoError(t, err)
	assert.Equal(t, analysis.EngineClaude, result.Engine)

	result, _, err = controller.RunAnalysis(ctx, "s1", "openai", "en")
	require.NoError(t, err)
	assert.Equal(t, analysis.EngineOpenAI, result.Engine, "an explicit engine wins over the default")
}

func TestApplySettings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	f.controller.ApplySettings(analysis.EngineOpenAI, 2)

	result, _, err := f.controller.RunAnalysis(ctx, "s1", "", "en")
	require.NoError(t, err)
	assert.Equal(t, analysis.EngineOpenAI, result.Engine)

	for i := 0; i < 4; i++ {
		_, err := f.controller.Ask(ctx, "s1",
			fmt.Sprintf("Why is option 2 recommended? (%d)", i), "en")
		require.NoError(t, err)
	}
	assert.Len(t, f.controller.History(ctx, "s1"), 2)

	// Zero values leave the current settings in place.
	f.controller.ApplySettings("", 0)
	result, _, err = f.controller.RunAnalysis(ctx, "s1", "", "en")
	require.NoError(t, err)
	assert.Equal(t, analysis.EngineOpenAI, result.Engine)
}

func TestRunAnalysisNoSession(t *testing.T) {
	f := newFixture()

	_, _, err := f.controller.RunAnalysis(context.Background(), "ghost", "gemini", "en")
	assert.ErrorIs(t, err, pipeline.ErrNoSession)
}

func TestAskAppendsToHistoryRing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		turn, err := f.controller.Ask(ctx, "s1",
			fmt.Sprintf("Why is option 2 recommended? (%d)", i), "en")
		require.NoError(t, err)
		assert.NotEmpty(t, turn.TurnID)
		assert.Equal(t, expert.IntentAnalysisInquiry, turn.Intent)
	}

	turns := f.controller.History(ctx, "s1")
	require.Len(t, turns, 3, "ring keeps the most recent turns")
	assert.Contains(t, turns[2].Question, "(4)")
	assert.Contains(t, turns[0].Question, "(2)")
}

func TestAskNoSession(t *testing.T) {
	f := newFixture()

	_, err := f.controller.Ask(context.Background(), "ghost", "why?", "en")
	assert.ErrorIs(t, err, pipeline.ErrNoSession)
}

func TestAskEmptyQuestion(t *testing.T) {
	f := newFixture()

	_, err := f.controller.Ask(context.Background(), "s1", "  ", "en")
	var verr *translate.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestClearChatHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.controller.RunPrimaryTranslation(ctx, request())
	require.NoError(t, err)

	_, err = f.controller.Ask(ctx, "s1", "Why is option 2 recommended?", "en")
	require.NoError(t, err)
	require.NotEmpty(t, f.controller.History(ctx, "s1"))

	assert.True(t, f.controller.ClearChatHistory(ctx, "s1"))
	assert.Empty(t, f.controller.History(ctx, "s1"))
}

func TestRunGeminiTranslation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	got, err := f.controller.RunGeminiTranslation(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, "Good morning, everyone.", got)
	assert.Equal(t, got, f.cache.Get(ctx, "s1", cache.FieldGemini, ""))
}

func unavailableErr() error {
	return llm.NewProviderError("gemini", llm.KindUnavailable, errors.New("credentials missing"))
}
