// Package pipeline sequences the translation fan-out, meta-analysis,
// recommendation extraction, and interactive turns, committing artifacts to
// the state cache and emitting activity events along the way.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/langpont/core/analysis"
	"github.com/langpont/core/cache"
	"github.com/langpont/core/events"
	"github.com/langpont/core/expert"
	"github.com/langpont/core/llm"
	"github.com/langpont/core/metrics"
	"github.com/langpont/core/translate"
)

// Translator is the translation service surface.
type Translator interface {
	TranslatePrimary(ctx context.Context, req translate.Request) (string, error)
	TranslateEnhanced(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	TranslateReverse(ctx context.Context, text, fromLang, toLang string) (string, error)
	TranslateGemini(ctx context.Context, req translate.Request) (string, error)
}

// Analyzer is the meta-analysis surface.
type Analyzer interface {
	Analyze(ctx context.Context, tc *translate.Context, engine analysis.Engine) analysis.Result
	EngineStatus(engine analysis.Engine) analysis.EngineStatus
	EngineStatuses() map[analysis.Engine]analysis.EngineStatus
}

// Extractor is the recommendation-extraction surface.
type Extractor interface {
	Extract(ctx context.Context, analysisText string, engine analysis.Engine, displayLang string) analysis.Recommendation
}

// Asker is the interactive expert surface.
type Asker interface {
	Ask(ctx context.Context, tc *translate.Context, question, displayLang string) (*expert.Response, expert.Intent, error)
}

// ErrNoSession is returned when a session has no cached translation context.
var ErrNoSession = errors.New("no translation context for session")

// UsageInfo reports per-call timing for one pipeline run.
type UsageInfo struct {
	RequestID    string             `json:"request_id"`
	Durations    map[string]float64 `json:"durations_seconds"`
	TotalSeconds float64            `json:"total_seconds"`
}

// TranslationOutcome is the result of a full fan-out.
type TranslationOutcome struct {
	Artifacts translate.Artifacts `json:"artifacts"`
	Usage     UsageInfo           `json:"usage_info"`
}

// Controller owns request sequencing. All collaborators are injected; the
// controller itself holds no per-request state. The settings guarded by mu
// may be swapped at runtime via ApplySettings.
type Controller struct {
	translator Translator
	analyzer   Analyzer
	extractor  Extractor
	expert     Asker
	cache      *cache.Cache
	events     events.Sink
	logger     *slog.Logger

	mu            sync.RWMutex
	defaultEngine analysis.Engine
	historySize   int
}

// Options configures a Controller.
type Options struct {
	Translator    Translator
	Analyzer      Analyzer
	Extractor     Extractor
	Expert        Asker
	Cache         *cache.Cache
	Events        events.Sink
	Logger        *slog.Logger
	DefaultEngine analysis.Engine
	HistorySize   int
}

// NewController assembles a pipeline controller.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = events.NoopSink{}
	}
	if opts.DefaultEngine == "" {
		opts.DefaultEngine = analysis.DefaultEngine
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 10
	}
	return &Controller{
		translator:    opts.Translator,
		analyzer:      opts.Analyzer,
		extractor:     opts.Extractor,
		expert:        opts.Expert,
		cache:         opts.Cache,
		events:        opts.Events,
		logger:        opts.Logger,
		defaultEngine: opts.DefaultEngine,
		historySize:   opts.HistorySize,
	}
}

// ApplySettings swaps the runtime-tunable settings. Zero values leave the
// current setting in place, so a partial config reload is safe.
func (c *Controller) ApplySettings(defaultEngine analysis.Engine, historySize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if defaultEngine != "" {
		c.defaultEngine = defaultEngine
	}
	if historySize > 0 {
		c.historySize = historySize
	}
}

// RunPrimaryTranslation executes the full fan-out. The primary translation
// runs first; the three provider families then proceed in parallel, each
// reverse waiting on its own forward. A single provider failure degrades
// that family only.
func (c *Controller) RunPrimaryTranslation(ctx context.Context, req translate.Request) (*TranslationOutcome, error) {
	if err := translate.Validate(req); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	start := time.Now()

	var (
		artifacts translate.Artifacts
		durations sync.Map
	)

	timed := func(kind string, call func() (string, error)) string {
		callStart := time.Now()
		value, err := call()
		seconds := time.Since(callStart).Seconds()
		durations.Store(kind, seconds)
		metrics.TranslationDuration.WithLabelValues(kind).Observe(seconds)

		artifact := c.artifactFor(kind, value, err)
		c.commitArtifact(ctx, req.SessionID, requestID, kind, artifact)
		return artifact
	}

	artifacts.Primary = timed(cache.FieldPrimary, func() (string, error) {
		return c.translator.TranslatePrimary(ctx, req)
	})

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		artifacts.PrimaryReverse = c.reverseOf(ctx, req, requestID, cache.FieldPrimaryReverse, artifacts.Primary, timed)
	}()

	go func() {
		defer wg.Done()
		if !healthy(artifacts.Primary) {
			c.commitArtifact(ctx, req.SessionID, requestID, cache.FieldEnhanced, "")
			c.commitArtifact(ctx, req.SessionID, requestID, cache.FieldEnhancedReverse, "")
			return
		}
		artifacts.Enhanced = timed(cache.FieldEnhanced, func() (string, error) {
			return c.translator.TranslateEnhanced(ctx, artifacts.Primary, req.SourceLang, req.TargetLang)
		})
		artifacts.EnhancedReverse = c.reverseOf(ctx, req, requestID, cache.FieldEnhancedReverse, artifacts.Enhanced, timed)
	}()

	go func() {
		defer wg.Done()
		artifacts.Gemini = timed(cache.FieldGemini, func() (string, error) {
			return c.translator.TranslateGemini(ctx, req)
		})
		artifacts.GeminiReverse = c.reverseOf(ctx, req, requestID, cache.FieldGeminiReverse, artifacts.Gemini, timed)
	}()

	wg.Wait()

	c.cache.PutContext(ctx, req.SessionID, &translate.Context{
		Request:   req,
		Artifacts: artifacts,
	})

	usage := UsageInfo{
		RequestID:    requestID,
		Durations:    make(map[string]float64),
		TotalSeconds: time.Since(start).Seconds(),
	}
	durations.Range(func(key, value any) bool {
		usage.Durations[key.(string)] = value.(float64)
		return true
	})

	return &TranslationOutcome{Artifacts: artifacts, Usage: usage}, nil
}

// RunGeminiTranslation executes only the Gemini candidate.
func (c *Controller) RunGeminiTranslation(ctx context.Context, req translate.Request) (string, error) {
	if err := translate.Validate(req); err != nil {
		return "", err
	}

	requestID := uuid.New().String()
	value, err := c.translator.TranslateGemini(ctx, req)
	artifact := c.artifactFor(cache.FieldGemini, value, err)
	c.commitArtifact(ctx, req.SessionID, requestID, cache.FieldGemini, artifact)
	return artifact, err
}

// RunAnalysis evaluates the cached candidates with the given engine and,
// when analysis completes, extracts a recommendation. An analysis that does
// not complete skips extraction.
func (c *Controller) RunAnalysis(ctx context.Context, sessionID, engineName, displayLang string) (analysis.Result, *analysis.Recommendation, error) {
	tc, ok := c.cache.GetContext(ctx, sessionID)
	if !ok {
		return analysis.Result{}, nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	if displayLang != "" {
		tc.DisplayLanguage = displayLang
	}

	engine := analysis.Engine(engineName)
	if engine == "" {
		c.mu.RLock()
		engine = c.defaultEngine
		c.mu.RUnlock()
	}
	result := c.analyzer.Analyze(ctx, tc, engine)
	metrics.AnalysesTotal.WithLabelValues(string(result.Engine), result.Status).Inc()

	c.events.Emit(events.Event{
		Type:      events.TypeAnalysis,
		SessionID: sessionID,
		Data: map[string]any{
			"engine":           string(result.Engine),
			"status":           result.Status,
			"duration_seconds": result.DurationSeconds,
		},
	})

	if result.Status != analysis.StatusCompleted {
		return result, nil, nil
	}

	tc.AnalysisText = result.AnalysisText
	tc.AnalysisEngine = string(result.Engine)
	c.cache.Put(ctx, sessionID, cache.FieldAnalysis, result.AnalysisText)
	c.cache.PutContext(ctx, sessionID, tc)

	rec := c.extractor.Extract(ctx, result.AnalysisText, result.Engine, tc.DisplayLanguage)
	metrics.RecommendationsTotal.WithLabelValues(string(rec.Choice), rec.Method).Inc()

	if blob, err := json.Marshal(rec); err == nil {
		c.cache.Put(ctx, sessionID, cache.FieldRecommendation, string(blob))
	}

	c.events.Emit(events.Event{
		Type:      events.TypeRecommendation,
		SessionID: sessionID,
		Data: map[string]any{
			"choice":     string(rec.Choice),
			"confidence": rec.Confidence,
			"method":     rec.Method,
		},
	})

	return result, &rec, nil
}

// Ask answers a follow-up question and appends the turn to the session
// history ring.
func (c *Controller) Ask(ctx context.Context, sessionID, question, displayLang string) (*expert.Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &translate.ValidationError{Field: "question", Message: "must not be empty"}
	}

	tc, ok := c.cache.GetContext(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	if displayLang != "" {
		tc.DisplayLanguage = displayLang
	}

	resp, intent, err := c.expert.Ask(ctx, tc, question, displayLang)
	if err != nil {
		return nil, err
	}

	metrics.QuestionsTotal.WithLabelValues(intent.Type).Inc()

	turn := &expert.Turn{
		TurnID:    uuid.New().String(),
		Question:  expert.TruncateQuestion(question),
		Answer:    resp.Result,
		Intent:    intent.Type,
		Timestamp: time.Now().UTC(),
	}
	c.appendTurn(ctx, sessionID, turn)

	c.events.Emit(events.Event{
		Type:      events.TypeInteraction,
		SessionID: sessionID,
		Data: map[string]any{
			"intent":  intent.Type,
			"turn_id": turn.TurnID,
		},
	})

	return turn, nil
}

// History returns the session's interactive turns, oldest first.
func (c *Controller) History(ctx context.Context, sessionID string) []expert.Turn {
	raw := c.cache.Get(ctx, sessionID, cache.FieldChatHistory, "")
	if raw == "" {
		return nil
	}
	var turns []expert.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		c.logger.Warn("Chat history corrupt, discarding", "session_id", sessionID)
		return nil
	}
	return turns
}

// ClearChatHistory drops the session's interactive turns.
func (c *Controller) ClearChatHistory(ctx context.Context, sessionID string) bool {
	return c.cache.Clear(ctx, sessionID, cache.FieldChatHistory)
}

// EngineStatuses reports per-engine availability.
func (c *Controller) EngineStatuses() map[analysis.Engine]analysis.EngineStatus {
	return c.analyzer.EngineStatuses()
}

// appendTurn pushes a turn onto the history ring, keeping the most recent
// historySize entries.
func (c *Controller) appendTurn(ctx context.Context, sessionID string, turn *expert.Turn) {
	c.mu.RLock()
	limit := c.historySize
	c.mu.RUnlock()

	turns := c.History(ctx, sessionID)
	turns = append(turns, *turn)
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	if blob, err := json.Marshal(turns); err == nil {
		c.cache.Put(ctx, sessionID, cache.FieldChatHistory, string(blob))
	}
}

// reverseOf back-translates a healthy forward artifact; degraded or empty
// forwards yield an empty reverse without a provider call.
func (c *Controller) reverseOf(ctx context.Context, req translate.Request, requestID, kind, forward string,
	timed func(string, func() (string, error)) string) string {

	if !healthy(forward) {
		c.commitArtifact(ctx, req.SessionID, requestID, kind, "")
		return ""
	}
	return timed(kind, func() (string, error) {
		return c.translator.TranslateReverse(ctx, forward, req.TargetLang, req.SourceLang)
	})
}

// artifactFor maps a call outcome to the stored artifact: unavailable
// providers leave the field empty, other failures leave a marker.
func (c *Controller) artifactFor(kind, value string, err error) string {
	switch {
	case err == nil:
		metrics.TranslationsTotal.WithLabelValues(kind, "ok").Inc()
		return value
	case llm.KindOf(err) == llm.KindUnavailable:
		metrics.TranslationsTotal.WithLabelValues(kind, "unavailable").Inc()
		c.logger.Warn("Provider unavailable", "kind", kind, "error", err)
		return ""
	default:
		metrics.TranslationsTotal.WithLabelValues(kind, "error").Inc()
		c.logger.Warn("Translation failed", "kind", kind, "error", err)
		return translate.ErrorMarkerPrefix + ": " + err.Error() + "]"
	}
}

// commitArtifact writes one artifact and emits its event.
func (c *Controller) commitArtifact(ctx context.Context, sessionID, requestID, kind, value string) {
	c.cache.Put(ctx, sessionID, kind, value)
	c.events.Emit(events.Event{
		Type:      events.TypeTranslation,
		SessionID: sessionID,
		RequestID: requestID,
		Data: map[string]any{
			"kind":  kind,
			"empty": strings.TrimSpace(value) == "",
		},
	})
}

// healthy reports whether a forward artifact can feed derived calls.
func healthy(artifact string) bool {
	return strings.TrimSpace(artifact) != "" && !translate.IsErrorMarker(artifact)
}
