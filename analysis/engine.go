// Package analysis implements the three-way meta-analysis: engine selection,
// prompt construction, and recommendation extraction from the resulting
// prose.
package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/langpont/core/llm"
	"github.com/langpont/core/translate"
)

// Engine identifies a meta-analysis engine.
type Engine string

const (
	EngineOpenAI Engine = "openai"
	EngineGemini Engine = "gemini"
	EngineClaude Engine = "claude"
)

// DefaultEngine is used when the caller does not pick one.
const DefaultEngine = EngineGemini

// Status values for an analysis run.
const (
	StatusCompleted   = "completed"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
)

// engineProviders maps engines to registered provider names.
var engineProviders = map[Engine]string{
	EngineOpenAI: "openai",
	EngineGemini: "gemini",
	EngineClaude: "anthropic",
}

// analysisTimeout bounds a single analysis call.
const analysisTimeout = 45 * time.Second

var analysisTemperature = 0.3

// EngineStatus describes whether an engine can serve requests.
type EngineStatus struct {
	Available   bool   `json:"available"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Result is the outcome of one analysis run.
type Result struct {
	Engine          Engine  `json:"engine"`
	AnalysisText    string  `json:"analysis_text"`
	PromptUsed      string  `json:"prompt_used"`
	DurationSeconds float64 `json:"duration_seconds"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
}

// CompletionClient is the provider surface the manager needs.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Manager dispatches analysis to a chosen engine. A requested engine that is
// unavailable yields status=unavailable without fallback; the caller decides
// whether to try another engine.
type Manager struct {
	client CompletionClient
	logger *slog.Logger
}

// NewManager creates an analysis manager.
func NewManager(client CompletionClient, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{client: client, logger: logger}
}

// ValidEngine reports whether name is a known engine.
func ValidEngine(name string) bool {
	_, ok := engineProviders[Engine(name)]
	return ok
}

// EngineStatus probes a single engine.
func (m *Manager) EngineStatus(engine Engine) EngineStatus {
	providerName, ok := engineProviders[engine]
	if !ok {
		return EngineStatus{Status: "unknown", Description: "unknown engine"}
	}

	provider := llm.GetProvider(providerName)
	if provider == nil {
		return EngineStatus{Status: "unavailable", Description: "provider not registered"}
	}
	if !provider.Available() {
		return EngineStatus{Status: "unavailable", Description: "credentials missing"}
	}
	return EngineStatus{
		Available:   true,
		Status:      "ok",
		Description: "ready (" + provider.DefaultModel() + ")",
	}
}

// EngineStatuses probes every engine.
func (m *Manager) EngineStatuses() map[Engine]EngineStatus {
	statuses := make(map[Engine]EngineStatus, len(engineProviders))
	for engine := range engineProviders {
		statuses[engine] = m.EngineStatus(engine)
	}
	return statuses
}

// Analyze evaluates the three candidates in tc with the given engine. All
// three forward translations must be present and healthy; otherwise the
// result is unavailable and no call is made.
func (m *Manager) Analyze(ctx context.Context, tc *translate.Context, engine Engine) Result {
	if engine == "" {
		engine = DefaultEngine
	}
	result := Result{Engine: engine}

	if !threeCandidatesPresent(tc) {
		result.Status = StatusUnavailable
		result.Error = "all three translations are required for analysis"
		return result
	}

	status := m.EngineStatus(engine)
	if !status.Available {
		result.Status = StatusUnavailable
		result.Error = "engine " + string(engine) + " unavailable: " + status.Description
		return result
	}

	prompt, clamped := BuildPrompt(tc, engine)
	result.PromptUsed = prompt

	maxTokens := 1000
	if engine == EngineClaude {
		maxTokens = 1500
	}

	start := time.Now()
	resp, err := m.client.Complete(ctx, llm.Request{
		Provider:    engineProviders[engine],
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: &analysisTemperature,
		MaxTokens:   maxTokens,
		Timeout:     analysisTimeout,
	})
	result.DurationSeconds = time.Since(start).Seconds()

	if err != nil {
		m.logger.Warn("Analysis call failed",
			"engine", engine,
			"error", err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = StatusCompleted
	result.AnalysisText = resp.Content
	if clamped {
		result.AnalysisText = lengthNotice(tc.DisplayLanguage) + "\n\n" + result.AnalysisText
	}
	return result
}

func threeCandidatesPresent(tc *translate.Context) bool {
	for _, candidate := range []string{tc.Primary, tc.Enhanced, tc.Gemini} {
		if strings.TrimSpace(candidate) == "" || translate.IsErrorMarker(candidate) {
			return false
		}
	}
	return true
}
