// Package httpapi exposes the pipeline over JSON HTTP handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/langpont/core/cache"
	"github.com/langpont/core/llm"
	"github.com/langpont/core/metrics"
	"github.com/langpont/core/pipeline"
	"github.com/langpont/core/translate"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// Server holds the handler dependencies.
type Server struct {
	controller *pipeline.Controller
	cache      *cache.Cache
	logger     *slog.Logger
}

// NewServer creates the HTTP surface over a pipeline controller.
func NewServer(controller *pipeline.Controller, stateCache *cache.Cache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{controller: controller, cache: stateCache, logger: logger}
}

// RegisterHandlers registers all handlers under the given prefix.
// The prefix should be the path segment without a trailing slash (e.g. "api").
// Handlers are registered as:
//
//	POST <prefix>/translate/primary
//	POST <prefix>/translate/gemini
//	POST <prefix>/analyze
//	POST <prefix>/interactive/ask
//	POST <prefix>/interactive/clear
//	POST <prefix>/state/get
//	POST <prefix>/state/set
//	GET  <prefix>/engine/status
func (s *Server) RegisterHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"translate/primary", s.handleTranslatePrimary)
	mux.HandleFunc(prefix+"translate/gemini", s.handleTranslateGemini)
	mux.HandleFunc(prefix+"analyze", s.handleAnalyze)
	mux.HandleFunc(prefix+"interactive/ask", s.handleAsk)
	mux.HandleFunc(prefix+"interactive/clear", s.handleClearHistory)
	mux.HandleFunc(prefix+"state/get", s.handleGetState)
	mux.HandleFunc(prefix+"state/set", s.handleSetState)
	mux.HandleFunc(prefix+"engine/status", s.handleEngineStatus)

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", metrics.Handler())
}

// errorBody is the canonical failure envelope.
type errorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
	Retryable bool   `json:"retryable"`
}

// writeError maps an error to the envelope. Validation failures are the only
// 400s; everything else stays HTTP 200 with success=false so clients branch
// on the body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), ErrorKind: "internal"}
	status := http.StatusOK

	var verr *translate.ValidationError
	switch {
	case errors.As(err, &verr):
		body.ErrorKind = "invalid_input"
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoSession):
		body.ErrorKind = "invalid_input"
		status = http.StatusBadRequest
	default:
		if kind := llm.KindOf(err); kind != "" {
			body.ErrorKind = string(kind)
			body.Retryable = llm.IsRetryable(err)
		}
	}

	if body.ErrorKind == "internal" {
		s.logger.Error("Request failed", "error", err)
		body.Error = "internal error"
	}

	writeJSON(w, status, body)
}

// decodeBody parses a capped JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &translate.ValidationError{Field: "body", Message: "malformed JSON"}
	}
	return nil
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing useful to do.
		_ = err
	}
}
