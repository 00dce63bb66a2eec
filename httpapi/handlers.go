package httpapi

import (
	"net/http"

	"github.com/langpont/core/analysis"
	"github.com/langpont/core/cache"
	"github.com/langpont/core/pipeline"
	"github.com/langpont/core/translate"
)

// translateResponse is the success body for POST /api/translate/primary.
type translateResponse struct {
	Success         bool               `json:"success"`
	Primary         string             `json:"primary"`
	PrimaryReverse  string             `json:"primary_reverse"`
	Enhanced        string             `json:"enhanced"`
	EnhancedReverse string             `json:"enhanced_reverse"`
	Gemini          string             `json:"gemini"`
	GeminiReverse   string             `json:"gemini_reverse"`
	Usage           pipeline.UsageInfo `json:"usage_info"`
}

func (s *Server) handleTranslatePrimary(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req translate.Request
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	outcome, err := s.controller.RunPrimaryTranslation(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	a := outcome.Artifacts
	writeJSON(w, http.StatusOK, translateResponse{
		Success:         true,
		Primary:         a.Primary,
		PrimaryReverse:  a.PrimaryReverse,
		Enhanced:        a.Enhanced,
		EnhancedReverse: a.EnhancedReverse,
		Gemini:          a.Gemini,
		GeminiReverse:   a.GeminiReverse,
		Usage:           outcome.Usage,
	})
}

func (s *Server) handleTranslateGemini(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req translate.Request
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	gemini, err := s.controller.RunGeminiTranslation(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"gemini":  gemini,
	})
}

// analyzeRequest is the request body for POST /api/analyze.
type analyzeRequest struct {
	SessionID   string `json:"session_id"`
	Engine      string `json:"engine"`
	DisplayLang string `json:"display_lang"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.SessionID == "" {
		s.writeError(w, &translate.ValidationError{Field: "session_id", Message: "must not be empty"})
		return
	}

	result, rec, err := s.controller.RunAnalysis(r.Context(), req.SessionID, req.Engine, req.DisplayLang)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := map[string]any{
		"success":       true,
		"engine":        string(result.Engine),
		"status":        result.Status,
		"analysis_text": result.AnalysisText,
	}
	if rec != nil {
		body["recommendation"] = rec
	}
	writeJSON(w, http.StatusOK, body)
}

// askRequest is the request body for POST /api/interactive/ask.
type askRequest struct {
	SessionID   string `json:"session_id"`
	Question    string `json:"question"`
	DisplayLang string `json:"display_lang"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.SessionID == "" {
		s.writeError(w, &translate.ValidationError{Field: "session_id", Message: "must not be empty"})
		return
	}

	turn, err := s.controller.Ask(r.Context(), req.SessionID, req.Question, req.DisplayLang)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"answer":  turn.Answer,
		"intent":  turn.Intent,
		"turn_id": turn.TurnID,
	})
}

// stateRequest covers POST /api/state/get and /api/state/set.
type stateRequest struct {
	SessionID string   `json:"session_id"`
	Fields    []string `json:"fields,omitempty"`
	Field     string   `json:"field,omitempty"`
	Value     string   `json:"value,omitempty"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req stateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.SessionID == "" {
		s.writeError(w, &translate.ValidationError{Field: "session_id", Message: "must not be empty"})
		return
	}

	fields := req.Fields
	if len(fields) == 0 {
		fields = append(fields, cache.TranslationFields...)
		fields = append(fields, cache.FieldInputText, cache.FieldAnalysis)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"fields":  s.cache.GetMany(r.Context(), req.SessionID, fields),
	})
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req stateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.SessionID == "" || req.Field == "" {
		s.writeError(w, &translate.ValidationError{Field: "field", Message: "session_id and field are required"})
		return
	}

	ok := s.cache.Put(r.Context(), req.SessionID, req.Field, req.Value)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ok": ok})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req stateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.SessionID == "" {
		s.writeError(w, &translate.ValidationError{Field: "session_id", Message: "must not be empty"})
		return
	}

	ok := s.controller.ClearChatHistory(r.Context(), req.SessionID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ok": ok})
}

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses := s.controller.EngineStatuses()

	if name := r.URL.Query().Get("engine"); name != "" {
		status, ok := statuses[analysis.Engine(name)]
		if !ok {
			s.writeError(w, &translate.ValidationError{Field: "engine", Message: "unknown engine"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"engine":  name,
			"status":  status,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"engines": statuses,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
