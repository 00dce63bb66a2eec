// Package main implements a mock provider server for local development and
// e2e testing. It speaks all three provider wire formats:
//
//	POST /v1/chat/completions            (OpenAI)
//	POST /models/{model}:generateContent (Gemini)
//	POST /v1/messages                    (Anthropic)
//
// Responses come from JSON fixture files named by model (e.g.
// "gpt-3.5-turbo.json"); without a fixture the server echoes a canned reply.
// Point the langpont config's provider base_url fields at this server to run
// the pipeline offline.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11435
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

const defaultReply = "Good morning. (mock)"

type server struct {
	fixtures map[string]string // model name → reply content
	calls    atomic.Int64
}

func main() {
	port := flag.Int("port", 11435, "listen port")
	fixtureDir := flag.String("fixtures", "", "directory of <model>.json fixture files")
	flag.Parse()

	s := &server{fixtures: map[string]string{}}
	if *fixtureDir != "" {
		if err := s.loadFixtures(*fixtureDir); err != nil {
			log.Fatalf("load fixtures: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", s.handleOpenAI)
	mux.HandleFunc("/v1/messages", s.handleAnthropic)
	mux.HandleFunc("/models/", s.handleGemini)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok, %d calls served\n", s.calls.Load())
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock-llm listening on %s (%d fixtures)", addr, len(s.fixtures))
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (s *server) loadFixtures(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		model := strings.TrimSuffix(name, ".json")
		s.fixtures[model] = strings.TrimSpace(string(data))
		log.Printf("fixture loaded: %s", model)
	}
	return nil
}

func (s *server) replyFor(model string) string {
	if reply, ok := s.fixtures[model]; ok {
		return reply
	}
	return defaultReply
}

func (s *server) handleOpenAI(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"id":      fmt.Sprintf("chatcmpl-mock-%d", s.calls.Load()),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": s.replyFor(req.Model)},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (s *server) handleGemini(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	// Path form: /models/{model}:generateContent
	path := strings.TrimPrefix(r.URL.Path, "/models/")
	model := strings.TrimSuffix(path, ":generateContent")

	writeJSON(w, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{"text": s.replyFor(model)}},
			},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]int{
			"promptTokenCount":     10,
			"candidatesTokenCount": 5,
			"totalTokenCount":      15,
		},
	})
}

func (s *server) handleAnthropic(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"id":          fmt.Sprintf("msg-mock-%d", s.calls.Load()),
		"model":       req.Model,
		"content":     []map[string]string{{"type": "text", "text": s.replyFor(req.Model)}},
		"stop_reason": "end_turn",
		"usage":       map[string]int{"input_tokens": 10, "output_tokens": 5},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
