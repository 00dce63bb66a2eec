// Package events emits structured activity records for external observers.
// Emission is fire-and-forget: a failed or missing sink never blocks or
// fails the pipeline.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types emitted by the pipeline.
const (
	TypeTranslation    = "translation"
	TypeAnalysis       = "analysis"
	TypeRecommendation = "recommendation"
	TypeInteraction    = "interaction"
)

// Event is one activity record.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Sink receives activity records.
type Sink interface {
	Emit(event Event)
}

// NATSSink publishes events on langpont.activity.<type>.
type NATSSink struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewNATSSink creates a sink over an established connection.
func NewNATSSink(nc *nats.Conn, logger *slog.Logger) *NATSSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSSink{nc: nc, logger: logger}
}

// Emit publishes the event. Failures are logged and dropped.
func (s *NATSSink) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("Event serialization failed", "type", event.Type, "error", err)
		return
	}

	if err := s.nc.Publish("langpont.activity."+event.Type, payload); err != nil {
		s.logger.Warn("Event publish failed", "type", event.Type, "error", err)
	}
}

// NoopSink discards all events. Used when no NATS cluster is configured.
type NoopSink struct{}

// Emit discards the event.
func (NoopSink) Emit(Event) {}
