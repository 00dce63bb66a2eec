package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Bucket names, one per TTL class.
const (
	bucketState   = "langpont_state"
	bucketInput   = "langpont_input"
	bucketContext = "langpont_context"
	bucketHistory = "langpont_history"
)

// NATSStore persists session state in JetStream KV buckets. The TTL ceiling
// of each class is enforced by the bucket configuration, not per key.
type NATSStore struct {
	env     string
	buckets map[Class]nats.KeyValue
	logger  *slog.Logger
}

// NewNATSStore binds (creating when absent) the four KV buckets.
func NewNATSStore(nc *nats.Conn, env string, logger *slog.Logger) (*NATSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	names := map[Class]string{
		ClassState:   bucketState,
		ClassInput:   bucketInput,
		ClassContext: bucketContext,
		ClassHistory: bucketHistory,
	}

	buckets := make(map[Class]nats.KeyValue, len(names))
	for class, name := range names {
		kv, err := js.KeyValue(name)
		if errors.Is(err, nats.ErrBucketNotFound) {
			kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
				Bucket: name,
				TTL:    TTLOf(class),
			})
		}
		if err != nil {
			return nil, fmt.Errorf("bind bucket %s: %w", name, err)
		}
		buckets[class] = kv
	}

	return &NATSStore{env: env, buckets: buckets, logger: logger}, nil
}

// Put overwrites a field in its class bucket.
func (s *NATSStore) Put(_ context.Context, sessionID, field, value string) error {
	kv := s.buckets[ClassOf(field)]
	if _, err := kv.Put(natsKey(s.env, sessionID, field), []byte(value)); err != nil {
		return fmt.Errorf("kv put %s: %w", field, err)
	}
	return nil
}

// Get returns a field value. Backend errors other than key-not-found are
// logged and reported as misses.
func (s *NATSStore) Get(_ context.Context, sessionID, field string) (string, bool) {
	kv := s.buckets[ClassOf(field)]
	entry, err := kv.Get(natsKey(s.env, sessionID, field))
	if err != nil {
		if !errors.Is(err, nats.ErrKeyNotFound) {
			s.logger.Warn("Cache read failed, treating as miss",
				"session_id", sessionID,
				"field", field,
				"error", err)
		}
		return "", false
	}
	return string(entry.Value()), true
}

// Delete removes the given fields. Missing keys are ignored.
func (s *NATSStore) Delete(_ context.Context, sessionID string, fields ...string) error {
	var firstErr error
	for _, field := range fields {
		kv := s.buckets[ClassOf(field)]
		err := kv.Delete(natsKey(s.env, sessionID, field))
		if err != nil && !errors.Is(err, nats.ErrKeyNotFound) && firstErr == nil {
			firstErr = fmt.Errorf("kv delete %s: %w", field, err)
		}
	}
	return firstErr
}
