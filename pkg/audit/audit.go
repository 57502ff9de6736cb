// Package audit records workflow lifecycle events for traceability.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// EventType labels an audit event.
type EventType string

// Audit event types.
const (
	EventWorkflowStart      EventType = "workflow.start"
	EventWorkflowEnd        EventType = "workflow.end"
	EventCacheHit           EventType = "cache.hit"
	EventValidationCreated  EventType = "validation.created"
	EventValidationResolved EventType = "validation.resolved"
	EventAgentError         EventType = "agent.error"
)

// Event is one audit record. Detail carries event-specific fields and
// must be JSON-serializable.
type Event struct {
	Time         time.Time      `json:"time"`
	Type         EventType      `json:"type"`
	Fingerprint  string         `json:"fingerprint,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	ValidationID string         `json:"validation_id,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
}

// Sink receives audit events. Record must not block the workflow on
// slow storage; implementations either write fast or buffer.
type Sink interface {
	Record(ctx context.Context, ev Event)
	Close() error
}

// SlogSink writes audit events to structured logs.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a log-backed audit sink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("component", "audit")}
}

// Record logs the event.
func (s *SlogSink) Record(_ context.Context, ev Event) {
	attrs := []any{
		"event_type", string(ev.Type),
	}
	if ev.Fingerprint != "" {
		attrs = append(attrs, "fingerprint", ev.Fingerprint)
	}
	if ev.RequestID != "" {
		attrs = append(attrs, "request_id", ev.RequestID)
	}
	if ev.ValidationID != "" {
		attrs = append(attrs, "validation_id", ev.ValidationID)
	}
	for k, v := range ev.Detail {
		attrs = append(attrs, k, v)
	}
	s.logger.Info("audit event", attrs...)
}

// Close is a no-op.
func (s *SlogSink) Close() error { return nil }

// MultiSink fans events out to several sinks.
type MultiSink []Sink

// Record forwards the event to every sink.
func (m MultiSink) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}

// Close closes every sink, returning the first error.
func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
