package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS audit_events (
	id            BIGSERIAL PRIMARY KEY,
	occurred_at   TIMESTAMPTZ NOT NULL,
	event_type    TEXT NOT NULL,
	fingerprint   TEXT,
	request_id    TEXT,
	validation_id TEXT,
	detail        JSONB
)`

const insertEventSQL = `
INSERT INTO audit_events (occurred_at, event_type, fingerprint, request_id, validation_id, detail)
VALUES ($1, $2, $3, $4, $5, $6)`

// PostgresSink persists audit events to Postgres. Writes happen on a
// buffered channel drained by a background writer so the workflow path
// never blocks on the database.
type PostgresSink struct {
	pool   *pgxpool.Pool
	events chan Event
	done   chan struct{}
	logger *slog.Logger
}

// NewPostgresSink connects to databaseURL, ensures the audit table
// exists, and starts the background writer.
func NewPostgresSink(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure audit table: %w", err)
	}

	s := &PostgresSink{
		pool:   pool,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
		logger: logger.With("component", "audit.postgres"),
	}
	go s.writeLoop()
	return s, nil
}

// Record enqueues the event. Events are dropped when the buffer is
// full; audit persistence never backpressures query processing.
func (s *PostgresSink) Record(_ context.Context, ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("audit buffer full, dropping event", "event_type", string(ev.Type))
	}
}

func (s *PostgresSink) writeLoop() {
	defer close(s.done)
	for ev := range s.events {
		s.write(ev)
	}
}

func (s *PostgresSink) write(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var detail []byte
	if ev.Detail != nil {
		var err error
		detail, err = json.Marshal(ev.Detail)
		if err != nil {
			s.logger.Warn("failed to marshal audit detail", "error", err)
			detail = nil
		}
	}

	_, err := s.pool.Exec(ctx, insertEventSQL,
		ev.Time, string(ev.Type),
		nullable(ev.Fingerprint), nullable(ev.RequestID), nullable(ev.ValidationID),
		detail)
	if err != nil {
		s.logger.Warn("failed to persist audit event",
			"event_type", string(ev.Type), "error", err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Close drains buffered events and releases the connection pool.
func (s *PostgresSink) Close() error {
	close(s.events)
	<-s.done
	s.pool.Close()
	return nil
}
