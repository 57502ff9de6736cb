package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	events []Event
	closed bool
}

func (r *recordingSink) Record(_ context.Context, ev Event) { r.events = append(r.events, ev) }
func (r *recordingSink) Close() error                       { r.closed = true; return nil }

func TestSlogSink_Record(t *testing.T) {
	var buf bytes.Buffer
	s := NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	s.Record(context.Background(), Event{
		Time:         time.Now(),
		Type:         EventWorkflowEnd,
		Fingerprint:  "fp-1",
		ValidationID: "val-1",
		Detail:       map[string]any{"consensus": "APPROVED"},
	})

	out := buf.String()
	assert.Contains(t, out, "workflow.end")
	assert.Contains(t, out, "fp-1")
	assert.Contains(t, out, "val-1")
	assert.Contains(t, out, "APPROVED")
}

func TestMultiSink_FansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := MultiSink{a, b}

	m.Record(context.Background(), Event{Type: EventCacheHit, Fingerprint: "fp-2"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, EventCacheHit, b.events[0].Type)

	assert.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
