// Package humanloop owns the lifecycle of human validation requests:
// creation, reviewer decisions, timeout expiry, and waiter notification.
package humanloop

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mirage-project/mirage/pkg/models"
)

var (
	// ErrNotFound means no validation request exists with the given ID.
	ErrNotFound = errors.New("validation request not found")
	// ErrConflict means the request already has a different terminal outcome.
	ErrConflict = errors.New("validation request already decided")
	// ErrInvalidDecision means the submitted decision is not recognized.
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrMissingModifiedText means a MODIFIED decision arrived without
	// replacement text.
	ErrMissingModifiedText = errors.New("modified decision requires replacement text")
)

// pending pairs a stored request with its completion broadcast channel.
// done is closed exactly once, when the request reaches a terminal state.
type pending struct {
	req  models.ValidationRequest
	done chan struct{}
}

// Manager is the in-memory registry of validation requests. All state
// transitions happen under the mutex; expiry is applied lazily before
// any observation of a request.
type Manager struct {
	mu       sync.Mutex
	requests map[string]*pending
	timeout  time.Duration
	logger   *slog.Logger
}

// NewManager creates a Manager whose requests expire after timeout.
func NewManager(timeout time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		requests: make(map[string]*pending),
		timeout:  timeout,
		logger:   logger.With("component", "humanloop"),
	}
}

// CreateInput carries the workflow fields captured on a new request.
type CreateInput struct {
	QueryFingerprint string
	Query            string
	TriggerKind      models.TriggerKind
	Priority         int
	MatchedTerms     []string
	DraftResponse    string
	DetectedLanguage models.Language
}

// Create registers a new PENDING validation request and returns a copy.
func (m *Manager) Create(in CreateInput) *models.ValidationRequest {
	now := time.Now()
	req := models.ValidationRequest{
		ID:               uuid.NewString(),
		QueryFingerprint: in.QueryFingerprint,
		Query:            in.Query,
		TriggerKind:      in.TriggerKind,
		Priority:         in.Priority,
		MatchedTerms:     in.MatchedTerms,
		DraftResponse:    in.DraftResponse,
		DetectedLanguage: in.DetectedLanguage,
		CreatedAt:        now,
		ExpiresAt:        now.Add(m.timeout),
		Status:           models.ValidationPending,
	}

	m.mu.Lock()
	m.requests[req.ID] = &pending{req: req, done: make(chan struct{})}
	m.mu.Unlock()

	m.logger.Info("validation request created",
		"validation_id", req.ID,
		"trigger_kind", string(req.TriggerKind),
		"priority", req.Priority)

	out := req
	return &out
}

// expireLocked transitions a past-deadline PENDING request to EXPIRED.
// Callers hold m.mu.
func (m *Manager) expireLocked(p *pending, now time.Time) {
	if p.req.Status != models.ValidationPending || now.Before(p.req.ExpiresAt) {
		return
	}
	p.req.Status = models.ValidationExpired
	decidedAt := p.req.ExpiresAt
	p.req.DecidedAt = &decidedAt
	close(p.done)

	m.logger.Info("validation request expired", "validation_id", p.req.ID)
}

// Get returns a copy of the request, applying expiry first.
func (m *Manager) Get(id string) (*models.ValidationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.expireLocked(p, time.Now())

	out := p.req
	return &out, nil
}

// SubmitDecision applies a reviewer's verdict. Resubmitting the decision
// a request already settled on succeeds idempotently; any other decision
// against a terminal request is a conflict. A decision for an already
// expired request is a conflict: the caller has long since received the
// fallback response.
func (m *Manager) SubmitDecision(id string, decision models.Decision, modifiedText, notes string) (*models.ValidationRequest, error) {
	if !decision.Valid() {
		return nil, ErrInvalidDecision
	}
	if decision == models.DecisionModified && modifiedText == "" {
		return nil, ErrMissingModifiedText
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.expireLocked(p, time.Now())

	if p.req.Status.Terminal() {
		if p.req.Status == decision.Status() {
			out := p.req
			return &out, nil
		}
		return nil, ErrConflict
	}

	now := time.Now()
	p.req.Status = decision.Status()
	p.req.Decision = decision
	p.req.ModifiedText = modifiedText
	p.req.ReviewerNotes = notes
	p.req.DecidedAt = &now
	close(p.done)

	m.logger.Info("validation request decided",
		"validation_id", id,
		"decision", string(decision))

	out := p.req
	return &out, nil
}

// AwaitDecision blocks until the request reaches a terminal state or the
// context ends. The expiry deadline is enforced here as well, so a
// request with no reviewer activity resolves as EXPIRED without polling.
func (m *Manager) AwaitDecision(ctx context.Context, id string) (*models.ValidationRequest, error) {
	m.mu.Lock()
	p, ok := m.requests[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	m.expireLocked(p, time.Now())
	done := p.done
	expiresAt := p.req.ExpiresAt
	m.mu.Unlock()

	timer := time.NewTimer(time.Until(expiresAt))
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		m.mu.Lock()
		m.expireLocked(p, time.Now())
		m.mu.Unlock()
		// A decision may have raced the deadline; either way done is
		// closed now.
		<-done
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return m.Get(id)
}

// Pending returns the open requests ordered by priority (highest first),
// then by creation time (oldest first).
func (m *Manager) Pending() []models.ValidationRequest {
	now := time.Now()

	m.mu.Lock()
	out := make([]models.ValidationRequest, 0, len(m.requests))
	for _, p := range m.requests {
		m.expireLocked(p, now)
		if p.req.Status == models.ValidationPending {
			out = append(out, p.req)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Statistics summarizes the validation queue.
type Statistics struct {
	Pending   int     `json:"pending"`
	Approved  int     `json:"approved"`
	Rejected  int     `json:"rejected"`
	Modified  int     `json:"modified"`
	Expired   int     `json:"expired"`
	AvgWaitMS float64 `json:"avg_wait_ms"`
}

// Statistics returns queue counts per status and the mean wait from
// creation to decision across resolved requests.
func (m *Manager) Statistics() Statistics {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var stats Statistics
	var totalWait time.Duration
	var resolved int
	for _, p := range m.requests {
		m.expireLocked(p, now)
		switch p.req.Status {
		case models.ValidationPending:
			stats.Pending++
		case models.ValidationApproved:
			stats.Approved++
		case models.ValidationRejected:
			stats.Rejected++
		case models.ValidationModified:
			stats.Modified++
		case models.ValidationExpired:
			stats.Expired++
		}
		if p.req.DecidedAt != nil {
			totalWait += p.req.DecidedAt.Sub(p.req.CreatedAt)
			resolved++
		}
	}
	if resolved > 0 {
		stats.AvgWaitMS = float64(totalWait.Milliseconds()) / float64(resolved)
	}
	return stats
}
