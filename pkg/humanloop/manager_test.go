package humanloop

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirage-project/mirage/pkg/models"
)

func newTestManager(timeout time.Duration) *Manager {
	return NewManager(timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func createInput() CreateInput {
	return CreateInput{
		QueryFingerprint: "fp-1",
		Query:            "What is the maximum dosage of paracetamol?",
		TriggerKind:      models.TriggerMedicalApproval,
		Priority:         3,
		MatchedTerms:     []string{"dosage"},
		DraftResponse:    "• 💊 The usual maximum is 4 g per day for adults.",
		DetectedLanguage: models.LanguageEN,
	}
}

func TestManager_CreateStartsPending(t *testing.T) {
	m := newTestManager(time.Hour)
	req := m.Create(createInput())

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.ValidationPending, req.Status)
	assert.Equal(t, req.CreatedAt.Add(time.Hour), req.ExpiresAt)

	got, err := m.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
}

func TestManager_SubmitDecisionTransitions(t *testing.T) {
	tests := []struct {
		name       string
		decision   models.Decision
		modified   string
		wantStatus models.ValidationStatus
	}{
		{"approve", models.DecisionApproved, "", models.ValidationApproved},
		{"reject", models.DecisionRejected, "", models.ValidationRejected},
		{"modify", models.DecisionModified, "Revised answer.", models.ValidationModified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(time.Hour)
			req := m.Create(createInput())

			got, err := m.SubmitDecision(req.ID, tt.decision, tt.modified, "checked")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.decision, got.Decision)
			assert.Equal(t, "checked", got.ReviewerNotes)
			require.NotNil(t, got.DecidedAt)
		})
	}
}

func TestManager_SubmitDecisionValidation(t *testing.T) {
	m := newTestManager(time.Hour)
	req := m.Create(createInput())

	_, err := m.SubmitDecision(req.ID, models.Decision("SHRUG"), "", "")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = m.SubmitDecision(req.ID, models.DecisionModified, "", "")
	assert.ErrorIs(t, err, ErrMissingModifiedText)

	_, err = m.SubmitDecision("no-such-id", models.DecisionApproved, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RepeatDecisionIsIdempotent(t *testing.T) {
	m := newTestManager(time.Hour)
	req := m.Create(createInput())

	first, err := m.SubmitDecision(req.ID, models.DecisionApproved, "", "")
	require.NoError(t, err)

	second, err := m.SubmitDecision(req.ID, models.DecisionApproved, "", "")
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.DecidedAt, second.DecidedAt, "repeat does not re-decide")

	_, err = m.SubmitDecision(req.ID, models.DecisionRejected, "", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestManager_ExpiryBeforeObservation(t *testing.T) {
	m := newTestManager(10 * time.Millisecond)
	req := m.Create(createInput())

	time.Sleep(20 * time.Millisecond)

	got, err := m.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ValidationExpired, got.Status)

	_, err = m.SubmitDecision(req.ID, models.DecisionApproved, "", "")
	assert.ErrorIs(t, err, ErrConflict, "decisions after expiry are rejected")
}

func TestManager_AwaitDecisionResolvesOnSubmit(t *testing.T) {
	m := newTestManager(time.Hour)
	req := m.Create(createInput())

	go func() {
		time.Sleep(10 * time.Millisecond)
		m.SubmitDecision(req.ID, models.DecisionModified, "Better answer.", "")
	}()

	got, err := m.AwaitDecision(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ValidationModified, got.Status)
	assert.Equal(t, "Better answer.", got.FinalDraft())
}

func TestManager_AwaitDecisionResolvesOnExpiry(t *testing.T) {
	m := newTestManager(20 * time.Millisecond)
	req := m.Create(createInput())

	got, err := m.AwaitDecision(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ValidationExpired, got.Status)
}

func TestManager_MultipleAwaitersSeeSameOutcome(t *testing.T) {
	m := newTestManager(time.Hour)
	req := m.Create(createInput())

	const waiters = 4
	var wg sync.WaitGroup
	statuses := make([]models.ValidationStatus, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := m.AwaitDecision(context.Background(), req.ID)
			if err == nil {
				statuses[i] = got.Status
			}
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	_, err := m.SubmitDecision(req.ID, models.DecisionApproved, "", "")
	require.NoError(t, err)
	wg.Wait()

	for _, s := range statuses {
		assert.Equal(t, models.ValidationApproved, s)
	}
}

func TestManager_PendingOrdering(t *testing.T) {
	m := newTestManager(time.Hour)

	low := createInput()
	low.Priority = 2
	first := m.Create(low)

	high := createInput()
	high.Priority = 5
	second := m.Create(high)

	time.Sleep(time.Millisecond)
	third := m.Create(low)

	pending := m.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, second.ID, pending[0].ID, "highest priority first")
	assert.Equal(t, first.ID, pending[1].ID, "equal priority breaks ties by age")
	assert.Equal(t, third.ID, pending[2].ID)
}

func TestManager_Statistics(t *testing.T) {
	m := newTestManager(time.Hour)

	a := m.Create(createInput())
	b := m.Create(createInput())
	m.Create(createInput())

	_, err := m.SubmitDecision(a.ID, models.DecisionApproved, "", "")
	require.NoError(t, err)
	_, err = m.SubmitDecision(b.ID, models.DecisionRejected, "", "")
	require.NoError(t, err)

	stats := m.Statistics()
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 0, stats.Expired)
	assert.GreaterOrEqual(t, stats.AvgWaitMS, 0.0)
}
