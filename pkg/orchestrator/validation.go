package orchestrator

import (
	"context"
	"time"

	"github.com/mirage-project/mirage/pkg/agent"
	"github.com/mirage-project/mirage/pkg/audit"
	"github.com/mirage-project/mirage/pkg/humanloop"
	"github.com/mirage-project/mirage/pkg/models"
	"github.com/mirage-project/mirage/pkg/safety"
)

// suspendedWorkflow is the state a workflow parks while a human
// decision is pending. Enough to finalize without rerunning agents.
type suspendedWorkflow struct {
	query       models.Query
	fingerprint string
	detected    models.Language
	target      models.Language
	sources     []models.Source
	iterations  int
}

// runValidatedWorkflow handles a query whose text matched the safety
// taxonomy while the caller opted into human validation. A draft is
// produced and parked for review; the caller receives a
// PENDING_VALIDATION envelope immediately. The draft itself is withheld
// until a reviewer releases it.
func (o *Orchestrator) runValidatedWorkflow(ctx context.Context, q models.Query, fp string, detected, target models.Language, trigger *safety.Trigger) *models.FinalResponse {
	rc := o.retrieve(ctx, q, fp)

	genOut, err := o.generator.Generate(ctx, agent.GenerateInput{
		Query:    q.Text,
		Context:  rc,
		Language: detected,
	})
	if err != nil {
		o.recordAgentError(ctx, fp, q.RequestID, models.RoleGenerator, err)
		return o.failedResponse(detected, target, 0, err)
	}

	vr := o.humanLoop.Create(humanloop.CreateInput{
		QueryFingerprint: fp,
		Query:            q.Text,
		TriggerKind:      trigger.Kind,
		Priority:         trigger.Priority,
		MatchedTerms:     trigger.MatchedTerms,
		DraftResponse:    genOut.Text,
		DetectedLanguage: detected,
	})

	o.audit.Record(ctx, audit.Event{
		Time: time.Now(), Type: audit.EventValidationCreated,
		Fingerprint: fp, RequestID: q.RequestID, ValidationID: vr.ID,
		Detail: map[string]any{
			"trigger_kind": string(trigger.Kind),
			"priority":     trigger.Priority,
		},
	})

	o.mu.Lock()
	o.suspended[vr.ID] = &suspendedWorkflow{
		query:       q,
		fingerprint: fp,
		detected:    detected,
		target:      target,
		sources:     rc.Sources,
		iterations:  1,
	}
	o.mu.Unlock()

	// Finalization runs detached from the request: the decision may
	// arrive long after the caller's context is gone.
	go o.awaitValidation(vr.ID)

	return &models.FinalResponse{
		Success:          true,
		DetectedLanguage: detected,
		TargetLanguage:   target,
		Consensus:        models.ConsensusPendingValidation,
		IterationsUsed:   1,
		ValidationID:     vr.ID,
	}
}

// awaitValidation blocks until the validation resolves, then finalizes.
func (o *Orchestrator) awaitValidation(validationID string) {
	vr, err := o.humanLoop.AwaitDecision(context.Background(), validationID)
	if err != nil {
		o.logger.Error("await validation decision failed",
			"validation_id", validationID, "error", err)
		return
	}
	o.finalizeValidation(vr)
}

// finalizeValidation builds the post-decision response exactly once and
// records it for ValidationResult callers. Approved and modified drafts
// are released (translated when needed) and cached; rejections and
// expiries become the safe refusal.
func (o *Orchestrator) finalizeValidation(vr *models.ValidationRequest) *models.FinalResponse {
	o.mu.Lock()
	if done, ok := o.finalized[vr.ID]; ok {
		o.mu.Unlock()
		return done.Clone()
	}
	wf, ok := o.suspended[vr.ID]
	o.mu.Unlock()
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.WorkflowTimeout)
	defer cancel()

	resp := &models.FinalResponse{
		Success:          true,
		DetectedLanguage: wf.detected,
		TargetLanguage:   wf.target,
		IterationsUsed:   wf.iterations,
		ValidationID:     vr.ID,
	}

	switch vr.Status {
	case models.ValidationApproved, models.ValidationModified:
		resp.Consensus = models.ConsensusApproved
		resp.Answer = vr.FinalDraft()
		resp.Sources = wf.sources
		o.translate(ctx, resp, wf.fingerprint, wf.query.RequestID, wf.detected, wf.target)
	case models.ValidationRejected, models.ValidationExpired:
		resp.Consensus = models.ConsensusFallback
		resp.Answer = SafeRefusal(wf.detected)
		if vr.Status == models.ValidationExpired {
			resp.Error = "HUMAN_LOOP_EXPIRED"
		}
	default:
		// Still pending; nothing to finalize.
		return nil
	}

	o.mu.Lock()
	if done, ok := o.finalized[vr.ID]; ok {
		// Another finalizer won the race.
		o.mu.Unlock()
		return done.Clone()
	}
	o.finalized[vr.ID] = resp
	delete(o.suspended, vr.ID)
	o.mu.Unlock()

	if resp.Consensus.Cacheable() {
		o.cache.Put(wf.fingerprint, resp)
	}

	o.audit.Record(ctx, audit.Event{
		Time: time.Now(), Type: audit.EventValidationResolved,
		Fingerprint: wf.fingerprint, RequestID: wf.query.RequestID,
		ValidationID: vr.ID,
		Detail: map[string]any{
			"status":    string(vr.Status),
			"consensus": string(resp.Consensus),
		},
	})

	return resp.Clone()
}

// ValidationResult returns the finalized response for a validation, or
// a PENDING_VALIDATION envelope while the decision is still open.
func (o *Orchestrator) ValidationResult(validationID string) (*models.FinalResponse, error) {
	o.mu.Lock()
	if done, ok := o.finalized[validationID]; ok {
		o.mu.Unlock()
		return done.Clone(), nil
	}
	o.mu.Unlock()

	vr, err := o.humanLoop.Get(validationID)
	if err != nil {
		return nil, err
	}

	if !vr.Status.Terminal() {
		return &models.FinalResponse{
			Success:          true,
			DetectedLanguage: vr.DetectedLanguage,
			Consensus:        models.ConsensusPendingValidation,
			ValidationID:     vr.ID,
		}, nil
	}

	// Terminal but not yet finalized: the background finalizer may still
	// be running. Finalize here; finalizeValidation is idempotent.
	if resp := o.finalizeValidation(vr); resp != nil {
		return resp, nil
	}
	return nil, humanloop.ErrNotFound
}
