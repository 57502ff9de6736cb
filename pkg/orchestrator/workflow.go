package orchestrator

import (
	"context"
	"time"

	"github.com/mirage-project/mirage/pkg/agent"
	"github.com/mirage-project/mirage/pkg/audit"
	"github.com/mirage-project/mirage/pkg/lang"
	"github.com/mirage-project/mirage/pkg/models"
	"github.com/mirage-project/mirage/pkg/safety"
)

// runWorkflow executes one full workflow. It never returns an error:
// agent failures degrade into a FAILED or FALLBACK envelope so every
// caller coalesced onto this run receives a well-formed response.
func (o *Orchestrator) runWorkflow(ctx context.Context, q models.Query, fp string) *models.FinalResponse {
	started := time.Now()

	detection := lang.Detect(q.Text)
	detected := detection.Language
	target := q.TargetLanguage
	if target == "" {
		target = detected
	}

	o.audit.Record(ctx, audit.Event{
		Time: started, Type: audit.EventWorkflowStart,
		Fingerprint: fp, RequestID: q.RequestID,
		Detail: map[string]any{
			"detected_language":  string(detected),
			"language_conf":      detection.Confidence,
			"human_loop_enabled": q.EnableHumanLoop,
		},
	})

	var resp *models.FinalResponse
	if trigger := safety.Classify(q.Text); q.EnableHumanLoop && trigger != nil {
		resp = o.runValidatedWorkflow(ctx, q, fp, detected, target, trigger)
	} else {
		resp = o.runConsensusWorkflow(ctx, q, fp, detected, target)
	}

	resp.ProcessingTimeMS = time.Since(started).Milliseconds()

	if resp.Consensus.Cacheable() {
		o.cache.Put(fp, resp)
	}

	o.audit.Record(ctx, audit.Event{
		Time: time.Now(), Type: audit.EventWorkflowEnd,
		Fingerprint: fp, RequestID: q.RequestID,
		ValidationID: resp.ValidationID,
		Detail: map[string]any{
			"consensus":  string(resp.Consensus),
			"iterations": resp.IterationsUsed,
			"success":    resp.Success,
		},
	})
	return resp
}

// runConsensusWorkflow is the standard path: retrieve, generate, then
// verify and reform until consensus or the iteration bound.
func (o *Orchestrator) runConsensusWorkflow(ctx context.Context, q models.Query, fp string, detected, target models.Language) *models.FinalResponse {
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

	draft := genOut.Text
	reformed := false
	flagged := false
	anyReformYes := false
	bestYesDraft := ""
	consensus := models.ConsensusFallback
	trail := make([]models.IterationRecord, 0, o.cfg.MaxIterations)

	for iter := 1; iter <= o.cfg.MaxIterations; iter++ {
		rec := models.IterationRecord{Index: iter}
		if iter == 1 {
			rec.GeneratorOut = genOut
		}
		verOut, verFailed := o.verify(ctx, q, fp, rc, draft, detected)
		rec.VerifierOut = verOut

		if verOut.Vote == models.VoteYes && verOut.Confidence >= o.cfg.ApproveThreshold {
			consensus = models.ConsensusApproved
			if reformed {
				consensus = models.ConsensusReformedApproved
			}
			trail = append(trail, rec)
			break
		}

		if verOut.Vote == models.VoteYes && verOut.Confidence >= o.cfg.RejectThreshold {
			// Middle confidence band: accept, but mark the uncertainty.
			consensus = models.ConsensusApproved
			if reformed {
				consensus = models.ConsensusReformedApproved
			}
			flagged = true
			trail = append(trail, rec)
			break
		}

		// Rejected: NO vote, unparseable vote, or confidence below the
		// floor. A low-confidence YES is still a YES for termination.
		if verOut.Vote == models.VoteYes {
			bestYesDraft = draft
			if reformed {
				anyReformYes = true
			}
		}

		// The last iteration has no reform budget left; finalize on the
		// last-known best draft.
		if iter == o.cfg.MaxIterations {
			trail = append(trail, rec)
			switch {
			case verOut.Vote == models.VoteYes:
				consensus = models.ConsensusApproved
			case anyReformYes:
				consensus = models.ConsensusReformedApproved
				draft = bestYesDraft
			default:
				consensus = models.ConsensusFallback
			}
			break
		}

		refOut, err := o.reformer.Reform(ctx, agent.ReformInput{
			Query:    q.Text,
			Context:  rc.Text,
			Draft:    draft,
			Analysis: verOut.Analysis,
			Language: detected,
		})
		if err != nil {
			o.recordAgentError(ctx, fp, q.RequestID, models.RoleReformer, err)
			if verFailed {
				// Verifier already failed on this draft; with the
				// Reformer down too there is no vote and no way to make
				// progress.
				trail = append(trail, rec)
				return o.failedResponse(detected, target, len(trail), err)
			}
			// Skip reformation this iteration and re-verify the draft
			// unchanged.
			trail = append(trail, rec)
			continue
		}
		rec.ReformerOut = refOut
		trail = append(trail, rec)
		draft = refOut.Text
		reformed = true
	}

	o.logIterationTrail(fp, trail)

	resp := &models.FinalResponse{
		Success:          true,
		DetectedLanguage: detected,
		TargetLanguage:   target,
		Consensus:        consensus,
		IterationsUsed:   len(trail),
		FlaggedUncertain: flagged,
	}

	if consensus == models.ConsensusFallback {
		// The refusal is rendered in the language of the query itself.
		resp.Answer = SafeRefusal(detected)
		return resp
	}

	resp.Answer = draft
	resp.Sources = rc.Sources
	o.translate(ctx, resp, fp, q.RequestID, detected, target)
	return resp
}

// logIterationTrail emits the per-iteration verdicts for debugging a
// workflow's consensus path.
func (o *Orchestrator) logIterationTrail(fp string, trail []models.IterationRecord) {
	for _, rec := range trail {
		vote := models.VoteUnknown
		confidence := 0.0
		if rec.VerifierOut != nil {
			vote = rec.VerifierOut.Vote
			confidence = rec.VerifierOut.Confidence
		}
		o.logger.Debug("iteration verdict",
			"fingerprint", fp,
			"iteration", rec.Index,
			"vote", string(vote),
			"confidence", confidence,
			"reformed", rec.ReformerOut != nil)
	}
}

// retrieve fetches document context, degrading to an empty context on
// failure. The generator then answers with the uncertainty
// acknowledgement instead of the workflow failing outright.
func (o *Orchestrator) retrieve(ctx context.Context, q models.Query, fp string) *models.RetrievedContext {
	rc, err := o.retriever.Retrieve(ctx, q.Text, o.cfg.RetrievalTopK)
	if err != nil {
		o.logger.Warn("retrieval failed, continuing with empty context",
			"fingerprint", fp, "error", err)
		return &models.RetrievedContext{}
	}
	return rc
}

// verify runs the Verifier, converting any failure into an UNKNOWN vote
// with zero confidence. That routes the draft through the Reformer path
// rather than aborting the workflow. The second return reports whether
// the vote was synthesized from a verifier failure.
func (o *Orchestrator) verify(ctx context.Context, q models.Query, fp string, rc *models.RetrievedContext, draft string, detected models.Language) (*models.AgentOutput, bool) {
	verOut, err := o.verifier.Verify(ctx, agent.VerifyInput{
		Query:    q.Text,
		Context:  rc.Text,
		Draft:    draft,
		Language: detected,
	})
	if err != nil {
		o.recordAgentError(ctx, fp, q.RequestID, models.RoleVerifier, err)
		return &models.AgentOutput{
			Role:       models.RoleVerifier,
			Vote:       models.VoteUnknown,
			Confidence: 0.0,
		}, true
	}
	return verOut, false
}

// translate converts the answer to the target language in place. A
// translation failure keeps the source-language answer and marks the
// response rather than discarding an approved draft.
func (o *Orchestrator) translate(ctx context.Context, resp *models.FinalResponse, fp, requestID string, detected, target models.Language) {
	if detected == target {
		return
	}
	traOut, err := o.translator.Translate(ctx, agent.TranslateInput{
		Text:           resp.Answer,
		SourceLanguage: detected,
		TargetLanguage: target,
	})
	if err != nil {
		o.recordAgentError(ctx, fp, requestID, models.RoleTranslator, err)
		resp.Untranslated = true
		return
	}
	resp.Answer = traOut.Text
}

func (o *Orchestrator) failedResponse(detected, target models.Language, iterations int, err error) *models.FinalResponse {
	return &models.FinalResponse{
		Success:          false,
		DetectedLanguage: detected,
		TargetLanguage:   target,
		Consensus:        models.ConsensusFailed,
		IterationsUsed:   iterations,
		Error:            err.Error(),
	}
}

func (o *Orchestrator) recordAgentError(ctx context.Context, fp, requestID string, role models.AgentRole, err error) {
	o.logger.Warn("agent call failed",
		"role", string(role), "fingerprint", fp, "error", err)
	o.audit.Record(ctx, audit.Event{
		Time: time.Now(), Type: audit.EventAgentError,
		Fingerprint: fp, RequestID: requestID,
		Detail: map[string]any{
			"role":  string(role),
			"kind":  string(agent.KindOf(err)),
			"error": err.Error(),
		},
	})
}
