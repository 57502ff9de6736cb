// Package orchestrator runs the multi-agent query workflow: language
// detection, safety classification, retrieval, the generate/verify/
// reform consensus loop, translation, caching, and the human-in-the-loop
// suspension path.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mirage-project/mirage/pkg/agent"
	"github.com/mirage-project/mirage/pkg/audit"
	"github.com/mirage-project/mirage/pkg/cache"
	"github.com/mirage-project/mirage/pkg/humanloop"
	"github.com/mirage-project/mirage/pkg/models"
	"github.com/mirage-project/mirage/pkg/retrieval"
)

// Default workflow parameters.
const (
	DefaultMaxIterations    = 3
	DefaultApproveThreshold = 0.7
	DefaultRejectThreshold  = 0.3
	DefaultWorkflowTimeout  = 120 * time.Second
	DefaultRetrievalTopK    = 5
)

// Role agents, narrowed to what the workflow invokes. Satisfied by the
// concrete agents in pkg/agent.
type GeneratorAgent interface {
	Generate(ctx context.Context, in agent.GenerateInput) (*models.AgentOutput, error)
}

type VerifierAgent interface {
	Verify(ctx context.Context, in agent.VerifyInput) (*models.AgentOutput, error)
}

type ReformerAgent interface {
	Reform(ctx context.Context, in agent.ReformInput) (*models.AgentOutput, error)
}

type TranslatorAgent interface {
	Translate(ctx context.Context, in agent.TranslateInput) (*models.AgentOutput, error)
}

// Config holds the workflow tuning knobs.
type Config struct {
	// MaxIterations bounds the verify/reform loop.
	MaxIterations int
	// ApproveThreshold is the confidence floor for an unflagged approval.
	ApproveThreshold float64
	// RejectThreshold is the confidence ceiling below which a draft is
	// sent to the Reformer regardless of the vote.
	RejectThreshold float64
	// WorkflowTimeout bounds one end-to-end workflow run.
	WorkflowTimeout time.Duration
	// RetrievalTopK is the number of documents requested per query.
	RetrievalTopK int
}

// DefaultConfig returns the standard workflow parameters.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    DefaultMaxIterations,
		ApproveThreshold: DefaultApproveThreshold,
		RejectThreshold:  DefaultRejectThreshold,
		WorkflowTimeout:  DefaultWorkflowTimeout,
		RetrievalTopK:    DefaultRetrievalTopK,
	}
}

// Orchestrator coordinates one workflow per query fingerprint. It owns
// no agent state; all mutable per-query state lives on the stack of a
// single workflow run.
type Orchestrator struct {
	cfg Config

	generator  GeneratorAgent
	verifier   VerifierAgent
	reformer   ReformerAgent
	translator TranslatorAgent

	retriever retrieval.Client
	cache     *cache.ResponseCache
	humanLoop *humanloop.Manager
	audit     audit.Sink
	logger    *slog.Logger

	// Suspended workflow state, keyed by validation ID, finalized when
	// the human decision arrives.
	mu        sync.Mutex
	suspended map[string]*suspendedWorkflow
	finalized map[string]*models.FinalResponse
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Generator  GeneratorAgent
	Verifier   VerifierAgent
	Reformer   ReformerAgent
	Translator TranslatorAgent
	Retriever  retrieval.Client
	Cache      *cache.ResponseCache
	HumanLoop  *humanloop.Manager
	Audit      audit.Sink
	Logger     *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditSink := deps.Audit
	if auditSink == nil {
		auditSink = audit.NewSlogSink(logger)
	}
	return &Orchestrator{
		cfg:        cfg,
		generator:  deps.Generator,
		verifier:   deps.Verifier,
		reformer:   deps.Reformer,
		translator: deps.Translator,
		retriever:  deps.Retriever,
		cache:      deps.Cache,
		humanLoop:  deps.HumanLoop,
		audit:      auditSink,
		logger:     logger.With("component", "orchestrator"),
		suspended:  make(map[string]*suspendedWorkflow),
		finalized:  make(map[string]*models.FinalResponse),
	}
}

// ProcessQuery validates the query, serves it from the cache when
// possible, and otherwise runs the workflow. Concurrent identical
// queries share a single workflow run.
func (o *Orchestrator) ProcessQuery(ctx context.Context, q models.Query) (*models.FinalResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	fp := q.Fingerprint()

	if cached, ok := o.cache.Lookup(fp); ok {
		cached.Cached = true
		o.audit.Record(ctx, audit.Event{
			Time: time.Now(), Type: audit.EventCacheHit,
			Fingerprint: fp, RequestID: q.RequestID,
		})
		return cached, nil
	}

	resp, shared, err := o.cache.Do(ctx, fp, func(runCtx context.Context) (*models.FinalResponse, error) {
		wfCtx, cancel := context.WithTimeout(runCtx, o.cfg.WorkflowTimeout)
		defer cancel()
		return o.runWorkflow(wfCtx, q, fp), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		o.logger.Debug("joined in-flight workflow", "fingerprint", fp)
	}
	return resp, nil
}

// SubmitHumanDecision applies a reviewer decision to a pending
// validation request.
func (o *Orchestrator) SubmitHumanDecision(id string, decision models.Decision, modifiedText, notes string) (*models.ValidationRequest, error) {
	return o.humanLoop.SubmitDecision(id, decision, modifiedText, notes)
}

// GetValidation returns the current state of a validation request.
func (o *Orchestrator) GetValidation(id string) (*models.ValidationRequest, error) {
	return o.humanLoop.Get(id)
}

// GetValidationQueue lists pending validation requests, highest
// priority first.
func (o *Orchestrator) GetValidationQueue() []models.ValidationRequest {
	return o.humanLoop.Pending()
}

// GetValidationStatistics summarizes the validation queue.
func (o *Orchestrator) GetValidationStatistics() humanloop.Statistics {
	return o.humanLoop.Statistics()
}

// ComponentHealth reports one subsystem's status.
type ComponentHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health is the per-component health report. Status is "ok" when every
// component is healthy, "degraded" otherwise.
type Health struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

const (
	healthOK          = "ok"
	healthDegraded    = "degraded"
	healthUnavailable = "unavailable"
)

// Health reports the status of the orchestrator and its collaborators.
func (o *Orchestrator) Health() Health {
	components := map[string]ComponentHealth{
		"orchestrator": {Status: healthOK},
	}

	if o.cache != nil {
		components["cache"] = ComponentHealth{
			Status: healthOK,
			Detail: fmt.Sprintf("%d entries", o.cache.Len()),
		}
	} else {
		components["cache"] = ComponentHealth{Status: healthUnavailable}
	}

	if o.humanLoop != nil {
		components["human_loop"] = ComponentHealth{
			Status: healthOK,
			Detail: fmt.Sprintf("%d pending", o.humanLoop.Statistics().Pending),
		}
	} else {
		components["human_loop"] = ComponentHealth{Status: healthUnavailable}
	}

	llm := ComponentHealth{Status: healthOK}
	if o.generator == nil || o.verifier == nil || o.reformer == nil || o.translator == nil {
		llm = ComponentHealth{Status: healthUnavailable, Detail: "agents not configured"}
	}
	components["llm"] = llm

	if o.retriever != nil {
		components["retrieval"] = ComponentHealth{Status: healthOK}
	} else {
		components["retrieval"] = ComponentHealth{Status: healthUnavailable}
	}

	status := healthOK
	for _, ch := range components {
		if ch.Status != healthOK {
			status = healthDegraded
			break
		}
	}
	return Health{Status: status, Components: components}
}

// Statistics is a point-in-time system summary.
type Statistics struct {
	CacheEntries int                  `json:"cache_entries"`
	Validations  humanloop.Statistics `json:"validations"`
}

// GetStatistics returns the system summary.
func (o *Orchestrator) GetStatistics() Statistics {
	return Statistics{
		CacheEntries: o.cache.Len(),
		Validations:  o.humanLoop.Statistics(),
	}
}

// ClearCache drops all cached responses.
func (o *Orchestrator) ClearCache() {
	o.cache.Clear()
}
