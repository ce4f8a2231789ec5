package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/chainflow/metrics"
	"github.com/c360studio/chainflow/prompt"
	"github.com/c360studio/chainflow/provider"
	"github.com/c360studio/chainflow/tree"
	"github.com/google/uuid"
)

// Request is one chain invocation.
type Request struct {
	// Calls are the steps to execute, in order.
	Calls []CallDef

	// Locals select locale/tenant-specific prompt overrides for every
	// step's template lookup.
	Locals *prompt.Locals

	// ContinueOnError controls failure propagation: nil or true executes
	// all remaining steps after a failure, recording each failure; false
	// halts the chain at the first failure, leaving subsequent indices
	// absent.
	ContinueOnError *bool
}

// Outcome is the terminal output of a chain invocation. MergedResult
// reflects every step that succeeded even when Success is false; partial
// results are always returned.
type Outcome struct {
	// ChainID identifies this invocation in logs.
	ChainID string `json:"chain_id"`

	// Success is true iff all steps succeeded.
	Success bool `json:"success"`

	// MergedResult is the deep merge of all successful parsed results.
	MergedResult tree.Object `json:"merged_result"`

	// CallResults holds one result per executed step, in step order.
	CallResults []CallResult `json:"call_results"`

	// TotalCalls is the number of steps executed.
	TotalCalls int `json:"total_calls"`

	// SuccessfulCalls is the number of steps that succeeded.
	SuccessfulCalls int `json:"successful_calls"`
}

// Orchestrator drives a chain of dependent model calls. Steps execute
// strictly sequentially: step i+1 only begins after step i's result is
// appended, because its field resolution may read that result. Independent
// chains may run concurrently; they share only the registry and the prompt
// service, both safe for concurrent reads.
type Orchestrator struct {
	registry *provider.Registry
	prompts  *prompt.Service
	resolver *Resolver
	logger   *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an orchestrator over an explicit registry and
// prompt service. There is no implicit global wiring; tests construct
// isolated instances.
func NewOrchestrator(registry *provider.Registry, prompts *prompt.Service, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		prompts:  prompts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.resolver = NewResolver(o.logger)
	return o
}

// Execute runs the chain as an explicit fold over its steps: the results
// slice is append-only and a step's result always lands at the position
// equal to its index, success or not, so call[N] references resolve
// positionally. The engine imposes no timeouts of its own; per-call
// timeouts belong to the provider handlers, and a handler timeout is that
// step's failure, not a chain-wide abort.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Outcome, error) {
	if len(req.Calls) == 0 {
		return nil, fmt.Errorf("chain has no calls")
	}

	continueOnError := true
	if req.ContinueOnError != nil {
		continueOnError = *req.ContinueOnError
	}

	chainID := uuid.New().String()
	logger := o.logger.With(slog.String("chain_id", chainID))
	logger.Info("executing chain",
		slog.Int("calls", len(req.Calls)),
		slog.Bool("continue_on_error", continueOnError))

	results := make([]CallResult, 0, len(req.Calls))
	for i, def := range req.Calls {
		result := o.executeStep(ctx, logger, i, def, req.Locals, results)
		results = append(results, result)

		if !result.Success && !continueOnError {
			logger.Warn("halting chain at first failure",
				slog.Int("call_index", i),
				slog.String("error", result.Error))
			break
		}
	}

	successful := 0
	for _, res := range results {
		if res.Success {
			successful++
		}
	}

	return &Outcome{
		ChainID:         chainID,
		Success:         successful == len(req.Calls),
		MergedResult:    MergeResults(results),
		CallResults:     results,
		TotalCalls:      len(results),
		SuccessfulCalls: successful,
	}, nil
}

// executeStep runs one step against the accumulated results so far and
// always returns a result for position index.
func (o *Orchestrator) executeStep(ctx context.Context, logger *slog.Logger, index int, def CallDef, locals *prompt.Locals, prior []CallResult) CallResult {
	started := time.Now()
	res, err := o.dispatchStep(ctx, logger, index, def, locals, prior)

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ChainStepsTotal.WithLabelValues(def.Provider, def.ServiceType.String(), status).Inc()
	metrics.ChainStepDuration.WithLabelValues(def.Provider, def.ServiceType.String()).
		Observe(time.Since(started).Seconds())

	if err != nil {
		logger.Warn("chain step failed",
			slog.Int("call_index", index),
			slog.String("error", err.Error()))
		return CallResult{CallIndex: index, Error: err.Error()}
	}

	result := CallResult{
		CallIndex:     index,
		Success:       true,
		RawText:       res.Text,
		ImageB64:      res.ImageB64,
		ImageMimeType: res.ImageMimeType,
	}
	if res.Text != "" {
		if parsed, ok := ParseResponse(res.Text); ok {
			result.ParsedResult = parsed
		} else {
			logger.Debug("no JSON found in step output", slog.Int("call_index", index))
		}
	}
	return result
}

// dispatchStep resolves the step's prompt and inputs, then invokes the
// capability-checked provider handler.
func (o *Orchestrator) dispatchStep(ctx context.Context, logger *slog.Logger, index int, def CallDef, locals *prompt.Locals, prior []CallResult) (*provider.Result, error) {
	area, err := o.resolver.ResolveField(def.PromptArea, prior)
	if err != nil {
		return nil, fmt.Errorf("resolve prompt_area: %w", err)
	}
	key, err := o.resolver.ResolveField(def.PromptKey, prior)
	if err != nil {
		return nil, fmt.Errorf("resolve prompt_key: %w", err)
	}

	record, err := o.prompts.Lookup(ctx, area, key, locals)
	if err != nil {
		if errors.Is(err, prompt.ErrNotFound) {
			return nil, fmt.Errorf("prompt %s/%s not found", area, key)
		}
		return nil, fmt.Errorf("prompt lookup: %w", err)
	}

	varSets := o.resolver.BuildVariables(def.Variables, prior)
	vars := map[string]string{}
	if len(varSets) > 0 {
		vars = varSets[0]
	}
	rendered := record.Render(vars)

	handler, err := o.registry.Get(def.Provider)
	if err != nil {
		return nil, err
	}
	if err := o.registry.ValidateCapability(handler, def.ServiceType); err != nil {
		return nil, err
	}

	preq := &provider.Request{Prompt: rendered}
	if image := o.resolver.ResolveImage(def.Image, prior); image != nil {
		preq.ImageB64 = image.B64
		preq.ImageMimeType = image.MimeType
	}

	logger.Debug("dispatching chain step",
		slog.Int("call_index", index),
		slog.String("provider", handler.Name()),
		slog.String("service", def.ServiceType.String()),
		slog.Int("variables", len(vars)))

	return provider.Invoke(ctx, handler, def.ServiceType, preq)
}
