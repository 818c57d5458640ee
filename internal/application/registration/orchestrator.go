package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/crosslist/backend/internal/application/imagepipe"
	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/job"
)

// Orchestrator errors
var (
	ErrNoPlatforms       = errors.New("registration: at least one platform is required")
	ErrJobNotRetryable   = errors.New("registration: job has no retryable input")
	ErrNothingToRetry    = errors.New("registration: job has no failed targets")
	ErrJobNotTerminal    = errors.New("registration: job is still running")
	ErrListingRequired   = errors.New("registration: listing is required")
	ErrDuplicatePlatform = errors.New("registration: duplicate platform in request")
)

// Orchestrator coordinates one registration across all requested platforms.
// It never retries at its own level; every retry lives inside the adapters'
// retrying client so attempt counts stay attributable per outbound call.
type Orchestrator struct {
	registry integration.Registry
	mapper   integration.CategoryMapper
	pipeline *imagepipe.Pipeline
	tracker  *Tracker
	logger   *zap.Logger

	// maxDispatch bounds concurrent platform dispatches; zero means one
	// permit per requested target
	maxDispatch int64
}

// OrchestratorOption is a functional option for configuring Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithImagePipeline enables image processing before dispatch
func WithImagePipeline(p *imagepipe.Pipeline) OrchestratorOption {
	return func(o *Orchestrator) { o.pipeline = p }
}

// WithMaxDispatch caps concurrent platform dispatches
func WithMaxDispatch(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxDispatch = int64(n)
		}
	}
}

// WithOrchestratorLogger sets a custom logger
func WithOrchestratorLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates a registration orchestrator.
func NewOrchestrator(
	registry integration.Registry,
	mapper integration.CategoryMapper,
	tracker *Tracker,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		mapper:   mapper,
		tracker:  tracker,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterProduct runs the full registration flow and returns a
// consolidated result. Partial failure is reported in the result, never as
// an error; only invalid input errors out.
func (o *Orchestrator) RegisterProduct(ctx context.Context, input *Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	j := o.tracker.CreateJob(job.KindRegistration, input.Platforms)
	if err := o.tracker.UpdateJob(j.ID, func(j *job.Job) {
		j.Input = input
		j.Status = job.StatusInProgress
	}); err != nil {
		return nil, err
	}
	return o.run(ctx, j.ID, input, input.Platforms)
}

// RetryRegistration re-drives the failed targets of a terminal job using
// its persisted input. It creates a fresh job; the original stays immutable.
func (o *Orchestrator) RetryRegistration(ctx context.Context, jobID uuid.UUID) (*Result, error) {
	prev, err := o.tracker.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if !prev.Status.IsTerminal() {
		return nil, ErrJobNotTerminal
	}
	input, ok := prev.Input.(*Input)
	if !ok || input == nil {
		return nil, ErrJobNotRetryable
	}

	var targets []integration.PlatformCode
	for _, target := range prev.Targets {
		if tr, ok := prev.Results[target]; ok && !tr.Success {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		return nil, ErrNothingToRetry
	}

	j := o.tracker.CreateJob(job.KindRegistrationRetry, targets)
	if err := o.tracker.UpdateJob(j.ID, func(j *job.Job) {
		j.Input = input
		j.Status = job.StatusInProgress
	}); err != nil {
		return nil, err
	}
	return o.run(ctx, j.ID, input, targets)
}

// run drives one job: images, category mapping, fan-out, consolidation.
func (o *Orchestrator) run(ctx context.Context, jobID uuid.UUID, input *Input, targets []integration.PlatformCode) (*Result, error) {
	listing := input.Listing

	// Image processing degrades the payload on failure, never aborts.
	warnings := o.processImages(ctx, &listing)
	if len(warnings) > 0 {
		_ = o.tracker.UpdateJob(jobID, func(j *job.Job) {
			j.Warnings = append(j.Warnings, warnings...)
		})
	}

	// Category mapping decides which targets are dispatchable at all.
	type dispatchTarget struct {
		code    integration.PlatformCode
		listing integration.Listing
	}
	var dispatchable []dispatchTarget
	for _, target := range targets {
		mapped, skip := o.mapCategory(ctx, &listing, target, input.Options)
		if skip != nil {
			_ = o.tracker.UpdateJob(jobID, func(j *job.Job) {
				j.Results[target] = skip
			})
			continue
		}
		dispatchable = append(dispatchable, dispatchTarget{code: target, listing: mapped})
	}

	// Fan-out: unordered across platforms, bounded by the semaphore.
	permits := o.maxDispatch
	if permits <= 0 {
		permits = int64(len(targets))
	}
	sem := semaphore.NewWeighted(permits)
	results := make(chan *job.TargetResult, len(dispatchable))
	for _, dt := range dispatchable {
		dt := dt
		if err := sem.Acquire(ctx, 1); err != nil {
			results <- cancelledResult(dt.code, err)
			continue
		}
		go func() {
			defer sem.Release(1)
			results <- o.dispatch(ctx, dt.code, &dt.listing)
		}()
	}

	for range dispatchable {
		tr := <-results
		_ = o.tracker.UpdateJob(jobID, func(j *job.Job) {
			j.Results[tr.Target] = tr
		})
	}

	// Consolidate: completed even on partial success; failed only when
	// nothing was dispatched at all.
	var final *job.Job
	_ = o.tracker.UpdateJob(jobID, func(j *job.Job) {
		now := time.Now()
		j.CompletedAt = &now
		if len(dispatchable) == 0 {
			j.Status = job.StatusFailed
			j.Error = "no target could be dispatched"
		} else {
			j.Status = job.StatusCompleted
		}
		final = j.Clone()
	})
	if final == nil {
		var err error
		final, err = o.tracker.GetJob(jobID)
		if err != nil {
			return nil, err
		}
	}

	o.logger.Info("registration finished",
		zap.String("job_id", jobID.String()),
		zap.String("status", final.Status.String()),
		zap.Int("success", final.SuccessCount()),
		zap.Int("failure", final.FailureCount()))

	return newResult(final), nil
}

// processImages runs the pipeline over the listing's image URLs and swaps in
// the optimized variants. Every failure becomes a warning and strips the
// affected field from the payload.
func (o *Orchestrator) processImages(ctx context.Context, listing *integration.Listing) []string {
	if o.pipeline == nil {
		return nil
	}
	var sources []imagepipe.Source
	if listing.MainImageURL != "" {
		sources = append(sources, imagepipe.Source{URL: listing.MainImageURL, Type: "main"})
	}
	for _, u := range listing.AdditionalImageURLs {
		sources = append(sources, imagepipe.Source{URL: u, Type: "additional"})
	}
	if len(sources) == 0 {
		return nil
	}

	outcomes := o.pipeline.ProcessImages(ctx, listing.ProductID, sources)

	var warnings []string
	var additional []string
	for i, out := range outcomes {
		isMain := listing.MainImageURL != "" && i == 0
		if out.Err != nil {
			warnings = append(warnings, fmt.Sprintf("image %s failed: %v", out.Source.URL, out.Err))
			if isMain {
				listing.MainImageURL = ""
			}
			continue
		}
		if isMain {
			listing.MainImageURL = out.Asset.OptimizedURL
		} else {
			additional = append(additional, out.Asset.OptimizedURL)
		}
	}
	listing.AdditionalImageURLs = additional
	return warnings
}

// mapCategory resolves the per-platform category. A missing mapping without
// the skip option short-circuits the target; no network call is made for it.
func (o *Orchestrator) mapCategory(ctx context.Context, listing *integration.Listing, target integration.PlatformCode, opts Options) (integration.Listing, *job.TargetResult) {
	mapped := *listing

	mapping, err := o.mapper.MapCategory(ctx, listing, target)
	if err != nil || mapping == nil || mapping.CategoryID == "" {
		if opts.SkipCategoryValidation {
			return mapped, nil
		}
		o.logger.Debug("category mapping missing",
			zap.String("platform", target.String()),
			zap.String("product_id", listing.ProductID))
		return mapped, &job.TargetResult{
			Target:             target,
			Success:            false,
			NeedsManualMapping: true,
			Error: &job.ErrorInfo{
				Kind:    string(integration.ErrorKindValidation),
				Message: "no category mapping for platform",
				Hint:    "map the product category for this platform and retry",
			},
		}
	}
	mapped.CategoryID = mapping.CategoryID
	return mapped, nil
}

// dispatch performs one platform registration and classifies its outcome.
func (o *Orchestrator) dispatch(ctx context.Context, target integration.PlatformCode, listing *integration.Listing) *job.TargetResult {
	adapter, err := o.registry.Adapter(target)
	if err != nil {
		return &job.TargetResult{
			Target:  target,
			Success: false,
			Error: &job.ErrorInfo{
				Kind:    string(integration.ErrorKindValidation),
				Message: err.Error(),
				Hint:    "configure credentials for this platform",
			},
		}
	}

	res, err := adapter.RegisterProduct(ctx, listing)
	if err != nil {
		return failedResult(target, err)
	}
	return &job.TargetResult{
		Target:     target,
		Success:    true,
		ExternalID: res.PlatformProductID,
		Attempts:   res.Attempts,
	}
}

// failedResult converts an adapter error into a TargetResult. The adapter
// classified the error already; nothing is re-classified here.
func failedResult(target integration.PlatformCode, err error) *job.TargetResult {
	tr := &job.TargetResult{Target: target, Success: false, Attempts: 1}
	if pe, ok := integration.AsPlatformError(err); ok {
		tr.Attempts = pe.Attempts
		tr.NeedsRetry = pe.Retryable()
		tr.Error = &job.ErrorInfo{
			Kind:    string(pe.Kind),
			Code:    pe.Code,
			Message: pe.Message,
			Hint:    pe.Hint,
		}
		return tr
	}
	tr.Error = &job.ErrorInfo{
		Kind:    string(integration.ErrorKindPlatform),
		Message: err.Error(),
	}
	return tr
}

func cancelledResult(target integration.PlatformCode, err error) *job.TargetResult {
	return &job.TargetResult{
		Target:  target,
		Success: false,
		Error: &job.ErrorInfo{
			Kind:    string(integration.ErrorKindNetwork),
			Message: err.Error(),
		},
		NeedsRetry: true,
	}
}

func validateInput(input *Input) error {
	if input == nil || input.Listing.ProductID == "" || input.Listing.Title == "" {
		return ErrListingRequired
	}
	if len(input.Platforms) == 0 {
		return ErrNoPlatforms
	}
	seen := make(map[integration.PlatformCode]bool, len(input.Platforms))
	for _, p := range input.Platforms {
		if !p.IsValid() {
			return fmt.Errorf("%w: %s", integration.ErrUnknownPlatform, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlatform, p)
		}
		seen[p] = true
	}
	return nil
}
