// Package registration drives multi-platform product registration: image
// processing, category mapping, bounded fan-out to the platform adapters and
// consolidation of per-target results into a tracked job.
package registration

import (
	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/job"
)

// Options tunes one registration run.
type Options struct {
	// SkipCategoryValidation dispatches to platforms without a category
	// mapping instead of marking them for manual mapping
	SkipCategoryValidation bool
}

// Input is the full registration request. It is persisted on the job so a
// later retry can rebuild its payload without the caller resubmitting.
type Input struct {
	Listing   integration.Listing        `json:"listing"`
	Platforms []integration.PlatformCode `json:"platforms"`
	Options   Options                    `json:"options"`
}

// Result is the consolidated outcome of one registration run. Partial
// failure is a result shape, not an error: the buckets partition the
// requested targets.
type Result struct {
	JobID        uuid.UUID `json:"job_id"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`

	Successful         []integration.PlatformCode `json:"successful"`
	Failed             []integration.PlatformCode `json:"failed"`
	NeedsRetry         []integration.PlatformCode `json:"needs_retry"`
	NeedsManualMapping []integration.PlatformCode `json:"needs_manual_mapping"`

	Results  map[integration.PlatformCode]*job.TargetResult `json:"results"`
	Warnings []string                                       `json:"warnings,omitempty"`
}

// newResult consolidates a terminal job into the caller-facing shape.
func newResult(j *job.Job) *Result {
	res := &Result{
		JobID:    j.ID,
		Results:  make(map[integration.PlatformCode]*job.TargetResult, len(j.Results)),
		Warnings: append([]string(nil), j.Warnings...),
	}
	for _, target := range j.Targets {
		tr, ok := j.Results[target]
		if !ok {
			continue
		}
		res.Results[target] = tr
		if tr.Success {
			res.SuccessCount++
			res.Successful = append(res.Successful, target)
			continue
		}
		res.FailureCount++
		res.Failed = append(res.Failed, target)
		switch {
		case tr.NeedsManualMapping:
			res.NeedsManualMapping = append(res.NeedsManualMapping, target)
		case tr.NeedsRetry:
			res.NeedsRetry = append(res.NeedsRetry, target)
		}
	}
	return res
}
