// Package job defines the long-running orchestration job records tracked
// while a product is being registered across marketplaces.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status is the lifecycle state of a job.
type Status string

const (
	// StatusPending indicates the job was created but not started
	StatusPending Status = "PENDING"
	// StatusInProgress indicates the orchestrator is driving the job
	StatusInProgress Status = "IN_PROGRESS"
	// StatusCompleted indicates the job finished, possibly with partial failures
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates no target could even be dispatched
	StatusFailed Status = "FAILED"
)

// IsValid returns true if the status is a known state.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for write-once final states.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Kind
// ---------------------------------------------------------------------------

// Kind is the type of orchestration a job represents.
type Kind string

const (
	// KindRegistration is a multi-platform product registration
	KindRegistration Kind = "REGISTRATION"
	// KindRegistrationRetry re-drives the failed targets of an earlier job
	KindRegistrationRetry Kind = "REGISTRATION_RETRY"
)

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

// ErrorInfo is the serializable form of a per-target failure.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// TargetResult is the outcome for one requested platform. Once the job is
// terminal there is exactly one TargetResult per requested target.
type TargetResult struct {
	Target integration.PlatformCode `json:"target"`
	// Success is true when the platform accepted the registration
	Success bool `json:"success"`
	// ExternalID is the platform-assigned product id on success
	ExternalID string `json:"external_id,omitempty"`
	// Error describes the failure on non-success
	Error *ErrorInfo `json:"error,omitempty"`
	// Attempts is the number of calls the retrying client made
	Attempts int `json:"attempts"`
	// NeedsRetry marks transient failures worth re-driving
	NeedsRetry bool `json:"needs_retry"`
	// NeedsManualMapping marks targets skipped for missing category mapping
	NeedsManualMapping bool `json:"needs_manual_mapping"`
}

// Job is the record of one orchestration run. It is created by the tracker,
// mutated only by the goroutine driving it, and immutable once terminal.
type Job struct {
	ID      uuid.UUID                  `json:"id"`
	Kind    Kind                       `json:"kind"`
	Targets []integration.PlatformCode `json:"targets"`
	Status  Status                     `json:"status"`
	// Input is the full registration input, persisted so a retry can
	// reconstruct its payload
	Input       any                                        `json:"input,omitempty"`
	Results     map[integration.PlatformCode]*TargetResult `json:"results"`
	Warnings    []string                                   `json:"warnings,omitempty"`
	Error       string                                     `json:"error,omitempty"`
	StartedAt   time.Time                                  `json:"started_at"`
	CompletedAt *time.Time                                 `json:"completed_at,omitempty"`
}

// New creates a pending job for the given targets.
func New(kind Kind, targets []integration.PlatformCode) *Job {
	return &Job{
		ID:        uuid.New(),
		Kind:      kind,
		Targets:   append([]integration.PlatformCode(nil), targets...),
		Status:    StatusPending,
		Results:   make(map[integration.PlatformCode]*TargetResult, len(targets)),
		StartedAt: time.Now(),
	}
}

// SuccessCount returns the number of successful targets.
func (j *Job) SuccessCount() int {
	n := 0
	for _, r := range j.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// FailureCount returns the number of failed targets.
func (j *Job) FailureCount() int {
	n := 0
	for _, r := range j.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to readers while the driving
// goroutine keeps mutating the original.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Targets = append([]integration.PlatformCode(nil), j.Targets...)
	cp.Warnings = append([]string(nil), j.Warnings...)
	cp.Results = make(map[integration.PlatformCode]*TargetResult, len(j.Results))
	for code, r := range j.Results {
		rc := *r
		if r.Error != nil {
			ec := *r.Error
			rc.Error = &ec
		}
		cp.Results[code] = &rc
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
