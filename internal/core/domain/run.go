package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Run Errors
// =============================================================================

var (
	ErrInvalidRunTransition = errors.New("invalid run status transition")
)

// =============================================================================
// Run Status
// =============================================================================

// RunStatus represents the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// validRunTransitions defines the allowed status transitions.
var validRunTransitions = map[RunStatus][]RunStatus{
	RunStatusPending: {RunStatusRunning, RunStatusFailed},
	RunStatusRunning: {RunStatusSucceeded, RunStatusFailed},
}

// =============================================================================
// Run Kind
// =============================================================================

// RunKind identifies which operation a run executed.
type RunKind string

const (
	RunKindBootstrap RunKind = "bootstrap"
	RunKindProvision RunKind = "provision"
	RunKindDeploy    RunKind = "deploy"
	RunKindSetup     RunKind = "setup"
)

// =============================================================================
// Run
// =============================================================================

// Run records a single invocation of a phabctl operation.
type Run struct {
	ID         string
	Kind       RunKind
	Status     RunStatus
	Detail     string // human-readable summary, e.g. forwarded arguments
	Error      string // failure reason when Status is failed
	StartedAt  time.Time
	FinishedAt *time.Time
}

// NewRun creates a pending run.
func NewRun(kind RunKind, detail string) *Run {
	return &Run{
		ID:        GenerateRunID(),
		Kind:      kind,
		Status:    RunStatusPending,
		Detail:    detail,
		StartedAt: time.Now().UTC(),
	}
}

// GenerateRunID generates a short unique run identifier.
func GenerateRunID() string {
	return "run_" + uuid.New().String()[:8]
}

// Transition moves the run to a new status, validating the transition.
func (r *Run) Transition(to RunStatus) error {
	for _, allowed := range validRunTransitions[r.Status] {
		if allowed == to {
			r.Status = to
			if to == RunStatusSucceeded || to == RunStatusFailed {
				now := time.Now().UTC()
				r.FinishedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidRunTransition, r.Status, to)
}

// Fail marks the run failed with the given reason.
func (r *Run) Fail(reason string) error {
	r.Error = reason
	return r.Transition(RunStatusFailed)
}

// Duration returns the elapsed time of a finished run, or zero if still open.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
