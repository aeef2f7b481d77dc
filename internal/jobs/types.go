// Package jobs defines the background job model used to run analyses off
// the request path.
package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType selects which analysis a job runs.
type JobType string

const (
	JobTypeRiskAssessment JobType = "risk_assessment"
	JobTypeRecommendation JobType = "recommendation"
)

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	return t == JobTypeRiskAssessment || t == JobTypeRecommendation
}

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusCancelled marks a job that ran to the end but whose result
	// was thrown away.
	JobStatusCancelled JobStatus = "cancelled"
)

// ErrDiscarded is returned by a handler whose result was no longer wanted.
// The job is marked cancelled.
var ErrDiscarded = errors.New("job result discarded")

// ErrJobNotFound is returned by JobStore lookups for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// AnalysisJob is one queued call to the analysis gateway.
type AnalysisJob struct {
	JobID string  `json:"job_id"`
	Type  JobType `json:"type"`

	// Generation ties the job to one start of the analysis. A job whose
	// generation is stale has been cancelled or superseded.
	Generation uint64 `json:"generation"`

	// Payload is the ledger snapshot the job analyses.
	Payload any `json:"-"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Publisher enqueues jobs.
type Publisher interface {
	// Publish enqueues a job and assigns its ID if empty.
	Publish(ctx context.Context, job *AnalysisJob) error
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start launches the workers; handler is called once per job.
	Start(ctx context.Context, handler JobHandler) error
	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job and reports whether it failed.
type JobHandler func(ctx context.Context, job *AnalysisJob) error

// JobStore keeps job history for the jobs API.
type JobStore interface {
	SaveJob(ctx context.Context, job *AnalysisJob) error
	GetJob(ctx context.Context, jobID string) (*AnalysisJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalysisJob, error)
}

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	Type   JobType
	Status JobStatus
	Limit  int
	Offset int
}
