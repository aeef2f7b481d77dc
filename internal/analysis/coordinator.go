// Package analysis runs risk assessments and strategy recommendations in
// the background, one in flight per kind, and tracks their state.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/gateway"
	"github.com/dvloznov/ledgerbook/internal/jobs"
	"github.com/dvloznov/ledgerbook/internal/ledger"
	"github.com/dvloznov/ledgerbook/internal/metrics"
	"github.com/dvloznov/ledgerbook/internal/report"
)

// State of one analysis kind.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// ErrAnalysisPending rejects a start while the same kind is loading.
var ErrAnalysisPending = errors.New("analysis already in progress")

// Analyzer is the part of the gateway the coordinator calls.
type Analyzer interface {
	AssessRisk(ctx context.Context, txs []domain.Transaction, products []domain.Product) (*domain.RiskAssessment, error)
	RecommendStrategy(ctx context.Context, summary domain.FinancialSummary) string
	Available() bool
}

// Status is the externally visible state of one kind.
type Status struct {
	Kind       jobs.JobType `json:"kind"`
	State      State        `json:"state"`
	JobID      string       `json:"jobId,omitempty"`
	ErrorKind  string       `json:"errorKind,omitempty"`
	Message    string       `json:"message,omitempty"`
	StartedAt  *time.Time   `json:"startedAt,omitempty"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
	// Recommendation holds the last recommendation text.
	Recommendation string `json:"recommendation,omitempty"`
}

type run struct {
	status     Status
	generation uint64
}

// Coordinator owns the analysis state machine.
type Coordinator struct {
	mu      sync.Mutex
	ledger  *ledger.Store
	gw      Analyzer
	queue   jobs.Publisher
	timeout time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time

	runs map[jobs.JobType]*run
}

// NewCoordinator wires the coordinator. Handle must be registered as the
// queue's job handler.
func NewCoordinator(store *ledger.Store, gw Analyzer, queue jobs.Publisher, timeout time.Duration, m *metrics.Metrics, log zerolog.Logger) *Coordinator {
	c := &Coordinator{
		ledger:  store,
		gw:      gw,
		queue:   queue,
		timeout: timeout,
		metrics: m,
		log:     log.With().Str("component", "analysis").Logger(),
		now:     time.Now,
		runs:    make(map[jobs.JobType]*run),
	}
	for _, kind := range []jobs.JobType{jobs.JobTypeRiskAssessment, jobs.JobTypeRecommendation} {
		c.runs[kind] = &run{status: Status{Kind: kind, State: StateIdle}}
	}
	return c
}

// Start snapshots the ledger and queues an analysis of the given kind.
// It returns the job ID, or ErrAnalysisPending while the kind is loading.
// Start is allowed from idle, error and success; a finished result is
// replaced by the new run.
func (c *Coordinator) Start(ctx context.Context, kind jobs.JobType) (string, error) {
	c.mu.Lock()
	r, ok := c.runs[kind]
	if !ok {
		c.mu.Unlock()
		return "", fmt.Errorf("Start: unknown analysis kind %q", kind)
	}
	if r.status.State == StateLoading {
		c.mu.Unlock()
		return "", ErrAnalysisPending
	}

	previous := r.status
	r.generation++
	job := &jobs.AnalysisJob{
		JobID:      uuid.NewString(),
		Type:       kind,
		Generation: r.generation,
		Payload:    c.ledger.Snapshot(),
	}
	started := c.now()
	r.status = Status{
		Kind:           kind,
		State:          StateLoading,
		JobID:          job.JobID,
		StartedAt:      &started,
		Recommendation: previous.Recommendation,
	}
	c.mu.Unlock()

	// Publish outside the lock: the worker needs c.mu to finish a job.
	if err := c.queue.Publish(ctx, job); err != nil {
		c.mu.Lock()
		if r.generation == job.Generation {
			r.status = previous
		}
		c.mu.Unlock()
		return "", fmt.Errorf("Start: publish job: %w", err)
	}

	c.log.Info().Str("kind", string(kind)).Str("job_id", job.JobID).Msg("Analysis started")
	return job.JobID, nil
}

// Cancel abandons the in-flight run of kind. Its late result is discarded.
// It reports whether a run was loading.
func (c *Coordinator) Cancel(kind jobs.JobType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.runs[kind]
	if !ok || r.status.State != StateLoading {
		return false
	}
	r.generation++
	r.status = Status{Kind: kind, State: StateIdle, Recommendation: r.status.Recommendation}
	c.log.Info().Str("kind", string(kind)).Msg("Analysis cancelled")
	return true
}

// Status returns the current state of kind.
func (c *Coordinator) Status(kind jobs.JobType) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.runs[kind]; ok {
		return r.status
	}
	return Status{Kind: kind, State: StateIdle}
}

// Handle runs one queued job. It is the queue's JobHandler.
func (c *Coordinator) Handle(ctx context.Context, job *jobs.AnalysisJob) error {
	snap, ok := job.Payload.(ledger.Snapshot)
	if !ok {
		return fmt.Errorf("Handle: job %s has no ledger snapshot", job.JobID)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	began := time.Now()

	switch job.Type {
	case jobs.JobTypeRiskAssessment:
		ra, err := c.gw.AssessRisk(callCtx, snap.Transactions, snap.Products)
		c.observe(job.Type, err, began)
		return c.finishRisk(ctx, job, ra, err)
	case jobs.JobTypeRecommendation:
		var err error
		text := c.gw.RecommendStrategy(callCtx, report.Summarize(snap.Transactions))
		if text == "" {
			err = &gateway.ServiceError{Op: "RecommendStrategy", Err: errors.New("no recommendation returned")}
			if !c.gw.Available() {
				err = gateway.ErrUnavailable
			}
		}
		c.observe(job.Type, err, began)
		return c.finishRecommendation(job, text, err)
	default:
		return fmt.Errorf("Handle: unknown job type %q", job.Type)
	}
}

func (c *Coordinator) observe(kind jobs.JobType, err error, began time.Time) {
	result := "success"
	if err != nil {
		result = gateway.ErrorKind(err)
	}
	c.metrics.AnalysisFinished(string(kind), result, time.Since(began).Seconds())
}

// current returns the run for job if the job is still the one in flight.
// Must be called with c.mu held.
func (c *Coordinator) current(job *jobs.AnalysisJob) *run {
	r := c.runs[job.Type]
	if r == nil || r.generation != job.Generation || r.status.State != StateLoading {
		c.log.Info().Str("job_id", job.JobID).Str("kind", string(job.Type)).Msg("Discarding stale analysis result")
		return nil
	}
	return r
}

func (c *Coordinator) finishRisk(ctx context.Context, job *jobs.AnalysisJob, ra *domain.RiskAssessment, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.current(job)
	if r == nil {
		return jobs.ErrDiscarded
	}
	if err != nil {
		c.fail(r, err)
		return err
	}

	c.ledger.SetRiskAssessment(ctx, *ra)
	c.succeed(r)
	c.log.Info().Float64("score", ra.OverallScore).Int("anomalies", len(ra.Anomalies)).Msg("Risk assessment stored")
	return nil
}

func (c *Coordinator) finishRecommendation(job *jobs.AnalysisJob, text string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.current(job)
	if r == nil {
		return jobs.ErrDiscarded
	}
	if err != nil {
		c.fail(r, err)
		return err
	}

	r.status.Recommendation = text
	c.succeed(r)
	return nil
}

func (c *Coordinator) succeed(r *run) {
	finished := c.now()
	r.status.State = StateSuccess
	r.status.ErrorKind = ""
	r.status.Message = ""
	r.status.FinishedAt = &finished
}

func (c *Coordinator) fail(r *run, err error) {
	finished := c.now()
	r.status.State = StateError
	r.status.ErrorKind = gateway.ErrorKind(err)
	r.status.Message = gateway.UserMessage(err)
	r.status.FinishedAt = &finished
	c.log.Warn().Err(err).Str("kind", string(r.status.Kind)).Msg("Analysis failed")
}
