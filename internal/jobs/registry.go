// ABOUTME: In-memory registry tracking the lifecycle of submitted analysis jobs.
// ABOUTME: Supports concurrent mutation by the orchestrator and snapshot reads by polling clients.

package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned for lookups of unknown job ids.
var ErrNotFound = errors.New("job not found")

// Registry owns every job record for the lifetime of the process. Jobs are
// mutated only through Registry methods; Get hands out copies.
type Registry struct {
	mutex  sync.RWMutex
	jobs   map[string]*types.Job
	logger *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*types.Job),
		logger: logger,
	}
}

// Submit validates the request and creates a pending job. The orchestration
// run is dispatched by the caller; Submit itself returns immediately.
func (r *Registry) Submit(request types.AnalysisRequest) (string, error) {
	if err := request.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	job := &types.Job{
		ID:        uuid.New().String(),
		State:     types.JobPending,
		Request:   request,
		Partial:   make(map[types.AnalysisKind]types.SubResult),
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mutex.Lock()
	r.jobs[job.ID] = job
	r.mutex.Unlock()

	r.logger.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"address": request.ContractAddress,
		"network": request.Network,
	}).Info("Analysis job submitted")

	return job.ID, nil
}

// Get returns a snapshot of the job, safe to read while the orchestration
// task keeps mutating the underlying record.
func (r *Registry) Get(id string) (types.Job, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return types.Job{}, ErrNotFound
	}

	snapshot := *job
	snapshot.Partial = make(map[types.AnalysisKind]types.SubResult, len(job.Partial))
	for k, v := range job.Partial {
		snapshot.Partial[k] = v
	}

	return snapshot, nil
}

// MarkRunning transitions a job to in_progress.
func (r *Registry) MarkRunning(id string) {
	r.update(id, func(j *types.Job) {
		j.State = types.JobInProgress
	})
}

// SetPartial records one runner's raw sub-result as it lands.
func (r *Registry) SetPartial(id string, result types.SubResult) {
	r.update(id, func(j *types.Job) {
		j.Partial[result.Kind] = result
	})
}

// Complete attaches the final report and marks the job completed.
func (r *Registry) Complete(id string, report *types.AnalysisReport) {
	r.update(id, func(j *types.Job) {
		j.State = types.JobCompleted
		j.Report = report
	})
}

// Fail marks the job failed with an aggregate error message.
func (r *Registry) Fail(id string, message string) {
	r.update(id, func(j *types.Job) {
		j.State = types.JobFailed
		j.Error = message
	})
}

func (r *Registry) update(id string, mutate func(*types.Job)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()
}

// Len reports the number of retained job records.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.jobs)
}
