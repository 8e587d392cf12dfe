// ABOUTME: Analysis orchestration engine coordinating the sub-analysis runners.
// ABOUTME: Fans out runners concurrently with failure isolation, merges results, and drives cache and job state.

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/cache"
	"github.com/tbraun92/contract-sentinel/internal/fingerprint"
	"github.com/tbraun92/contract-sentinel/internal/jobs"
	"github.com/tbraun92/contract-sentinel/internal/merge"
	"github.com/tbraun92/contract-sentinel/internal/metrics"
	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/runner"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

// Config holds configuration for the analysis engine.
type Config struct {
	Port            int
	CacheTTL        time.Duration
	RunnerTimeout   time.Duration
	AnalysisTimeout time.Duration
	MockMode        bool // Enable mock collaborators for local testing
}

// ReportArchiver persists completed reports outside the process. Archiving is
// best effort; the engine only logs failures.
type ReportArchiver interface {
	Store(ctx context.Context, fingerprint string, report *types.AnalysisReport) error
}

// Engine orchestrates contract analyses using the pluggable collaborators.
type Engine struct {
	simulator providers.Simulator
	retriever providers.Retriever
	generator providers.Generator
	metadata  providers.MetadataSource

	cache    *cache.ReportCache
	registry *jobs.Registry
	archiver ReportArchiver
	metrics  *metrics.Metrics
	config   *Config
	logger   *logrus.Logger
}

// NewEngine creates an analysis engine. archiver may be nil.
func NewEngine(
	simulator providers.Simulator,
	retriever providers.Retriever,
	generator providers.Generator,
	metadata providers.MetadataSource,
	registry *jobs.Registry,
	archiver ReportArchiver,
	m *metrics.Metrics,
	config *Config,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		simulator: simulator,
		retriever: retriever,
		generator: generator,
		metadata:  metadata,
		cache:     cache.NewReportCache(logger),
		registry:  registry,
		archiver:  archiver,
		metrics:   m,
		config:    config,
		logger:    logger,
	}
}

// Registry exposes the job registry for polling callers.
func (e *Engine) Registry() *jobs.Registry {
	return e.registry
}

// CachedReport returns the cached report for a fingerprint, or nil.
func (e *Engine) CachedReport(fp string) *types.AnalysisReport {
	return e.cache.Get(fp)
}

// Submit registers an analysis job and dispatches the orchestration run
// asynchronously. The job runs to completion even if the submitting client
// disconnects; polling is the only delivery channel.
func (e *Engine) Submit(request types.AnalysisRequest) (string, error) {
	jobID, err := e.registry.Submit(request)
	if err != nil {
		return "", err
	}

	go e.dispatch(jobID, request)

	return jobID, nil
}

func (e *Engine) dispatch(jobID string, request types.AnalysisRequest) {
	logger := e.logger.WithField("job_id", jobID)

	timeout := e.config.AnalysisTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	// Deliberately detached from any caller context: submitted jobs are not
	// cancelled by client disconnects.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	e.registry.MarkRunning(jobID)
	e.metrics.JobsInFlight.Inc()
	defer e.metrics.JobsInFlight.Dec()

	report := e.analyze(ctx, request, func(result types.SubResult) {
		e.registry.SetPartial(jobID, result)
	})

	if report.Incomplete {
		summary := failureSummary(report.SubAnalyses)
		e.registry.Fail(jobID, summary)
		e.metrics.JobsTotal.WithLabelValues("failed").Inc()
		logger.WithField("error", summary).Warn("Analysis job failed")
		return
	}

	e.registry.Complete(jobID, report)
	e.metrics.JobsTotal.WithLabelValues("completed").Inc()
	logger.WithFields(logrus.Fields{
		"risk_score":      report.OverallRiskScore,
		"vulnerabilities": report.Summary.Total,
	}).Info("Analysis job completed")
}

// Analyze runs one full analysis synchronously and returns the merged report.
// It is the cache-aware entry point used by dispatch and by embedding callers.
func (e *Engine) Analyze(ctx context.Context, request types.AnalysisRequest) (*types.AnalysisReport, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return e.analyze(ctx, request, nil), nil
}

func (e *Engine) analyze(ctx context.Context, request types.AnalysisRequest, record func(types.SubResult)) *types.AnalysisReport {
	logger := e.logger.WithFields(logrus.Fields{
		"address": request.ContractAddress,
		"network": request.Network,
	})

	meta := e.fetchMetadata(ctx, request)

	fp := e.fingerprintFor(request, meta)
	if cached := e.cache.Get(fp); cached != nil {
		e.metrics.CacheHits.Inc()
		logger.Debug("Serving analysis from report cache")
		return cached
	}
	e.metrics.CacheMisses.Inc()

	target := &runner.Target{
		Address:  request.ContractAddress,
		Network:  request.Network,
		From:     request.UserAddress,
		Metadata: meta,
	}

	results := e.runAll(ctx, e.resolveRunners(request, target), target, record)

	report := merge.Merge(request.ContractAddress, request.Network, results)

	// Never cache a report produced exclusively from failures; transient
	// collaborator outages must not be pinned for the TTL window.
	if !report.Incomplete {
		e.cache.Put(fp, report, e.config.CacheTTL)
		e.archive(fp, report)
	}

	return report
}

// resolveRunners maps the requested analysis kinds onto concrete runners.
// Static analysis brings the knowledge-base and gas runners along when
// verified source is available to feed them.
func (e *Engine) resolveRunners(request types.AnalysisRequest, target *runner.Target) []runner.Runner {
	var runners []runner.Runner

	if request.HasKind(types.KindStatic) {
		runners = append(runners, runner.NewStatic(e.logger))
		if target.Source() != "" {
			runners = append(runners,
				runner.NewRAG(e.retriever, e.generator, e.logger),
				runner.NewGas(e.generator, e.logger),
			)
		}
	}
	if request.HasKind(types.KindDynamic) {
		runners = append(runners, runner.NewDynamic(e.simulator, e.logger))
	}

	return runners
}

// runAll fans the runners out as independent goroutines and gathers their
// sub-results at the fan-in barrier. A panicking runner is recorded as an
// internal_error failure for its kind only; siblings are never disturbed.
func (e *Engine) runAll(ctx context.Context, runners []runner.Runner, target *runner.Target, record func(types.SubResult)) map[types.AnalysisKind]types.SubResult {
	results := make(map[types.AnalysisKind]types.SubResult, len(runners))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, r := range runners {
		wg.Add(1)
		go func(r runner.Runner) {
			defer wg.Done()

			start := time.Now()
			result := e.runIsolated(ctx, r, target)
			e.metrics.RunnerDuration.WithLabelValues(string(r.Kind())).Observe(time.Since(start).Seconds())
			if !result.OK {
				e.metrics.RunnerFailures.WithLabelValues(string(r.Kind()), string(result.Reason)).Inc()
			}

			mu.Lock()
			results[r.Kind()] = result
			mu.Unlock()

			if record != nil {
				record(result)
			}
		}(r)
	}

	wg.Wait()

	return results
}

// runIsolated executes one runner under its timeout with panic containment.
// By contract runners never panic, but an escape must cost only its own kind.
func (e *Engine) runIsolated(ctx context.Context, r runner.Runner, target *runner.Target) (result types.SubResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.WithFields(logrus.Fields{
				"kind":  r.Kind(),
				"panic": recovered,
			}).Error("Runner panicked")
			result = types.Failure(r.Kind(), types.ReasonInternalError, fmt.Sprintf("runner panic: %v", recovered))
		}
	}()

	return runner.Execute(ctx, r, target, e.config.RunnerTimeout, e.logger)
}

// fetchMetadata is best effort: an unreachable metadata source degrades to an
// unverified-contract analysis instead of failing the job.
func (e *Engine) fetchMetadata(ctx context.Context, request types.AnalysisRequest) *types.ContractMetadata {
	metaCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	meta, err := e.metadata.ContractMetadata(metaCtx, request.ContractAddress, request.Network)
	if err != nil {
		e.logger.WithError(err).WithField("address", request.ContractAddress).
			Warn("Contract metadata lookup failed, treating contract as unverified")
		return nil
	}
	return meta
}

func (e *Engine) fingerprintFor(request types.AnalysisRequest, meta *types.ContractMetadata) string {
	if meta != nil && meta.Source != "" {
		return fingerprint.Contract(request.ContractAddress, meta.Source)
	}
	return fingerprint.Request(request.ContractAddress, string(request.Network))
}

func (e *Engine) archive(fp string, report *types.AnalysisReport) {
	if e.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.archiver.Store(ctx, fp, report); err != nil {
			e.logger.WithError(err).WithField("fingerprint", fp).Warn("Report archiving failed")
		}
	}()
}

func failureSummary(results map[types.AnalysisKind]types.SubResult) string {
	summary := "all sub-analyses failed:"
	for kind, r := range results {
		if !r.OK {
			summary += fmt.Sprintf(" %s=%s", kind, r.Reason)
		}
	}
	if len(results) == 0 {
		summary = "no sub-analyses were runnable for this request"
	}
	return summary
}
