// ABOUTME: Uniform runner contract shared by the four sub-analyses.
// ABOUTME: Enforces per-runner timeouts and converts every failure into SubResult data.

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds one runner invocation. It must stay shorter than any
// caller-facing HTTP timeout so a slow collaborator degrades to a timeout
// failure instead of a hung request.
const DefaultTimeout = 60 * time.Second

// Target is the read-only context shared by all runners of one job.
type Target struct {
	Address  string
	Network  types.Network
	From     string
	Metadata *types.ContractMetadata
}

// Source returns the contract source code, or "" when unverified.
func (t *Target) Source() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata.Source
}

// Runner encapsulates one analysis concern. Run never panics past its
// boundary and never returns an error: all failure is represented in the
// SubResult.
type Runner interface {
	Kind() types.AnalysisKind
	Run(ctx context.Context, target *Target) types.SubResult
}

// Execute invokes a runner under its timeout, translating deadline expiry
// into a timeout failure. Deadline checks happen here so individual runners
// only need to pass ctx through to their collaborators.
func Execute(ctx context.Context, r Runner, target *Target, timeout time.Duration, logger *logrus.Logger) types.SubResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := r.Run(runCtx, target)

	if !result.OK && runCtx.Err() == context.DeadlineExceeded {
		result = types.Failure(r.Kind(), types.ReasonTimeout,
			fmt.Sprintf("analysis exceeded %s timeout", timeout))
	}

	logger.WithFields(logrus.Fields{
		"kind":     r.Kind(),
		"ok":       result.OK,
		"reason":   result.Reason,
		"duration": time.Since(start),
	}).Debug("Runner finished")

	return result
}
