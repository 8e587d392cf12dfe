// ABOUTME: Common types shared across the Contract Sentinel system.
// ABOUTME: Defines data structures for analysis requests, findings, sub-results, and reports.

package types

import (
	"fmt"
	"regexp"
	"time"
)

// AnalysisKind identifies one sub-analysis concern.
type AnalysisKind string

const (
	KindStatic  AnalysisKind = "static"
	KindDynamic AnalysisKind = "dynamic"
	KindRAG     AnalysisKind = "rag"
	KindGas     AnalysisKind = "gas"
)

// RequestableKinds are the kinds a client may ask for directly. The rag and
// gas runners are launched alongside static analysis when source is available.
var RequestableKinds = map[AnalysisKind]bool{
	KindStatic:  true,
	KindDynamic: true,
}

// Network identifies a supported chain.
type Network string

const (
	NetworkEthereum  Network = "ethereum"
	NetworkGoerli    Network = "goerli"
	NetworkPolygon   Network = "polygon"
	NetworkArbitrum  Network = "arbitrum"
	NetworkOptimism  Network = "optimism"
	NetworkBSC       Network = "bsc"
	NetworkAvalanche Network = "avalanche"
	NetworkFantom    Network = "fantom"
)

// SupportedNetworks maps each network to its numeric chain ID.
var SupportedNetworks = map[Network]int{
	NetworkEthereum:  1,
	NetworkGoerli:    5,
	NetworkPolygon:   137,
	NetworkArbitrum:  42161,
	NetworkOptimism:  10,
	NetworkBSC:       56,
	NetworkAvalanche: 43114,
	NetworkFantom:    250,
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// AnalysisRequest describes one contract analysis submission. Immutable once
// accepted by the job registry.
type AnalysisRequest struct {
	ContractAddress string         `json:"contract_address"`
	Network         Network        `json:"network"`
	Kinds           []AnalysisKind `json:"analysis_kinds"`
	UserAddress     string         `json:"user_address,omitempty"`
}

// Validate rejects malformed requests before a job record is ever created.
func (r *AnalysisRequest) Validate() error {
	if !addressPattern.MatchString(r.ContractAddress) {
		return fmt.Errorf("invalid contract address: %q", r.ContractAddress)
	}
	if _, ok := SupportedNetworks[r.Network]; !ok {
		return fmt.Errorf("unsupported network: %q", r.Network)
	}
	if len(r.Kinds) == 0 {
		return fmt.Errorf("analysis_kinds must not be empty")
	}
	for _, k := range r.Kinds {
		if !RequestableKinds[k] {
			return fmt.Errorf("unsupported analysis kind: %q", k)
		}
	}
	if r.UserAddress != "" && !addressPattern.MatchString(r.UserAddress) {
		return fmt.Errorf("invalid user address: %q", r.UserAddress)
	}
	return nil
}

// HasKind reports whether the request asks for the given analysis kind.
func (r *AnalysisRequest) HasKind(kind AnalysisKind) bool {
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Severity of a vulnerability finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities for sorting; lower rank sorts first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Vulnerability represents a single security finding.
type Vulnerability struct {
	Title          string   `json:"title"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Location       string   `json:"location,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	Category       string   `json:"category,omitempty"`
	CWE            string   `json:"cwe,omitempty"`
	SWC            string   `json:"swc,omitempty"`
}

// FailureReason classifies why a runner could not complete its job.
type FailureReason string

const (
	ReasonTimeout       FailureReason = "timeout"
	ReasonServiceError  FailureReason = "service_error"
	ReasonInternalError FailureReason = "internal_error"
)

// SubResult is the tagged outcome of one runner invocation. Runner failure is
// data, never a propagated error: OK=false carries a Reason instead of a
// payload. A reverted simulation is still OK=true with status details in the
// payload, since the runner itself completed its job.
type SubResult struct {
	Kind       AnalysisKind   `json:"kind"`
	OK         bool           `json:"ok"`
	Payload    map[string]any `json:"payload,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Reason     FailureReason  `json:"reason,omitempty"`
	Detail     string         `json:"detail,omitempty"`
}

// Success builds an OK sub-result for a kind.
func Success(kind AnalysisKind, payload map[string]any, confidence float64) SubResult {
	return SubResult{Kind: kind, OK: true, Payload: payload, Confidence: confidence}
}

// Failure builds a failed sub-result for a kind.
func Failure(kind AnalysisKind, reason FailureReason, detail string) SubResult {
	return SubResult{Kind: kind, Reason: reason, Detail: detail}
}

// SeveritySummary tallies deduplicated findings per severity bucket.
type SeveritySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// AnalysisReport is the merged, user-facing output of one completed analysis.
// Immutable once produced by the merger.
type AnalysisReport struct {
	Timestamp        time.Time                  `json:"timestamp"`
	ContractAddress  string                     `json:"contract_address"`
	Network          Network                    `json:"network"`
	OverallRiskScore float64                    `json:"overall_risk_score"`
	Vulnerabilities  []Vulnerability            `json:"vulnerabilities"`
	Recommendations  []string                   `json:"recommendations"`
	ConfidenceScore  float64                    `json:"confidence_score"`
	SubAnalyses      map[AnalysisKind]SubResult `json:"sub_analyses"`
	Summary          SeveritySummary            `json:"summary"`
	Incomplete       bool                       `json:"analysis_incomplete,omitempty"`
}

// JobState tracks the lifecycle of a submitted analysis.
type JobState string

const (
	JobPending    JobState = "pending"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Job is one submitted analysis request and its current state. Owned by the
// job registry; callers only ever see snapshot copies.
type Job struct {
	ID        string                     `json:"id"`
	State     JobState                   `json:"state"`
	Request   AnalysisRequest            `json:"request"`
	Partial   map[AnalysisKind]SubResult `json:"partial_results,omitempty"`
	Report    *AnalysisReport            `json:"report,omitempty"`
	Error     string                     `json:"error,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// ContractMetadata is what the metadata source knows about a deployed contract.
type ContractMetadata struct {
	Name            string `json:"name"`
	CompilerVersion string `json:"compiler_version"`
	IsVerified      bool   `json:"is_verified"`
	Source          string `json:"source,omitempty"`
}
