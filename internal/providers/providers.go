// ABOUTME: Collaborator interfaces consumed by the analysis runners.
// ABOUTME: Defines contracts for simulation, retrieval, text generation, and contract metadata.

package providers

import (
	"context"
	"errors"

	"github.com/tbraun92/contract-sentinel/internal/types"
)

// ErrServiceUnavailable marks transport or service failures talking to an
// external collaborator, as opposed to expected domain outcomes such as a
// reverted transaction.
var ErrServiceUnavailable = errors.New("collaborator service unavailable")

// SimulationRequest holds the transaction parameters for one simulation.
type SimulationRequest struct {
	From    string
	To      string
	Value   string
	Data    string
	Gas     int64
	Network types.Network
}

// SimulationResult is what the simulation service reports back. A reverted
// transaction is Status=false with Error filled in, not a Go error.
type SimulationResult struct {
	Status  bool             `json:"status"`
	GasUsed int64            `json:"gas_used"`
	Logs    []map[string]any `json:"logs,omitempty"`
	Trace   []map[string]any `json:"trace,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Simulator abstracts the remote transaction-simulation service.
type Simulator interface {
	Name() string
	Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error)
}

// Passage is one retrieved chunk from the security knowledge base.
type Passage struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// Retriever abstracts the embedding/vector-similarity store.
type Retriever interface {
	Name() string
	Query(ctx context.Context, text string, k int) ([]Passage, error)
}

// Generator abstracts the generative-language backend. Calls can take
// seconds; callers always invoke it through a runner with its own timeout.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// MetadataSource abstracts the contract-metadata/verified-source lookup.
type MetadataSource interface {
	Name() string
	ContractMetadata(ctx context.Context, address string, network types.Network) (*types.ContractMetadata, error)
}
