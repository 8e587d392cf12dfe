// ABOUTME: Mock collaborators for local testing and development.
// ABOUTME: Provides deterministic simulation, retrieval, generation, and metadata without external services.

package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

// Simulator implements the Simulator interface with deterministic results
// derived from the target address, so mock mode behaves reproducibly.
type Simulator struct {
	logger *logrus.Logger
}

func NewSimulator(logger *logrus.Logger) *Simulator {
	return &Simulator{logger: logger}
}

func (s *Simulator) Name() string {
	return "mock-simulator"
}

func (s *Simulator) Simulate(ctx context.Context, req providers.SimulationRequest) (*providers.SimulationResult, error) {
	s.logger.WithField("to", req.To).Debug("Running mock simulation")

	// Addresses ending in "dead" simulate a revert; everything else succeeds.
	if strings.HasSuffix(strings.ToLower(req.To), "dead") {
		return &providers.SimulationResult{
			Status:  false,
			GasUsed: 0,
			Error:   "execution reverted: mock revert",
		}, nil
	}

	gas := int64(21000)
	if req.Data != "" && req.Data != "0x" {
		gas = 51234
	}

	return &providers.SimulationResult{
		Status:  true,
		GasUsed: gas,
		Logs:    []map[string]any{},
	}, nil
}

// knowledgeSeed is a small built-in security knowledge base used by the mock
// retriever: common vulnerability classes with severity and mitigation.
var knowledgeSeed = []providers.Passage{
	{
		Content:  "Reentrancy Attack: occurs when external calls are made before state changes. Mitigation: use checks-effects-interactions pattern or reentrancy guards.",
		Metadata: map[string]string{"category": "reentrancy", "severity": "high"},
		Score:    0.95,
	},
	{
		Content:  "Integer Overflow/Underflow: arithmetic operations that exceed variable limits. Mitigation: use SafeMath library or Solidity 0.8+ built-in checks.",
		Metadata: map[string]string{"category": "arithmetic", "severity": "high"},
		Score:    0.9,
	},
	{
		Content:  "Access Control Issues: missing or improper access controls on privileged functions. Mitigation: implement proper role-based access control.",
		Metadata: map[string]string{"category": "access_control", "severity": "critical"},
		Score:    0.88,
	},
	{
		Content:  "Unchecked External Calls: external calls without proper error handling. Mitigation: always check return values of external calls.",
		Metadata: map[string]string{"category": "unchecked_call", "severity": "medium"},
		Score:    0.82,
	},
	{
		Content:  "Denial of Service: functions that can be blocked by malicious actors. Mitigation: implement withdrawal pattern and gas limit considerations.",
		Metadata: map[string]string{"category": "dos", "severity": "medium"},
		Score:    0.78,
	},
}

// Retriever serves the built-in knowledge seed, preferring passages whose
// category appears in the query text.
type Retriever struct {
	logger *logrus.Logger
}

func NewRetriever(logger *logrus.Logger) *Retriever {
	return &Retriever{logger: logger}
}

func (r *Retriever) Name() string {
	return "mock-retriever"
}

func (r *Retriever) Query(ctx context.Context, text string, k int) ([]providers.Passage, error) {
	lower := strings.ToLower(text)

	var matched, rest []providers.Passage
	for _, p := range knowledgeSeed {
		if strings.Contains(lower, p.Metadata["category"]) {
			matched = append(matched, p)
		} else {
			rest = append(rest, p)
		}
	}

	results := append(matched, rest...)
	if k > 0 && len(results) > k {
		results = results[:k]
	}

	r.logger.WithField("results", len(results)).Debug("Mock retrieval query completed")
	return results, nil
}

// Generator returns canned structured analyses so the parse path gets
// exercised end to end in mock mode.
type Generator struct {
	logger *logrus.Logger
}

func NewGenerator(logger *logrus.Logger) *Generator {
	return &Generator{logger: logger}
}

func (g *Generator) Name() string {
	return "mock-generator"
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.WithField("prompt_len", len(prompt)).Debug("Generating mock completion")

	if strings.Contains(strings.ToLower(prompt), "gas optimization") {
		return "Gas review follows.\n```json\n" +
			`{"optimizations": ["Pack struct variables to minimize storage slots", "Cache array length outside loops"], "estimated_savings": "~4200 gas"}` +
			"\n```\n", nil
	}

	return "Security assessment follows.\n```json\n" +
		`{"assessment": "no critical issues identified in retrieved context", "recommendations": ["Keep compiler version up to date"]}` +
		"\n```\n", nil
}

// MetadataSource fabricates contract metadata: addresses containing "00"
// count as verified and get a small ERC-20 style source body.
type MetadataSource struct {
	logger *logrus.Logger
}

func NewMetadataSource(logger *logrus.Logger) *MetadataSource {
	return &MetadataSource{logger: logger}
}

func (m *MetadataSource) Name() string {
	return "mock-metadata"
}

const mockSource = `pragma solidity ^0.8.0;

contract MockToken {
    mapping(address => uint256) balances;

    function transfer(address to, uint256 amount) external returns (bool) {
        balances[msg.sender] -= amount;
        balances[to] += amount;
        return true;
    }
}
`

func (m *MetadataSource) ContractMetadata(ctx context.Context, address string, network types.Network) (*types.ContractMetadata, error) {
	if !strings.Contains(strings.ToLower(address), "00") {
		return &types.ContractMetadata{IsVerified: false}, nil
	}

	return &types.ContractMetadata{
		Name:            fmt.Sprintf("MockToken_%s", address[2:6]),
		CompilerVersion: "v0.8.24",
		IsVerified:      true,
		Source:          mockSource,
	}, nil
}
