// ABOUTME: Retrieval-augmented analysis runner over the security knowledge base.
// ABOUTME: Retrieves relevant passages, queries the generator, and best-effort decodes the structured block.

package runner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

const (
	ragConfidence   = 0.8
	retrievalTopK   = 5
	jsonBlockMarker = "```json"
)

// RAG combines knowledge-base retrieval with generative analysis.
type RAG struct {
	retriever providers.Retriever
	generator providers.Generator
	logger    *logrus.Logger
}

func NewRAG(retriever providers.Retriever, generator providers.Generator, logger *logrus.Logger) *RAG {
	return &RAG{retriever: retriever, generator: generator, logger: logger}
}

func (r *RAG) Kind() types.AnalysisKind {
	return types.KindRAG
}

func (r *RAG) Run(ctx context.Context, target *Target) types.SubResult {
	source := target.Source()

	query := "smart contract security vulnerabilities and mitigations for:\n" + codePrefix(source)
	passages, err := r.retriever.Query(ctx, query, retrievalTopK)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.Failure(types.KindRAG, types.ReasonTimeout, "retrieval timed out")
		}
		// Retrieval trouble degrades to an uncontextualized prompt rather
		// than failing the whole sub-analysis.
		r.logger.WithError(err).Warn("Knowledge base retrieval failed, continuing without context")
		passages = nil
	}

	response, err := r.generator.Generate(ctx, auditPrompt(target.Address, source, passages))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.Failure(types.KindRAG, types.ReasonTimeout, "generation timed out")
		}
		return types.Failure(types.KindRAG, types.ReasonServiceError, err.Error())
	}

	payload := ParseStructuredResponse(response)
	payload["retrieved_passages"] = len(passages)

	r.logger.WithFields(logrus.Fields{
		"address":  target.Address,
		"passages": len(passages),
	}).Debug("RAG analysis completed")

	return types.Success(types.KindRAG, payload, ragConfidence)
}

// ParseStructuredResponse extracts a ```json fenced block from generated
// text. Parse failure is never an error: the caller gets the raw text under
// raw_response instead.
func ParseStructuredResponse(response string) map[string]any {
	start := strings.Index(response, jsonBlockMarker)
	if start < 0 {
		return map[string]any{"raw_response": response}
	}

	rest := response[start+len(jsonBlockMarker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return map[string]any{"raw_response": response}
	}

	// A literal null decodes without error into a nil map; treat it as a
	// parse failure so callers can always write into the payload.
	var decoded map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &decoded); err != nil || decoded == nil {
		return map[string]any{
			"raw_response": response,
			"parse_error":  "failed to parse structured block",
		}
	}

	return decoded
}
