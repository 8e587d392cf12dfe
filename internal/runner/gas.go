// ABOUTME: Gas optimization analysis through the generative-text collaborator.
// ABOUTME: Uses a dedicated optimization prompt and the shared structured-block decoding.

package runner

import (
	"context"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

const gasConfidence = 0.75

// Gas asks the generator to identify optimization opportunities.
type Gas struct {
	generator providers.Generator
	logger    *logrus.Logger
}

func NewGas(generator providers.Generator, logger *logrus.Logger) *Gas {
	return &Gas{generator: generator, logger: logger}
}

func (g *Gas) Kind() types.AnalysisKind {
	return types.KindGas
}

func (g *Gas) Run(ctx context.Context, target *Target) types.SubResult {
	response, err := g.generator.Generate(ctx, gasPrompt(target.Source()))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.Failure(types.KindGas, types.ReasonTimeout, "generation timed out")
		}
		return types.Failure(types.KindGas, types.ReasonServiceError, err.Error())
	}

	g.logger.WithField("address", target.Address).Debug("Gas analysis completed")

	return types.Success(types.KindGas, ParseStructuredResponse(response), gasConfidence)
}
